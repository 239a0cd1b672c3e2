package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrMalformedDocument is returned when a condition document cannot be
// decoded into a condition list.
var ErrMalformedDocument = errors.New("rules: malformed condition document")

// ParseConditionDoc decodes a persisted trigger-condition document. Two
// shapes are accepted:
//
//	[{"field":"contract_value","operator":"gte","value":100000}, ...]
//	{"contract_value__gte":100000, "contract_type":"MSA"}
//
// The flat-dict shape is the legacy format: a "field__op" key carries an
// explicit operator, a bare "field" key means eq. Flat-dict conditions are
// sorted by field name so the decoded order is deterministic.
func ParseConditionDoc(raw []byte) ([]Condition, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	if strings.HasPrefix(trimmed, "[") {
		return parseConditionList(raw)
	}
	if strings.HasPrefix(trimmed, "{") {
		return parseFlatDict(raw)
	}

	return nil, fmt.Errorf("expected JSON array or object: %w", ErrMalformedDocument)
}

func parseConditionList(raw []byte) ([]Condition, error) {
	var conds []Condition
	if err := json.Unmarshal(raw, &conds); err != nil {
		return nil, fmt.Errorf("%s: %w", err, ErrMalformedDocument)
	}

	for i, c := range conds {
		if c.Field == "" {
			return nil, fmt.Errorf("condition %d: field required: %w", i, ErrMalformedDocument)
		}
		if c.Operator == "" {
			conds[i].Operator = OpEq
			continue
		}
		if !KnownOperator(c.Operator) {
			return nil, fmt.Errorf("condition %d: unknown operator %q: %w", i, c.Operator, ErrMalformedDocument)
		}
	}

	return conds, nil
}

func parseFlatDict(raw []byte) ([]Condition, error) {
	var dict map[string]any
	if err := json.Unmarshal(raw, &dict); err != nil {
		return nil, fmt.Errorf("%s: %w", err, ErrMalformedDocument)
	}

	keys := make([]string, 0, len(dict))
	for k := range dict {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	conds := make([]Condition, 0, len(dict))
	for _, key := range keys {
		field, op, err := splitFieldKey(key)
		if err != nil {
			return nil, err
		}
		conds = append(conds, Condition{Field: field, Operator: op, Value: dict[key]})
	}

	return conds, nil
}

// splitFieldKey splits a legacy "field__op" lookup key. A key without the
// "__" separator is an implicit eq.
func splitFieldKey(key string) (string, Operator, error) {
	idx := strings.LastIndex(key, "__")
	if idx < 0 {
		if key == "" {
			return "", "", fmt.Errorf("empty field key: %w", ErrMalformedDocument)
		}
		return key, OpEq, nil
	}

	field, suffix := key[:idx], key[idx+2:]
	if field == "" {
		return "", "", fmt.Errorf("key %q: empty field: %w", key, ErrMalformedDocument)
	}

	op := Operator(suffix)
	if !KnownOperator(op) {
		return "", "", fmt.Errorf("key %q: unknown operator %q: %w", key, suffix, ErrMalformedDocument)
	}

	return field, op, nil
}

// MarshalConditionDoc serializes conditions in the explicit array shape.
func MarshalConditionDoc(conds []Condition) ([]byte, error) {
	if len(conds) == 0 {
		return []byte("[]"), nil
	}
	out, err := json.Marshal(conds)
	if err != nil {
		return nil, fmt.Errorf("rules.MarshalConditionDoc: %w", err)
	}
	return out, nil
}
