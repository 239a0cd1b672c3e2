// Package rules evaluates the trigger-condition DSL against an in-memory
// field map. The evaluator is a pure function with no I/O; a malformed or
// type-mismatched condition never panics; it evaluates false and is
// reported through the warning side channel so one bad rule cannot abort
// matching for a whole tenant.
package rules

import (
	"fmt"
	"strings"
)

type Operator string

const (
	OpEq       Operator = "eq"
	OpGte      Operator = "gte"
	OpLte      Operator = "lte"
	OpGt       Operator = "gt"
	OpLt       Operator = "lt"
	OpIn       Operator = "in"
	OpContains Operator = "contains"
)

// KnownOperator reports whether op is part of the DSL.
func KnownOperator(op Operator) bool {
	switch op {
	case OpEq, OpGte, OpLte, OpGt, OpLt, OpIn, OpContains:
		return true
	default:
		return false
	}
}

// Condition is one field/operator/value triple. A condition list is
// AND-combined; an empty list is an unconditional match.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Fields is the record a condition list is evaluated against.
type Fields map[string]any

// Warning describes a condition that could not be evaluated and was
// treated as non-matching.
type Warning struct {
	Condition Condition
	Reason    string
}

func (w Warning) String() string {
	return fmt.Sprintf("condition %s %s %v: %s", w.Condition.Field, w.Condition.Operator, w.Condition.Value, w.Reason)
}

// Evaluate returns true when every condition matches the record. Warnings
// are discarded; use EvaluateWarn when the caller wants to log them.
func Evaluate(conds []Condition, rec Fields) bool {
	ok, _ := EvaluateWarn(conds, rec)
	return ok
}

// EvaluateWarn evaluates all conditions and collects a warning for each one
// that failed due to a missing field, unknown operator or type mismatch.
func EvaluateWarn(conds []Condition, rec Fields) (bool, []Warning) {
	result := true
	var warnings []Warning

	for _, c := range conds {
		ok, warn := evalOne(c, rec)
		if warn != nil {
			warnings = append(warnings, *warn)
		}
		if !ok {
			// Keep evaluating so every malformed condition is reported.
			result = false
		}
	}

	return result, warnings
}

func evalOne(c Condition, rec Fields) (bool, *Warning) {
	if !KnownOperator(c.Operator) {
		return false, &Warning{Condition: c, Reason: "unknown operator"}
	}

	got, present := rec[c.Field]
	if !present || got == nil {
		// A missing field never matches a comparison operator. Not a
		// warning: absent fields are a legitimate non-match.
		return false, nil
	}

	switch c.Operator {
	case OpEq:
		return evalEq(c, got)
	case OpGte, OpLte, OpGt, OpLt:
		return evalOrdered(c, got)
	case OpIn:
		return evalIn(c, got)
	case OpContains:
		return evalContains(c, got)
	default:
		return false, &Warning{Condition: c, Reason: "unknown operator"}
	}
}

func evalEq(c Condition, got any) (bool, *Warning) {
	// Numbers compare numerically so a JSON 100000 matches an int64 field.
	gn, gok := toFloat(got)
	wn, wok := toFloat(c.Value)
	if gok && wok {
		return gn == wn, nil
	}

	gs, gok := got.(string)
	ws, wok := c.Value.(string)
	if gok && wok {
		return gs == ws, nil
	}

	gb, gok := got.(bool)
	wb, wok := c.Value.(bool)
	if gok && wok {
		return gb == wb, nil
	}

	return false, &Warning{Condition: c, Reason: fmt.Sprintf("incomparable types %T and %T", got, c.Value)}
}

func evalOrdered(c Condition, got any) (bool, *Warning) {
	gn, gok := toFloat(got)
	wn, wok := toFloat(c.Value)
	if gok && wok {
		return applyOrder(c.Operator, compareFloat(gn, wn)), nil
	}

	gs, gok := got.(string)
	ws, wok := c.Value.(string)
	if gok && wok {
		return applyOrder(c.Operator, strings.Compare(gs, ws)), nil
	}

	return false, &Warning{Condition: c, Reason: fmt.Sprintf("cannot order %T against %T", got, c.Value)}
}

func applyOrder(op Operator, cmp int) bool {
	switch op {
	case OpGte:
		return cmp >= 0
	case OpLte:
		return cmp <= 0
	case OpGt:
		return cmp > 0
	case OpLt:
		return cmp < 0
	default:
		return false
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func evalIn(c Condition, got any) (bool, *Warning) {
	members, ok := toSlice(c.Value)
	if !ok {
		return false, &Warning{Condition: c, Reason: fmt.Sprintf("in operator needs a list value, got %T", c.Value)}
	}

	for _, m := range members {
		if eq, _ := evalEq(Condition{Field: c.Field, Operator: OpEq, Value: m}, got); eq {
			return true, nil
		}
	}

	return false, nil
}

func evalContains(c Condition, got any) (bool, *Warning) {
	// String field: substring match.
	if gs, ok := got.(string); ok {
		ws, wok := c.Value.(string)
		if !wok {
			return false, &Warning{Condition: c, Reason: fmt.Sprintf("contains on string field needs a string value, got %T", c.Value)}
		}
		return strings.Contains(gs, ws), nil
	}

	// List field: membership.
	if members, ok := toSlice(got); ok {
		for _, m := range members {
			if eq, _ := evalEq(Condition{Field: c.Field, Operator: OpEq, Value: c.Value}, m); eq {
				return true, nil
			}
		}
		return false, nil
	}

	return false, &Warning{Condition: c, Reason: fmt.Sprintf("contains not applicable to %T", got)}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []float64:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	case []int:
		out := make([]any, len(s))
		for i, e := range s {
			out[i] = e
		}
		return out, true
	default:
		return nil, false
	}
}
