package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vk93102/clm-backend/internal/rules"
)

type Quorum string

const (
	QuorumAny Quorum = "ANY"
	QuorumAll Quorum = "ALL"
)

// ApproverSpec is either a literal actor UUID or a "role:<name>" token that
// expands to every active actor holding that role at materialization time.
type ApproverSpec string

const rolePrefix = "role:"

func (s ApproverSpec) IsRole() bool {
	return strings.HasPrefix(string(s), rolePrefix)
}

// Role returns the role name for a role spec, or "" for a direct actor spec.
func (s ApproverSpec) Role() string {
	if !s.IsRole() {
		return ""
	}
	return strings.TrimPrefix(string(s), rolePrefix)
}

// ActorID parses a direct actor spec. Returns uuid.Nil for role specs and
// unparseable values.
func (s ApproverSpec) ActorID() uuid.UUID {
	if s.IsRole() {
		return uuid.Nil
	}
	id, err := uuid.Parse(string(s))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// StageSpec is an ordered, immutable step embedded in a WorkflowDefinition.
// Stages are values, not rows; instances reference them by sequence number.
type StageSpec struct {
	Sequence  int            `json:"sequence"`
	StageName string         `json:"stage_name"`
	Approvers []ApproverSpec `json:"approvers"`
	Quorum    Quorum         `json:"quorum"`
	SLAHours  int            `json:"sla_hours"`
	Required  bool           `json:"required"`
}

type WorkflowDefinition struct {
	ID                uuid.UUID
	TenantID          uuid.UUID
	Name              string
	Description       string
	ContractTypes     []string // empty = matches all types
	TriggerConditions []rules.Condition
	Stages            []StageSpec
	Priority          int
	IsActive          bool
	CreatedBy         uuid.UUID
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ValidateStages checks the stage document at definition-save time so a bad
// configuration is rejected up front rather than discovered in StartWorkflow.
// Sequences must be unique and strictly increasing, every stage needs a name,
// at least one approver, a known quorum token and a positive SLA.
func ValidateStages(stages []StageSpec) error {
	if len(stages) == 0 {
		return fmt.Errorf("at least one stage required: %w", ErrMalformedStageSpec)
	}

	prevSeq := 0
	for i, st := range stages {
		if st.Sequence <= 0 {
			return fmt.Errorf("stage %d: sequence must be positive: %w", i, ErrMalformedStageSpec)
		}
		if i > 0 && st.Sequence <= prevSeq {
			return fmt.Errorf("stage %d: sequence %d not increasing: %w", i, st.Sequence, ErrMalformedStageSpec)
		}
		prevSeq = st.Sequence

		if strings.TrimSpace(st.StageName) == "" {
			return fmt.Errorf("stage %d: stage_name required: %w", i, ErrMalformedStageSpec)
		}
		if len(st.Approvers) == 0 {
			return fmt.Errorf("stage %q: at least one approver required: %w", st.StageName, ErrMalformedStageSpec)
		}
		for _, a := range st.Approvers {
			if a.IsRole() {
				if a.Role() == "" {
					return fmt.Errorf("stage %q: empty role token: %w", st.StageName, ErrMalformedStageSpec)
				}
				continue
			}
			if a.ActorID() == uuid.Nil {
				return fmt.Errorf("stage %q: approver %q is neither a UUID nor role:<name>: %w", st.StageName, a, ErrMalformedStageSpec)
			}
		}
		if st.Quorum != QuorumAny && st.Quorum != QuorumAll {
			return fmt.Errorf("stage %q: quorum must be ANY or ALL: %w", st.StageName, ErrMalformedStageSpec)
		}
		if st.SLAHours <= 0 {
			return fmt.Errorf("stage %q: sla_hours must be positive: %w", st.StageName, ErrMalformedStageSpec)
		}
	}

	return nil
}

// FirstStage returns the lowest-sequence stage. Callers must have validated
// the definition; an empty stage list yields the zero value.
func (d *WorkflowDefinition) FirstStage() StageSpec {
	if len(d.Stages) == 0 {
		return StageSpec{}
	}
	first := d.Stages[0]
	for _, st := range d.Stages[1:] {
		if st.Sequence < first.Sequence {
			first = st
		}
	}
	return first
}

// NextStage returns the stage with the smallest sequence strictly greater
// than afterSeq, or false when afterSeq is the last stage.
func (d *WorkflowDefinition) NextStage(afterSeq int) (StageSpec, bool) {
	var next StageSpec
	found := false
	for _, st := range d.Stages {
		if st.Sequence <= afterSeq {
			continue
		}
		if !found || st.Sequence < next.Sequence {
			next = st
			found = true
		}
	}
	return next, found
}

// Stage returns the stage with the given sequence number.
func (d *WorkflowDefinition) Stage(seq int) (StageSpec, bool) {
	for _, st := range d.Stages {
		if st.Sequence == seq {
			return st, true
		}
	}
	return StageSpec{}, false
}

type WorkflowDefinitionRepository interface {
	Create(ctx context.Context, d *WorkflowDefinition) error
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*WorkflowDefinition, error)
	// ListActive returns active definitions ordered by (priority DESC,
	// created_at DESC). The matcher relies on this ordering for
	// deterministic selection.
	ListActive(ctx context.Context, tenantID uuid.UUID) ([]*WorkflowDefinition, error)
	List(ctx context.Context, tenantID uuid.UUID) ([]*WorkflowDefinition, error)
	Update(ctx context.Context, d *WorkflowDefinition) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
