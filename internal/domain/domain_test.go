package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk93102/clm-backend/internal/domain"
)

func validStages() []domain.StageSpec {
	return []domain.StageSpec{
		{Sequence: 1, StageName: "Legal Review", Approvers: []domain.ApproverSpec{"role:legal"}, Quorum: domain.QuorumAll, SLAHours: 48, Required: true},
		{Sequence: 2, StageName: "Finance Review", Approvers: []domain.ApproverSpec{domain.ApproverSpec(uuid.NewString())}, Quorum: domain.QuorumAny, SLAHours: 24, Required: true},
	}
}

func TestInstanceStatus_ValidTransition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to domain.InstanceStatus
		want     bool
	}{
		{domain.InstanceStatusActive, domain.InstanceStatusCompleted, true},
		{domain.InstanceStatusActive, domain.InstanceStatusRejected, true},
		{domain.InstanceStatusActive, domain.InstanceStatusCancelled, true},
		{domain.InstanceStatusActive, domain.InstanceStatusPaused, true},
		{domain.InstanceStatusPaused, domain.InstanceStatusActive, true},
		{domain.InstanceStatusPaused, domain.InstanceStatusCancelled, true},
		{domain.InstanceStatusPaused, domain.InstanceStatusCompleted, false},
		{domain.InstanceStatusCompleted, domain.InstanceStatusActive, false},
		{domain.InstanceStatusRejected, domain.InstanceStatusActive, false},
		{domain.InstanceStatusCancelled, domain.InstanceStatusActive, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.ValidTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestInstanceStatus_Terminal(t *testing.T) {
	t.Parallel()

	assert.False(t, domain.InstanceStatusActive.Terminal())
	assert.False(t, domain.InstanceStatusPaused.Terminal())
	assert.True(t, domain.InstanceStatusCompleted.Terminal())
	assert.True(t, domain.InstanceStatusRejected.Terminal())
	assert.True(t, domain.InstanceStatusCancelled.Terminal())
}

func TestValidateStages(t *testing.T) {
	t.Parallel()

	t.Run("valid document accepted", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, domain.ValidateStages(validStages()))
	})

	mutations := []struct {
		name   string
		mutate func([]domain.StageSpec) []domain.StageSpec
	}{
		{"empty stage list", func([]domain.StageSpec) []domain.StageSpec { return nil }},
		{"duplicate sequence", func(s []domain.StageSpec) []domain.StageSpec { s[1].Sequence = s[0].Sequence; return s }},
		{"decreasing sequence", func(s []domain.StageSpec) []domain.StageSpec { s[1].Sequence = 0; return s }},
		{"non-positive sequence", func(s []domain.StageSpec) []domain.StageSpec { s[0].Sequence = 0; return s }},
		{"blank stage name", func(s []domain.StageSpec) []domain.StageSpec { s[0].StageName = "  "; return s }},
		{"no approvers", func(s []domain.StageSpec) []domain.StageSpec { s[0].Approvers = nil; return s }},
		{"empty role token", func(s []domain.StageSpec) []domain.StageSpec { s[0].Approvers = []domain.ApproverSpec{"role:"}; return s }},
		{"garbage approver", func(s []domain.StageSpec) []domain.StageSpec { s[0].Approvers = []domain.ApproverSpec{"bob"}; return s }},
		{"bad quorum", func(s []domain.StageSpec) []domain.StageSpec { s[0].Quorum = "MOST"; return s }},
		{"zero sla", func(s []domain.StageSpec) []domain.StageSpec { s[0].SLAHours = 0; return s }},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := domain.ValidateStages(tt.mutate(validStages()))

			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrMalformedStageSpec)
		})
	}
}

func TestWorkflowDefinition_StageNavigation(t *testing.T) {
	t.Parallel()

	def := &domain.WorkflowDefinition{Stages: []domain.StageSpec{
		{Sequence: 5, StageName: "Exec"},
		{Sequence: 1, StageName: "Legal"},
		{Sequence: 3, StageName: "Finance"},
	}}

	assert.Equal(t, "Legal", def.FirstStage().StageName)

	next, ok := def.NextStage(1)
	require.True(t, ok)
	assert.Equal(t, "Finance", next.StageName)

	next, ok = def.NextStage(3)
	require.True(t, ok)
	assert.Equal(t, "Exec", next.StageName)

	_, ok = def.NextStage(5)
	assert.False(t, ok)
}

func TestApproverSpec(t *testing.T) {
	t.Parallel()

	id := uuid.New()

	direct := domain.ApproverSpec(id.String())
	assert.False(t, direct.IsRole())
	assert.Equal(t, id, direct.ActorID())

	role := domain.ApproverSpec("role:legal")
	assert.True(t, role.IsRole())
	assert.Equal(t, "legal", role.Role())
	assert.Equal(t, uuid.Nil, role.ActorID())
}

func TestSLARule_MatchAndSpecificity(t *testing.T) {
	t.Parallel()

	defID := uuid.New()

	global := &domain.SLARule{}
	stageScoped := &domain.SLARule{StageName: "Legal"}
	defScoped := &domain.SLARule{WorkflowDefinitionID: &defID}
	both := &domain.SLARule{WorkflowDefinitionID: &defID, StageName: "Legal"}

	assert.True(t, global.Matches(defID, "Legal"))
	assert.True(t, stageScoped.Matches(defID, "Legal"))
	assert.False(t, stageScoped.Matches(defID, "Finance"))
	assert.True(t, defScoped.Matches(defID, "Finance"))
	assert.False(t, defScoped.Matches(uuid.New(), "Legal"))
	assert.True(t, both.Matches(defID, "Legal"))
	assert.False(t, both.Matches(defID, "Finance"))

	assert.Greater(t, both.Specificity(), defScoped.Specificity())
	assert.Greater(t, defScoped.Specificity(), stageScoped.Specificity())
	assert.Greater(t, stageScoped.Specificity(), global.Specificity())
}

func TestStageApproval_Overdue(t *testing.T) {
	t.Parallel()

	now := time.Now()
	a := &domain.StageApproval{Status: domain.ApprovalStatusPending, DueAt: now.Add(-time.Hour)}

	assert.True(t, a.Overdue(now))
	assert.False(t, a.Overdue(now.Add(-2*time.Hour)))

	a.Status = domain.ApprovalStatusApproved
	assert.False(t, a.Overdue(now))
}
