// Package workflow contains the approval orchestration core: matching a
// contract to a configured definition and driving the instance state
// machine through its stages.
package workflow

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/vk93102/clm-backend/internal/domain"
	"github.com/vk93102/clm-backend/internal/rules"
)

// Matcher finds the workflow definition that applies to a contract.
type Matcher struct {
	definitions domain.WorkflowDefinitionRepository
}

func NewMatcher(definitions domain.WorkflowDefinitionRepository) *Matcher {
	return &Matcher{definitions: definitions}
}

// FindMatchingWorkflow walks the tenant's active definitions in
// (priority DESC, created_at DESC) order and returns the first whose
// contract-type filter and trigger conditions both match. A definition
// whose conditions cannot be evaluated is logged and skipped; one bad
// definition never blocks the whole match pass. Returns
// domain.ErrNoMatchingWorkflow when nothing matches.
func (m *Matcher) FindMatchingWorkflow(ctx context.Context, contract *domain.Contract) (*domain.WorkflowDefinition, error) {
	defs, err := m.definitions.ListActive(ctx, contract.TenantID)
	if err != nil {
		return nil, fmt.Errorf("workflow.Matcher.FindMatchingWorkflow: list definitions: %w", err)
	}

	record := rules.Fields(contract.Fields())

	for _, def := range defs {
		// Cheap contract-type filter first; empty filter matches all types.
		if len(def.ContractTypes) > 0 && !slices.Contains(def.ContractTypes, contract.ContractType) {
			continue
		}

		matched, warnings := rules.EvaluateWarn(def.TriggerConditions, record)
		for _, w := range warnings {
			log.Warn().
				Str("tenant_id", contract.TenantID.String()).
				Str("workflow_definition", def.Name).
				Str("contract_id", contract.ID.String()).
				Msgf("skipping unevaluable condition: %s", w)
		}

		if matched {
			log.Debug().
				Str("contract_id", contract.ID.String()).
				Str("workflow_definition", def.Name).
				Int("priority", def.Priority).
				Msg("contract matched workflow definition")
			return def, nil
		}
	}

	return nil, fmt.Errorf("workflow.Matcher.FindMatchingWorkflow: contract %s: %w", contract.ID, domain.ErrNoMatchingWorkflow)
}
