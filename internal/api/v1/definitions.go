package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/vk93102/clm-backend/internal/domain"
	"github.com/vk93102/clm-backend/internal/rules"
	"github.com/vk93102/clm-backend/internal/server/middleware"
)

type CreateDefinitionInput struct {
	Body struct {
		Name              string             `json:"name" minLength:"1" maxLength:"255" doc:"Definition name"`
		Description       string             `json:"description,omitempty" doc:"Definition description"`
		ContractTypes     []string           `json:"contract_types,omitempty" doc:"Contract types this workflow applies to (empty = all)"`
		TriggerConditions []rules.Condition  `json:"trigger_conditions,omitempty" doc:"Conditions a contract must satisfy"`
		Stages            []domain.StageSpec `json:"stages" minItems:"1" doc:"Ordered approval stages"`
		Priority          int                `json:"priority,omitempty" doc:"Match priority (higher wins)"`
	}
}

type CreateDefinitionOutput struct {
	Body *domain.WorkflowDefinition
}

type ListDefinitionsInput struct {
	ActiveOnly bool `query:"active_only" doc:"Return only active definitions"`
}

type ListDefinitionsOutput struct {
	Body []*domain.WorkflowDefinition
}

type GetDefinitionInput struct {
	ID uuid.UUID `path:"id" doc:"Definition ID"`
}

type GetDefinitionOutput struct {
	Body *domain.WorkflowDefinition
}

type UpdateDefinitionInput struct {
	ID   uuid.UUID `path:"id" doc:"Definition ID"`
	Body struct {
		Name              string             `json:"name,omitempty" maxLength:"255" doc:"Definition name"`
		Description       string             `json:"description,omitempty" doc:"Definition description"`
		ContractTypes     []string           `json:"contract_types,omitempty" doc:"Contract types this workflow applies to"`
		TriggerConditions []rules.Condition  `json:"trigger_conditions,omitempty" doc:"Conditions a contract must satisfy"`
		Stages            []domain.StageSpec `json:"stages,omitempty" doc:"Ordered approval stages"`
		Priority          *int               `json:"priority,omitempty" doc:"Match priority"`
		IsActive          *bool              `json:"is_active,omitempty" doc:"Whether the matcher considers this definition"`
	}
}

type UpdateDefinitionOutput struct {
	Body *domain.WorkflowDefinition
}

type DeleteDefinitionInput struct {
	ID uuid.UUID `path:"id" doc:"Definition ID"`
}

func validateConditions(conds []rules.Condition) error {
	for _, c := range conds {
		if c.Field == "" {
			return errors.New("condition field required")
		}
		if !rules.KnownOperator(c.Operator) {
			return errors.New("unknown condition operator " + string(c.Operator))
		}
	}
	return nil
}

func RegisterDefinitionRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-workflow-definition",
		Method:      http.MethodPost,
		Path:        "/workflow-definitions",
		Summary:     "Create a workflow definition",
		Tags:        []string{"Workflow Definitions"},
	}, func(ctx context.Context, input *CreateDefinitionInput) (*CreateDefinitionOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		if err := domain.ValidateStages(input.Body.Stages); err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}
		if err := validateConditions(input.Body.TriggerConditions); err != nil {
			return nil, huma.Error422UnprocessableEntity(err.Error())
		}

		userID, _ := middleware.UserIDFromContext(ctx)
		now := time.Now()
		d := &domain.WorkflowDefinition{
			ID:                uuid.New(),
			TenantID:          tenantID,
			Name:              input.Body.Name,
			Description:       input.Body.Description,
			ContractTypes:     input.Body.ContractTypes,
			TriggerConditions: input.Body.TriggerConditions,
			Stages:            input.Body.Stages,
			Priority:          input.Body.Priority,
			IsActive:          true,
			CreatedBy:         userID,
			CreatedAt:         now,
			UpdatedAt:         now,
		}

		if err := store.Definitions().Create(ctx, d); err != nil {
			return nil, huma.Error500InternalServerError("failed to create workflow definition", err)
		}

		recordDefinitionAudit(ctx, store, d, userID, domain.AuditDefinitionCreated, now)

		return &CreateDefinitionOutput{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-workflow-definitions",
		Method:      http.MethodGet,
		Path:        "/workflow-definitions",
		Summary:     "List workflow definitions",
		Tags:        []string{"Workflow Definitions"},
	}, func(ctx context.Context, input *ListDefinitionsInput) (*ListDefinitionsOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		var (
			defs []*domain.WorkflowDefinition
			err  error
		)
		if input.ActiveOnly {
			defs, err = store.Definitions().ListActive(ctx, tenantID)
		} else {
			defs, err = store.Definitions().List(ctx, tenantID)
		}
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list workflow definitions", err)
		}

		return &ListDefinitionsOutput{Body: defs}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-workflow-definition",
		Method:      http.MethodGet,
		Path:        "/workflow-definitions/{id}",
		Summary:     "Get a workflow definition by ID",
		Tags:        []string{"Workflow Definitions"},
	}, func(ctx context.Context, input *GetDefinitionInput) (*GetDefinitionOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		d, err := store.Definitions().GetByID(ctx, tenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("workflow definition not found")
			}
			return nil, huma.Error500InternalServerError("failed to get workflow definition", err)
		}

		return &GetDefinitionOutput{Body: d}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-workflow-definition",
		Method:      http.MethodPut,
		Path:        "/workflow-definitions/{id}",
		Summary:     "Update a workflow definition",
		Tags:        []string{"Workflow Definitions"},
	}, func(ctx context.Context, input *UpdateDefinitionInput) (*UpdateDefinitionOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		existing, err := store.Definitions().GetByID(ctx, tenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("workflow definition not found")
			}
			return nil, huma.Error500InternalServerError("failed to get workflow definition", err)
		}

		if input.Body.Name != "" {
			existing.Name = input.Body.Name
		}
		if input.Body.Description != "" {
			existing.Description = input.Body.Description
		}
		if input.Body.ContractTypes != nil {
			existing.ContractTypes = input.Body.ContractTypes
		}
		if input.Body.TriggerConditions != nil {
			if err := validateConditions(input.Body.TriggerConditions); err != nil {
				return nil, huma.Error422UnprocessableEntity(err.Error())
			}
			existing.TriggerConditions = input.Body.TriggerConditions
		}
		if input.Body.Stages != nil {
			if err := domain.ValidateStages(input.Body.Stages); err != nil {
				return nil, huma.Error422UnprocessableEntity(err.Error())
			}
			existing.Stages = input.Body.Stages
		}
		if input.Body.Priority != nil {
			existing.Priority = *input.Body.Priority
		}
		if input.Body.IsActive != nil {
			existing.IsActive = *input.Body.IsActive
		}
		now := time.Now()
		existing.UpdatedAt = now

		if err := store.Definitions().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update workflow definition", err)
		}

		userID, _ := middleware.UserIDFromContext(ctx)
		recordDefinitionAudit(ctx, store, existing, userID, domain.AuditDefinitionUpdated, now)

		return &UpdateDefinitionOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-workflow-definition",
		Method:      http.MethodDelete,
		Path:        "/workflow-definitions/{id}",
		Summary:     "Delete a workflow definition",
		Tags:        []string{"Workflow Definitions"},
	}, func(ctx context.Context, input *DeleteDefinitionInput) (*struct{}, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		if err := store.Definitions().Delete(ctx, tenantID, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("workflow definition not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete workflow definition", err)
		}

		return nil, nil
	})
}

// recordDefinitionAudit writes a best-effort audit row. Definition saves
// must not fail because the audit insert did.
func recordDefinitionAudit(ctx context.Context, store DataStore, d *domain.WorkflowDefinition, actor uuid.UUID, action string, now time.Time) {
	entry := &domain.AuditEntry{
		ID:           uuid.New(),
		TenantID:     d.TenantID,
		ActorID:      actor,
		Action:       action,
		ResourceType: "workflow_definition",
		ResourceID:   d.ID,
		Metadata:     map[string]any{"name": d.Name, "priority": d.Priority},
		CreatedAt:    now,
	}
	if err := store.Audit().Record(ctx, entry); err != nil {
		log.Warn().Err(err).Str("definition_id", d.ID.String()).Msg("definition audit record failed")
	}
}
