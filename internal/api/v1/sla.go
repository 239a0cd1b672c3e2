package v1

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/vk93102/clm-backend/internal/domain"
	"github.com/vk93102/clm-backend/internal/server/middleware"
)

type CreateSLARuleInput struct {
	Body struct {
		Name                 string      `json:"name" minLength:"1" maxLength:"255" doc:"Rule name"`
		Description          string      `json:"description,omitempty" doc:"Rule description"`
		WorkflowDefinitionID *uuid.UUID  `json:"workflow_definition_id,omitempty" doc:"Scope to one definition (empty = all)"`
		StageName            string      `json:"stage_name,omitempty" maxLength:"255" doc:"Scope to one stage (empty = all)"`
		SLAHours             int         `json:"sla_hours" minimum:"1" doc:"Hours before an approval is overdue"`
		EscalationEnabled    bool        `json:"escalation_enabled,omitempty" doc:"Notify escalation users on breach"`
		EscalationUsers      []uuid.UUID `json:"escalation_users,omitempty" doc:"Users notified on breach"`
		EscalationMessage    string      `json:"escalation_message,omitempty" maxLength:"2000" doc:"Custom escalation message"`
	}
}

type CreateSLARuleOutput struct {
	Body *domain.SLARule
}

type ListSLARulesInput struct{}

type ListSLARulesOutput struct {
	Body []*domain.SLARule
}

type GetSLARuleInput struct {
	ID uuid.UUID `path:"id" doc:"SLA rule ID"`
}

type GetSLARuleOutput struct {
	Body *domain.SLARule
}

type UpdateSLARuleInput struct {
	ID   uuid.UUID `path:"id" doc:"SLA rule ID"`
	Body struct {
		Name              string      `json:"name,omitempty" maxLength:"255" doc:"Rule name"`
		Description       string      `json:"description,omitempty" doc:"Rule description"`
		SLAHours          *int        `json:"sla_hours,omitempty" minimum:"1" doc:"Hours before an approval is overdue"`
		EscalationEnabled *bool       `json:"escalation_enabled,omitempty" doc:"Notify escalation users on breach"`
		EscalationUsers   []uuid.UUID `json:"escalation_users,omitempty" doc:"Users notified on breach"`
		EscalationMessage string      `json:"escalation_message,omitempty" maxLength:"2000" doc:"Custom escalation message"`
		IsActive          *bool       `json:"is_active,omitempty" doc:"Whether the monitor applies this rule"`
	}
}

type UpdateSLARuleOutput struct {
	Body *domain.SLARule
}

type DeleteSLARuleInput struct {
	ID uuid.UUID `path:"id" doc:"SLA rule ID"`
}

type ListBreachesInput struct {
	Status     string    `query:"status" enum:"active,acknowledged,resolved," doc:"Filter by breach status (default active)"`
	InstanceID uuid.UUID `query:"instance_id" doc:"Filter by workflow instance"`
}

type ListBreachesOutput struct {
	Body []*domain.SLABreach
}

type AcknowledgeBreachInput struct {
	ID   uuid.UUID `path:"id" doc:"Breach ID"`
	Body struct {
		Notes string `json:"notes,omitempty" maxLength:"2000" doc:"Acknowledgement notes"`
	}
}

type ResolveBreachInput struct {
	ID   uuid.UUID `path:"id" doc:"Breach ID"`
	Body struct {
		Notes string `json:"notes,omitempty" maxLength:"2000" doc:"Resolution notes"`
	}
}

type BreachOutput struct {
	Body *domain.SLABreach
}

func RegisterSLARuleRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-sla-rule",
		Method:      http.MethodPost,
		Path:        "/sla-rules",
		Summary:     "Create an SLA rule",
		Tags:        []string{"SLA"},
	}, func(ctx context.Context, input *CreateSLARuleInput) (*CreateSLARuleOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		if input.Body.WorkflowDefinitionID != nil {
			if _, err := store.Definitions().GetByID(ctx, tenantID, *input.Body.WorkflowDefinitionID); err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil, huma.Error404NotFound("workflow definition not found")
				}
				return nil, huma.Error500InternalServerError("failed to validate workflow definition", err)
			}
		}

		userID, _ := middleware.UserIDFromContext(ctx)
		now := time.Now()
		r := &domain.SLARule{
			ID:                   uuid.New(),
			TenantID:             tenantID,
			Name:                 input.Body.Name,
			Description:          input.Body.Description,
			WorkflowDefinitionID: input.Body.WorkflowDefinitionID,
			StageName:            input.Body.StageName,
			SLAHours:             input.Body.SLAHours,
			EscalationEnabled:    input.Body.EscalationEnabled,
			EscalationUsers:      input.Body.EscalationUsers,
			EscalationMessage:    input.Body.EscalationMessage,
			IsActive:             true,
			CreatedBy:            userID,
			CreatedAt:            now,
			UpdatedAt:            now,
		}

		if err := store.SLARules().Create(ctx, r); err != nil {
			return nil, huma.Error500InternalServerError("failed to create SLA rule", err)
		}

		return &CreateSLARuleOutput{Body: r}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-sla-rules",
		Method:      http.MethodGet,
		Path:        "/sla-rules",
		Summary:     "List active SLA rules",
		Tags:        []string{"SLA"},
	}, func(ctx context.Context, _ *ListSLARulesInput) (*ListSLARulesOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		rules, err := store.SLARules().ListActive(ctx, tenantID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list SLA rules", err)
		}

		return &ListSLARulesOutput{Body: rules}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-sla-rule",
		Method:      http.MethodGet,
		Path:        "/sla-rules/{id}",
		Summary:     "Get an SLA rule by ID",
		Tags:        []string{"SLA"},
	}, func(ctx context.Context, input *GetSLARuleInput) (*GetSLARuleOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		r, err := store.SLARules().GetByID(ctx, tenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("SLA rule not found")
			}
			return nil, huma.Error500InternalServerError("failed to get SLA rule", err)
		}

		return &GetSLARuleOutput{Body: r}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-sla-rule",
		Method:      http.MethodPut,
		Path:        "/sla-rules/{id}",
		Summary:     "Update an SLA rule",
		Tags:        []string{"SLA"},
	}, func(ctx context.Context, input *UpdateSLARuleInput) (*UpdateSLARuleOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		existing, err := store.SLARules().GetByID(ctx, tenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("SLA rule not found")
			}
			return nil, huma.Error500InternalServerError("failed to get SLA rule", err)
		}

		if input.Body.Name != "" {
			existing.Name = input.Body.Name
		}
		if input.Body.Description != "" {
			existing.Description = input.Body.Description
		}
		if input.Body.SLAHours != nil {
			existing.SLAHours = *input.Body.SLAHours
		}
		if input.Body.EscalationEnabled != nil {
			existing.EscalationEnabled = *input.Body.EscalationEnabled
		}
		if input.Body.EscalationUsers != nil {
			existing.EscalationUsers = input.Body.EscalationUsers
		}
		if input.Body.EscalationMessage != "" {
			existing.EscalationMessage = input.Body.EscalationMessage
		}
		if input.Body.IsActive != nil {
			existing.IsActive = *input.Body.IsActive
		}
		existing.UpdatedAt = time.Now()

		if err := store.SLARules().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update SLA rule", err)
		}

		return &UpdateSLARuleOutput{Body: existing}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-sla-rule",
		Method:      http.MethodDelete,
		Path:        "/sla-rules/{id}",
		Summary:     "Delete an SLA rule",
		Tags:        []string{"SLA"},
	}, func(ctx context.Context, input *DeleteSLARuleInput) (*struct{}, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		if err := store.SLARules().Delete(ctx, tenantID, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("SLA rule not found")
			}
			return nil, huma.Error500InternalServerError("failed to delete SLA rule", err)
		}

		return nil, nil
	})
}

func RegisterBreachRoutes(api huma.API, store DataStore, slaSvc SLAService) {
	huma.Register(api, huma.Operation{
		OperationID: "list-sla-breaches",
		Method:      http.MethodGet,
		Path:        "/sla-breaches",
		Summary:     "List SLA breaches",
		Tags:        []string{"SLA"},
	}, func(ctx context.Context, input *ListBreachesInput) (*ListBreachesOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		if input.InstanceID != uuid.Nil {
			breaches, err := store.SLABreaches().ListByInstance(ctx, tenantID, input.InstanceID)
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to list SLA breaches", err)
			}
			return &ListBreachesOutput{Body: breaches}, nil
		}

		status := domain.BreachStatus(input.Status)
		if input.Status == "" {
			status = domain.BreachStatusActive
		}
		breaches, err := store.SLABreaches().ListByStatus(ctx, tenantID, status)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list SLA breaches", err)
		}

		return &ListBreachesOutput{Body: breaches}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "acknowledge-sla-breach",
		Method:      http.MethodPost,
		Path:        "/sla-breaches/{id}/acknowledge",
		Summary:     "Acknowledge an active SLA breach",
		Tags:        []string{"SLA"},
	}, func(ctx context.Context, input *AcknowledgeBreachInput) (*BreachOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		if err := slaSvc.AcknowledgeBreach(ctx, tenantID, input.ID, input.Body.Notes); err != nil {
			return nil, mapBreachErr(err, "acknowledge")
		}

		return fetchBreach(ctx, store, tenantID, input.ID)
	})

	huma.Register(api, huma.Operation{
		OperationID: "resolve-sla-breach",
		Method:      http.MethodPost,
		Path:        "/sla-breaches/{id}/resolve",
		Summary:     "Resolve an SLA breach",
		Tags:        []string{"SLA"},
	}, func(ctx context.Context, input *ResolveBreachInput) (*BreachOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		if err := slaSvc.ResolveBreach(ctx, tenantID, input.ID, input.Body.Notes, time.Now()); err != nil {
			return nil, mapBreachErr(err, "resolve")
		}

		return fetchBreach(ctx, store, tenantID, input.ID)
	})
}

func mapBreachErr(err error, verb string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound("SLA breach not found")
	case errors.Is(err, domain.ErrConflict):
		return huma.Error409Conflict("SLA breach cannot " + verb + " from its current status")
	}
	return huma.Error500InternalServerError("failed to "+verb+" SLA breach", err)
}

func fetchBreach(ctx context.Context, store DataStore, tenantID, id uuid.UUID) (*BreachOutput, error) {
	b, err := store.SLABreaches().GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to reload SLA breach", err)
	}
	return &BreachOutput{Body: b}, nil
}
