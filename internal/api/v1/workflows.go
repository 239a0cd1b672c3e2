package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/vk93102/clm-backend/internal/domain"
	"github.com/vk93102/clm-backend/internal/server/middleware"
)

type StartWorkflowInput struct {
	Body struct {
		ContractID   uuid.UUID      `json:"contract_id" doc:"Contract to route through approval"`
		DefinitionID *uuid.UUID     `json:"definition_id,omitempty" doc:"Explicit definition (skips rule matching)"`
		Metadata     map[string]any `json:"metadata,omitempty" doc:"Free-form instance metadata"`
	}
}

type StartWorkflowOutput struct {
	Body *domain.WorkflowInstance
}

type GetWorkflowInput struct {
	ID uuid.UUID `path:"id" doc:"Workflow instance ID"`
}

type GetWorkflowOutput struct {
	Body *domain.WorkflowInstance
}

type ListWorkflowsInput struct {
	ContractID uuid.UUID `query:"contract_id" doc:"Filter by contract"`
	Status     string    `query:"status" doc:"Filter by instance status"`
}

type ListWorkflowsOutput struct {
	Body []*domain.WorkflowInstance
}

type CancelWorkflowInput struct {
	ID   uuid.UUID `path:"id" doc:"Workflow instance ID"`
	Body struct {
		Reason string `json:"reason,omitempty" maxLength:"2000" doc:"Cancellation reason"`
	}
}

type PauseWorkflowInput struct {
	ID uuid.UUID `path:"id" doc:"Workflow instance ID"`
}

type ResumeWorkflowInput struct {
	ID uuid.UUID `path:"id" doc:"Workflow instance ID"`
}

func RegisterWorkflowRoutes(api huma.API, store DataStore, engine WorkflowEngine) {
	huma.Register(api, huma.Operation{
		OperationID: "start-workflow",
		Method:      http.MethodPost,
		Path:        "/workflows",
		Summary:     "Start an approval workflow for a contract",
		Tags:        []string{"Workflows"},
	}, func(ctx context.Context, input *StartWorkflowInput) (*StartWorkflowOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		inst, err := engine.StartWorkflow(ctx, tenantID, input.Body.ContractID, input.Body.DefinitionID, userID, input.Body.Metadata)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				return nil, huma.Error404NotFound("contract or definition not found")
			case errors.Is(err, domain.ErrNoMatchingWorkflow):
				return nil, huma.Error422UnprocessableEntity("no workflow definition matches this contract")
			case errors.Is(err, domain.ErrInstanceAlreadyActive):
				return nil, huma.Error409Conflict("contract already has an active workflow")
			case errors.Is(err, domain.ErrMalformedStageSpec):
				return nil, huma.Error422UnprocessableEntity("workflow definition has a malformed stage specification")
			}
			return nil, huma.Error500InternalServerError("failed to start workflow", err)
		}

		return &StartWorkflowOutput{Body: inst}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-workflow",
		Method:      http.MethodGet,
		Path:        "/workflows/{id}",
		Summary:     "Get a workflow instance by ID",
		Tags:        []string{"Workflows"},
	}, func(ctx context.Context, input *GetWorkflowInput) (*GetWorkflowOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		inst, err := store.Instances().GetByID(ctx, tenantID, input.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("workflow instance not found")
			}
			return nil, huma.Error500InternalServerError("failed to get workflow instance", err)
		}

		return &GetWorkflowOutput{Body: inst}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-workflows",
		Method:      http.MethodGet,
		Path:        "/workflows",
		Summary:     "List workflow instances by contract or status",
		Tags:        []string{"Workflows"},
	}, func(ctx context.Context, input *ListWorkflowsInput) (*ListWorkflowsOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		if input.ContractID != uuid.Nil {
			insts, err := store.Instances().ListByContract(ctx, tenantID, input.ContractID)
			if err != nil {
				return nil, huma.Error500InternalServerError("failed to list workflow instances", err)
			}
			return &ListWorkflowsOutput{Body: insts}, nil
		}

		status := domain.InstanceStatus(input.Status)
		if input.Status == "" {
			status = domain.InstanceStatusActive
		}
		insts, err := store.Instances().ListByStatus(ctx, tenantID, status)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list workflow instances", err)
		}

		return &ListWorkflowsOutput{Body: insts}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-workflow",
		Method:      http.MethodPost,
		Path:        "/workflows/{id}/cancel",
		Summary:     "Cancel a workflow instance",
		Tags:        []string{"Workflows"},
	}, func(ctx context.Context, input *CancelWorkflowInput) (*GetWorkflowOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		if err := engine.CancelWorkflow(ctx, tenantID, input.ID, userID, input.Body.Reason); err != nil {
			return nil, mapTransitionErr(err, "cancel")
		}

		return fetchInstance(ctx, store, tenantID, input.ID)
	})

	huma.Register(api, huma.Operation{
		OperationID: "pause-workflow",
		Method:      http.MethodPost,
		Path:        "/workflows/{id}/pause",
		Summary:     "Pause a workflow instance",
		Tags:        []string{"Workflows"},
	}, func(ctx context.Context, input *PauseWorkflowInput) (*GetWorkflowOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		if err := engine.PauseWorkflow(ctx, tenantID, input.ID, userID); err != nil {
			return nil, mapTransitionErr(err, "pause")
		}

		return fetchInstance(ctx, store, tenantID, input.ID)
	})

	huma.Register(api, huma.Operation{
		OperationID: "resume-workflow",
		Method:      http.MethodPost,
		Path:        "/workflows/{id}/resume",
		Summary:     "Resume a paused workflow instance",
		Tags:        []string{"Workflows"},
	}, func(ctx context.Context, input *ResumeWorkflowInput) (*GetWorkflowOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		if err := engine.ResumeWorkflow(ctx, tenantID, input.ID, userID); err != nil {
			return nil, mapTransitionErr(err, "resume")
		}

		return fetchInstance(ctx, store, tenantID, input.ID)
	})
}

func mapTransitionErr(err error, verb string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound("workflow instance not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		return huma.Error409Conflict("workflow instance cannot " + verb + " from its current status")
	}
	return huma.Error500InternalServerError("failed to "+verb+" workflow", err)
}

func fetchInstance(ctx context.Context, store DataStore, tenantID, id uuid.UUID) (*GetWorkflowOutput, error) {
	inst, err := store.Instances().GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to reload workflow instance", err)
	}
	return &GetWorkflowOutput{Body: inst}, nil
}
