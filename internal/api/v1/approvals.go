package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/vk93102/clm-backend/internal/domain"
	"github.com/vk93102/clm-backend/internal/server/middleware"
	"github.com/vk93102/clm-backend/internal/workflow"
)

type ListPendingApprovalsInput struct{}

type ListPendingApprovalsOutput struct {
	Body []*domain.StageApproval
}

type ListInstanceApprovalsInput struct {
	ID uuid.UUID `path:"id" doc:"Workflow instance ID"`
}

type ListInstanceApprovalsOutput struct {
	Body []*domain.StageApproval
}

type ActOnApprovalInput struct {
	ID   uuid.UUID `path:"id" doc:"Stage approval ID"`
	Body struct {
		Action     string     `json:"action" enum:"approve,reject,delegate" doc:"Approval action"`
		Comments   string     `json:"comments,omitempty" maxLength:"2000" doc:"Approver comments"`
		DelegateTo *uuid.UUID `json:"delegate_to,omitempty" doc:"Target user for delegation"`
	}
}

type ActOnApprovalOutput struct {
	Body *domain.WorkflowInstance
}

func RegisterApprovalRoutes(api huma.API, store DataStore, engine WorkflowEngine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-pending-approvals",
		Method:      http.MethodGet,
		Path:        "/approvals/pending",
		Summary:     "List pending approvals assigned to the caller",
		Tags:        []string{"Approvals"},
	}, func(ctx context.Context, _ *ListPendingApprovalsInput) (*ListPendingApprovalsOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		approvals, err := store.Approvals().ListPendingByApprover(ctx, tenantID, userID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list pending approvals", err)
		}

		return &ListPendingApprovalsOutput{Body: approvals}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-workflow-approvals",
		Method:      http.MethodGet,
		Path:        "/workflows/{id}/approvals",
		Summary:     "List all approvals for a workflow instance",
		Tags:        []string{"Approvals"},
	}, func(ctx context.Context, input *ListInstanceApprovalsInput) (*ListInstanceApprovalsOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		if _, err := store.Instances().GetByID(ctx, tenantID, input.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, huma.Error404NotFound("workflow instance not found")
			}
			return nil, huma.Error500InternalServerError("failed to get workflow instance", err)
		}

		approvals, err := store.Approvals().ListByInstance(ctx, tenantID, input.ID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list approvals", err)
		}

		return &ListInstanceApprovalsOutput{Body: approvals}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "act-on-approval",
		Method:      http.MethodPost,
		Path:        "/approvals/{id}/act",
		Summary:     "Approve, reject or delegate a pending approval",
		Tags:        []string{"Approvals"},
	}, func(ctx context.Context, input *ActOnApprovalInput) (*ActOnApprovalOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}
		userID, ok := middleware.UserIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing user context")
		}

		action := workflow.Action(input.Body.Action)
		inst, err := engine.ProcessApproval(ctx, tenantID, input.ID, action, userID, input.Body.Comments, input.Body.DelegateTo)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				return nil, huma.Error404NotFound("approval not found")
			case errors.Is(err, domain.ErrUnauthorized):
				return nil, huma.Error403Forbidden("approval is not assigned to the caller")
			case errors.Is(err, domain.ErrApprovalNotPending):
				return nil, huma.Error409Conflict("approval has already been processed")
			case errors.Is(err, domain.ErrInvalidDelegateTarget):
				return nil, huma.Error422UnprocessableEntity("delegation requires a valid target user")
			case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrConflict):
				return nil, huma.Error409Conflict("workflow instance is not active")
			case errors.Is(err, workflow.ErrUnknownAction):
				return nil, huma.Error422UnprocessableEntity("unknown approval action")
			}
			return nil, huma.Error500InternalServerError("failed to process approval", err)
		}

		return &ActOnApprovalOutput{Body: inst}, nil
	})
}
