package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/vk93102/clm-backend/internal/domain"
	"github.com/vk93102/clm-backend/internal/server/middleware"
)

type ListAuditLogInput struct {
	Limit  int `query:"limit" minimum:"1" maximum:"500" doc:"Maximum entries to return (default 100)"`
	Offset int `query:"offset" minimum:"0" doc:"Entries to skip"`
}

type ListAuditLogOutput struct {
	Body []*domain.AuditEntry
}

type ListResourceAuditInput struct {
	ResourceType string    `path:"resourceType" doc:"Resource type, e.g. workflow_instance"`
	ResourceID   uuid.UUID `path:"resourceID" doc:"Resource ID"`
}

type ListResourceAuditOutput struct {
	Body []*domain.AuditEntry
}

func RegisterAuditRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "list-audit-log",
		Method:      http.MethodGet,
		Path:        "/audit-log",
		Summary:     "List audit entries for the tenant",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListAuditLogInput) (*ListAuditLogOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		limit := input.Limit
		if limit == 0 {
			limit = 100
		}

		entries, err := store.Audit().ListByTenant(ctx, tenantID, limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list audit entries", err)
		}

		return &ListAuditLogOutput{Body: entries}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-resource-audit-log",
		Method:      http.MethodGet,
		Path:        "/audit-log/{resourceType}/{resourceID}",
		Summary:     "List audit entries for one resource",
		Tags:        []string{"Audit"},
	}, func(ctx context.Context, input *ListResourceAuditInput) (*ListResourceAuditOutput, error) {
		tenantID, ok := middleware.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		entries, err := store.Audit().ListByResource(ctx, tenantID, input.ResourceType, input.ResourceID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list audit entries", err)
		}

		return &ListResourceAuditOutput{Body: entries}, nil
	})
}
