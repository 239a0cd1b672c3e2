package v1_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/vk93102/clm-backend/internal/api/v1"
	"github.com/vk93102/clm-backend/internal/domain"
)

func TestListAuditLog(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()

	t.Run("default_limit", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := &mockDataStore{
			audit: &mockAuditRepo{
				listByTenantFunc: func(_ context.Context, tid uuid.UUID, limit, offset int) ([]*domain.AuditEntry, error) {
					assert.Equal(t, tenantID, tid)
					assert.Equal(t, 100, limit)
					assert.Equal(t, 0, offset)
					return []*domain.AuditEntry{{ID: uuid.New(), Action: domain.AuditWorkflowStarted}}, nil
				},
			},
		}
		v1.RegisterAuditRoutes(api, store)

		resp := api.GetCtx(tenantCtx(tenantID), "/audit-log")
		require.Equal(t, http.StatusOK, resp.Code)

		var body []*domain.AuditEntry
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body, 1)
		assert.Equal(t, domain.AuditWorkflowStarted, body[0].Action)
	})

	t.Run("pagination_forwarded", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := &mockDataStore{
			audit: &mockAuditRepo{
				listByTenantFunc: func(_ context.Context, _ uuid.UUID, limit, offset int) ([]*domain.AuditEntry, error) {
					assert.Equal(t, 25, limit)
					assert.Equal(t, 50, offset)
					return nil, nil
				},
			},
		}
		v1.RegisterAuditRoutes(api, store)

		resp := api.GetCtx(tenantCtx(tenantID), "/audit-log?limit=25&offset=50")
		assert.Equal(t, http.StatusOK, resp.Code)
	})

	t.Run("missing_tenant_is_403", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		v1.RegisterAuditRoutes(api, &mockDataStore{})

		resp := api.Get("/audit-log")
		assert.Equal(t, http.StatusForbidden, resp.Code)
	})
}

func TestListResourceAuditLog(t *testing.T) {
	t.Parallel()

	tenantID := uuid.New()
	instanceID := uuid.New()

	t.Run("happy_path", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		store := &mockDataStore{
			audit: &mockAuditRepo{
				listByResourceFunc: func(_ context.Context, _ uuid.UUID, resourceType string, resourceID uuid.UUID) ([]*domain.AuditEntry, error) {
					assert.Equal(t, "workflow_instance", resourceType)
					assert.Equal(t, instanceID, resourceID)
					return []*domain.AuditEntry{
						{ID: uuid.New(), Action: domain.AuditWorkflowStarted},
						{ID: uuid.New(), Action: domain.AuditApprovalApproved},
					}, nil
				},
			},
		}
		v1.RegisterAuditRoutes(api, store)

		resp := api.GetCtx(tenantCtx(tenantID), "/audit-log/workflow_instance/"+instanceID.String())
		require.Equal(t, http.StatusOK, resp.Code)

		var body []*domain.AuditEntry
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Len(t, body, 2)
	})
}
