package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/vk93102/clm-backend/internal/api/v1"
	"github.com/vk93102/clm-backend/internal/api/ws"
	"github.com/vk93102/clm-backend/internal/auth"
	"github.com/vk93102/clm-backend/internal/sla"
	"github.com/vk93102/clm-backend/internal/store/postgres"
	"github.com/vk93102/clm-backend/internal/workflow"
)

func registerAuthRoutes(api huma.API, authSvc *auth.Service) {
	v1.RegisterAuthRoutes(api, authSvc)
}

func registerAPIRoutes(api huma.API, store *postgres.Store, engine *workflow.Engine, monitor *sla.Monitor) {
	v1.RegisterWorkflowRoutes(api, store, engine)
	v1.RegisterApprovalRoutes(api, store, engine)
	v1.RegisterBreachRoutes(api, store, monitor)
	v1.RegisterAuditRoutes(api, store)
}

func registerAdminRoutes(api huma.API, store *postgres.Store) {
	v1.RegisterDefinitionRoutes(api, store)
	v1.RegisterSLARuleRoutes(api, store)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/workflows/{instanceID}", hub.ServeWorkflow)
	r.Get("/tenant", hub.ServeTenant)
}
