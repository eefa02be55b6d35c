package server

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/brandhub/internal/api/v1"
	"github.com/gosuda/brandhub/internal/api/ws"
	"github.com/gosuda/brandhub/internal/auth"
	"github.com/gosuda/brandhub/internal/brand"
	"github.com/gosuda/brandhub/internal/integration"
	"github.com/gosuda/brandhub/internal/store/postgres"
)

func registerAuthRoutes(api huma.API, authSvc *auth.Service, sessions *brand.Manager) {
	v1.RegisterAuthRoutes(api, authSvc, sessions)
}

func registerBrandRoutes(api huma.API, store *postgres.Store, sessions *brand.Manager) {
	v1.RegisterBrandRoutes(api, store, sessions)
}

func registerBrandScopedRoutes(api huma.API, status *integration.StatusCache) {
	v1.RegisterIntegrationRoutes(api, status)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/session", hub.ServeSession)
}
