package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/catalog-service/internal/auth"
	"github.com/maxviazov/catalog-service/internal/middleware"
	"github.com/maxviazov/catalog-service/internal/service"
)

// APIV1Prefix is the canonical base path for public HTTP API v1.
// Keep a single source of truth to avoid path drift across handlers and tests.
const APIV1Prefix = "/api/v1"

// Deps are the services and policies the routes need.
type Deps struct {
	Health     *HealthHandler
	Categories service.CategoryService
	Products   service.ProductService
	Auth       service.AuthService
	Policies   auth.Policies
	// CategoryLimit guards the category group except the full listing; nil disables it.
	CategoryLimit gin.HandlerFunc
	MaxPageSize   int
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// Register mounts all public routes on the given engine.
func Register(r *gin.Engine, d Deps) {
	h := d.Health
	if h == nil {
		h = NewHealthHandler(nil)
	}

	// Health probes
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics))
	}

	RegisterDocs(r)

	api := r.Group(APIV1Prefix)
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}
		NewCategoryHandler(d.Categories, d.MaxPageSize).Register(api, d.CategoryLimit)
		NewProductHandler(d.Products, d.MaxPageSize).Register(api, middleware.RequirePolicy(d.Policies.UserOnly))
		NewAuthHandler(d.Auth, d.Policies).Register(api)
	}
}
