package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/catalog-service/internal/auth"
	"github.com/maxviazov/catalog-service/internal/middleware"
	"github.com/maxviazov/catalog-service/internal/model"
	"github.com/maxviazov/catalog-service/internal/service"
	"github.com/maxviazov/catalog-service/pkg/response"
)

type AuthHandler struct {
	svc      service.AuthService
	policies auth.Policies
}

func NewAuthHandler(svc service.AuthService, policies auth.Policies) *AuthHandler {
	return &AuthHandler{svc: svc, policies: policies}
}

func (h *AuthHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/auth")
	{
		g.POST("/register", h.register)
		g.POST("/login", h.login)
		g.POST("/refresh-token", h.refresh)
		g.POST("/revoke/:username", middleware.RequirePolicy(h.policies.ExclusiveOnly), h.revoke)
		g.POST("/roles", middleware.RequirePolicy(h.policies.SuperAdminOnly), h.createRole)
		g.POST("/roles/assign", middleware.RequirePolicy(h.policies.SuperAdminOnly), h.addUserToRole)
	}
}

type createRoleRequest struct {
	Name string `json:"name"`
}

func (h *AuthHandler) register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, malformedBody())
		return
	}
	if _, err := h.svc.Register(c.Request.Context(), req); err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, model.StatusMessage{Status: "Success", Message: "user created"})
}

func (h *AuthHandler) login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, malformedBody())
		return
	}
	pair, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, pair)
}

func (h *AuthHandler) refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, malformedBody())
		return
	}
	pair, err := h.svc.Refresh(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, pair)
}

func (h *AuthHandler) revoke(c *gin.Context) {
	if err := h.svc.Revoke(c.Request.Context(), c.Param("username")); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) createRole(c *gin.Context) {
	var req createRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, malformedBody())
		return
	}
	if err := h.svc.CreateRole(c.Request.Context(), req.Name); err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, model.StatusMessage{Status: "Success", Message: "role " + req.Name + " added"})
}

func (h *AuthHandler) addUserToRole(c *gin.Context) {
	var req model.RoleAssignment
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, malformedBody())
		return
	}
	if err := h.svc.AddUserToRole(c.Request.Context(), req.Email, req.Role); err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, model.StatusMessage{
		Status:  "Success",
		Message: "user " + req.Email + " added to the " + req.Role + " role",
	})
}
