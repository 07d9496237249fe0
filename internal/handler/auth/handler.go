package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bloodlink/blood-api/internal/handler"
	"github.com/bloodlink/blood-api/internal/model"
	"github.com/bloodlink/blood-api/internal/service/auth"
	"github.com/bloodlink/blood-api/pkg/errors"
	"github.com/bloodlink/blood-api/pkg/httputil"
)

type Handler struct {
	svc *auth.Service
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the unauthenticated identity endpoints
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/auth")
	{
		group.POST("/:role/register", h.Register)
		group.POST("/:role/login", h.Login)
		group.POST("/verify-otp", h.VerifyOTP)
		group.POST("/resend-otp", h.ResendOTP)
	}
}

// RegisterProtectedRoutes registers the session endpoints
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup) {
	group := r.Group("/auth")
	{
		group.GET("/me", h.Me)
		group.POST("/logout", h.Logout)
	}
}

// parseRole maps the URL segment onto a role namespace
func parseRole(param string) (model.Role, bool) {
	switch param {
	case "donor", "patient", "donor_patient":
		return model.RoleDonor, true
	case "hospital":
		return model.RoleHospital, true
	case "admin":
		return model.RoleAdmin, true
	}
	return "", false
}

func (h *Handler) Register(c *gin.Context) {
	role, ok := parseRole(c.Param("role"))
	if !ok {
		httputil.RespondWithError(c, errors.Newf(errors.ErrInvalidProfile, "unknown role %q", c.Param("role")))
		return
	}

	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Wrap(errors.ErrInvalidProfile, err.Error(), err))
		return
	}

	account, handle, err := h.svc.Register(c.Request.Context(), role, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, gin.H{
		"account":      account,
		"verification": handle,
	})
}

func (h *Handler) Login(c *gin.Context) {
	role, ok := parseRole(c.Param("role"))
	if !ok {
		httputil.RespondWithError(c, errors.Newf(errors.ErrInvalidProfile, "unknown role %q", c.Param("role")))
		return
	}

	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Wrap(errors.ErrInvalidCredential, "invalid login payload", err))
		return
	}

	tokens, err := h.svc.Login(c.Request.Context(), role, req.Email, req.Password)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, tokens)
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	var req model.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Wrap(errors.ErrInvalidProfile, err.Error(), err))
		return
	}

	account, err := h.svc.Verify(c.Request.Context(), req.Email, req.Role, req.Code)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, account)
}

func (h *Handler) ResendOTP(c *gin.Context) {
	var req model.ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Wrap(errors.ErrInvalidProfile, err.Error(), err))
		return
	}

	handle, err := h.svc.Resend(c.Request.Context(), req.Email, req.Role)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, handle)
}

func (h *Handler) Me(c *gin.Context) {
	principal := handler.GetPrincipal(c)

	account, err := h.svc.Me(c.Request.Context(), principal.AccountID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, account)
}

func (h *Handler) Logout(c *gin.Context) {
	principal := handler.GetPrincipal(c)

	if err := h.svc.Logout(c.Request.Context(), principal); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"message": "logged out"})
}
