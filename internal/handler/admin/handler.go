package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bloodlink/blood-api/internal/handler"
	"github.com/bloodlink/blood-api/internal/model"
	adminService "github.com/bloodlink/blood-api/internal/service/admin"
	"github.com/bloodlink/blood-api/internal/service/request"
	"github.com/bloodlink/blood-api/pkg/errors"
	"github.com/bloodlink/blood-api/pkg/httputil"
)

type Handler struct {
	admin    *adminService.Service
	requests *request.Service
}

func NewHandler(admin *adminService.Service, requests *request.Service) *Handler {
	return &Handler{admin: admin, requests: requests}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/admin")
	{
		group.GET("/users", h.ListUsers)
		group.GET("/users/:id", h.GetUser)
		group.PUT("/users/:id/status", h.SetUserStatus)
		group.PUT("/users/:id/approve", h.ApproveHospital)
		group.DELETE("/users/:id", h.DeleteUser)

		group.GET("/requests", h.ListRequests)
		group.PUT("/requests/:id/status", h.SetRequestStatus)
	}
}

func pathID(c *gin.Context, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.NotFound(resource)
	}
	return id, nil
}

func (h *Handler) ListUsers(c *gin.Context) {
	var filters model.AccountFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, errors.Wrap(errors.ErrInvalidProfile, err.Error(), err))
		return
	}

	accounts, total, err := h.admin.ListAccounts(c.Request.Context(), handler.GetPrincipal(c), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithPagination(c, accounts, filters.Page, filters.Limit, total)
}

func (h *Handler) GetUser(c *gin.Context) {
	id, err := pathID(c, "account")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	account, err := h.admin.GetAccount(c.Request.Context(), handler.GetPrincipal(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, account)
}

func (h *Handler) SetUserStatus(c *gin.Context) {
	id, err := pathID(c, "account")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateAccountStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Wrap(errors.ErrInvalidProfile, err.Error(), err))
		return
	}

	account, err := h.admin.SetAccountStatus(c.Request.Context(), handler.GetPrincipal(c), id, req.IsActive)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, account)
}

func (h *Handler) ApproveHospital(c *gin.Context) {
	id, err := pathID(c, "account")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req struct {
		IsApproved bool `json:"is_approved"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Wrap(errors.ErrInvalidProfile, err.Error(), err))
		return
	}

	account, err := h.admin.ApproveHospital(c.Request.Context(), handler.GetPrincipal(c), id, req.IsApproved)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, account)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, err := pathID(c, "account")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	if err := h.admin.DeleteAccount(c.Request.Context(), handler.GetPrincipal(c), id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{"deleted": id})
}

func (h *Handler) ListRequests(c *gin.Context) {
	var filters model.RequestFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, errors.Wrap(errors.ErrInvalidProfile, err.Error(), err))
		return
	}

	requests, total, err := h.requests.ListAll(c.Request.Context(), handler.GetPrincipal(c), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithPagination(c, requests, filters.Page, filters.Limit, total)
}

func (h *Handler) SetRequestStatus(c *gin.Context) {
	id, err := pathID(c, "blood request")
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	var req model.UpdateRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Wrap(errors.ErrInvalidProfile, err.Error(), err))
		return
	}

	updated, err := h.requests.SetStatus(c.Request.Context(), handler.GetPrincipal(c), id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, updated)
}
