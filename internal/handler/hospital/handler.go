package hospital

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bloodlink/blood-api/internal/handler"
	"github.com/bloodlink/blood-api/internal/model"
	"github.com/bloodlink/blood-api/internal/service/matching"
	"github.com/bloodlink/blood-api/internal/service/request"
	"github.com/bloodlink/blood-api/pkg/errors"
	"github.com/bloodlink/blood-api/pkg/httputil"
)

type Handler struct {
	requests *request.Service
	matching *matching.Service
}

func NewHandler(requests *request.Service, matching *matching.Service) *Handler {
	return &Handler{requests: requests, matching: matching}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/hospital")
	{
		group.POST("/requests", h.CreateRequest)
		group.GET("/requests", h.ListRequests)
		group.GET("/requests/:id", h.GetRequest)
		group.GET("/requests/:id/matches", h.ListMatches)
		group.PATCH("/requests/:id/confirm", h.ConfirmRequest)
		group.PATCH("/requests/:id/complete", h.CompleteRequest)
		group.PATCH("/requests/:id/cancel", h.CancelRequest)

		group.GET("/donors", h.ListDonors)
		group.POST("/donors/add-direct", h.AddDirectDonor)
	}
}

func requestID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.NotFound("blood request")
	}
	return id, nil
}

func (h *Handler) CreateRequest(c *gin.Context) {
	var req model.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Wrap(errors.ErrInvalidProfile, err.Error(), err))
		return
	}

	created, err := h.requests.Create(c.Request.Context(), handler.GetPrincipal(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, created)
}

func (h *Handler) ListRequests(c *gin.Context) {
	var filters model.RequestFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, errors.Wrap(errors.ErrInvalidProfile, err.Error(), err))
		return
	}

	requests, total, err := h.requests.ListForHospital(c.Request.Context(), handler.GetPrincipal(c), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithPagination(c, requests, filters.Page, filters.Limit, total)
}

func (h *Handler) GetRequest(c *gin.Context) {
	id, err := requestID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	found, err := h.requests.Get(c.Request.Context(), handler.GetPrincipal(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, found)
}

func (h *Handler) ListMatches(c *gin.Context) {
	id, err := requestID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	donors, err := h.matching.EligibleDonors(c.Request.Context(), handler.GetPrincipal(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, donors)
}

func (h *Handler) ConfirmRequest(c *gin.Context) {
	h.applyTransition(c, h.requests.Confirm)
}

func (h *Handler) CompleteRequest(c *gin.Context) {
	h.applyTransition(c, h.requests.Complete)
}

func (h *Handler) CancelRequest(c *gin.Context) {
	h.applyTransition(c, h.requests.Cancel)
}

func (h *Handler) applyTransition(c *gin.Context, fn func(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.BloodRequest, error)) {
	id, err := requestID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	updated, err := fn(c.Request.Context(), handler.GetPrincipal(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, updated)
}

func (h *Handler) ListDonors(c *gin.Context) {
	records, err := h.matching.HospitalRoster(c.Request.Context(), handler.GetPrincipal(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, records)
}

func (h *Handler) AddDirectDonor(c *gin.Context) {
	var req model.DirectDonorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Wrap(errors.ErrInvalidProfile, err.Error(), err))
		return
	}

	donor, err := h.matching.RegisterDirectDonor(c.Request.Context(), handler.GetPrincipal(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, donor)
}
