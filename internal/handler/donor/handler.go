package donor

import (
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
	group := r.Group("/donor")
	{
		group.GET("/requests", h.ListOpenRequests)
		group.POST("/requests/:id/accept", h.AcceptRequest)
		group.PATCH("/requests/:id/on-the-way", h.MarkOnTheWay)
		group.PATCH("/requests/:id/cancel", h.CancelRequest)
		group.GET("/donations", h.ListDonations)
		group.PATCH("/availability", h.SetAvailability)
	}
}

func requestID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.NotFound("blood request")
	}
	return id, nil
}

func (h *Handler) ListOpenRequests(c *gin.Context) {
	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		httputil.RespondWithError(c, errors.Wrap(errors.ErrInvalidProfile, err.Error(), err))
		return
	}

	requests, total, err := h.requests.ListOpenForDonor(c.Request.Context(), handler.GetPrincipal(c), page)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	page.Normalize()
	httputil.RespondWithPagination(c, requests, page.Page, page.Limit, total)
}

func (h *Handler) AcceptRequest(c *gin.Context) {
	id, err := requestID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	updated, err := h.requests.Accept(c.Request.Context(), handler.GetPrincipal(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, updated)
}

func (h *Handler) MarkOnTheWay(c *gin.Context) {
	id, err := requestID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	updated, err := h.requests.MarkOnTheWay(c.Request.Context(), handler.GetPrincipal(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, updated)
}

func (h *Handler) CancelRequest(c *gin.Context) {
	id, err := requestID(c)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	updated, err := h.requests.Cancel(c.Request.Context(), handler.GetPrincipal(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, updated)
}

func (h *Handler) ListDonations(c *gin.Context) {
	records, err := h.matching.DonorHistory(c.Request.Context(), handler.GetPrincipal(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, records)
}

func (h *Handler) SetAvailability(c *gin.Context) {
	var req model.UpdateAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, errors.Wrap(errors.ErrInvalidProfile, err.Error(), err))
		return
	}

	account, err := h.matching.SetAvailability(c.Request.Context(), handler.GetPrincipal(c), req.IsAvailable)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, account)
}
