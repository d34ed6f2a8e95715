package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushq/attendance-api/internal/service"
	appErrors "github.com/campushq/attendance-api/pkg/errors"
	"github.com/campushq/attendance-api/pkg/response"
)

// LeaveHandler wires HTTP endpoints to the leave workflow service.
type LeaveHandler struct {
	service *service.LeaveService
}

// NewLeaveHandler creates a new handler.
func NewLeaveHandler(svc *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{service: svc}
}

// Apply godoc
// @Summary File a leave request
// @Tags Leave
// @Accept json
// @Produce json
// @Param payload body service.ApplyLeaveRequest true "Leave payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /leaves [post]
func (h *LeaveHandler) Apply(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ApplyLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid leave payload"))
		return
	}

	created, err := h.service.Apply(c.Request.Context(), claims.RegNo, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Review godoc
// @Summary Review a leave request
// @Description Approve or reject a pending leave request
// @Tags Leave
// @Accept json
// @Produce json
// @Param id path string true "Leave request ID"
// @Param payload body service.ReviewLeaveRequest true "Review decision"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /leaves/{id}/review [post]
func (h *LeaveHandler) Review(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.ReviewLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}

	reviewed, err := h.service.Review(c.Request.Context(), claims.RegNo, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviewed, nil)
}

// ListMine godoc
// @Summary List own leave requests
// @Tags Leave
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaves [get]
func (h *LeaveHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	requests, err := h.service.ListMine(c.Request.Context(), claims.RegNo)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// ListPending godoc
// @Summary List pending leave requests
// @Tags Leave
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaves/pending [get]
func (h *LeaveHandler) ListPending(c *gin.Context) {
	requests, err := h.service.ListPending(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}
