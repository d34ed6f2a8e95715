package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campushq/attendance-api/internal/models"
	"github.com/campushq/attendance-api/internal/service"
	appErrors "github.com/campushq/attendance-api/pkg/errors"
	"github.com/campushq/attendance-api/pkg/response"
)

// DashboardHandler wires HTTP endpoints to the dashboard service.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// StudentOverview godoc
// @Summary Student attendance dashboard
// @Description Per-course attendance percentages and leave status for a student
// @Tags Dashboard
// @Produce json
// @Param id path string true "Student registration number"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /dashboard/students/{id} [get]
func (h *DashboardHandler) StudentOverview(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	studentID := c.Param("id")
	if claims.Role == models.RoleStudent && studentID != claims.RegNo {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "students may only view their own dashboard"))
		return
	}

	dashboard, err := h.service.StudentOverview(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}
