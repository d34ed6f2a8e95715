package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campushq/attendance-api/internal/service"
	appErrors "github.com/campushq/attendance-api/pkg/errors"
	"github.com/campushq/attendance-api/pkg/response"
)

// 8 MiB is generous for a single phone photo.
const maxImageBytes = 8 << 20

// CheckinHandler accepts check-in attempts and face enrollment uploads.
type CheckinHandler struct {
	checkin    *service.CheckinService
	enrollment *service.FaceEnrollmentService
}

// NewCheckinHandler creates a new handler.
func NewCheckinHandler(checkin *service.CheckinService, enrollment *service.FaceEnrollmentService) *CheckinHandler {
	return &CheckinHandler{checkin: checkin, enrollment: enrollment}
}

// Checkin godoc
// @Summary Submit an attendance check-in
// @Description Verify the student's location and face against the active session and record attendance
// @Tags Checkin
// @Accept mpfd
// @Produce json
// @Param lat formData number true "Latitude"
// @Param lon formData number true "Longitude"
// @Param image formData file true "Selfie image"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /checkin [post]
func (h *CheckinHandler) Checkin(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	lat, lon, ok := parseCoordinates(c)
	if !ok {
		return
	}

	image, ok := readImageFile(c, "image")
	if !ok {
		return
	}

	decision, err := h.checkin.Checkin(c.Request.Context(), service.CheckinRequest{
		StudentID: claims.RegNo,
		Image:     image,
		Lat:       lat,
		Lon:       lon,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	if !decision.Accepted {
		response.JSON(c, statusForReason(decision.Reason), decision, nil)
		return
	}
	response.JSON(c, http.StatusCreated, decision, nil)
}

// EnrollFace godoc
// @Summary Enroll a face template
// @Description Extract a reference face signature from the uploaded photo and store it for the student
// @Tags Checkin
// @Accept mpfd
// @Produce json
// @Param image formData file true "Reference photo"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /checkin/face [post]
func (h *CheckinHandler) EnrollFace(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	image, ok := readImageFile(c, "image")
	if !ok {
		return
	}

	if err := h.enrollment.Enroll(c.Request.Context(), claims.RegNo, image); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"status": "enrolled"}, nil)
}

func parseCoordinates(c *gin.Context) (float64, float64, bool) {
	lat, err := strconv.ParseFloat(c.PostForm("lat"), 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid latitude"))
		return 0, 0, false
	}
	lon, err := strconv.ParseFloat(c.PostForm("lon"), 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid longitude"))
		return 0, 0, false
	}
	return lat, lon, true
}

func readImageFile(c *gin.Context, field string) ([]byte, bool) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing image file"))
		return nil, false
	}
	if fileHeader.Size > maxImageBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "image file is too large"))
		return nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open image upload"))
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read image upload"))
		return nil, false
	}
	if len(data) > maxImageBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "image file is too large"))
		return nil, false
	}
	return data, true
}

var rejectionStatuses = map[string]int{
	appErrors.ErrNoActiveSession.Code:       appErrors.ErrNoActiveSession.Status,
	appErrors.ErrStudentNotFound.Code:       appErrors.ErrStudentNotFound.Status,
	appErrors.ErrNotEnrolled.Code:           appErrors.ErrNotEnrolled.Status,
	appErrors.ErrAlreadyRecorded.Code:       appErrors.ErrAlreadyRecorded.Status,
	appErrors.ErrOutOfRange.Code:            appErrors.ErrOutOfRange.Status,
	appErrors.ErrInvalidImage.Code:          appErrors.ErrInvalidImage.Status,
	appErrors.ErrNoFaceDetected.Code:        appErrors.ErrNoFaceDetected.Status,
	appErrors.ErrMultipleFacesDetected.Code: appErrors.ErrMultipleFacesDetected.Status,
	appErrors.ErrFaceMismatch.Code:          appErrors.ErrFaceMismatch.Status,
}

func statusForReason(reason string) int {
	if status, ok := rejectionStatuses[reason]; ok {
		return status
	}
	return http.StatusBadRequest
}
