package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/attendance-api/internal/face"
	"github.com/campushq/attendance-api/internal/middleware"
	"github.com/campushq/attendance-api/internal/models"
	"github.com/campushq/attendance-api/internal/service"
	appErrors "github.com/campushq/attendance-api/pkg/errors"
)

type fakeResolver struct {
	view *models.ActiveSessionView
	err  error
}

func (f *fakeResolver) ResolveActive(ctx context.Context) (*models.ActiveSessionView, error) {
	return f.view, f.err
}

type fakeStateReader struct {
	state *models.StudentCheckinState
}

func (f *fakeStateReader) CheckinState(ctx context.Context, studentID, courseID, sessionID string) (*models.StudentCheckinState, error) {
	return f.state, nil
}

type fakeCommitter struct{}

func (f *fakeCommitter) Commit(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	stored := *record
	stored.ID = "rec-1"
	return &stored, nil
}

type fakeVerifier struct {
	result *face.Result
	err    error
}

func (f *fakeVerifier) Verify(ctx context.Context, imageBytes []byte, template []float64) (*face.Result, error) {
	return f.result, f.err
}

func newCheckinTestService(resolver *fakeResolver, verifier *fakeVerifier) *service.CheckinService {
	state := &models.StudentCheckinState{
		RegNo:        "REG001",
		FaceTemplate: []float64{0.1},
		Enrolled:     true,
	}
	return service.NewCheckinService(resolver, &fakeStateReader{state: state}, &fakeCommitter{}, verifier, nil, nil, nil, nil)
}

func checkinForm(t *testing.T, lat, lon string, withImage bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("lat", lat))
	require.NoError(t, writer.WriteField("lon", lon))
	if withImage {
		part, err := writer.CreateFormFile("image", "selfie.jpg")
		require.NoError(t, err)
		_, err = part.Write([]byte{0xFF, 0xD8, 0xFF, 0xD9})
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func performCheckin(t *testing.T, handler *CheckinHandler, body *bytes.Buffer, contentType string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/checkin", body)
	c.Request.Header.Set("Content-Type", contentType)
	if authed {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{RegNo: "REG001", Role: models.RoleStudent})
	}

	handler.Checkin(c)
	return rec
}

func TestCheckinHandlerAccepted(t *testing.T) {
	svc := newCheckinTestService(
		&fakeResolver{view: &models.ActiveSessionView{ID: "sess-1", CourseID: "course-1", Lat: 13.0827, Lon: 80.2707, RadiusM: 100}},
		&fakeVerifier{result: &face.Result{Match: true, Distance: 0.3}},
	)
	handler := NewCheckinHandler(svc, nil)

	body, contentType := checkinForm(t, "13.0827", "80.2707", true)
	rec := performCheckin(t, handler, body, contentType, true)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var envelope struct {
		Data models.CheckinDecision `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Accepted)
	assert.Equal(t, "rec-1", envelope.Data.RecordID)
}

func TestCheckinHandlerOutOfRange(t *testing.T) {
	svc := newCheckinTestService(
		&fakeResolver{view: &models.ActiveSessionView{ID: "sess-1", CourseID: "course-1", Lat: 13.0827, Lon: 80.2707, RadiusM: 100}},
		&fakeVerifier{result: &face.Result{Match: true, Distance: 0.3}},
	)
	handler := NewCheckinHandler(svc, nil)

	body, contentType := checkinForm(t, "13.2000", "80.2707", true)
	rec := performCheckin(t, handler, body, contentType, true)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	var envelope struct {
		Data models.CheckinDecision `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Accepted)
	assert.Equal(t, appErrors.ErrOutOfRange.Code, envelope.Data.Reason)
	assert.NotNil(t, envelope.Data.DistanceM)
}

func TestCheckinHandlerNoActiveSession(t *testing.T) {
	svc := newCheckinTestService(&fakeResolver{err: appErrors.ErrNoActiveSession}, &fakeVerifier{})
	handler := NewCheckinHandler(svc, nil)

	body, contentType := checkinForm(t, "13.0827", "80.2707", true)
	rec := performCheckin(t, handler, body, contentType, true)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCheckinHandlerUnauthenticated(t *testing.T) {
	handler := NewCheckinHandler(newCheckinTestService(&fakeResolver{}, &fakeVerifier{}), nil)

	body, contentType := checkinForm(t, "13.0827", "80.2707", true)
	rec := performCheckin(t, handler, body, contentType, false)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCheckinHandlerMissingImage(t *testing.T) {
	handler := NewCheckinHandler(newCheckinTestService(&fakeResolver{}, &fakeVerifier{}), nil)

	body, contentType := checkinForm(t, "13.0827", "80.2707", false)
	rec := performCheckin(t, handler, body, contentType, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckinHandlerBadCoordinates(t *testing.T) {
	handler := NewCheckinHandler(newCheckinTestService(&fakeResolver{}, &fakeVerifier{}), nil)

	body, contentType := checkinForm(t, "not-a-number", "80.2707", true)
	rec := performCheckin(t, handler, body, contentType, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
