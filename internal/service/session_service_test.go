package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/attendance-api/internal/models"
	appErrors "github.com/campushq/attendance-api/pkg/errors"
)

type mockSessionStore struct {
	active      *models.ActiveSessionView
	activeToday bool
	created     *models.AttendanceSession
	byID        *models.AttendanceSession
	findErr     error
	endErr      error
	createCalls int
}

func (m *mockSessionStore) FindActive(ctx context.Context, now time.Time) (*models.ActiveSessionView, error) {
	return m.active, nil
}

func (m *mockSessionStore) ExistsActiveToday(ctx context.Context, facultyID, courseID string, now time.Time) (bool, error) {
	return m.activeToday, nil
}

func (m *mockSessionStore) Create(ctx context.Context, session *models.AttendanceSession) (*models.AttendanceSession, error) {
	m.createCalls++
	stored := *session
	stored.ID = "sess-1"
	m.created = &stored
	return &stored, nil
}

func (m *mockSessionStore) End(ctx context.Context, sessionID string, endedAt time.Time) error {
	return m.endErr
}

func (m *mockSessionStore) FindByID(ctx context.Context, sessionID string) (*models.AttendanceSession, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.byID, nil
}

type mockCourseReader struct {
	course   *models.Course
	err      error
	assigned bool
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.course, nil
}

func (m *mockCourseReader) IsFacultyAssigned(ctx context.Context, facultyID, courseID string) (bool, error) {
	return m.assigned, nil
}

type mockReporter struct {
	present []string
	rows    []models.AttendanceReportRow
}

func (m *mockReporter) PresentRollNumbers(ctx context.Context, sessionID string) ([]string, error) {
	return m.present, nil
}

func (m *mockReporter) SessionReport(ctx context.Context, sessionID string) ([]models.AttendanceReportRow, error) {
	return m.rows, nil
}

type mockCounter struct {
	count int
}

func (m *mockCounter) CountByCourse(ctx context.Context, courseID string) (int, error) {
	return m.count, nil
}

type mockInvalidator struct {
	calls int
}

func (m *mockInvalidator) InvalidateCache() {
	m.calls++
}

func newSessionService(store *mockSessionStore, courses *mockCourseReader, invalidator *mockInvalidator) *SessionService {
	return NewSessionService(store, courses, &mockReporter{}, &mockCounter{}, invalidator, nil, nil, 100, nil)
}

func validSessionRequest() CreateSessionRequest {
	return CreateSessionRequest{CourseID: "course-1", Lat: 13.0827, Lon: 80.2707, RadiusM: 50}
}

func TestCreateSessionSuccess(t *testing.T) {
	store := &mockSessionStore{}
	invalidator := &mockInvalidator{}
	svc := newSessionService(store, &mockCourseReader{course: &models.Course{ID: "course-1"}, assigned: true}, invalidator)

	session, err := svc.Create(context.Background(), "FAC001", validSessionRequest())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", session.ID)
	assert.True(t, session.Active)
	assert.Equal(t, 50.0, session.RadiusM)
	assert.Equal(t, 1, invalidator.calls, "the cached snapshot must be dropped on create")
}

func TestCreateSessionDefaultRadius(t *testing.T) {
	store := &mockSessionStore{}
	svc := newSessionService(store, &mockCourseReader{course: &models.Course{ID: "course-1"}, assigned: true}, &mockInvalidator{})

	req := validSessionRequest()
	req.RadiusM = 0

	session, err := svc.Create(context.Background(), "FAC001", req)
	require.NoError(t, err)
	assert.Equal(t, 100.0, session.RadiusM)
}

func TestCreateSessionCourseNotFound(t *testing.T) {
	svc := newSessionService(&mockSessionStore{}, &mockCourseReader{err: sql.ErrNoRows}, &mockInvalidator{})

	_, err := svc.Create(context.Background(), "FAC001", validSessionRequest())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestCreateSessionUnassignedFaculty(t *testing.T) {
	store := &mockSessionStore{}
	svc := newSessionService(store, &mockCourseReader{course: &models.Course{ID: "course-1"}, assigned: false}, &mockInvalidator{})

	_, err := svc.Create(context.Background(), "FAC001", validSessionRequest())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Zero(t, store.createCalls)
}

func TestCreateSessionAlreadyActiveToday(t *testing.T) {
	store := &mockSessionStore{activeToday: true}
	svc := newSessionService(store, &mockCourseReader{course: &models.Course{ID: "course-1"}, assigned: true}, &mockInvalidator{})

	_, err := svc.Create(context.Background(), "FAC001", validSessionRequest())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Zero(t, store.createCalls)
}

func TestEndSessionSuccess(t *testing.T) {
	store := &mockSessionStore{byID: &models.AttendanceSession{ID: "sess-1", FacultyID: "FAC001", Active: true}}
	invalidator := &mockInvalidator{}
	svc := newSessionService(store, &mockCourseReader{}, invalidator)

	session, err := svc.End(context.Background(), "FAC001", "sess-1")
	require.NoError(t, err)
	assert.False(t, session.Active)
	require.NotNil(t, session.EndTime)
	assert.Equal(t, 1, invalidator.calls)
}

func TestEndSessionWrongFaculty(t *testing.T) {
	store := &mockSessionStore{byID: &models.AttendanceSession{ID: "sess-1", FacultyID: "FAC001"}}
	svc := newSessionService(store, &mockCourseReader{}, &mockInvalidator{})

	_, err := svc.End(context.Background(), "FAC002", "sess-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestEndSessionAlreadyClosed(t *testing.T) {
	store := &mockSessionStore{
		byID:   &models.AttendanceSession{ID: "sess-1", FacultyID: "FAC001"},
		endErr: sql.ErrNoRows,
	}
	svc := newSessionService(store, &mockCourseReader{}, &mockInvalidator{})

	_, err := svc.End(context.Background(), "FAC001", "sess-1")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestActiveSummary(t *testing.T) {
	store := &mockSessionStore{active: &models.ActiveSessionView{ID: "sess-1", CourseID: "course-1"}}
	svc := NewSessionService(store, &mockCourseReader{}, &mockReporter{present: []string{"REG001", "REG002"}}, &mockCounter{count: 30}, &mockInvalidator{}, nil, nil, 100, nil)

	summary, err := svc.ActiveSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sess-1", summary.SessionID)
	assert.Equal(t, 2, summary.PresentCount)
	assert.Equal(t, []string{"REG001", "REG002"}, summary.PresentRollNumbers)
	assert.Equal(t, 30, summary.TotalStudents)
}

func TestActiveSummaryNoSession(t *testing.T) {
	svc := newSessionService(&mockSessionStore{}, &mockCourseReader{}, &mockInvalidator{})

	_, err := svc.ActiveSummary(context.Background())
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNoActiveSession.Code, appErr.Code)
}

func TestExportReportCSV(t *testing.T) {
	store := &mockSessionStore{byID: &models.AttendanceSession{ID: "sess-1", CourseID: "course-1", StartTime: time.Now()}}
	reporter := &mockReporter{rows: []models.AttendanceReportRow{
		{StudentID: "REG001", StudentName: "Test Student", Status: "present", RecordedAt: time.Now()},
	}}
	svc := NewSessionService(store, &mockCourseReader{}, reporter, &mockCounter{}, &mockInvalidator{}, nil, nil, 100, nil)

	payload, contentType, err := svc.ExportReport(context.Background(), "sess-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)
	assert.Contains(t, string(payload), "REG001")
	assert.Contains(t, string(payload), "Student ID")
}

func TestExportReportUnsupportedFormat(t *testing.T) {
	store := &mockSessionStore{byID: &models.AttendanceSession{ID: "sess-1"}}
	svc := newSessionService(store, &mockCourseReader{}, &mockInvalidator{})

	_, _, err := svc.ExportReport(context.Background(), "sess-1", "xlsx")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
