package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/attendance-api/internal/models"
	appErrors "github.com/campushq/attendance-api/pkg/errors"
	"github.com/campushq/attendance-api/pkg/export"
)

type sessionStore interface {
	FindActive(ctx context.Context, now time.Time) (*models.ActiveSessionView, error)
	ExistsActiveToday(ctx context.Context, facultyID, courseID string, now time.Time) (bool, error)
	Create(ctx context.Context, session *models.AttendanceSession) (*models.AttendanceSession, error)
	End(ctx context.Context, sessionID string, endedAt time.Time) error
	FindByID(ctx context.Context, sessionID string) (*models.AttendanceSession, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	IsFacultyAssigned(ctx context.Context, facultyID, courseID string) (bool, error)
}

type attendanceReporter interface {
	PresentRollNumbers(ctx context.Context, sessionID string) ([]string, error)
	SessionReport(ctx context.Context, sessionID string) ([]models.AttendanceReportRow, error)
}

type enrollmentCounter interface {
	CountByCourse(ctx context.Context, courseID string) (int, error)
}

type cacheInvalidator interface {
	InvalidateCache()
}

// CreateSessionRequest opens a check-in window for one course at one place.
type CreateSessionRequest struct {
	CourseID string  `json:"course_id" validate:"required"`
	Lat      float64 `json:"lat" validate:"min=-90,max=90"`
	Lon      float64 `json:"lon" validate:"min=-180,max=180"`
	RadiusM  float64 `json:"radius_m" validate:"omitempty,gt=0"`
	Remarks  *string `json:"remarks,omitempty"`
}

const summaryCacheTTL = 10 * time.Second

// SessionService owns the session lifecycle: opening and closing check-in
// windows and reporting on them. Every lifecycle mutation invalidates the
// in-process session snapshot before it touches storage, so no check-in can
// be admitted against a stale window.
type SessionService struct {
	sessions      sessionStore
	courses       courseReader
	attendance    attendanceReporter
	enrollments   enrollmentCounter
	resolver      cacheInvalidator
	cache         *CacheService
	csvExporter   *export.CSVExporter
	pdfExporter   *export.PDFExporter
	validator     *validator.Validate
	defaultRadius float64
	logger        *zap.Logger
}

func NewSessionService(sessions sessionStore, courses courseReader, attendance attendanceReporter, enrollments enrollmentCounter, resolver cacheInvalidator, cache *CacheService, validate *validator.Validate, defaultRadius float64, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		sessions:      sessions,
		courses:       courses,
		attendance:    attendance,
		enrollments:   enrollments,
		resolver:      resolver,
		cache:         cache,
		csvExporter:   export.NewCSVExporter(),
		pdfExporter:   export.NewPDFExporter(),
		validator:     validate,
		defaultRadius: defaultRadius,
		logger:        logger,
	}
}

// Create opens a new session for facultyID. The faculty must be assigned to
// the course and must not already have an active session for it today.
func (s *SessionService) Create(ctx context.Context, facultyID string, req CreateSessionRequest) (*models.AttendanceSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	course, err := s.courses.FindByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	assigned, err := s.courses.IsFacultyAssigned(ctx, facultyID, course.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course assignment")
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "faculty is not assigned to this course")
	}

	now := time.Now().UTC()
	exists, err := s.sessions.ExistsActiveToday(ctx, facultyID, course.ID, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing sessions")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an active session already exists for this course today")
	}

	radius := req.RadiusM
	if radius <= 0 {
		radius = s.defaultRadius
	}

	// Drop the cached snapshot before the new row lands so a concurrent
	// check-in cannot be resolved against the previous window.
	s.resolver.InvalidateCache()

	session, err := s.sessions.Create(ctx, &models.AttendanceSession{
		CourseID:  course.ID,
		FacultyID: facultyID,
		Lat:       req.Lat,
		Lon:       req.Lon,
		RadiusM:   radius,
		StartTime: now,
		Active:    true,
		Remarks:   req.Remarks,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}

	s.invalidateSummary(ctx, session.ID)
	s.logger.Info("session created",
		zap.String("session_id", session.ID),
		zap.String("course_id", session.CourseID),
		zap.String("faculty_id", facultyID),
	)
	return session, nil
}

// End closes a session. Only the faculty who opened it may close it.
func (s *SessionService) End(ctx context.Context, facultyID, sessionID string) (*models.AttendanceSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	if session.FacultyID != facultyID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "session belongs to another faculty")
	}

	s.resolver.InvalidateCache()

	endedAt := time.Now().UTC()
	if err := s.sessions.End(ctx, sessionID, endedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "session is already closed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to end session")
	}

	s.invalidateSummary(ctx, sessionID)
	s.logger.Info("session ended", zap.String("session_id", sessionID))

	session.Active = false
	session.EndTime = &endedAt
	return session, nil
}

// ActiveSummary reports live attendance for the currently active session.
func (s *SessionService) ActiveSummary(ctx context.Context) (*models.SessionSummary, error) {
	view, err := s.sessions.FindActive(ctx, time.Now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve active session")
	}
	if view == nil {
		return nil, appErrors.ErrNoActiveSession
	}

	cacheKey := s.summaryKey(view.ID)
	if s.cache != nil && s.cache.Enabled() {
		var cached models.SessionSummary
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	present, err := s.attendance.PresentRollNumbers(ctx, view.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load present students")
	}
	total, err := s.enrollments.CountByCourse(ctx, view.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count enrollments")
	}

	summary := &models.SessionSummary{
		SessionID:          view.ID,
		CourseID:           view.CourseID,
		PresentRollNumbers: present,
		PresentCount:       len(present),
		TotalStudents:      total,
	}
	if s.cache != nil && s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, summary, summaryCacheTTL)
	}
	return summary, nil
}

// ExportReport renders a session's attendance report as CSV or PDF bytes.
func (s *SessionService) ExportReport(ctx context.Context, sessionID, format string) ([]byte, string, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	rows, err := s.attendance.SessionReport(ctx, sessionID)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session report")
	}

	data := export.Dataset{
		Headers: []string{"Student ID", "Student Name", "Status", "Recorded At"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"Student ID":   row.StudentID,
			"Student Name": row.StudentName,
			"Status":       row.Status,
			"Recorded At":  row.RecordedAt.Format(time.RFC3339),
		})
	}

	switch format {
	case "", "csv":
		out, err := s.csvExporter.Render(data)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render CSV report")
		}
		return out, "text/csv", nil
	case "pdf":
		title := fmt.Sprintf("Attendance Report - %s (%s)", session.CourseID, session.StartTime.Format("2006-01-02"))
		out, err := s.pdfExporter.Render(data, title)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render PDF report")
		}
		return out, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func (s *SessionService) summaryKey(sessionID string) string {
	return "session:summary:" + sessionID
}

func (s *SessionService) invalidateSummary(ctx context.Context, sessionID string) {
	if s.cache != nil && s.cache.Enabled() {
		_ = s.cache.Invalidate(ctx, s.summaryKey(sessionID))
	}
}
