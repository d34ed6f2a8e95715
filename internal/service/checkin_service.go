package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/attendance-api/internal/face"
	"github.com/campushq/attendance-api/internal/models"
	"github.com/campushq/attendance-api/internal/repository"
	appErrors "github.com/campushq/attendance-api/pkg/errors"
	"github.com/campushq/attendance-api/pkg/jobs"
)

type checkinStateReader interface {
	CheckinState(ctx context.Context, studentID, courseID, sessionID string) (*models.StudentCheckinState, error)
}

type attendanceCommitter interface {
	Commit(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error)
}

type sessionResolver interface {
	ResolveActive(ctx context.Context) (*models.ActiveSessionView, error)
}

type faceVerifier interface {
	Verify(ctx context.Context, imageBytes []byte, template []float64) (*face.Result, error)
}

type facePool interface {
	Submit(ctx context.Context, task jobs.Task) error
}

// CheckinRequest carries one check-in attempt.
type CheckinRequest struct {
	StudentID string  `validate:"required"`
	Image     []byte  `validate:"required"`
	Lat       float64 `validate:"min=-90,max=90"`
	Lon       float64 `validate:"min=-180,max=180"`
}

// CheckinService decides whether one attendance record is admitted for a
// request. Checks run cheapest first (session, identity, enrollment,
// duplicate, geofence) so doomed requests never pay for face extraction,
// and the service performs exactly one commit attempt per invocation.
type CheckinService struct {
	resolver  sessionResolver
	users     checkinStateReader
	records   attendanceCommitter
	verifier  faceVerifier
	pool      facePool
	validator *validator.Validate
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewCheckinService constructs the check-in coordinator. The pool, metrics,
// and logger are optional; when pool is nil the face pipeline runs on the
// caller's goroutine.
func NewCheckinService(resolver sessionResolver, users checkinStateReader, records attendanceCommitter, verifier faceVerifier, pool facePool, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *CheckinService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckinService{
		resolver:  resolver,
		users:     users,
		records:   records,
		verifier:  verifier,
		pool:      pool,
		validator: validate,
		metrics:   metrics,
		logger:    logger,
	}
}

// Checkin runs the verification pipeline for one request. Business
// rejections come back inside the decision with accepted=false; only
// unexpected faults (storage or pipeline failures) return an error.
func (s *CheckinService) Checkin(ctx context.Context, req CheckinRequest) (*models.CheckinDecision, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-in payload")
	}

	session, err := s.resolver.ResolveActive(ctx)
	if err != nil {
		if isRejection(err, appErrors.ErrNoActiveSession) {
			return s.reject(appErrors.ErrNoActiveSession, nil, nil), nil
		}
		return nil, err
	}

	state, err := s.users.CheckinState(ctx, req.StudentID, session.CourseID, session.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.reject(appErrors.ErrStudentNotFound, nil, nil), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student state")
	}
	if !state.Enrolled {
		return s.reject(appErrors.ErrNotEnrolled, nil, nil), nil
	}
	if state.AlreadyRecorded {
		return s.reject(appErrors.ErrAlreadyRecorded, nil, nil), nil
	}

	within, distance := WithinRadius(req.Lat, req.Lon, session.Lat, session.Lon, session.RadiusM)
	if !within {
		rejection := appErrors.Clone(appErrors.ErrOutOfRange,
			fmt.Sprintf("location verification failed: you are %.1fm away (max allowed: %.0fm)", distance, session.RadiusM))
		return s.reject(rejection, &distance, nil), nil
	}

	result, err := s.runFacePipeline(ctx, req.Image, state.FaceTemplate)
	if err != nil {
		var rejection *appErrors.Error
		if errors.As(err, &rejection) && isFaceRejection(rejection) {
			return s.reject(rejection, &distance, nil), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "face verification failed unexpectedly")
	}
	if !result.Match {
		rejection := appErrors.Clone(appErrors.ErrFaceMismatch,
			fmt.Sprintf("face verification failed (distance: %.3f)", result.Distance))
		return s.reject(rejection, &distance, &result.Distance), nil
	}

	record := &models.AttendanceRecord{
		SessionID:  session.ID,
		StudentID:  req.StudentID,
		Status:     models.AttendanceStatusPresent,
		RecordedAt: time.Now().UTC(),
		Lat:        req.Lat,
		Lon:        req.Lon,
	}
	stored, err := s.records.Commit(ctx, record)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateRecord) {
			// Lost the race against a concurrent check-in for the same
			// (session, student); same outcome as the optimistic check.
			return s.reject(appErrors.ErrAlreadyRecorded, nil, nil), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit attendance record")
	}

	s.recordOutcome("accepted")
	s.logger.Info("checkin accepted",
		zap.String("student_id", req.StudentID),
		zap.String("session_id", session.ID),
		zap.Float64("distance_m", distance),
		zap.Float64("face_distance", result.Distance),
	)

	return &models.CheckinDecision{
		Accepted:     true,
		Message:      "attendance registered successfully",
		DistanceM:    &distance,
		FaceDistance: &result.Distance,
		RecordID:     stored.ID,
	}, nil
}

// runFacePipeline executes the CPU-bound verify step, isolated on the
// bounded worker pool when one is configured.
func (s *CheckinService) runFacePipeline(ctx context.Context, image []byte, template []float64) (*face.Result, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveFacePipeline(time.Since(start))
		}
	}()

	if s.pool == nil {
		return s.verifier.Verify(ctx, image, template)
	}

	var result *face.Result
	err := s.pool.Submit(ctx, func(taskCtx context.Context) error {
		var verifyErr error
		result, verifyErr = s.verifier.Verify(taskCtx, image, template)
		return verifyErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *CheckinService) reject(rejection *appErrors.Error, distanceM, faceDistance *float64) *models.CheckinDecision {
	s.recordOutcome(strings.ToLower(rejection.Code))
	return &models.CheckinDecision{
		Accepted:     false,
		Reason:       rejection.Code,
		Message:      rejection.Message,
		DistanceM:    distanceM,
		FaceDistance: faceDistance,
	}
}

func (s *CheckinService) recordOutcome(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordCheckinDecision(outcome)
	}
}

func isRejection(err error, kind *appErrors.Error) bool {
	var e *appErrors.Error
	return errors.As(err, &e) && e.Code == kind.Code
}

func isFaceRejection(e *appErrors.Error) bool {
	switch e.Code {
	case appErrors.ErrInvalidImage.Code,
		appErrors.ErrNoFaceDetected.Code,
		appErrors.ErrMultipleFacesDetected.Code,
		appErrors.ErrFaceMismatch.Code:
		return true
	default:
		return false
	}
}
