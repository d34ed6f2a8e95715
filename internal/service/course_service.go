package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/attendance-api/internal/models"
	appErrors "github.com/campushq/attendance-api/pkg/errors"
)

type courseStore interface {
	Create(ctx context.Context, course *models.Course) (*models.Course, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context) ([]models.Course, error)
	AssignFaculty(ctx context.Context, facultyID, courseID string) error
}

type enrollmentStore interface {
	Enroll(ctx context.Context, studentID, courseID string) (bool, error)
	CountByCourse(ctx context.Context, courseID string) (int, error)
}

// CreateCourseRequest describes a new course.
type CreateCourseRequest struct {
	Code    string `json:"course_code" validate:"required,min=2,max=20"`
	Name    string `json:"course_name" validate:"required,min=2,max=200"`
	Credits int    `json:"credits" validate:"omitempty,min=0,max=10"`
}

// BulkEnrollRequest adds students to a course roster.
type BulkEnrollRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1,dive,required"`
}

// CourseService manages courses and their rosters.
type CourseService struct {
	courses     courseStore
	enrollments enrollmentStore
	validator   *validator.Validate
	logger      *zap.Logger
}

func NewCourseService(courses courseStore, enrollments enrollmentStore, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{courses: courses, enrollments: enrollments, validator: validate, logger: logger}
}

// Create registers a new course.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.courses.Create(ctx, &models.Course{CourseCode: req.Code, CourseName: req.Name, Credits: req.Credits})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("course_code", course.CourseCode))
	return course, nil
}

// List returns all courses.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// AssignFaculty grants a faculty member the right to open sessions for a
// course.
func (s *CourseService) AssignFaculty(ctx context.Context, facultyID, courseID string) error {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.courses.AssignFaculty(ctx, facultyID, courseID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign faculty")
	}
	return nil
}

// BulkEnroll adds the given students to a course roster. Unknown students
// and existing enrollments are skipped, not failed.
func (s *CourseService) BulkEnroll(ctx context.Context, courseID string, req BulkEnrollRequest) (*models.BulkEnrollResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	result := &models.BulkEnrollResult{}
	for _, studentID := range req.StudentIDs {
		inserted, err := s.enrollments.Enroll(ctx, studentID, courseID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
		}
		if inserted {
			result.Enrolled++
		} else {
			result.Skipped = append(result.Skipped, studentID)
		}
	}

	s.logger.Info("bulk enrollment finished",
		zap.String("course_id", courseID),
		zap.Int("enrolled", result.Enrolled),
		zap.Int("skipped", len(result.Skipped)),
	)
	return result, nil
}
