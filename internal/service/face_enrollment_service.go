package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/campushq/attendance-api/internal/models"
	appErrors "github.com/campushq/attendance-api/pkg/errors"
	"github.com/campushq/attendance-api/pkg/jobs"
)

type faceExtractor interface {
	Extract(ctx context.Context, imageBytes []byte) ([]float64, error)
}

type faceTemplateStore interface {
	FindByRegNo(ctx context.Context, regNo string) (*models.User, error)
	UpdateFaceTemplate(ctx context.Context, regNo string, template []float64) error
}

// FaceEnrollmentService captures a student's reference template from an
// uploaded photo. Enrollment shares the check-in image pipeline and its
// single-face policy, and runs on the same bounded pool.
type FaceEnrollmentService struct {
	extractor faceExtractor
	users     faceTemplateStore
	pool      facePool
	logger    *zap.Logger
}

func NewFaceEnrollmentService(extractor faceExtractor, users faceTemplateStore, pool facePool, logger *zap.Logger) *FaceEnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FaceEnrollmentService{extractor: extractor, users: users, pool: pool, logger: logger}
}

// Enroll extracts a signature from the photo and stores it as regNo's
// reference template, replacing any previous one.
func (s *FaceEnrollmentService) Enroll(ctx context.Context, regNo string, imageBytes []byte) error {
	user, err := s.users.FindByRegNo(ctx, regNo)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrStudentNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if user.Role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrValidation, "face enrollment is only available for students")
	}

	var signature []float64
	extract := func(taskCtx context.Context) error {
		var extractErr error
		signature, extractErr = s.extractor.Extract(taskCtx, imageBytes)
		return extractErr
	}

	if s.pool != nil {
		err = s.pool.Submit(ctx, jobs.Task(extract))
	} else {
		err = extract(ctx)
	}
	if err != nil {
		var rejection *appErrors.Error
		if errors.As(err, &rejection) && isFaceRejection(rejection) {
			return rejection
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to extract face signature")
	}

	if err := s.users.UpdateFaceTemplate(ctx, regNo, signature); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store face template")
	}

	s.logger.Info("face template enrolled", zap.String("reg_no", regNo), zap.Int("signature_len", len(signature)))
	return nil
}
