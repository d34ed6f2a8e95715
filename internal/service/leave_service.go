package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushq/attendance-api/internal/models"
	appErrors "github.com/campushq/attendance-api/pkg/errors"
)

type leaveStore interface {
	Create(ctx context.Context, req *models.LeaveRequest) (*models.LeaveRequest, error)
	FindByID(ctx context.Context, id string) (*models.LeaveRequest, error)
	Review(ctx context.Context, id string, status models.LeaveStatus, reviewerID string, remarks *string) (*models.LeaveRequest, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.LeaveRequest, error)
	ListPending(ctx context.Context) ([]models.LeaveRequest, error)
}

// ApplyLeaveRequest is a student's leave/on-duty application payload.
type ApplyLeaveRequest struct {
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	Reason    string    `json:"reason" validate:"required,min=5,max=500"`
}

// ReviewLeaveRequest is a faculty decision on a pending application.
type ReviewLeaveRequest struct {
	Status  models.LeaveStatus `json:"status" validate:"required"`
	Remarks *string            `json:"remarks,omitempty"`
}

// LeaveService handles the leave/on-duty workflow: students apply, faculty
// approve or reject.
type LeaveService struct {
	leaves    leaveStore
	validator *validator.Validate
	logger    *zap.Logger
}

func NewLeaveService(leaves leaveStore, validate *validator.Validate, logger *zap.Logger) *LeaveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaveService{leaves: leaves, validator: validate, logger: logger}
}

// Apply files a new leave request for studentID.
func (s *LeaveService) Apply(ctx context.Context, studentID string, req ApplyLeaveRequest) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid leave payload")
	}
	if req.EndDate.Before(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must not be before start date")
	}

	created, err := s.leaves.Create(ctx, &models.LeaveRequest{
		StudentID: studentID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
		Status:    models.LeaveStatusPending,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to file leave request")
	}

	s.logger.Info("leave request filed",
		zap.String("leave_id", created.ID),
		zap.String("student_id", studentID),
	)
	return created, nil
}

// Review resolves a pending request. Only pending requests can be reviewed,
// and the decision must be approved or rejected.
func (s *LeaveService) Review(ctx context.Context, reviewerID, leaveID string, req ReviewLeaveRequest) (*models.LeaveRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}
	if req.Status != models.LeaveStatusApproved && req.Status != models.LeaveStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be approved or rejected")
	}

	existing, err := s.leaves.FindByID(ctx, leaveID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "leave request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave request")
	}
	if existing.Status != models.LeaveStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "leave request has already been reviewed")
	}

	reviewed, err := s.leaves.Review(ctx, leaveID, req.Status, reviewerID, req.Remarks)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to review leave request")
	}

	s.logger.Info("leave request reviewed",
		zap.String("leave_id", leaveID),
		zap.String("reviewer_id", reviewerID),
		zap.String("status", string(req.Status)),
	)
	return reviewed, nil
}

// ListMine returns all leave requests filed by studentID, newest first.
func (s *LeaveService) ListMine(ctx context.Context, studentID string) ([]models.LeaveRequest, error) {
	requests, err := s.leaves.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list leave requests")
	}
	return requests, nil
}

// ListPending returns all unreviewed requests for the faculty queue.
func (s *LeaveService) ListPending(ctx context.Context) ([]models.LeaveRequest, error) {
	requests, err := s.leaves.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list pending leave requests")
	}
	return requests, nil
}
