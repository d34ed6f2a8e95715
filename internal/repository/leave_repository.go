package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/attendance-api/internal/models"
)

// LeaveRepository handles persistence for leave requests.
type LeaveRepository struct {
	db *sqlx.DB
}

// NewLeaveRepository constructs the repository.
func NewLeaveRepository(db *sqlx.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

// Create inserts a pending leave request.
func (r *LeaveRepository) Create(ctx context.Context, req *models.LeaveRequest) (*models.LeaveRequest, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	query := `INSERT INTO leave_requests (id, student_id, start_date, end_date, reason, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, student_id, start_date, end_date, reason, status, reviewed_by, faculty_remarks, created_at`
	var stored models.LeaveRequest
	if err := r.db.GetContext(ctx, &stored, query,
		req.ID, req.StudentID, req.StartDate, req.EndDate, req.Reason, models.LeaveStatusPending,
	); err != nil {
		return nil, fmt.Errorf("create leave request: %w", err)
	}
	return &stored, nil
}

// FindByID loads a leave request.
func (r *LeaveRepository) FindByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	query := `SELECT id, student_id, start_date, end_date, reason, status, reviewed_by, faculty_remarks, created_at
FROM leave_requests WHERE id = $1`
	var req models.LeaveRequest
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		return nil, err
	}
	return &req, nil
}

// Review records the faculty decision on a pending request.
func (r *LeaveRepository) Review(ctx context.Context, id string, status models.LeaveStatus, reviewerID string, remarks *string) (*models.LeaveRequest, error) {
	query := `UPDATE leave_requests
SET status = $2, reviewed_by = $3, faculty_remarks = $4
WHERE id = $1 AND status = $5
RETURNING id, student_id, start_date, end_date, reason, status, reviewed_by, faculty_remarks, created_at`
	var stored models.LeaveRequest
	if err := r.db.GetContext(ctx, &stored, query, id, status, reviewerID, remarks, models.LeaveStatusPending); err != nil {
		return nil, err
	}
	return &stored, nil
}

// ListByStudent returns a student's leave history, newest first.
func (r *LeaveRepository) ListByStudent(ctx context.Context, studentID string) ([]models.LeaveRequest, error) {
	query := `SELECT id, student_id, start_date, end_date, reason, status, reviewed_by, faculty_remarks, created_at
FROM leave_requests WHERE student_id = $1 ORDER BY created_at DESC`
	var requests []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &requests, query, studentID); err != nil {
		return nil, fmt.Errorf("list leave requests: %w", err)
	}
	return requests, nil
}

// ListPending returns pending requests for faculty review, oldest first.
func (r *LeaveRepository) ListPending(ctx context.Context) ([]models.LeaveRequest, error) {
	query := `SELECT id, student_id, start_date, end_date, reason, status, reviewed_by, faculty_remarks, created_at
FROM leave_requests WHERE status = $1 ORDER BY created_at`
	var requests []models.LeaveRequest
	if err := r.db.SelectContext(ctx, &requests, query, models.LeaveStatusPending); err != nil {
		return nil, fmt.Errorf("list pending leave requests: %w", err)
	}
	return requests, nil
}
