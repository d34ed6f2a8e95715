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

type mockLeaveStore struct {
	created  *models.LeaveRequest
	byID     *models.LeaveRequest
	findErr  error
	reviewed *models.LeaveRequest
}

func (m *mockLeaveStore) Create(ctx context.Context, req *models.LeaveRequest) (*models.LeaveRequest, error) {
	stored := *req
	stored.ID = "leave-1"
	stored.CreatedAt = time.Now()
	m.created = &stored
	return &stored, nil
}

func (m *mockLeaveStore) FindByID(ctx context.Context, id string) (*models.LeaveRequest, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.byID, nil
}

func (m *mockLeaveStore) Review(ctx context.Context, id string, status models.LeaveStatus, reviewerID string, remarks *string) (*models.LeaveRequest, error) {
	reviewed := *m.byID
	reviewed.Status = status
	reviewed.ReviewedBy = &reviewerID
	reviewed.FacultyRemarks = remarks
	m.reviewed = &reviewed
	return &reviewed, nil
}

func (m *mockLeaveStore) ListByStudent(ctx context.Context, studentID string) ([]models.LeaveRequest, error) {
	return nil, nil
}

func (m *mockLeaveStore) ListPending(ctx context.Context) ([]models.LeaveRequest, error) {
	return nil, nil
}

func validLeaveRequest() ApplyLeaveRequest {
	start := time.Now().Truncate(24 * time.Hour)
	return ApplyLeaveRequest{
		StartDate: start,
		EndDate:   start.Add(48 * time.Hour),
		Reason:    "department symposium on-duty",
	}
}

func TestApplyLeave(t *testing.T) {
	store := &mockLeaveStore{}
	svc := NewLeaveService(store, nil, nil)

	created, err := svc.Apply(context.Background(), "REG001", validLeaveRequest())
	require.NoError(t, err)
	assert.Equal(t, "leave-1", created.ID)
	assert.Equal(t, models.LeaveStatusPending, created.Status)
	assert.Equal(t, "REG001", created.StudentID)
}

func TestApplyLeaveEndBeforeStart(t *testing.T) {
	svc := NewLeaveService(&mockLeaveStore{}, nil, nil)

	req := validLeaveRequest()
	req.EndDate = req.StartDate.Add(-24 * time.Hour)

	_, err := svc.Apply(context.Background(), "REG001", req)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestApplyLeaveShortReason(t *testing.T) {
	svc := NewLeaveService(&mockLeaveStore{}, nil, nil)

	req := validLeaveRequest()
	req.Reason = "sick"

	_, err := svc.Apply(context.Background(), "REG001", req)
	require.Error(t, err)
}

func TestReviewLeaveApprove(t *testing.T) {
	store := &mockLeaveStore{byID: &models.LeaveRequest{ID: "leave-1", Status: models.LeaveStatusPending}}
	svc := NewLeaveService(store, nil, nil)

	remarks := "approved for symposium"
	reviewed, err := svc.Review(context.Background(), "FAC001", "leave-1", ReviewLeaveRequest{
		Status:  models.LeaveStatusApproved,
		Remarks: &remarks,
	})
	require.NoError(t, err)
	assert.Equal(t, models.LeaveStatusApproved, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, "FAC001", *reviewed.ReviewedBy)
}

func TestReviewLeaveAlreadyReviewed(t *testing.T) {
	store := &mockLeaveStore{byID: &models.LeaveRequest{ID: "leave-1", Status: models.LeaveStatusApproved}}
	svc := NewLeaveService(store, nil, nil)

	_, err := svc.Review(context.Background(), "FAC001", "leave-1", ReviewLeaveRequest{Status: models.LeaveStatusRejected})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestReviewLeaveInvalidDecision(t *testing.T) {
	svc := NewLeaveService(&mockLeaveStore{}, nil, nil)

	_, err := svc.Review(context.Background(), "FAC001", "leave-1", ReviewLeaveRequest{Status: models.LeaveStatusPending})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestReviewLeaveNotFound(t *testing.T) {
	svc := NewLeaveService(&mockLeaveStore{findErr: sql.ErrNoRows}, nil, nil)

	_, err := svc.Review(context.Background(), "FAC001", "missing", ReviewLeaveRequest{Status: models.LeaveStatusApproved})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
