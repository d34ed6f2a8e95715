package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campushq/attendance-api/internal/models"
)

// UserRepository handles persistence for platform accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByRegNo returns the account for a registration number.
func (r *UserRepository) FindByRegNo(ctx context.Context, regNo string) (*models.User, error) {
	query := `SELECT reg_no, full_name, email, password_hash, role, face_template, active, created_at
FROM users WHERE reg_no = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, regNo); err != nil {
		return nil, err
	}
	return &user, nil
}

// CheckinState loads the student row together with enrollment and duplicate
// flags for one session in a single round trip.
func (r *UserRepository) CheckinState(ctx context.Context, studentID, courseID, sessionID string) (*models.StudentCheckinState, error) {
	query := `SELECT u.reg_no, u.full_name, u.face_template,
        (e.student_id IS NOT NULL) AS enrolled,
        (ar.id IS NOT NULL) AS already_recorded
FROM users u
LEFT JOIN enrollments e ON e.student_id = u.reg_no AND e.course_id = $2
LEFT JOIN attendance_records ar ON ar.student_id = u.reg_no AND ar.session_id = $3
WHERE u.reg_no = $1 AND u.role = 'student' AND u.active`
	var state models.StudentCheckinState
	if err := r.db.GetContext(ctx, &state, query, studentID, courseID, sessionID); err != nil {
		return nil, err
	}
	return &state, nil
}

// UpdateFaceTemplate replaces the stored enrollment signature for a user.
func (r *UserRepository) UpdateFaceTemplate(ctx context.Context, regNo string, template []float64) error {
	query := `UPDATE users SET face_template = $2 WHERE reg_no = $1`
	res, err := r.db.ExecContext(ctx, query, regNo, floatArray(template))
	if err != nil {
		return fmt.Errorf("update face template: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update face template: user %s not found", regNo)
	}
	return nil
}
