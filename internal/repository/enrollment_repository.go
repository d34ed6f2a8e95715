package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// EnrollmentRepository handles the student/course roster relation.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// IsEnrolled reports roster membership for one student and course.
func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	query := `SELECT EXISTS (
        SELECT 1 FROM enrollments WHERE student_id = $1 AND course_id = $2)`
	var enrolled bool
	if err := r.db.GetContext(ctx, &enrolled, query, studentID, courseID); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return enrolled, nil
}

// Enroll adds one student to a course roster, ignoring duplicates. It
// returns true when a new row was inserted.
func (r *EnrollmentRepository) Enroll(ctx context.Context, studentID, courseID string) (bool, error) {
	query := `INSERT INTO enrollments (student_id, course_id)
SELECT $1, $2 WHERE EXISTS (
        SELECT 1 FROM users WHERE reg_no = $1 AND role = 'student')
ON CONFLICT DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, studentID, courseID)
	if err != nil {
		return false, fmt.Errorf("enroll student: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("enroll student: %w", err)
	}
	return n > 0, nil
}

// CountByCourse returns the roster size for a course.
func (r *EnrollmentRepository) CountByCourse(ctx context.Context, courseID string) (int, error) {
	query := `SELECT COUNT(*) FROM enrollments WHERE course_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, courseID); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return count, nil
}
