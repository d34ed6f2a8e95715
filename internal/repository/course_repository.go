package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/attendance-api/internal/models"
)

// CourseRepository handles persistence for courses and faculty assignments.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// Create inserts a course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) (*models.Course, error) {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	query := `INSERT INTO courses (id, course_name, course_code, credits)
VALUES ($1, $2, $3, $4)
RETURNING id, course_name, course_code, credits, created_at`
	var stored models.Course
	if err := r.db.GetContext(ctx, &stored, query, course.ID, course.CourseName, course.CourseCode, course.Credits); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return &stored, nil
}

// FindByID loads a course row.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := `SELECT id, course_name, course_code, credits, created_at FROM courses WHERE id = $1`
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// List returns all courses ordered by code.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	query := `SELECT id, course_name, course_code, credits, created_at FROM courses ORDER BY course_code`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// IsFacultyAssigned reports whether the faculty teaches the course.
func (r *CourseRepository) IsFacultyAssigned(ctx context.Context, facultyID, courseID string) (bool, error) {
	query := `SELECT EXISTS (
        SELECT 1 FROM faculty_course_assignments
        WHERE faculty_id = $1 AND course_id = $2)`
	var assigned bool
	if err := r.db.GetContext(ctx, &assigned, query, facultyID, courseID); err != nil {
		return false, fmt.Errorf("check faculty assignment: %w", err)
	}
	return assigned, nil
}

// AssignFaculty links a faculty member to a course, ignoring duplicates.
func (r *CourseRepository) AssignFaculty(ctx context.Context, facultyID, courseID string) error {
	query := `INSERT INTO faculty_course_assignments (faculty_id, course_id)
VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, facultyID, courseID); err != nil {
		return fmt.Errorf("assign faculty: %w", err)
	}
	return nil
}
