package models

import "time"

// Course represents a taught course.
type Course struct {
	ID         string    `db:"id" json:"id"`
	CourseName string    `db:"course_name" json:"course_name"`
	CourseCode string    `db:"course_code" json:"course_code"`
	Credits    int       `db:"credits" json:"credits"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Enrollment links a student to a course roster.
type Enrollment struct {
	StudentID  string    `db:"student_id" json:"student_id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// BulkEnrollResult summarises a roster bulk enrolment.
type BulkEnrollResult struct {
	Enrolled int      `json:"enrolled"`
	Skipped  []string `json:"skipped,omitempty"`
}
