package models

import "time"

// AttendanceSession is an open window during which check-ins for one course
// at one place are accepted. At most one session is active per
// (faculty, course, day); creation enforces that.
type AttendanceSession struct {
	ID        string     `db:"id" json:"id"`
	CourseID  string     `db:"course_id" json:"course_id"`
	FacultyID string     `db:"faculty_id" json:"faculty_id"`
	Lat       float64    `db:"lat" json:"lat"`
	Lon       float64    `db:"lon" json:"lon"`
	RadiusM   float64    `db:"radius_m" json:"radius_m"`
	StartTime time.Time  `db:"start_time" json:"start_time"`
	EndTime   *time.Time `db:"end_time" json:"end_time,omitempty"`
	Active    bool       `db:"active" json:"active"`
	Remarks   *string    `db:"remarks" json:"remarks,omitempty"`
}

// ActiveSessionView is the denormalized snapshot of the currently active
// session held by the session cache. It is a performance artifact, never a
// source of truth; it is rebuilt from storage on expiry or invalidation.
type ActiveSessionView struct {
	ID        string     `db:"id" json:"id"`
	CourseID  string     `db:"course_id" json:"course_id"`
	Lat       float64    `db:"lat" json:"lat"`
	Lon       float64    `db:"lon" json:"lon"`
	RadiusM   float64    `db:"radius_m" json:"radius_m"`
	StartTime time.Time  `db:"start_time" json:"start_time"`
	EndTime   *time.Time `db:"end_time" json:"end_time,omitempty"`
}

// SessionSummary reports live attendance for the active session.
type SessionSummary struct {
	SessionID          string   `json:"session_id"`
	CourseID           string   `json:"course_id"`
	PresentRollNumbers []string `json:"present_roll_numbers"`
	PresentCount       int      `json:"present_count"`
	TotalStudents      int      `json:"total_students"`
}
