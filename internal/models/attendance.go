package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate:
		return true
	default:
		return false
	}
}

// AttendanceRecord is the durable proof that a student was marked present
// for a session. Unique on (session_id, student_id); created once by a
// successful check-in and never updated.
type AttendanceRecord struct {
	ID         string           `db:"id" json:"id"`
	SessionID  string           `db:"session_id" json:"session_id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	Status     AttendanceStatus `db:"status" json:"status"`
	RecordedAt time.Time        `db:"recorded_at" json:"recorded_at"`
	Lat        float64          `db:"lat" json:"lat"`
	Lon        float64          `db:"lon" json:"lon"`
}

// AttendanceReportRow is a session report line joined with student metadata.
type AttendanceReportRow struct {
	StudentID   string    `db:"student_id" json:"student_id"`
	StudentName string    `db:"student_name" json:"student_name"`
	Status      string    `db:"status" json:"status"`
	RecordedAt  time.Time `db:"recorded_at" json:"recorded_at"`
}

// CheckinDecision is the structured outcome of one check-in attempt. Business
// rejections are encoded here, not as transport errors, so callers cannot
// mistake them for faults.
type CheckinDecision struct {
	Accepted     bool     `json:"accepted"`
	Reason       string   `json:"reason,omitempty"`
	Message      string   `json:"message"`
	DistanceM    *float64 `json:"distance_m,omitempty"`
	FaceDistance *float64 `json:"face_distance,omitempty"`
	RecordID     string   `json:"record_id,omitempty"`
}

// CourseAttendanceStat aggregates a student's presence for one course.
type CourseAttendanceStat struct {
	CourseID      string  `db:"course_id" json:"course_id"`
	CourseName    string  `db:"course_name" json:"course_name"`
	SessionsHeld  int     `db:"sessions_held" json:"sessions_held"`
	SessionsMarked int    `db:"sessions_marked" json:"sessions_marked"`
	Percentage    float64 `json:"percentage"`
}
