package models

import "time"

// LeaveStatus tracks the review state of a leave request.
type LeaveStatus string

const (
	LeaveStatusPending  LeaveStatus = "pending"
	LeaveStatusApproved LeaveStatus = "approved"
	LeaveStatusRejected LeaveStatus = "rejected"
)

// Valid returns true when the status is a supported value.
func (s LeaveStatus) Valid() bool {
	switch s {
	case LeaveStatusPending, LeaveStatusApproved, LeaveStatusRejected:
		return true
	default:
		return false
	}
}

// LeaveRequest is a student's on-duty/leave application.
type LeaveRequest struct {
	ID             string      `db:"id" json:"id"`
	StudentID      string      `db:"student_id" json:"student_id"`
	StartDate      time.Time   `db:"start_date" json:"start_date"`
	EndDate        time.Time   `db:"end_date" json:"end_date"`
	Reason         string      `db:"reason" json:"reason"`
	Status         LeaveStatus `db:"status" json:"status"`
	ReviewedBy     *string     `db:"reviewed_by" json:"reviewed_by,omitempty"`
	FacultyRemarks *string     `db:"faculty_remarks" json:"faculty_remarks,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}
