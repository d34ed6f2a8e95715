package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole distinguishes the account types on the platform.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleFaculty UserRole = "faculty"
	RoleAdmin   UserRole = "admin"
)

// Valid returns true when the role is a supported value.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	default:
		return false
	}
}

// User represents a platform account keyed by registration number.
type User struct {
	RegNo        string          `db:"reg_no" json:"reg_no"`
	FullName     string          `db:"full_name" json:"full_name"`
	Email        string          `db:"email" json:"email"`
	PasswordHash string          `db:"password_hash" json:"-"`
	Role         UserRole        `db:"role" json:"role"`
	FaceTemplate pq.Float64Array `db:"face_template" json:"-"`
	Active       bool            `db:"active" json:"active"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}

// StudentCheckinState is the consolidated read the coordinator performs
// before the expensive pipeline stages: the student row plus enrollment and
// duplicate flags for one session, fetched in a single query.
type StudentCheckinState struct {
	RegNo           string          `db:"reg_no"`
	FullName        string          `db:"full_name"`
	FaceTemplate    pq.Float64Array `db:"face_template"`
	Enrolled        bool            `db:"enrolled"`
	AlreadyRecorded bool            `db:"already_recorded"`
}
