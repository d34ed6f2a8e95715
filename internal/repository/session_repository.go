package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campushq/attendance-api/internal/models"
)

// floatArray adapts a plain slice to the pq array wrapper for binding.
func floatArray(v []float64) pq.Float64Array {
	return pq.Float64Array(v)
}

// SessionRepository handles persistence for attendance sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindActive returns the most recently started session that is active and
// whose end time is unset or still in the future. A nil view with nil error
// means no session qualifies.
func (r *SessionRepository) FindActive(ctx context.Context, now time.Time) (*models.ActiveSessionView, error) {
	query := `SELECT id, course_id, lat, lon, radius_m, start_time, end_time
FROM attendance_sessions
WHERE active AND (end_time IS NULL OR end_time > $1)
ORDER BY start_time DESC
LIMIT 1`
	var view models.ActiveSessionView
	if err := r.db.GetContext(ctx, &view, query, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active session: %w", err)
	}
	return &view, nil
}

// ExistsActiveToday reports whether the faculty already opened a session for
// the course on the given calendar day.
func (r *SessionRepository) ExistsActiveToday(ctx context.Context, facultyID, courseID string, now time.Time) (bool, error) {
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dayEnd := dayStart.Add(24 * time.Hour)
	query := `SELECT EXISTS (
        SELECT 1 FROM attendance_sessions
        WHERE faculty_id = $1 AND course_id = $2 AND active
        AND start_time >= $3 AND start_time < $4)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, facultyID, courseID, dayStart, dayEnd); err != nil {
		return false, fmt.Errorf("check active session today: %w", err)
	}
	return exists, nil
}

// Create inserts a new attendance session.
func (r *SessionRepository) Create(ctx context.Context, session *models.AttendanceSession) (*models.AttendanceSession, error) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	query := `INSERT INTO attendance_sessions (id, course_id, faculty_id, lat, lon, radius_m, start_time, end_time, active, remarks)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, course_id, faculty_id, lat, lon, radius_m, start_time, end_time, active, remarks`
	var stored models.AttendanceSession
	if err := r.db.GetContext(ctx, &stored, query,
		session.ID, session.CourseID, session.FacultyID,
		session.Lat, session.Lon, session.RadiusM,
		session.StartTime, session.EndTime, session.Active, session.Remarks,
	); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &stored, nil
}

// End closes a session, recording its end time and flipping it inactive.
func (r *SessionRepository) End(ctx context.Context, sessionID string, endedAt time.Time) error {
	query := `UPDATE attendance_sessions SET active = FALSE, end_time = $2 WHERE id = $1 AND active`
	res, err := r.db.ExecContext(ctx, query, sessionID, endedAt)
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID loads a session row.
func (r *SessionRepository) FindByID(ctx context.Context, sessionID string) (*models.AttendanceSession, error) {
	query := `SELECT id, course_id, faculty_id, lat, lon, radius_m, start_time, end_time, active, remarks
FROM attendance_sessions WHERE id = $1`
	var session models.AttendanceSession
	if err := r.db.GetContext(ctx, &session, query, sessionID); err != nil {
		return nil, err
	}
	return &session, nil
}

// EndExpired deactivates sessions whose scheduled end time has passed and
// returns how many were closed.
func (r *SessionRepository) EndExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE attendance_sessions SET active = FALSE WHERE active AND end_time IS NOT NULL AND end_time <= $1`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("end expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("end expired sessions: %w", err)
	}
	return n, nil
}
