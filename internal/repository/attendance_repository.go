package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campushq/attendance-api/internal/models"
)

// ErrDuplicateRecord reports that an attendance record already exists for the
// (session, student) pair. The unique index on attendance_records is the
// authoritative guard; a constraint violation at commit time surfaces as this
// error regardless of what the optimistic pre-check saw.
var ErrDuplicateRecord = errors.New("attendance record already exists")

const uniqueViolation = "23505"

// AttendanceRepository handles persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Commit inserts exactly one attendance record inside a transaction,
// re-checking for a duplicate under the same snapshot. Either the record
// becomes visible atomically or nothing does.
func (r *AttendanceRepository) Commit(ctx context.Context, record *models.AttendanceRecord) (*models.AttendanceRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin commit attendance: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	var exists bool
	dupQuery := `SELECT EXISTS (SELECT 1 FROM attendance_records WHERE session_id = $1 AND student_id = $2)`
	if err := tx.GetContext(ctx, &exists, dupQuery, record.SessionID, record.StudentID); err != nil {
		return nil, fmt.Errorf("check duplicate attendance: %w", err)
	}
	if exists {
		return nil, ErrDuplicateRecord
	}

	insert := `INSERT INTO attendance_records (id, session_id, student_id, status, recorded_at, lat, lon)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, session_id, student_id, status, recorded_at, lat, lon`
	var stored models.AttendanceRecord
	if err := tx.GetContext(ctx, &stored, insert,
		record.ID, record.SessionID, record.StudentID,
		record.Status, record.RecordedAt, record.Lat, record.Lon,
	); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateRecord
		}
		return nil, fmt.Errorf("insert attendance record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrDuplicateRecord
		}
		return nil, fmt.Errorf("commit attendance record: %w", err)
	}
	committed = true
	return &stored, nil
}

// PresentRollNumbers lists students marked present for a session.
func (r *AttendanceRepository) PresentRollNumbers(ctx context.Context, sessionID string) ([]string, error) {
	query := `SELECT student_id FROM attendance_records
WHERE session_id = $1 AND status = $2
ORDER BY recorded_at`
	var rolls []string
	if err := r.db.SelectContext(ctx, &rolls, query, sessionID, models.AttendanceStatusPresent); err != nil {
		return nil, fmt.Errorf("list present roll numbers: %w", err)
	}
	return rolls, nil
}

// SessionReport returns per-student report rows for one session.
func (r *AttendanceRepository) SessionReport(ctx context.Context, sessionID string) ([]models.AttendanceReportRow, error) {
	query := `SELECT ar.student_id, u.full_name AS student_name, ar.status, ar.recorded_at
FROM attendance_records ar
JOIN users u ON u.reg_no = ar.student_id
WHERE ar.session_id = $1
ORDER BY ar.recorded_at`
	var rows []models.AttendanceReportRow
	if err := r.db.SelectContext(ctx, &rows, query, sessionID); err != nil {
		return nil, fmt.Errorf("session report: %w", err)
	}
	return rows, nil
}

// StudentCourseStats aggregates sessions held vs sessions marked per course
// for one student's enrolled courses.
func (r *AttendanceRepository) StudentCourseStats(ctx context.Context, studentID string) ([]models.CourseAttendanceStat, error) {
	query := `SELECT c.id AS course_id, c.course_name,
        COUNT(DISTINCT s.id) AS sessions_held,
        COUNT(DISTINCT ar.session_id) AS sessions_marked
FROM enrollments e
JOIN courses c ON c.id = e.course_id
LEFT JOIN attendance_sessions s ON s.course_id = c.id
LEFT JOIN attendance_records ar ON ar.session_id = s.id AND ar.student_id = e.student_id
WHERE e.student_id = $1
GROUP BY c.id, c.course_name
ORDER BY c.course_name`
	var stats []models.CourseAttendanceStat
	if err := r.db.SelectContext(ctx, &stats, query, studentID); err != nil {
		return nil, fmt.Errorf("student course stats: %w", err)
	}
	return stats, nil
}
