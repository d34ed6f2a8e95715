package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/attendance-api/internal/models"
	appErrors "github.com/campushq/attendance-api/pkg/errors"
)

type studentStatsReader interface {
	StudentCourseStats(ctx context.Context, studentID string) ([]models.CourseAttendanceStat, error)
}

type leaveHistoryReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.LeaveRequest, error)
}

// StudentDashboard aggregates a student's standing across all enrolled
// courses.
type StudentDashboard struct {
	StudentID         string                        `json:"student_id"`
	Courses           []models.CourseAttendanceStat `json:"courses"`
	OverallPercentage float64                       `json:"overall_percentage"`
	PendingLeaves     int                           `json:"pending_leaves"`
	GeneratedAt       time.Time                     `json:"generated_at"`
}

// DashboardService assembles read-only attendance overviews.
type DashboardService struct {
	stats    studentStatsReader
	leaves   leaveHistoryReader
	cache    *CacheService
	cacheTTL time.Duration
	logger   *zap.Logger
}

func NewDashboardService(stats studentStatsReader, leaves leaveHistoryReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{stats: stats, leaves: leaves, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// StudentOverview builds the dashboard for one student. Results are cached
// briefly; the dashboard tolerates slightly stale counts.
func (s *DashboardService) StudentOverview(ctx context.Context, studentID string) (*StudentDashboard, error) {
	cacheKey := "dashboard:student:" + studentID
	if s.cache != nil && s.cache.Enabled() {
		var cached StudentDashboard
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	stats, err := s.stats.StudentCourseStats(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course stats")
	}
	for i := range stats {
		if stats[i].SessionsHeld > 0 {
			stats[i].Percentage = float64(stats[i].SessionsMarked) / float64(stats[i].SessionsHeld) * 100
		}
	}

	leaves, err := s.leaves.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leave history")
	}
	pending := 0
	for _, l := range leaves {
		if l.Status == models.LeaveStatusPending {
			pending++
		}
	}

	var held, marked int
	for _, stat := range stats {
		held += stat.SessionsHeld
		marked += stat.SessionsMarked
	}
	overall := 0.0
	if held > 0 {
		overall = float64(marked) / float64(held) * 100
	}

	dashboard := &StudentDashboard{
		StudentID:         studentID,
		Courses:           stats,
		OverallPercentage: overall,
		PendingLeaves:     pending,
		GeneratedAt:       time.Now().UTC(),
	}
	if s.cache != nil && s.cache.Enabled() {
		_ = s.cache.Set(ctx, cacheKey, dashboard, s.cacheTTL)
	}
	return dashboard, nil
}
