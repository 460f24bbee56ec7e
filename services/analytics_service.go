package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sahilchouksey/learnpulse/model"
	"gorm.io/gorm"
)

// DefaultTopPagesLimit bounds top-content rankings when the caller does not
// specify one.
const DefaultTopPagesLimit = 10

// EngagementWindowDays is the trailing window for per-day engagement rollups
const EngagementWindowDays = 30

// AnalyticsService computes read-only projections over the activity stream.
// Every method aggregates through ActivityFilter.Scope, so an aggregate is
// always consistent with a raw listing of the same filter. An empty matching
// set yields empty results, never an error.
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(db *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: db}
}

// TypeCount is one row of an activity type breakdown
type TypeCount struct {
	ActivityType model.ActivityType `json:"activity_type"`
	Count        int64              `json:"count"`
}

// GetTypeBreakdown counts events grouped by activity type, most frequent
// first
func (s *AnalyticsService) GetTypeBreakdown(ctx context.Context, filter ActivityFilter) ([]TypeCount, error) {
	results := []TypeCount{}
	if err := filter.Scope(s.db.WithContext(ctx)).
		Select("activity_type, COUNT(*) as count").
		Group("activity_type").
		Order("count DESC").
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return results, nil
}

// HourCount is one bucket of the hour-of-day histogram
type HourCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

// GetActivityByHour buckets events into hour-of-day (0-23), ascending
func (s *AnalyticsService) GetActivityByHour(ctx context.Context, filter ActivityFilter) ([]HourCount, error) {
	results := []HourCount{}
	if err := filter.Scope(s.db.WithContext(ctx)).
		Select("EXTRACT(HOUR FROM timestamp)::int as hour, COUNT(*) as count").
		Group("hour").
		Order("hour ASC").
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return results, nil
}

// TimeSeriesPoint represents a data point in a per-day time series
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// GetActivityByDay buckets events into calendar days over the trailing
// `days` window (30 by default), ascending by day
func (s *AnalyticsService) GetActivityByDay(ctx context.Context, filter ActivityFilter, days int) ([]TimeSeriesPoint, error) {
	if days <= 0 {
		days = EngagementWindowDays
	}
	if filter.Start.IsZero() {
		filter.Start = time.Now().AddDate(0, 0, -days)
	}

	results := []TimeSeriesPoint{}
	if err := filter.Scope(s.db.WithContext(ctx)).
		Select("to_char(timestamp, 'YYYY-MM-DD') as date, COUNT(*) as count").
		Group("date").
		Order("date ASC").
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return results, nil
}

// PageStat is one row of a top-content ranking
type PageStat struct {
	Path        string  `json:"path"`
	Title       string  `json:"title"`
	Count       int64   `json:"count"`
	AvgDuration float64 `json:"avg_duration_ms"`
}

// GetTopPages ranks pages by page_view count with mean duration, truncated
// to limit
func (s *AnalyticsService) GetTopPages(ctx context.Context, filter ActivityFilter, limit int) ([]PageStat, error) {
	if limit <= 0 {
		limit = DefaultTopPagesLimit
	}
	filter.ActivityType = model.ActivityTypePageView

	results := []PageStat{}
	if err := filter.Scope(s.db.WithContext(ctx)).
		Select("page_path as path, MAX(page_title) as title, COUNT(*) as count, COALESCE(AVG(duration), 0) as avg_duration").
		Group("page_path").
		Order("count DESC").
		Limit(limit).
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return results, nil
}

// EngagementDay is one day of a user's engagement summary
type EngagementDay struct {
	Date            string `json:"date"`
	Sessions        int64  `json:"sessions"`
	PageViews       int64  `json:"page_views"`
	AvgDurationSecs int64  `json:"avg_duration_seconds"`
}

type engagementRow struct {
	Date          string
	Sessions      int64
	PageViews     int64
	TotalDuration int64
}

// GetUserEngagement rolls one user's activity up per day over the trailing
// 30 days: distinct session count, page-view count, and mean duration in
// seconds (0 when the day has no page views)
func (s *AnalyticsService) GetUserEngagement(ctx context.Context, userID uint) ([]EngagementDay, error) {
	filter := ActivityFilter{
		UserID: userID,
		Start:  time.Now().AddDate(0, 0, -EngagementWindowDays),
	}

	rows := []engagementRow{}
	if err := filter.Scope(s.db.WithContext(ctx)).
		Select("to_char(timestamp, 'YYYY-MM-DD') as date, COUNT(DISTINCT session_id) as sessions, COUNT(*) as page_views, COALESCE(SUM(duration), 0) as total_duration").
		Group("date").
		Order("date DESC").
		Limit(EngagementWindowDays).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	days := make([]EngagementDay, 0, len(rows))
	for _, row := range rows {
		day := EngagementDay{
			Date:      row.Date,
			Sessions:  row.Sessions,
			PageViews: row.PageViews,
		}
		if row.PageViews > 0 {
			day.AvgDurationSecs = int64(math.Round(float64(row.TotalDuration) / float64(row.PageViews) / 1000))
		}
		days = append(days, day)
	}
	return days, nil
}

// UserStatsOverview is the my-stats projection for a single user
type UserStatsOverview struct {
	TotalActivities   int64           `json:"total_activities"`
	TotalSessions     int64           `json:"total_sessions"`
	ActivityBreakdown []TypeCount     `json:"activity_breakdown"`
	Engagement        []EngagementDay `json:"engagement"`
	TopPages          []PageStat      `json:"top_pages"`
}

// GetUserStats assembles the caller-facing stats view: totals, breakdown,
// engagement summary, top pages
func (s *AnalyticsService) GetUserStats(ctx context.Context, userID uint) (*UserStatsOverview, error) {
	stats := &UserStatsOverview{}
	filter := ActivityFilter{UserID: userID}

	if err := filter.Scope(s.db.WithContext(ctx)).Count(&stats.TotalActivities).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := filter.Scope(s.db.WithContext(ctx)).
		Distinct("session_id").
		Count(&stats.TotalSessions).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	breakdown, err := s.GetTypeBreakdown(ctx, filter)
	if err != nil {
		return nil, err
	}
	stats.ActivityBreakdown = breakdown

	engagement, err := s.GetUserEngagement(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats.Engagement = engagement

	topPages, err := s.GetTopPages(ctx, filter, DefaultTopPagesLimit)
	if err != nil {
		return nil, err
	}
	stats.TopPages = topPages

	return stats, nil
}

// TopUser is one row of the cross-user leaderboard
type TopUser struct {
	UserID        uint   `json:"user_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	ActivityCount int64  `json:"activity_count"`
	SessionCount  int64  `json:"session_count"`
}

// GetTopUsers ranks users by event count within the filtered range,
// annotated with distinct-session counts and user info
func (s *AnalyticsService) GetTopUsers(ctx context.Context, filter ActivityFilter, limit int) ([]TopUser, error) {
	if limit <= 0 {
		limit = 20
	}

	results := []TopUser{}
	if err := filter.Scope(s.db.WithContext(ctx)).
		Select("user_activities.user_id, users.name, users.email, COUNT(*) as activity_count, COUNT(DISTINCT user_activities.session_id) as session_count").
		Joins("JOIN users ON users.id = user_activities.user_id").
		Group("user_activities.user_id, users.name, users.email").
		Order("activity_count DESC").
		Limit(limit).
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return results, nil
}

// InteractionTotals summarizes one user's raw interaction volume
type InteractionTotals struct {
	TotalScrolls   int64   `json:"total_scrolls"`
	TotalClicks    int64   `json:"total_clicks"`
	TotalPageViews int64   `json:"total_page_views"`
	TotalLogins    int64   `json:"total_logins"`
	TotalDuration  int64   `json:"total_duration_ms"`
	AvgDuration    float64 `json:"avg_duration_ms"`
	SessionCount   int64   `json:"session_count"`
}

// GetInteractionTotals computes conditional per-type sums for the detail view
func (s *AnalyticsService) GetInteractionTotals(ctx context.Context, filter ActivityFilter) (*InteractionTotals, error) {
	totals := &InteractionTotals{}
	if err := filter.Scope(s.db.WithContext(ctx)).
		Select(`
			SUM(CASE WHEN activity_type = 'scroll' THEN 1 ELSE 0 END) as total_scrolls,
			SUM(CASE WHEN activity_type = 'button_click' THEN 1 ELSE 0 END) as total_clicks,
			SUM(CASE WHEN activity_type = 'page_view' THEN 1 ELSE 0 END) as total_page_views,
			SUM(CASE WHEN activity_type = 'login' THEN 1 ELSE 0 END) as total_logins,
			COALESCE(SUM(duration), 0) as total_duration,
			COALESCE(AVG(duration), 0) as avg_duration,
			COUNT(DISTINCT session_id) as session_count
		`).
		Scan(totals).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return totals, nil
}

// GetLatestActivity returns the user's most recent event, used for the
// device/location snapshot on the detail view. Returns nil when the user has
// no activity.
func (s *AnalyticsService) GetLatestActivity(ctx context.Context, userID uint) (*model.UserActivity, error) {
	var activity model.UserActivity
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC, id DESC").
		First(&activity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &activity, nil
}

// RosterRow is one row of the admin roster: one user with aggregated
// activity stats
type RosterRow struct {
	UserID          uint      `json:"user_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	TotalActivities int64     `json:"total_activities"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`
	SessionCount    int64     `json:"session_count"`
	PageViews       int64     `json:"page_views"`
	Logins          int64     `json:"logins"`
	Scrolls         int64     `json:"scrolls"`
	Clicks          int64     `json:"clicks"`
	TotalDuration   int64     `json:"total_duration_ms"`
}

// GetUserRoster returns one aggregated row per active user, most recently
// seen first, with the total row count for pagination. search matches user
// name or email.
func (s *AnalyticsService) GetUserRoster(ctx context.Context, filter ActivityFilter, search string, limit, offset int) ([]RosterRow, int64, error) {
	base := func() *gorm.DB {
		q := filter.Scope(s.db.WithContext(ctx)).
			Joins("JOIN users ON users.id = user_activities.user_id")
		if search != "" {
			pattern := "%" + search + "%"
			q = q.Where("users.name ILIKE ? OR users.email ILIKE ?", pattern, pattern)
		}
		return q
	}

	var total int64
	if err := base().Distinct("user_activities.user_id").Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	rows := []RosterRow{}
	if err := base().
		Select(`
			user_activities.user_id,
			users.name,
			users.email,
			users.role,
			COUNT(*) as total_activities,
			MIN(user_activities.timestamp) as first_seen,
			MAX(user_activities.timestamp) as last_seen,
			COUNT(DISTINCT user_activities.session_id) as session_count,
			SUM(CASE WHEN activity_type = 'page_view' THEN 1 ELSE 0 END) as page_views,
			SUM(CASE WHEN activity_type = 'login' THEN 1 ELSE 0 END) as logins,
			SUM(CASE WHEN activity_type = 'scroll' THEN 1 ELSE 0 END) as scrolls,
			SUM(CASE WHEN activity_type = 'button_click' THEN 1 ELSE 0 END) as clicks,
			COALESCE(SUM(user_activities.duration), 0) as total_duration
		`).
		Group("user_activities.user_id, users.name, users.email, users.role").
		Order("last_seen DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return rows, total, nil
}

// FeedStats summarizes the live activity feed view
type FeedStats struct {
	TotalActivities int64       `json:"total_activities"`
	UniqueUsers     int64       `json:"unique_users"`
	AvgTime         float64     `json:"avg_time_ms"`
	TopActions      []TypeCount `json:"top_actions"`
}

// GetFeedStats computes summary stats over the same filter the feed listing
// uses
func (s *AnalyticsService) GetFeedStats(ctx context.Context, filter ActivityFilter) (*FeedStats, error) {
	stats := &FeedStats{}

	if err := filter.Scope(s.db.WithContext(ctx)).Count(&stats.TotalActivities).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	if err := filter.Scope(s.db.WithContext(ctx)).
		Distinct("user_id").
		Count(&stats.UniqueUsers).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var avgResult struct {
		Avg float64
	}
	if err := filter.Scope(s.db.WithContext(ctx)).
		Select("COALESCE(AVG(duration), 0) as avg").
		Scan(&avgResult).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	stats.AvgTime = avgResult.Avg

	topActions, err := s.GetTypeBreakdown(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(topActions) > 5 {
		topActions = topActions[:5]
	}
	stats.TopActions = topActions

	return stats, nil
}

// PlatformSnapshot is the platform-wide analytics view served to admin
// dashboards and refreshed periodically into the cache
type PlatformSnapshot struct {
	GeneratedAt    time.Time         `json:"generated_at"`
	PopularPages   []PageStat        `json:"popular_pages"`
	ActivityTrends []TimeSeriesPoint `json:"activity_trends"`
	ActivityByHour []HourCount       `json:"activity_by_hour"`
	TopUsers       []TopUser         `json:"top_users"`
}

// GetPlatformSnapshot assembles the platform-wide analytics view over the
// filtered range
func (s *AnalyticsService) GetPlatformSnapshot(ctx context.Context, filter ActivityFilter) (*PlatformSnapshot, error) {
	snapshot := &PlatformSnapshot{GeneratedAt: time.Now()}

	popularPages, err := s.GetTopPages(ctx, filter, 20)
	if err != nil {
		return nil, err
	}
	snapshot.PopularPages = popularPages

	trends, err := s.GetActivityByDay(ctx, filter, EngagementWindowDays)
	if err != nil {
		return nil, err
	}
	snapshot.ActivityTrends = trends

	byHour, err := s.GetActivityByHour(ctx, filter)
	if err != nil {
		return nil, err
	}
	snapshot.ActivityByHour = byHour

	topUsers, err := s.GetTopUsers(ctx, filter, 20)
	if err != nil {
		return nil, err
	}
	snapshot.TopUsers = topUsers

	return snapshot, nil
}
