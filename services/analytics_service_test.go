package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sahilchouksey/learnpulse/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetTypeBreakdown(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewAnalyticsService(db)

	rows := sqlmock.NewRows([]string{"activity_type", "count"}).
		AddRow("page_view", 120).
		AddRow("scroll", 30)
	mock.ExpectQuery(`SELECT activity_type, COUNT\(\*\) as count FROM "user_activities" WHERE user_id = .+ GROUP BY .+ ORDER BY count DESC`).
		WillReturnRows(rows)

	breakdown, err := svc.GetTypeBreakdown(context.Background(), ActivityFilter{UserID: 1})
	require.NoError(t, err)
	require.Len(t, breakdown, 2)
	assert.Equal(t, model.ActivityTypePageView, breakdown[0].ActivityType)
	assert.Equal(t, int64(120), breakdown[0].Count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTypeBreakdownEmptySetIsNotAnError(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewAnalyticsService(db)

	mock.ExpectQuery(`SELECT activity_type, COUNT\(\*\) as count FROM "user_activities"`).
		WillReturnRows(sqlmock.NewRows([]string{"activity_type", "count"}))

	breakdown, err := svc.GetTypeBreakdown(context.Background(), ActivityFilter{})
	require.NoError(t, err)
	assert.Empty(t, breakdown)
	assert.NotNil(t, breakdown)
}

func TestGetTopPagesOnlyCountsPageViews(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewAnalyticsService(db)

	// The ranking always scopes to page_view even when the caller's filter
	// asked for another type.
	mock.ExpectQuery(`SELECT page_path as path.+ FROM "user_activities" WHERE activity_type = \$1 GROUP BY .+ ORDER BY count DESC LIMIT .+`).
		WithArgs(string(model.ActivityTypePageView)).
		WillReturnRows(sqlmock.NewRows([]string{"path", "title", "count", "avg_duration"}).
			AddRow("/courses/42", "Course 42", 12, 4300.5))

	pages, err := svc.GetTopPages(context.Background(), ActivityFilter{ActivityType: model.ActivityTypeScroll}, 0)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "/courses/42", pages[0].Path)
	assert.Equal(t, int64(12), pages[0].Count)
	assert.InDelta(t, 4300.5, pages[0].AvgDuration, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserEngagementAveragesDuration(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewAnalyticsService(db)

	rows := sqlmock.NewRows([]string{"date", "sessions", "page_views", "total_duration"}).
		AddRow("2026-03-10", 2, 4, 10000). // 10000ms / 4 / 1000 = 2.5 -> 3
		AddRow("2026-03-09", 1, 0, 0)      // no page views, avg stays 0
	mock.ExpectQuery(`SELECT to_char\(timestamp, 'YYYY-MM-DD'\) as date.+ FROM "user_activities"`).
		WillReturnRows(rows)

	days, err := svc.GetUserEngagement(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, int64(3), days[0].AvgDurationSecs)
	assert.Equal(t, int64(2), days[0].Sessions)
	assert.Equal(t, int64(0), days[1].AvgDurationSecs)
}

func TestGetLatestActivityNone(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewAnalyticsService(db)

	mock.ExpectQuery(`SELECT \* FROM "user_activities" WHERE user_id = .+ ORDER BY timestamp DESC, id DESC.+ LIMIT .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	activity, err := svc.GetLatestActivity(context.Background(), 77)
	require.NoError(t, err)
	assert.Nil(t, activity)
}

func TestGetFeedStatsTrimsTopActions(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewAnalyticsService(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "user_activities"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(250))
	mock.ExpectQuery(`SELECT COUNT\(DISTINCT\("user_id"\)\) FROM "user_activities"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(14))
	mock.ExpectQuery(`SELECT COALESCE\(AVG\(duration\), 0\) as avg FROM "user_activities"`).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(812.25))

	typeRows := sqlmock.NewRows([]string{"activity_type", "count"})
	for _, row := range []string{"page_view", "scroll", "button_click", "login", "search", "download", "filter"} {
		typeRows.AddRow(row, 10)
	}
	mock.ExpectQuery(`SELECT activity_type, COUNT\(\*\) as count FROM "user_activities"`).
		WillReturnRows(typeRows)

	stats, err := svc.GetFeedStats(context.Background(), ActivityFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(250), stats.TotalActivities)
	assert.Equal(t, int64(14), stats.UniqueUsers)
	assert.InDelta(t, 812.25, stats.AvgTime, 0.001)
	assert.Len(t, stats.TopActions, 5)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserRosterSearch(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewAnalyticsService(db)

	mock.ExpectQuery(`SELECT COUNT\(DISTINCT\("user_activities"\."user_id"\)\) FROM "user_activities" JOIN users ON users\.id = user_activities\.user_id WHERE .*ILIKE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`(?s)SELECT.+user_activities\.user_id.+users\.name.+FROM "user_activities" JOIN users ON users\.id = user_activities\.user_id WHERE .*ILIKE.+GROUP BY.+ORDER BY last_seen DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "email", "role", "total_activities"}).
			AddRow(3, "Asha", "asha@example.com", "student", 42))

	rows, total, err := svc.GetUserRoster(context.Background(), ActivityFilter{}, "asha", 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, uint(3), rows[0].UserID)
	assert.Equal(t, int64(42), rows[0].TotalActivities)
}
