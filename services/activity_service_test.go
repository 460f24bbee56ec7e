package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sahilchouksey/learnpulse/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newMockDB opens a gorm connection over a sqlmock driver so service queries
// can be asserted without a live Postgres.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return db, mock
}

func trackRequest(activityType model.ActivityType) TrackActivityRequest {
	return TrackActivityRequest{
		ActivityType: activityType,
		Page:         model.PageInfo{Path: "/courses/42", Title: "Course 42"},
	}
}

func TestTrackActivityRequiresPrincipal(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewActivityService(db, nil)

	_, err := svc.TrackActivity(context.Background(), Principal{}, trackRequest(model.ActivityTypePageView))
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestTrackActivityRejectsUnknownType(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewActivityService(db, nil)

	_, err := svc.TrackActivity(context.Background(), Principal{UserID: 1}, trackRequest("teleport"))
	assert.ErrorIs(t, err, ErrInvalidActivityType)
}

func TestTrackActivityRejectsOversizedMetadata(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewActivityService(db, nil)

	req := trackRequest(model.ActivityTypeButtonClick)
	req.Action.Metadata = datatypes.JSONMap{}
	for i := 0; i < MaxMetadataKeys+1; i++ {
		req.Action.Metadata[strings.Repeat("k", i+1)] = i
	}

	_, err := svc.TrackActivity(context.Background(), Principal{UserID: 1}, req)
	assert.ErrorIs(t, err, ErrMetadataTooLarge)
}

func TestTrackActivityPersistsAndStampsServerTime(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewActivityService(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "user_activities"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectCommit()

	clientTime := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	req := trackRequest(model.ActivityTypePageView)
	req.Timestamp = &clientTime

	before := time.Now()
	activity, err := svc.TrackActivity(context.Background(), Principal{UserID: 3}, req)
	require.NoError(t, err)

	assert.Equal(t, uint(7), activity.ID)
	assert.Equal(t, uint(3), activity.UserID)
	// Client timestamps are ignored on the single-event path.
	assert.False(t, activity.Timestamp.Before(before))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackActivitySynthesizesSessionID(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewActivityService(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "user_activities"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	activity, err := svc.TrackActivity(context.Background(), Principal{UserID: 9}, trackRequest(model.ActivityTypeScroll))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(activity.SessionID, "session_9_"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackActivityKeepsClientSessionID(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewActivityService(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "user_activities"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	req := trackRequest(model.ActivityTypeScroll)
	req.SessionID = "tab-a"

	activity, err := svc.TrackActivity(context.Background(), Principal{UserID: 9}, req)
	require.NoError(t, err)
	assert.Equal(t, "tab-a", activity.SessionID)
}

func TestTrackBatchEmpty(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewActivityService(db, nil)

	_, err := svc.TrackBatch(context.Background(), Principal{UserID: 1}, nil)
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestTrackBatchRejectsWholeBatchOnOneInvalidItem(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewActivityService(db, nil)

	// No insert may be attempted: validation runs before any write.
	reqs := []TrackActivityRequest{
		trackRequest(model.ActivityTypePageView),
		trackRequest("not-a-type"),
		trackRequest(model.ActivityTypeScroll),
	}

	count, err := svc.TrackBatch(context.Background(), Principal{UserID: 1}, reqs)
	assert.Equal(t, 0, count)
	assert.ErrorIs(t, err, ErrInvalidActivityType)
	assert.Contains(t, err.Error(), "activity 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackBatchWritesAllItemsInOneTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewActivityService(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "user_activities"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectCommit()

	reqs := []TrackActivityRequest{
		trackRequest(model.ActivityTypePageView),
		trackRequest(model.ActivityTypeScroll),
	}

	count, err := svc.TrackBatch(context.Background(), Principal{UserID: 1}, reqs)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrackBatchHonorsClientTimestamps(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewActivityService(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "user_activities"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	clientTime := time.Date(2026, 2, 1, 12, 30, 0, 0, time.UTC)
	req := trackRequest(model.ActivityTypePageView)
	req.Timestamp = &clientTime

	count, err := svc.TrackBatch(context.Background(), Principal{UserID: 1}, []TrackActivityRequest{req})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTrackActivityStoreFailure(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewActivityService(db, nil)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "user_activities"`).
		WillReturnError(errors.New("connection refused"))
	mock.ExpectRollback()

	_, err := svc.TrackActivity(context.Background(), Principal{UserID: 1}, trackRequest(model.ActivityTypePageView))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestListActivitiesAppliesFilterAndOrder(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewActivityService(db, nil)

	rows := sqlmock.NewRows([]string{"id", "user_id", "activity_type"}).
		AddRow(2, 5, "page_view").
		AddRow(1, 5, "scroll")
	mock.ExpectQuery(`SELECT \* FROM "user_activities" WHERE user_id = .+ AND activity_type = .+ ORDER BY timestamp DESC, id DESC LIMIT .+`).
		WillReturnRows(rows)

	filter := ActivityFilter{UserID: 5, ActivityType: model.ActivityTypePageView}
	activities, err := svc.ListActivities(context.Background(), filter, 50, 0)
	require.NoError(t, err)
	assert.Len(t, activities, 2)
	assert.Equal(t, uint(2), activities[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountActivities(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewActivityService(db, nil)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "user_activities"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	total, err := svc.CountActivities(context.Background(), ActivityFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(42), total)
}

func TestGetJourneyScopesToPrincipal(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewActivityService(db, nil)

	mock.ExpectQuery(`SELECT \* FROM "user_activities" WHERE user_id = .+`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow(1, 8))

	// The filter asks for another user; the principal always wins.
	activities, err := svc.GetJourney(context.Background(), Principal{UserID: 8}, ActivityFilter{UserID: 999}, 0)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, uint(8), activities[0].UserID)
}

func TestGetJourneyRequiresPrincipal(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewActivityService(db, nil)

	_, err := svc.GetJourney(context.Background(), Principal{}, ActivityFilter{}, 10)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
