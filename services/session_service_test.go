package services

import (
	"testing"
	"time"

	"github.com/sahilchouksey/learnpulse/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionBase = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func event(offset time.Duration, sessionID string, activityType model.ActivityType) model.UserActivity {
	return model.UserActivity{
		UserID:       1,
		SessionID:    sessionID,
		ActivityType: activityType,
		Timestamp:    sessionBase.Add(offset),
	}
}

func TestBuildSessionsEmpty(t *testing.T) {
	assert.Empty(t, BuildSessions(nil))
	assert.Empty(t, BuildSessions([]model.UserActivity{}))
}

func TestBuildSessionsSingleEvent(t *testing.T) {
	sessions := BuildSessions([]model.UserActivity{
		event(0, "", model.ActivityTypePageView),
	})

	require.Len(t, sessions, 1)
	assert.Equal(t, "session-1", sessions[0].SessionKey)
	assert.Equal(t, sessionBase, sessions[0].StartTime)
	assert.Equal(t, sessionBase, sessions[0].EndTime)
	assert.Equal(t, int64(0), sessions[0].DurationSeconds)
	assert.Equal(t, 1, sessions[0].ActivityCount)
}

func TestBuildSessionsGapExactlyAtTimeoutStaysOpen(t *testing.T) {
	sessions := BuildSessions([]model.UserActivity{
		event(0, "", model.ActivityTypePageView),
		event(30*time.Minute, "", model.ActivityTypeScroll),
	})

	require.Len(t, sessions, 1)
	assert.Equal(t, 2, sessions[0].ActivityCount)
	assert.Equal(t, int64(1800), sessions[0].DurationSeconds)
}

func TestBuildSessionsGapOverTimeoutSplits(t *testing.T) {
	sessions := BuildSessions([]model.UserActivity{
		event(0, "", model.ActivityTypePageView),
		event(30*time.Minute+time.Second, "", model.ActivityTypeScroll),
	})

	require.Len(t, sessions, 2)
	assert.Equal(t, "session-1", sessions[0].SessionKey)
	assert.Equal(t, "session-2", sessions[1].SessionKey)
	assert.Equal(t, 1, sessions[0].ActivityCount)
	assert.Equal(t, 1, sessions[1].ActivityCount)
}

func TestBuildSessionsExplicitIDSplitsWithoutGap(t *testing.T) {
	sessions := BuildSessions([]model.UserActivity{
		event(0, "tab-a", model.ActivityTypePageView),
		event(time.Minute, "tab-a", model.ActivityTypeButtonClick),
		event(2*time.Minute, "tab-b", model.ActivityTypePageView),
	})

	require.Len(t, sessions, 2)
	assert.Equal(t, "tab-a", sessions[0].SessionKey)
	assert.Equal(t, "tab-b", sessions[1].SessionKey)
	assert.Equal(t, 2, sessions[0].ActivityCount)
	assert.Equal(t, 1, sessions[1].ActivityCount)
}

func TestBuildSessionsMissingIDJoinsCurrentSession(t *testing.T) {
	// An event without a sessionId never forces a split, whatever session
	// happens to be open.
	sessions := BuildSessions([]model.UserActivity{
		event(0, "tab-a", model.ActivityTypePageView),
		event(time.Minute, "", model.ActivityTypeScroll),
		event(2*time.Minute, "tab-a", model.ActivityTypeButtonClick),
	})

	require.Len(t, sessions, 1)
	assert.Equal(t, "tab-a", sessions[0].SessionKey)
	assert.Equal(t, 3, sessions[0].ActivityCount)
}

func TestBuildSessionsReturningIDOpensNewSession(t *testing.T) {
	// Explicit correlation only ever opens a new session; a repeated id
	// never merges back into the earlier one.
	sessions := BuildSessions([]model.UserActivity{
		event(0, "tab-a", model.ActivityTypePageView),
		event(time.Minute, "tab-b", model.ActivityTypePageView),
		event(2*time.Minute, "tab-a", model.ActivityTypeButtonClick),
	})

	require.Len(t, sessions, 3)
	assert.Equal(t, "tab-a", sessions[0].SessionKey)
	assert.Equal(t, "tab-b", sessions[1].SessionKey)
	assert.Equal(t, "tab-a", sessions[2].SessionKey)
}

func TestBuildSessionsEveryEventLandsInExactlyOneSession(t *testing.T) {
	activities := []model.UserActivity{
		event(0, "", model.ActivityTypeLogin),
		event(5*time.Minute, "", model.ActivityTypePageView),
		event(45*time.Minute, "", model.ActivityTypePageView),
		event(46*time.Minute, "tab-x", model.ActivityTypeButtonClick),
		event(47*time.Minute, "tab-x", model.ActivityTypeScroll),
		event(3*time.Hour, "", model.ActivityTypeLogout),
	}

	sessions := BuildSessions(activities)

	total := 0
	for _, session := range sessions {
		total += session.ActivityCount
		assert.Len(t, session.Activities, session.ActivityCount)
		assert.False(t, session.EndTime.Before(session.StartTime))
		assert.Equal(t, int64(session.EndTime.Sub(session.StartTime)/time.Second), session.DurationSeconds)
	}
	assert.Equal(t, len(activities), total)
}

func TestBuildSessionsDeterministic(t *testing.T) {
	activities := []model.UserActivity{
		event(0, "", model.ActivityTypePageView),
		event(10*time.Minute, "", model.ActivityTypeScroll),
		event(2*time.Hour, "tab-a", model.ActivityTypePageView),
	}

	first := BuildSessions(activities)
	second := BuildSessions(activities)
	assert.Equal(t, first, second)
}

func TestTotalSessionTime(t *testing.T) {
	sessions := []Session{
		{DurationSeconds: 120},
		{DurationSeconds: 45},
		{DurationSeconds: 0},
	}
	assert.Equal(t, int64(165), TotalSessionTime(sessions))
	assert.Equal(t, int64(0), TotalSessionTime(nil))
}
