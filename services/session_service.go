package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/learnpulse/model"
	"gorm.io/gorm"
)

// SessionInactivityTimeout is the gap that closes a session. The comparison
// is strict greater-than: a gap of exactly 30 minutes stays in the same
// session.
const SessionInactivityTimeout = 30 * time.Minute

// Session is a derived, time-bounded run of one user's events. Sessions are
// never persisted; they are recomputed from the event slice on every call and
// the same slice always yields the same sessions.
type Session struct {
	SessionKey      string               `json:"session_id"`
	StartTime       time.Time            `json:"start_time"`
	EndTime         time.Time            `json:"end_time"`
	DurationSeconds int64                `json:"duration_seconds"`
	ActivityCount   int                  `json:"activity_count"`
	Activities      []model.ActivityType `json:"activities"`

	lastActivityTime time.Time
}

// BuildSessions partitions a timestamp-ascending slice of one user's events
// into sessions. A new session starts on the first event, when the gap since
// the previous event strictly exceeds the inactivity timeout, or when the
// event carries an explicit sessionId different from the current session's
// key — explicit correlation always wins over the timeout heuristic, but it
// only ever opens a new session, never merges back into an earlier one.
// Events without a sessionId get a synthesized session-<n> key unique within
// this call. Every input event lands in exactly one session.
func BuildSessions(activities []model.UserActivity) []Session {
	var sessions []Session
	var current *Session

	for i := range activities {
		activity := &activities[i]

		startsNew := current == nil ||
			activity.Timestamp.Sub(current.lastActivityTime) > SessionInactivityTimeout ||
			(activity.SessionID != "" && activity.SessionID != current.SessionKey)

		if startsNew {
			if current != nil {
				sessions = append(sessions, *current)
			}
			key := activity.SessionID
			if key == "" {
				key = fmt.Sprintf("session-%d", len(sessions)+1)
			}
			current = &Session{
				SessionKey:       key,
				StartTime:        activity.Timestamp,
				EndTime:          activity.Timestamp,
				DurationSeconds:  0,
				ActivityCount:    1,
				Activities:       []model.ActivityType{activity.ActivityType},
				lastActivityTime: activity.Timestamp,
			}
			continue
		}

		current.EndTime = activity.Timestamp
		current.lastActivityTime = activity.Timestamp
		current.DurationSeconds = int64(activity.Timestamp.Sub(current.StartTime) / time.Second)
		current.ActivityCount++
		current.Activities = append(current.Activities, activity.ActivityType)
	}

	if current != nil {
		sessions = append(sessions, *current)
	}
	return sessions
}

// SessionService reconstructs usage sessions from the event store
type SessionService struct {
	db *gorm.DB
}

// NewSessionService creates a new session service
func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db}
}

// GetUserSessions fetches a user's events in the time range sorted by
// (timestamp, id) — the id tiebreak keeps reconstruction deterministic for a
// fixed event set — and partitions them into sessions. An unknown user simply
// has no events and yields an empty slice. The call performs no writes and is
// safe to run concurrently with ongoing ingestion.
func (s *SessionService) GetUserSessions(ctx context.Context, userID uint, filter ActivityFilter) ([]Session, error) {
	filter.UserID = userID

	var activities []model.UserActivity
	if err := filter.Scope(s.db.WithContext(ctx)).
		Order("timestamp ASC, id ASC").
		Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return BuildSessions(activities), nil
}

// TotalSessionTime sums the durations of the given sessions, in seconds
func TotalSessionTime(sessions []Session) int64 {
	var total int64
	for _, session := range sessions {
		total += session.DurationSeconds
	}
	return total
}
