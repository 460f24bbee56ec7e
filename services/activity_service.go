package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/learnpulse/model"
	"github.com/sahilchouksey/learnpulse/services/realtime"
	"github.com/sahilchouksey/learnpulse/utils/validation"
	"gorm.io/gorm"
)

// MaxMetadataKeys caps the open action.metadata map so a single event cannot
// grow without bound.
const MaxMetadataKeys = 32

// DefaultJourneyLimit bounds my-journey listings when the caller does not ask
// for a specific limit.
const (
	DefaultJourneyLimit = 100
	MaxJourneyLimit     = 500
)

// Principal identifies the authenticated caller. The identity service owns
// issuance; this pipeline only consumes the resolved (id, role) pair.
type Principal struct {
	UserID uint
	Role   string
}

// ActivityService ingests activity events and serves raw listings over them
type ActivityService struct {
	db       *gorm.DB
	hub      *realtime.Hub
	validate *validation.Validator
}

// NewActivityService creates a new activity service. hub may be nil in tests
// that do not exercise fan-out.
func NewActivityService(db *gorm.DB, hub *realtime.Hub) *ActivityService {
	return &ActivityService{
		db:       db,
		hub:      hub,
		validate: validation.NewValidator(),
	}
}

// TrackActivityRequest is the ingest payload: the ActivityEvent shape minus
// id and the server-assigned timestamp. Timestamp is honored for batch items
// only.
type TrackActivityRequest struct {
	SessionID    string             `json:"session_id"`
	ActivityType model.ActivityType `json:"activity_type" validate:"required"`
	Page         model.PageInfo     `json:"page"`
	Action       model.ActionInfo   `json:"action"`
	Scroll       model.ScrollInfo   `json:"scroll"`
	Course       model.CourseInfo   `json:"course"`
	Device       model.DeviceInfo   `json:"device"`
	Location     model.LocationInfo `json:"location"`
	Duration     int                `json:"duration" validate:"gte=0"`
	Timestamp    *time.Time         `json:"timestamp"`
}

func (s *ActivityService) validateRequest(req *TrackActivityRequest) error {
	if err := s.validate.ValidateStruct(req); err != nil {
		return fmt.Errorf("invalid activity payload: %w", err)
	}
	if !req.ActivityType.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidActivityType, req.ActivityType)
	}
	if len(req.Action.Metadata) > MaxMetadataKeys {
		return fmt.Errorf("%w: %d keys (max %d)", ErrMetadataTooLarge, len(req.Action.Metadata), MaxMetadataKeys)
	}
	return nil
}

// buildActivity resolves the request into a persistable event. A missing
// sessionId is synthesized from the principal plus a fresh UUID so two
// devices of the same user tracking concurrently never share a synthesized
// session. The synthesized value is a correlation token, not a credential.
func (s *ActivityService) buildActivity(principal Principal, req TrackActivityRequest, now time.Time) model.UserActivity {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = fmt.Sprintf("session_%d_%s", principal.UserID, uuid.NewString())
	}

	req.Page.Path = validation.SanitizeString(req.Page.Path)
	req.Page.Title = validation.SanitizeString(req.Page.Title)
	req.Action.Value = validation.SanitizeString(req.Action.Value)

	ts := now
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	return model.UserActivity{
		UserID:       principal.UserID,
		SessionID:    sessionID,
		ActivityType: req.ActivityType,
		Page:         req.Page,
		Action:       req.Action,
		Scroll:       req.Scroll,
		Course:       req.Course,
		Device:       req.Device,
		Location:     req.Location,
		Duration:     req.Duration,
		Timestamp:    ts,
	}
}

// publish hands the event to the fan-out hub without blocking the ingest
// path. Losing a push never fails or rolls back the write.
func (s *ActivityService) publish(activity model.UserActivity) {
	if s.hub == nil {
		return
	}
	go s.hub.Publish(activity)
}

// TrackActivity validates and durably writes a single event on behalf of the
// principal, then enqueues best-effort fan-out. The returned event carries
// the assigned id and resolved timestamp.
func (s *ActivityService) TrackActivity(ctx context.Context, principal Principal, req TrackActivityRequest) (*model.UserActivity, error) {
	if principal.UserID == 0 {
		return nil, ErrUnauthorized
	}

	// Single-event ingest always stamps server time; client timestamps are a
	// batch-only affordance.
	req.Timestamp = nil

	if err := s.validateRequest(&req); err != nil {
		return nil, err
	}

	activity := s.buildActivity(principal, req, time.Now())
	if err := s.db.WithContext(ctx).Create(&activity).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	s.publish(activity)
	return &activity, nil
}

// TrackBatch validates every item up front and writes the batch as a single
// transaction: one unrecognized item rejects the whole batch before any row
// is written. Items without an explicit timestamp each get "now" at
// processing time, which can skew ordering inside one batch by microseconds;
// that skew is accepted.
func (s *ActivityService) TrackBatch(ctx context.Context, principal Principal, reqs []TrackActivityRequest) (int, error) {
	if principal.UserID == 0 {
		return 0, ErrUnauthorized
	}
	if len(reqs) == 0 {
		return 0, ErrEmptyBatch
	}

	for i := range reqs {
		if err := s.validateRequest(&reqs[i]); err != nil {
			return 0, fmt.Errorf("activity %d: %w", i, err)
		}
	}

	activities := make([]model.UserActivity, 0, len(reqs))
	for _, req := range reqs {
		activities = append(activities, s.buildActivity(principal, req, time.Now()))
	}

	// gorm wraps the multi-row insert in one transaction, so either every
	// activity persists or none do.
	if err := s.db.WithContext(ctx).Create(&activities).Error; err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	for _, activity := range activities {
		s.publish(activity)
	}
	return len(activities), nil
}

// ActivityFilter is the one filter vocabulary shared by raw listings and
// every aggregation, so an aggregate is always computed over exactly the set
// a listing with the same parameters would return.
type ActivityFilter struct {
	UserID       uint // 0 means platform-wide
	Start        time.Time
	End          time.Time
	ActivityType model.ActivityType
	Search       string // matched against page path/title and action value
}

// Scope applies the filter to a user_activities query
func (f ActivityFilter) Scope(db *gorm.DB) *gorm.DB {
	q := db.Model(&model.UserActivity{})
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if !f.Start.IsZero() {
		q = q.Where("timestamp >= ?", f.Start)
	}
	if !f.End.IsZero() {
		q = q.Where("timestamp <= ?", f.End)
	}
	if f.ActivityType != "" {
		q = q.Where("activity_type = ?", f.ActivityType)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where("page_path ILIKE ? OR page_title ILIKE ? OR action_value ILIKE ?", pattern, pattern, pattern)
	}
	return q
}

// ListActivities returns the raw events matching the filter, newest first.
// Ties on timestamp fall back to id so pagination stays stable.
func (s *ActivityService) ListActivities(ctx context.Context, filter ActivityFilter, limit, offset int) ([]model.UserActivity, error) {
	var activities []model.UserActivity
	q := filter.Scope(s.db.WithContext(ctx)).Order("timestamp DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&activities).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return activities, nil
}

// CountActivities counts the events matching the filter
func (s *ActivityService) CountActivities(ctx context.Context, filter ActivityFilter) (int64, error) {
	var total int64
	if err := filter.Scope(s.db.WithContext(ctx)).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return total, nil
}

// GetJourney lists the principal's own events, newest first
func (s *ActivityService) GetJourney(ctx context.Context, principal Principal, filter ActivityFilter, limit int) ([]model.UserActivity, error) {
	if principal.UserID == 0 {
		return nil, ErrUnauthorized
	}
	if limit <= 0 {
		limit = DefaultJourneyLimit
	}
	if limit > MaxJourneyLimit {
		limit = MaxJourneyLimit
	}

	filter.UserID = principal.UserID
	return s.ListActivities(ctx, filter, limit, 0)
}

// UserExists reports whether a user row exists; endpoints that 404 on
// unknown users check through this
func (s *ActivityService) UserExists(ctx context.Context, userID uint) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return count > 0, nil
}

// GetUser loads a user row for the admin detail view (password fields are
// never serialized)
func (s *ActivityService) GetUser(ctx context.Context, userID uint) (*model.User, error) {
	var user model.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return &user, nil
}
