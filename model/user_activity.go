package model

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityType represents the type of user activity
type ActivityType string

const (
	ActivityTypeRegister       ActivityType = "register"
	ActivityTypeEmailVerified  ActivityType = "email_verified"
	ActivityTypeLogin          ActivityType = "login"
	ActivityTypeLogout         ActivityType = "logout"
	ActivityTypePageView       ActivityType = "page_view"
	ActivityTypeScroll         ActivityType = "scroll"
	ActivityTypeButtonClick    ActivityType = "button_click"
	ActivityTypeFormSubmit     ActivityType = "form_submit"
	ActivityTypeCourseView     ActivityType = "course_view"
	ActivityTypeCourseEnroll   ActivityType = "course_enroll"
	ActivityTypeVideoPlay      ActivityType = "video_play"
	ActivityTypeVideoPause     ActivityType = "video_pause"
	ActivityTypeVideoComplete  ActivityType = "video_complete"
	ActivityTypeTestStart      ActivityType = "test_start"
	ActivityTypeTestSubmit     ActivityType = "test_submit"
	ActivityTypeDownload       ActivityType = "download"
	ActivityTypeSearch         ActivityType = "search"
	ActivityTypeFilter         ActivityType = "filter"
	ActivityTypeContactSubmit  ActivityType = "contact_submit"
	ActivityTypeProfileUpdate  ActivityType = "profile_update"
	ActivityTypePasswordChange ActivityType = "password_change"
	ActivityTypeOther          ActivityType = "other"
)

var validActivityTypes = map[ActivityType]struct{}{
	ActivityTypeRegister:       {},
	ActivityTypeEmailVerified:  {},
	ActivityTypeLogin:          {},
	ActivityTypeLogout:         {},
	ActivityTypePageView:       {},
	ActivityTypeScroll:         {},
	ActivityTypeButtonClick:    {},
	ActivityTypeFormSubmit:     {},
	ActivityTypeCourseView:     {},
	ActivityTypeCourseEnroll:   {},
	ActivityTypeVideoPlay:      {},
	ActivityTypeVideoPause:     {},
	ActivityTypeVideoComplete:  {},
	ActivityTypeTestStart:      {},
	ActivityTypeTestSubmit:     {},
	ActivityTypeDownload:       {},
	ActivityTypeSearch:         {},
	ActivityTypeFilter:         {},
	ActivityTypeContactSubmit:  {},
	ActivityTypeProfileUpdate:  {},
	ActivityTypePasswordChange: {},
	ActivityTypeOther:          {},
}

// IsValid reports whether t belongs to the closed activity type vocabulary
func (t ActivityType) IsValid() bool {
	_, ok := validActivityTypes[t]
	return ok
}

// PageInfo describes the page a page_view/scroll event happened on
type PageInfo struct {
	Path     string `gorm:"type:varchar(512);index:idx_activity_page_path" json:"path,omitempty"`
	Title    string `gorm:"type:varchar(512)" json:"title,omitempty"`
	Referrer string `gorm:"type:varchar(512)" json:"referrer,omitempty"`
}

// ActionInfo describes the UI element an interaction event targeted.
// Metadata is an open key/value map; its size is capped at ingest time.
type ActionInfo struct {
	Element  string            `gorm:"type:varchar(255)" json:"element,omitempty"`
	Value    string            `gorm:"type:varchar(512)" json:"value,omitempty"`
	Metadata datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
}

// ScrollInfo carries scroll depth readings for scroll events
type ScrollInfo struct {
	Depth    int `json:"depth,omitempty"`
	MaxDepth int `json:"max_depth,omitempty"`
}

// CourseInfo links an event to course content
type CourseInfo struct {
	CourseID   string  `gorm:"type:varchar(100)" json:"course_id,omitempty"`
	CourseName string  `gorm:"type:varchar(255)" json:"course_name,omitempty"`
	Section    string  `gorm:"type:varchar(255)" json:"section,omitempty"`
	Progress   float64 `json:"progress,omitempty"`
}

// DeviceInfo captures the client device at event time
type DeviceInfo struct {
	UserAgent    string `gorm:"type:text" json:"user_agent,omitempty"`
	Platform     string `gorm:"type:varchar(100)" json:"platform,omitempty"`
	IsMobile     bool   `json:"is_mobile,omitempty"`
	ScreenWidth  int    `json:"screen_width,omitempty"`
	ScreenHeight int    `json:"screen_height,omitempty"`
}

// LocationInfo captures the request origin at event time
type LocationInfo struct {
	IP      string `gorm:"type:varchar(45)" json:"ip,omitempty"`
	Country string `gorm:"type:varchar(100)" json:"country,omitempty"`
	City    string `gorm:"type:varchar(100)" json:"city,omitempty"`
}

// UserActivity is one immutable record of a user interaction. Rows are
// append-only: nothing in the pipeline updates or deletes them after write,
// and ordering for a user is established by Timestamp, never insertion order
// (batch ingestion can write events whose timestamps are in the past).
type UserActivity struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	UserID       uint         `gorm:"not null;index:idx_activity_user_ts,priority:1" json:"user_id"`
	SessionID    string       `gorm:"type:varchar(100);index:idx_activity_session" json:"session_id"`
	ActivityType ActivityType `gorm:"type:varchar(50);not null;index:idx_activity_type" json:"activity_type"`
	Page         PageInfo     `gorm:"embedded;embeddedPrefix:page_" json:"page"`
	Action       ActionInfo   `gorm:"embedded;embeddedPrefix:action_" json:"action"`
	Scroll       ScrollInfo   `gorm:"embedded;embeddedPrefix:scroll_" json:"scroll"`
	Course       CourseInfo   `gorm:"embedded;embeddedPrefix:course_" json:"course"`
	Device       DeviceInfo   `gorm:"embedded;embeddedPrefix:device_" json:"device"`
	Location     LocationInfo `gorm:"embedded;embeddedPrefix:location_" json:"location"`
	Duration     int          `gorm:"default:0" json:"duration_ms"` // engagement attributable to this event, in ms
	Timestamp    time.Time    `gorm:"not null;index:idx_activity_user_ts,priority:2;index:idx_activity_ts" json:"timestamp"`
	CreatedAt    time.Time    `json:"created_at"`

	// Relationships
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for UserActivity
func (UserActivity) TableName() string {
	return "user_activities"
}
