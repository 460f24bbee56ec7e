package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestActivityTypeIsValid(t *testing.T) {
	valid := []ActivityType{
		ActivityTypeRegister,
		ActivityTypeEmailVerified,
		ActivityTypePageView,
		ActivityTypeCourseEnroll,
		ActivityTypeVideoComplete,
		ActivityTypeOther,
	}
	for _, activityType := range valid {
		assert.True(t, activityType.IsValid(), string(activityType))
	}

	invalid := []ActivityType{"", "pageview", "PAGE_VIEW", "page_view ", "teleport"}
	for _, activityType := range invalid {
		assert.False(t, activityType.IsValid(), string(activityType))
	}
}
