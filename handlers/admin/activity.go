package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpulse/model"
	"github.com/sahilchouksey/learnpulse/services"
	croncfg "github.com/sahilchouksey/learnpulse/services/cron"
	"github.com/sahilchouksey/learnpulse/utils/cache"
	"github.com/sahilchouksey/learnpulse/utils/response"
	"gorm.io/gorm"
)

// ActivityHandler serves the admin-facing activity analytics surface
type ActivityHandler struct {
	db               *gorm.DB
	activityService  *services.ActivityService
	sessionService   *services.SessionService
	analyticsService *services.AnalyticsService
	cache            *cache.RedisCache
}

// NewActivityHandler creates a new admin activity handler. redisCache may be
// nil; the analytics endpoint then always computes live.
func NewActivityHandler(db *gorm.DB, activityService *services.ActivityService, sessionService *services.SessionService, analyticsService *services.AnalyticsService, redisCache *cache.RedisCache) *ActivityHandler {
	return &ActivityHandler{
		db:               db,
		activityService:  activityService,
		sessionService:   sessionService,
		analyticsService: analyticsService,
		cache:            redisCache,
	}
}

func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return response.Unauthorized(c, "")
	case errors.Is(err, services.ErrUserNotFound):
		return response.NotFound(c, "User not found")
	case errors.Is(err, services.ErrStoreUnavailable):
		return response.ServiceUnavailable(c, "Activity store is unavailable")
	default:
		return response.InternalServerError(c, err.Error())
	}
}

// parseDateRange resolves a range preset to its start time. Supported:
// today, week, month, <N>days (e.g. 3days, 90days). Anything else, including
// "all", means unbounded.
func parseDateRange(preset string) time.Time {
	now := time.Now()
	switch preset {
	case "today":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "week":
		return now.AddDate(0, 0, -7)
	case "month":
		return now.AddDate(0, -1, 0)
	}
	if days, ok := strings.CutSuffix(preset, "days"); ok {
		if n, err := strconv.Atoi(days); err == nil && n > 0 {
			return now.AddDate(0, 0, -n)
		}
	}
	return time.Time{}
}

func parseUserID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// GetActivityFeed handles GET /api/v1/admin/activity
// A paginated platform-wide feed of raw events with summary stats computed
// over the identical filter.
func (h *ActivityHandler) GetActivityFeed(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	filter := services.ActivityFilter{
		Start:        parseDateRange(c.Query("dateRange", "today")),
		ActivityType: model.ActivityType(c.Query("type")),
		Search:       c.Query("search"),
	}
	if filter.ActivityType == "all" {
		filter.ActivityType = ""
	}

	pagination := response.CalculatePagination(page, limit, 0)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	activities, err := h.activityService.ListActivities(c.Context(), filter, pagination.PerPage, offset)
	if err != nil {
		return serviceError(c, err)
	}

	total, err := h.activityService.CountActivities(c.Context(), filter)
	if err != nil {
		return serviceError(c, err)
	}

	stats, err := h.analyticsService.GetFeedStats(c.Context(), filter)
	if err != nil {
		return serviceError(c, err)
	}

	return response.Success(c, fiber.Map{
		"activities": activities,
		"stats":      stats,
		"pagination": response.CalculatePagination(page, limit, total),
	})
}

// GetUsersActivityList handles GET /api/v1/admin/users
// One row per active user with aggregated stats, for the roster view.
func (h *ActivityHandler) GetUsersActivityList(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)

	filter := services.ActivityFilter{
		Start: parseDateRange(c.Query("dateRange", "all")),
	}

	pagination := response.CalculatePagination(page, limit, 0)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	rows, total, err := h.analyticsService.GetUserRoster(c.Context(), filter, c.Query("search"), pagination.PerPage, offset)
	if err != nil {
		return serviceError(c, err)
	}

	return response.Success(c, fiber.Map{
		"users":      rows,
		"pagination": response.CalculatePagination(page, limit, total),
	})
}

// GetUserActivityDetail handles GET /api/v1/admin/users/:id
// Full detail for a single user: info, interaction totals, breakdown,
// hourly/daily histograms, top pages, latest device snapshot, and a
// paginated timeline.
func (h *ActivityHandler) GetUserActivityDetail(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.activityService.GetUser(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}

	filter := services.ActivityFilter{
		UserID: userID,
		Start:  parseDateRange(c.Query("dateRange", "all")),
	}

	breakdown, err := h.analyticsService.GetTypeBreakdown(c.Context(), filter)
	if err != nil {
		return serviceError(c, err)
	}

	byHour, err := h.analyticsService.GetActivityByHour(c.Context(), filter)
	if err != nil {
		return serviceError(c, err)
	}

	// Daily histogram always covers the trailing 30 days, independent of the
	// preset applied to the rest of the view
	byDay, err := h.analyticsService.GetActivityByDay(c.Context(), services.ActivityFilter{UserID: userID}, services.EngagementWindowDays)
	if err != nil {
		return serviceError(c, err)
	}

	topPages, err := h.analyticsService.GetTopPages(c.Context(), filter, services.DefaultTopPagesLimit)
	if err != nil {
		return serviceError(c, err)
	}

	totals, err := h.analyticsService.GetInteractionTotals(c.Context(), filter)
	if err != nil {
		return serviceError(c, err)
	}

	latest, err := h.analyticsService.GetLatestActivity(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 30)
	pagination := response.CalculatePagination(page, limit, 0)
	offset := (pagination.CurrentPage - 1) * pagination.PerPage

	timeline, err := h.activityService.ListActivities(c.Context(), filter, pagination.PerPage, offset)
	if err != nil {
		return serviceError(c, err)
	}

	total, err := h.activityService.CountActivities(c.Context(), filter)
	if err != nil {
		return serviceError(c, err)
	}

	var deviceInfo fiber.Map
	if latest != nil {
		deviceInfo = fiber.Map{"device": latest.Device, "location": latest.Location}
	}

	return response.Success(c, fiber.Map{
		"user":               user,
		"stats":              totals,
		"activity_breakdown": breakdown,
		"activity_by_hour":   byHour,
		"activity_by_day":    byDay,
		"top_pages":          topPages,
		"device_info":        deviceInfo,
		"timeline":           timeline,
		"pagination":         response.CalculatePagination(page, limit, total),
	})
}

// GetUserSessions handles GET /api/v1/admin/users/:id/sessions
// Reconstructs the user's sessions over a time range preset.
func (h *ActivityHandler) GetUserSessions(c *fiber.Ctx) error {
	userID, err := parseUserID(c)
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	exists, err := h.activityService.UserExists(c.Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	if !exists {
		return response.NotFound(c, "User not found")
	}

	filter := services.ActivityFilter{
		Start: parseDateRange(c.Query("timeRange", "7days")),
	}

	sessions, err := h.sessionService.GetUserSessions(c.Context(), userID, filter)
	if err != nil {
		return serviceError(c, err)
	}

	return response.Success(c, fiber.Map{
		"sessions":       sessions,
		"total_sessions": len(sessions),
		"total_time":     services.TotalSessionTime(sessions),
	})
}

// GetPlatformAnalytics handles GET /api/v1/admin/analytics
// Serves the cached platform snapshot when available, falling back to a live
// computation (and warming the cache) otherwise.
func (h *ActivityHandler) GetPlatformAnalytics(c *fiber.Ctx) error {
	if h.cache != nil {
		var snapshot services.PlatformSnapshot
		if err := h.cache.GetJSON(c.Context(), croncfg.PlatformSnapshotCacheKey, &snapshot); err == nil {
			return response.Success(c, snapshot)
		}
	}

	filter := services.ActivityFilter{
		Start: parseDateRange(c.Query("dateRange", "30days")),
	}

	snapshot, err := h.analyticsService.GetPlatformSnapshot(c.Context(), filter)
	if err != nil {
		return serviceError(c, err)
	}

	if h.cache != nil {
		// Best effort: a failed cache write only costs the next caller a
		// recompute
		_ = h.cache.SetJSON(c.Context(), croncfg.PlatformSnapshotCacheKey, snapshot, croncfg.PlatformSnapshotTTL)
	}

	return response.Success(c, snapshot)
}
