package activity

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpulse/model"
	"github.com/sahilchouksey/learnpulse/services"
	"github.com/sahilchouksey/learnpulse/services/realtime"
	"github.com/sahilchouksey/learnpulse/utils/middleware"
	"github.com/sahilchouksey/learnpulse/utils/response"
	"github.com/sahilchouksey/learnpulse/utils/validation"
	"gorm.io/gorm"
)

// ActivityHandler handles activity tracking and self-service stats requests
type ActivityHandler struct {
	db               *gorm.DB
	activityService  *services.ActivityService
	analyticsService *services.AnalyticsService
	hub              *realtime.Hub
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(db *gorm.DB, activityService *services.ActivityService, analyticsService *services.AnalyticsService, hub *realtime.Hub) *ActivityHandler {
	return &ActivityHandler{
		db:               db,
		activityService:  activityService,
		analyticsService: analyticsService,
		hub:              hub,
	}
}

// serviceError maps pipeline error kinds onto HTTP responses
func serviceError(c *fiber.Ctx, err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := validation.FormatValidationErrors(validationErrs)
		parts := make([]string, 0, len(fields))
		for _, msg := range fields {
			parts = append(parts, msg)
		}
		sort.Strings(parts)
		return response.BadRequest(c, strings.Join(parts, "; "))
	}

	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return response.Unauthorized(c, "")
	case errors.Is(err, services.ErrInvalidActivityType),
		errors.Is(err, services.ErrEmptyBatch),
		errors.Is(err, services.ErrMetadataTooLarge):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		return response.NotFound(c, "User not found")
	case errors.Is(err, services.ErrStoreUnavailable):
		return response.ServiceUnavailable(c, "Activity store is unavailable")
	default:
		return response.InternalServerError(c, err.Error())
	}
}

// principalFromCtx resolves the authenticated principal attached by the auth
// middleware
func principalFromCtx(c *fiber.Ctx) (services.Principal, bool) {
	user, ok := middleware.GetUser(c)
	if !ok || user == nil {
		return services.Principal{}, false
	}
	return services.Principal{UserID: user.ID, Role: user.Role}, true
}

// enrich fills server-side event context the client cannot be trusted to
// supply: the requesting user agent and origin IP
func enrich(c *fiber.Ctx, req *services.TrackActivityRequest) {
	if req.Device.UserAgent == "" {
		req.Device.UserAgent = c.Get("User-Agent")
	}
	if req.Location.IP == "" {
		req.Location.IP = c.IP()
	}
}

// Track handles POST /api/v1/activity/track
func (h *ActivityHandler) Track(c *fiber.Ctx) error {
	principal, ok := principalFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req services.TrackActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	enrich(c, &req)

	activity, err := h.activityService.TrackActivity(c.Context(), principal, req)
	if err != nil {
		return serviceError(c, err)
	}

	return response.Created(c, activity)
}

// BatchRequest is the batch tracking payload
type BatchRequest struct {
	Activities []services.TrackActivityRequest `json:"activities"`
}

// TrackBatch handles POST /api/v1/activity/batch
func (h *ActivityHandler) TrackBatch(c *fiber.Ctx) error {
	principal, ok := principalFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req BatchRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Activities array is required")
	}

	for i := range req.Activities {
		enrich(c, &req.Activities[i])
	}

	count, err := h.activityService.TrackBatch(c.Context(), principal, req.Activities)
	if err != nil {
		return serviceError(c, err)
	}

	return response.SuccessWithMessage(c, "Activities tracked", fiber.Map{"count": count})
}

// parseTimeParam accepts RFC3339 or a bare date
func parseTimeParam(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, true
	}
	if ts, err := time.Parse("2006-01-02", value); err == nil {
		return ts, true
	}
	return time.Time{}, false
}

// GetMyJourney handles GET /api/v1/activity/my-journey
func (h *ActivityHandler) GetMyJourney(c *fiber.Ctx) error {
	principal, ok := principalFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	filter := services.ActivityFilter{
		ActivityType: model.ActivityType(c.Query("activityType")),
	}
	if ts, ok := parseTimeParam(c.Query("startDate")); ok {
		filter.Start = ts
	}
	if ts, ok := parseTimeParam(c.Query("endDate")); ok {
		filter.End = ts
	}

	activities, err := h.activityService.GetJourney(c.Context(), principal, filter, c.QueryInt("limit"))
	if err != nil {
		return serviceError(c, err)
	}

	return response.Success(c, fiber.Map{
		"activities": activities,
		"count":      len(activities),
	})
}

// GetMyStats handles GET /api/v1/activity/my-stats
func (h *ActivityHandler) GetMyStats(c *fiber.Ctx) error {
	principal, ok := principalFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	stats, err := h.analyticsService.GetUserStats(c.Context(), principal.UserID)
	if err != nil {
		return serviceError(c, err)
	}

	return response.Success(c, stats)
}
