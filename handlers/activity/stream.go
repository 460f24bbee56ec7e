package activity

import (
	"bufio"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/learnpulse/services/realtime"
	"github.com/sahilchouksey/learnpulse/utils/response"
	"github.com/sahilchouksey/learnpulse/utils/sse"
)

const streamKeepAliveInterval = 15 * time.Second

func setStreamHeaders(c *fiber.Ctx) {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Transfer-Encoding", "chunked")
	c.Set("X-Accel-Buffering", "no") // Disable nginx buffering
}

// pump forwards hub messages onto the SSE stream until the client goes away.
// A failed write or flush is how disconnection surfaces here; the
// subscription is closed on the way out so the hub forgets the client.
func pump(w *bufio.Writer, sub *realtime.Subscription, connected fiber.Map) {
	defer sub.Close()

	keepalive := time.NewTicker(streamKeepAliveInterval)
	defer keepalive.Stop()

	if err := sse.Send(w, sse.Event{Event: "connected", Data: connected}); err != nil {
		return
	}

	for {
		select {
		case msg := <-sub.C():
			if err := sse.Send(w, sse.Event{Event: msg.Event, Data: msg.Data}); err != nil {
				return
			}
		case <-keepalive.C:
			if err := sse.SendKeepAlive(w); err != nil {
				return
			}
		}
	}
}

// StreamUserActivity handles GET /api/v1/activity/stream
// Subscribers receive every event ingested for the target user. Callers
// follow their own activity; admins may follow any user via ?user_id=.
func (h *ActivityHandler) StreamUserActivity(c *fiber.Ctx) error {
	principal, ok := principalFromCtx(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	targetID := principal.UserID
	if requested := c.QueryInt("user_id"); requested > 0 && uint(requested) != principal.UserID {
		if principal.Role != "admin" {
			return response.Forbidden(c, "You can only stream your own activity")
		}
		targetID = uint(requested)
	}

	sub := h.hub.SubscribeUser(targetID)
	setStreamHeaders(c)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		pump(w, sub, fiber.Map{"connected_at": time.Now(), "user_id": targetID})
	})
	return nil
}

// StreamPlatformAnalytics handles GET /api/v1/admin/activity/stream
// Subscribers receive trimmed {userId, activityType, timestamp} updates for
// every ingested event platform-wide. Admin-gated by the router.
func (h *ActivityHandler) StreamPlatformAnalytics(c *fiber.Ctx) error {
	if _, ok := principalFromCtx(c); !ok {
		return response.Unauthorized(c, "")
	}

	sub := h.hub.SubscribePlatform()
	userSubs, platformSubs := h.hub.SubscriberCounts()
	setStreamHeaders(c)

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		pump(w, sub, fiber.Map{
			"connected_at":         time.Now(),
			"user_subscribers":     userSubs,
			"platform_subscribers": platformSubs,
		})
	})
	return nil
}
