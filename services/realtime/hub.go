package realtime

import (
	"log"
	"sync"
	"time"

	"github.com/sahilchouksey/learnpulse/model"
)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls further behind than this starts losing messages (at-most-once, no
// queueing beyond the buffer).
const subscriberBuffer = 16

// Message is one push delivered to a subscriber
type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// ActivityUpdate is the payload pushed to subscribers of a single user's
// activity. It carries the full event.
type ActivityUpdate struct {
	model.UserActivity
	EmittedAt time.Time `json:"emitted_at"`
}

// AnalyticsUpdate is the trimmed payload pushed on the platform-wide channel.
// Device and location detail never travel on the broad channel.
type AnalyticsUpdate struct {
	UserID       uint               `json:"user_id"`
	ActivityType model.ActivityType `json:"activity_type"`
	Timestamp    time.Time          `json:"timestamp"`
}

// Subscription is a live handle onto the hub. Close it exactly once when the
// consumer disconnects; messages arriving after Close are dropped.
type Subscription struct {
	hub      *Hub
	userID   uint // 0 for the platform channel
	platform bool
	ch       chan Message
	once     sync.Once
}

// C returns the channel push messages arrive on
func (s *Subscription) C() <-chan Message {
	return s.ch
}

// Close unsubscribes from the hub
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Hub is the process-wide fan-out registry. It is owned by the composition
// root and passed by reference to whoever publishes or subscribes; it holds
// no state that survives a restart. Subscribe/unsubscribe never block a
// concurrent publish for longer than the registry lock.
type Hub struct {
	mu       sync.RWMutex
	userSubs map[uint]map[*Subscription]struct{}
	platform map[*Subscription]struct{}
}

// NewHub creates an empty fan-out hub
func NewHub() *Hub {
	return &Hub{
		userSubs: make(map[uint]map[*Subscription]struct{}),
		platform: make(map[*Subscription]struct{}),
	}
}

// SubscribeUser registers interest in one user's activity
func (h *Hub) SubscribeUser(userID uint) *Subscription {
	sub := &Subscription{hub: h, userID: userID, ch: make(chan Message, subscriberBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.userSubs[userID] == nil {
		h.userSubs[userID] = make(map[*Subscription]struct{})
	}
	h.userSubs[userID][sub] = struct{}{}
	return sub
}

// SubscribePlatform registers interest in platform-wide analytics updates
func (h *Hub) SubscribePlatform() *Subscription {
	sub := &Subscription{hub: h, platform: true, ch: make(chan Message, subscriberBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.platform[sub] = struct{}{}
	return sub
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub.platform {
		delete(h.platform, sub)
		return
	}

	if subs, ok := h.userSubs[sub.userID]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.userSubs, sub.userID)
		}
	}
}

// Publish fans a freshly ingested event out to subscribers of that user's
// activity and, in trimmed form, to platform-wide subscribers. Delivery is
// best-effort: a full subscriber channel drops the message and Publish never
// returns an error to the ingest path.
func (h *Hub) Publish(activity model.UserActivity) {
	now := time.Now()

	userMsg := Message{
		Event: "user-activity-update",
		Data:  ActivityUpdate{UserActivity: activity, EmittedAt: now},
	}
	platformMsg := Message{
		Event: "analytics-update",
		Data: AnalyticsUpdate{
			UserID:       activity.UserID,
			ActivityType: activity.ActivityType,
			Timestamp:    activity.Timestamp,
		},
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.userSubs[activity.UserID] {
		h.send(sub, userMsg)
	}
	for sub := range h.platform {
		h.send(sub, platformMsg)
	}
}

func (h *Hub) send(sub *Subscription, msg Message) {
	select {
	case sub.ch <- msg:
	default:
		log.Printf("realtime: dropping %s for slow subscriber (user %d)", msg.Event, sub.userID)
	}
}

// SubscriberCounts reports current registry occupancy
func (h *Hub) SubscriberCounts() (userSubs int, platformSubs int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, subs := range h.userSubs {
		userSubs += len(subs)
	}
	return userSubs, len(h.platform)
}
