package cron

import (
	"context"
	"log"
	"time"

	"github.com/sahilchouksey/learnpulse/services"
)

// PlatformSnapshotCacheKey is where the refreshed snapshot lands in Redis.
// The admin analytics endpoint reads this key before falling back to a live
// computation.
const PlatformSnapshotCacheKey = "analytics:platform_snapshot"

// PlatformSnapshotTTL keeps a stale snapshot servable between refreshes
const PlatformSnapshotTTL = 15 * time.Minute

// RefreshPlatformSnapshot recomputes the platform-wide analytics view and
// writes it to the cache so dashboard loads do not hit the heavy group-bys
func (m *CronManager) RefreshPlatformSnapshot() {
	if m.cache == nil {
		log.Println("[CRON] refresh_platform_snapshot: cache not configured, skipping")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	filter := services.ActivityFilter{
		Start: time.Now().AddDate(0, 0, -services.EngagementWindowDays),
	}

	snapshot, err := m.analytics.GetPlatformSnapshot(ctx, filter)
	if err != nil {
		log.Printf("[CRON] refresh_platform_snapshot failed: %v", err)
		return
	}

	if err := m.cache.SetJSON(ctx, PlatformSnapshotCacheKey, snapshot, PlatformSnapshotTTL); err != nil {
		log.Printf("[CRON] refresh_platform_snapshot: cache write failed: %v", err)
		return
	}

	log.Printf("[CRON] refresh_platform_snapshot: cached %d pages, %d trend points, %d top users",
		len(snapshot.PopularPages), len(snapshot.ActivityTrends), len(snapshot.TopUsers))
}
