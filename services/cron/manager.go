package cron

import (
	"log"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/learnpulse/services"
	"github.com/sahilchouksey/learnpulse/utils/cache"
	"gorm.io/gorm"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron      *cron.Cron
	db        *gorm.DB
	analytics *services.AnalyticsService
	cache     *cache.RedisCache
}

// NewCronManager creates a new cron manager. cache may be nil, in which case
// snapshot refreshes are skipped.
func NewCronManager(db *gorm.DB, redisCache *cache.RedisCache) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:      c,
		db:        db,
		analytics: services.NewAnalyticsService(db),
		cache:     redisCache,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Every 5 minutes: refresh the cached platform analytics snapshot
	_, err := m.cron.AddFunc("0 */5 * * * *", func() {
		log.Println("[CRON] Starting job: refresh_platform_snapshot")
		m.RefreshPlatformSnapshot()
	})
	if err != nil {
		return err
	}

	return nil
}
