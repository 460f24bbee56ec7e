package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/learnpulse/model"
	"github.com/sahilchouksey/learnpulse/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("Starting database seeding...")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedDemoUsers(); err != nil {
		return fmt.Errorf("failed to seed demo users: %w", err)
	}

	if err := s.SeedSampleActivity(); err != nil {
		return fmt.Errorf("failed to seed sample activity: %w", err)
	}

	log.Println("Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user
func (s *Seeder) SeedAdminUser() error {
	// Check if admin already exists
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", "admin").Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin user already exists, skipping...")
		return nil
	}

	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin user creation")
		return nil
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Email:        adminEmail,
		PasswordHash: passwordHash,
		PasswordSalt: []byte("legacy_salt"), // bcrypt handles salt internally
		Name:         "System Administrator",
		Role:         "admin",
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("Created admin user: %s\n", admin.Email)
	return nil
}

// SeedDemoUsers creates a handful of student accounts for local development
func (s *Seeder) SeedDemoUsers() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", "student").Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Demo users already exist, skipping...")
		return nil
	}

	passwordHash, err := auth.HashPassword("learnpulse-demo")
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	demos := []model.User{
		{Email: "asha@example.com", Name: "Asha Verma", Role: "student"},
		{Email: "ravi@example.com", Name: "Ravi Kumar", Role: "student"},
		{Email: "meera@example.com", Name: "Meera Joshi", Role: "student"},
	}

	for i := range demos {
		demos[i].PasswordHash = passwordHash
		demos[i].PasswordSalt = []byte("legacy_salt")
	}

	if err := s.db.Create(&demos).Error; err != nil {
		return err
	}

	log.Printf("Created %d demo users\n", len(demos))
	return nil
}

// SeedSampleActivity writes a small activity history for the demo users so
// the dashboards have something to show on a fresh database
func (s *Seeder) SeedSampleActivity() error {
	var count int64
	if err := s.db.Model(&model.UserActivity{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Sample activity already exists, skipping...")
		return nil
	}

	var students []model.User
	if err := s.db.Where("role = ?", "student").Find(&students).Error; err != nil {
		return err
	}
	if len(students) == 0 {
		return nil
	}

	pages := []model.PageInfo{
		{Path: "/courses", Title: "Courses"},
		{Path: "/courses/go-101", Title: "Go Fundamentals"},
		{Path: "/dashboard", Title: "Dashboard"},
	}

	now := time.Now()
	var activities []model.UserActivity
	for _, student := range students {
		sessionID := fmt.Sprintf("session_%d_%s", student.ID, uuid.NewString())
		base := now.Add(-24 * time.Hour)
		for i, page := range pages {
			activities = append(activities, model.UserActivity{
				UserID:       student.ID,
				SessionID:    sessionID,
				ActivityType: model.ActivityTypePageView,
				Page:         page,
				Duration:     int((5 + i) * 1000),
				Timestamp:    base.Add(time.Duration(i) * 5 * time.Minute),
			})
		}
		activities = append(activities, model.UserActivity{
			UserID:       student.ID,
			SessionID:    sessionID,
			ActivityType: model.ActivityTypeScroll,
			Page:         pages[1],
			Scroll:       model.ScrollInfo{Depth: 80, MaxDepth: 95},
			Timestamp:    base.Add(16 * time.Minute),
		})
	}

	if err := s.db.Create(&activities).Error; err != nil {
		return err
	}

	log.Printf("Created %d sample activity events\n", len(activities))
	return nil
}

// RunSeeds is the entry point used by cmd/seed
func RunSeeds(db *gorm.DB) error {
	return NewSeeder(db).SeedAll()
}
