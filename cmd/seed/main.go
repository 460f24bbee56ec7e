package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sahilchouksey/learnpulse/database"
	"github.com/sahilchouksey/learnpulse/model"
	"github.com/sahilchouksey/learnpulse/utils/auth"
	"gorm.io/gorm"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Initialize database connection using GORM
	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	gormDB := store.GetDB().(*gorm.DB)

	// Run seeds
	separator := strings.Repeat("=", 60)
	fmt.Println(separator)
	fmt.Println("LearnPulse - Database Seeding")
	fmt.Println(separator)
	fmt.Println()

	if err := database.RunSeeds(gormDB); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	fmt.Println()
	fmt.Println(separator)
	fmt.Println("🎉 Seeding completed successfully!")
	fmt.Println(separator)
	fmt.Println()
	fmt.Println("Admin user created from ADMIN_EMAIL and ADMIN_PASSWORD environment variables.")
	fmt.Println("If not set, admin user creation is skipped.")
	fmt.Println()

	printDevTokens(gormDB)
}

// printDevTokens mints short-lived access tokens for the seeded users so
// the tracking endpoints can be exercised with curl right away.
func printDevTokens(db *gorm.DB) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		fmt.Println("JWT_SECRET not set, skipping dev token generation.")
		return
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: jwtSecret,
		Expiry: 24 * time.Hour,
		Issuer: "learnpulse-api",
	})

	var users []model.User
	if err := db.Order("id ASC").Limit(10).Find(&users).Error; err != nil {
		log.Printf("Warning: could not load users for dev tokens: %v", err)
		return
	}

	fmt.Println("Dev access tokens (24h):")
	for _, user := range users {
		token, _, err := jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role)
		if err != nil {
			log.Printf("Warning: token generation failed for %s: %v", user.Email, err)
			continue
		}
		fmt.Printf("  %-30s (%s)\n    %s\n", user.Email, user.Role, token)
	}
	fmt.Println()
}
