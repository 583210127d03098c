package main

import (
	"flag"
	"log"

	"go-accounting/internal/config"
	"go-accounting/internal/repository"
	"go-accounting/pkg/database"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}
	cfg := config.Load()

	email := flag.String("email", cfg.AdminEmail, "account to reset")
	newPassword := flag.String("password", cfg.AdminPassword, "new password")
	flag.Parse()

	// 2. Setup Database
	db := database.ConnectDB(cfg)
	users := repository.NewUserRepo(db)

	// 3. Find user
	user, err := users.FindByEmail(*email)
	if err != nil {
		log.Fatalf("❌ User %s not found in database: %v", *email, err)
	}

	// 4. Hash new password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(*newPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("❌ Failed to hash password: %v", err)
	}

	// 5. Update and end open sessions
	if _, err := users.RotateSession(user.ID, map[string]interface{}{
		"password": string(hashedPassword),
	}); err != nil {
		log.Fatalf("❌ Failed to update password in DB: %v", err)
	}

	log.Printf("✅ Success! Password for %s has been reset", user.Email)
}
