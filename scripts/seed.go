package main

import (
	"context"
	"fmt"
	"log"
	"sitesafe/auth"
	"sitesafe/config"
	"sitesafe/db"
	"sitesafe/models"
	"sitesafe/store"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	cfg.Validate()

	// Initialize Firestore
	ctx := context.Background()
	firestoreDB, err := db.NewFirestoreDB(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Firestore: %v", err)
	}
	defer firestoreDB.Close()

	log.Println("🌱 Starting database seeding...")

	if err := seedUsers(ctx, firestoreDB); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	if err := seedInviteCodes(ctx, firestoreDB); err != nil {
		log.Fatalf("Failed to seed invite codes: %v", err)
	}

	if err := seedAttendance(ctx, firestoreDB); err != nil {
		log.Fatalf("Failed to seed attendance records: %v", err)
	}

	log.Println("✅ Database seeding completed successfully!")
}

func seedUsers(ctx context.Context, firestoreDB *db.FirestoreDB) error {
	users := []struct {
		User     models.UserPresence
		Password string
	}{
		{
			User: models.UserPresence{
				UID:           "user-admin",
				FirstName:     "Site",
				LastName:      "Admin",
				Email:         "admin@sitesafe.example",
				IsAdmin:       true,
				IsSignedIn:    false,
				LastUpdated:   time.Now(),
				Contract:      models.NoneValue,
				SignInAddress: models.NoneValue,
			},
			Password: "changeme123",
		},
		{
			User: models.UserPresence{
				UID:           "user-demo",
				FirstName:     "Demo",
				LastName:      "Worker",
				Email:         "worker@sitesafe.example",
				IsAdmin:       false,
				IsSignedIn:    false,
				LastUpdated:   time.Now(),
				Contract:      models.NoneValue,
				SignInAddress: models.NoneValue,
			},
			Password: "changeme123",
		},
	}

	for _, userData := range users {
		if err := firestoreDB.CreateUser(ctx, &userData.User); err != nil {
			return fmt.Errorf("failed to create user %s: %w", userData.User.Email, err)
		}

		passwordHash, err := auth.HashPassword(userData.Password)
		if err != nil {
			return fmt.Errorf("failed to hash password for %s: %w", userData.User.Email, err)
		}

		if err := firestoreDB.StorePasswordHash(ctx, userData.User.UID, passwordHash); err != nil {
			return fmt.Errorf("failed to store password for %s: %w", userData.User.Email, err)
		}

		log.Printf("  ✓ Created user: %s (admin: %t)", userData.User.Email, userData.User.IsAdmin)
	}

	return nil
}

func seedInviteCodes(ctx context.Context, firestoreDB *db.FirestoreDB) error {
	invites := store.NewInviteStore(firestoreDB)
	for i := 0; i < 5; i++ {
		code, err := invites.Generate(ctx)
		if err != nil {
			return err
		}
		log.Printf("  ✓ Created invite code: %s", code)
	}
	return nil
}

func seedAttendance(ctx context.Context, firestoreDB *db.FirestoreDB) error {
	attendance := store.NewAttendanceStore(firestoreDB)
	now := time.Now()

	demo := []struct {
		Status models.AttendanceStatus
		When   time.Time
	}{
		{models.StatusSigningIn, now.Add(-8 * time.Hour)},
		{models.StatusSigningOut, now.Add(-30 * time.Minute)},
	}

	for _, entry := range demo {
		_, err := attendance.Record(ctx, "user-demo", "Demo", "Worker", "ECO4",
			entry.Status, "Manchester, UK", models.FormatTime(entry.When))
		if err != nil {
			return fmt.Errorf("failed to seed attendance record: %w", err)
		}
	}

	log.Printf("  ✓ Created %d attendance records", len(demo))
	return nil
}
