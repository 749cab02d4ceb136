// main.go
// SiteSafe attendance and safety reporting API.
// Implements JWT authentication, Firestore-backed stores, and the
// sign-in / report / roster endpoints used by the field app.

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sitesafe/auth"
	"sitesafe/config"
	"sitesafe/db"
	"sitesafe/handlers"
	"sitesafe/middleware"
	"sitesafe/store"
	"syscall"
	"time"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using system environment variables")
	}

	cfg := config.Load()
	cfg.Validate()

	log.Printf("🚀 Starting SiteSafe API Server")
	log.Printf("📍 Environment: %s", cfg.Server.Environment)
	log.Printf("🔧 Port: %s", cfg.Server.Port)

	// Initialize Firestore
	ctx := context.Background()
	firestoreDB, err := db.NewFirestoreDB(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath)
	if err != nil {
		log.Fatalf("❌ Failed to initialize Firestore: %v", err)
	}
	defer firestoreDB.Close()

	// Initialize JWT Manager
	jwtManager := auth.NewJWTManager(
		cfg.JWT.Secret,
		cfg.JWT.Expiration,
		cfg.JWT.RefreshTokenExpiration,
	)
	log.Printf("🔐 JWT Manager initialized (expiration: %v)", cfg.JWT.Expiration)

	// Initialize stores
	attendanceStore := store.NewAttendanceStore(firestoreDB)
	presenceStore := store.NewPresenceStore(firestoreDB)
	reportStore := store.NewReportStore(firestoreDB)
	inviteStore := store.NewInviteStore(firestoreDB)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(firestoreDB, inviteStore, jwtManager)
	attendanceHandler := handlers.NewAttendanceHandler(attendanceStore, presenceStore)
	reportHandler := handlers.NewReportHandler(reportStore)
	adminHandler := handlers.NewAdminHandler(inviteStore)
	log.Printf("✅ Stores and handlers initialized")

	// Initialize rate limiter; its cleanup goroutine stops with the server
	runCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	rateLimiter.StartCleanup(runCtx)
	log.Printf("🛡️  Rate limiter initialized (%d requests per %v)", cfg.RateLimit.Requests, cfg.RateLimit.Window)

	// Set up router
	mux := http.NewServeMux()

	// Public routes (no authentication required)
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/api/login", authHandler.Login)
	mux.HandleFunc("/api/refresh", authHandler.RefreshToken)
	mux.HandleFunc("/api/register", authHandler.Register)

	// Protected routes (authentication required)
	authMiddleware := middleware.AuthMiddleware(jwtManager, firestoreDB)

	mux.Handle("/api/attendance/sign", authMiddleware(http.HandlerFunc(attendanceHandler.Sign)))
	mux.Handle("/api/attendance/today", authMiddleware(http.HandlerFunc(attendanceHandler.Today)))
	mux.Handle("/api/attendance/records", authMiddleware(http.HandlerFunc(attendanceHandler.Records)))
	mux.Handle("/api/attendance/by-date", authMiddleware(http.HandlerFunc(attendanceHandler.ByDate)))
	mux.Handle("/api/roster", authMiddleware(http.HandlerFunc(attendanceHandler.Roster)))
	mux.Handle("/api/roster/live", authMiddleware(http.HandlerFunc(attendanceHandler.RosterLive)))
	mux.Handle("/api/attendance/presence/live", authMiddleware(http.HandlerFunc(attendanceHandler.PresenceLive)))
	mux.Handle("/api/reports", authMiddleware(http.HandlerFunc(reportHandler.Submit)))
	mux.Handle("/api/reference", authMiddleware(http.HandlerFunc(reportHandler.Reference)))
	mux.Handle("/api/password/change", authMiddleware(http.HandlerFunc(authHandler.ChangePassword)))

	// Admin endpoints
	adminOnly := middleware.RequireAdmin()
	mux.Handle("/api/admin/invites", authMiddleware(adminOnly(http.HandlerFunc(adminHandler.CreateInvite))))
	mux.Handle("/api/admin/export", authMiddleware(adminOnly(http.HandlerFunc(attendanceHandler.Export))))

	// Apply global middleware
	handler := middleware.CORSMiddleware(cfg.CORS.AllowedOrigins)(mux)
	handler = rateLimiter.Middleware()(handler)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("✅ Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	stopBackground()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

// Health check endpoint
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"healthy","timestamp":%d,"version":"1.0.0"}`, time.Now().Unix())
}
