package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sitesafe/auth"
	"sitesafe/models"
	"sitesafe/store"
	"time"

	"github.com/google/uuid"
)

// AccountBackend is the slice of the database the auth handler needs.
// *db.FirestoreDB satisfies it.
type AccountBackend interface {
	GetUser(ctx context.Context, userID string) (*models.UserPresence, error)
	GetUserByEmail(ctx context.Context, email string) (*models.UserPresence, error)
	CreateUser(ctx context.Context, user *models.UserPresence) error
	StorePasswordHash(ctx context.Context, userID, passwordHash string) error
	GetPasswordHash(ctx context.Context, userID string) (string, error)
}

type AuthHandler struct {
	accounts   AccountBackend
	invites    *store.InviteStore
	jwtManager *auth.JWTManager
}

func NewAuthHandler(accounts AccountBackend, invites *store.InviteStore, jwtManager *auth.JWTManager) *AuthHandler {
	return &AuthHandler{
		accounts:   accounts,
		invites:    invites,
		jwtManager: jwtManager,
	}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token        string               `json:"token"`
	RefreshToken string               `json:"refresh_token"`
	User         *models.UserPresence `json:"user"`
}

// Login handles user authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.accounts.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("Login failed for %s: user not found", req.Email)
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	passwordHash, err := h.accounts.GetPasswordHash(r.Context(), user.UID)
	if err != nil {
		log.Printf("Login failed for %s: password hash not found", req.Email)
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if err := auth.CheckPassword(req.Password, passwordHash); err != nil {
		log.Printf("Login failed for %s: invalid password", req.Email)
		writeError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	token, err := h.jwtManager.GenerateToken(user)
	if err != nil {
		log.Printf("Failed to generate token for %s: %v", req.Email, err)
		writeError(w, "Failed to generate authentication token", http.StatusInternalServerError)
		return
	}

	refreshToken, err := h.jwtManager.GenerateRefreshToken(user)
	if err != nil {
		log.Printf("Failed to generate refresh token for %s: %v", req.Email, err)
		writeError(w, "Failed to generate refresh token", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ User logged in: %s (admin: %t)", user.Email, user.IsAdmin)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         user,
	})
}

type RegisterRequest struct {
	InviteCode      string `json:"invite_code"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

// Register creates an account: the invite code must exist and be unused,
// and the password fields must match before any remote call is made. The
// presence document starts signed out.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" || req.FirstName == "" || req.LastName == "" {
		writeError(w, "Email, password and name are required", http.StatusBadRequest)
		return
	}

	if req.Password != req.ConfirmPassword {
		writeError(w, store.ErrPasswordMismatch.Error(), http.StatusBadRequest)
		return
	}

	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	valid, err := h.invites.Validate(r.Context(), req.InviteCode)
	if err != nil {
		log.Printf("❌ Failed to validate invite code: %v", err)
		writeError(w, "Failed to validate invite code", http.StatusInternalServerError)
		return
	}
	if !valid {
		writeError(w, store.ErrInvalidInviteCode.Error(), http.StatusForbidden)
		return
	}

	if existing, _ := h.accounts.GetUserByEmail(r.Context(), req.Email); existing != nil {
		writeError(w, "An account with this email already exists", http.StatusConflict)
		return
	}

	// Spend the code before creating anything. Consume is atomic, so a
	// racing registration with the same code loses here with nothing
	// written. If a later step fails the code stays burned; an admin
	// issues a fresh one.
	if err := h.invites.Consume(r.Context(), req.InviteCode); err != nil {
		if errors.Is(err, store.ErrInvalidInviteCode) {
			writeError(w, store.ErrInvalidInviteCode.Error(), http.StatusForbidden)
			return
		}
		log.Printf("❌ Failed to consume invite code: %v", err)
		writeError(w, "Failed to validate invite code", http.StatusInternalServerError)
		return
	}

	user := &models.UserPresence{
		UID:           uuid.NewString(),
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		IsAdmin:       false,
		IsSignedIn:    false,
		LastUpdated:   time.Now(),
		Contract:      models.NoneValue,
		SignInAddress: models.NoneValue,
	}

	if err := h.accounts.CreateUser(r.Context(), user); err != nil {
		log.Printf("❌ Failed to create user: %v", err)
		writeError(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("❌ Failed to hash password: %v", err)
		writeError(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	if err := h.accounts.StorePasswordHash(r.Context(), user.UID, passwordHash); err != nil {
		log.Printf("❌ Failed to store password: %v", err)
		writeError(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	token, err := h.jwtManager.GenerateToken(user)
	if err != nil {
		log.Printf("Failed to generate token for %s: %v", req.Email, err)
		writeError(w, "Failed to generate authentication token", http.StatusInternalServerError)
		return
	}

	refreshToken, err := h.jwtManager.GenerateRefreshToken(user)
	if err != nil {
		log.Printf("Failed to generate refresh token for %s: %v", req.Email, err)
		writeError(w, "Failed to generate refresh token", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ Account created: %s", user.Email)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		User:         user,
	})
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type RefreshTokenResponse struct {
	Token string `json:"token"`
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil {
		writeError(w, "Invalid or expired refresh token", http.StatusUnauthorized)
		return
	}

	user, err := h.accounts.GetUser(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, "User not found", http.StatusUnauthorized)
		return
	}

	token, err := h.jwtManager.GenerateToken(user)
	if err != nil {
		log.Printf("Failed to generate token for %s: %v", user.Email, err)
		writeError(w, "Failed to generate authentication token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RefreshTokenResponse{
		Token: token,
	})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// ChangePassword updates the caller's password. The new/confirm mismatch
// check runs locally before any remote call.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := userFromContext(r)
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.NewPassword != req.ConfirmPassword {
		writeError(w, store.ErrPasswordMismatch.Error(), http.StatusBadRequest)
		return
	}

	if err := auth.ValidatePasswordStrength(req.NewPassword); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	passwordHash, err := h.accounts.GetPasswordHash(r.Context(), user.UID)
	if err != nil {
		log.Printf("❌ Failed to get password hash for %s: %v", user.UID, err)
		writeError(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	if err := auth.CheckPassword(req.CurrentPassword, passwordHash); err != nil {
		writeError(w, "Current password is incorrect", http.StatusUnauthorized)
		return
	}

	newHash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		log.Printf("❌ Failed to hash password: %v", err)
		writeError(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	if err := h.accounts.StorePasswordHash(r.Context(), user.UID, newHash); err != nil {
		log.Printf("❌ Failed to store password: %v", err)
		writeError(w, "Failed to update password", http.StatusInternalServerError)
		return
	}

	log.Printf("🔑 Password changed for user: %s", user.Email)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Password updated successfully",
	})
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
