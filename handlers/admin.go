package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sitesafe/store"
)

type AdminHandler struct {
	invites *store.InviteStore
}

func NewAdminHandler(invites *store.InviteStore) *AdminHandler {
	return &AdminHandler{invites: invites}
}

// CreateInvite generates a fresh single-use invite code and returns it
// to the admin caller for distribution.
func (h *AdminHandler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	admin, ok := userFromContext(r)
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	code, err := h.invites.Generate(r.Context())
	if err != nil {
		log.Printf("❌ Failed to generate invite code: %v", err)
		writeError(w, "Failed to generate invite code", http.StatusInternalServerError)
		return
	}

	log.Printf("✅ Invite code generated by %s", admin.Email)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"code": code,
	})
}
