package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sitesafe/middleware"
	"sitesafe/models"
	"sitesafe/store"
	"time"
)

type AttendanceHandler struct {
	attendance *store.AttendanceStore
	presence   *store.PresenceStore
	now        func() time.Time
}

func NewAttendanceHandler(attendance *store.AttendanceStore, presence *store.PresenceStore) *AttendanceHandler {
	return &AttendanceHandler{
		attendance: attendance,
		presence:   presence,
		now:        time.Now,
	}
}

// SignRequest carries one sign-in or sign-out action. Time and location
// come from the device; the checklist and coordinate are only required
// when signing in.
type SignRequest struct {
	SigningIn bool               `json:"signing_in"`
	Contract  string             `json:"contract"`
	Time      string             `json:"time"`
	Location  string             `json:"location"`
	Coord     *models.Coordinate `json:"coordinate"`
	Checklist []bool             `json:"checklist"`
}

type SignResponse struct {
	Record models.AttendanceRecord `json:"record"`
}

// Sign commits one attendance record plus the matching presence update.
// The checklist gate and the location requirement are checked before
// anything is written; a failed gate aborts with nothing persisted.
// Sign-out is never gated.
func (h *AttendanceHandler) Sign(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := userFromContext(r)
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var req SignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	status := models.StatusSigningOut
	if req.SigningIn {
		status = models.StatusSigningIn

		if err := store.CheckAnswers(req.Checklist); err != nil {
			writeError(w, "All checklist questions must be confirmed before signing in", http.StatusBadRequest)
			return
		}
		if req.Coord == nil {
			writeError(w, "Location is not available yet; cannot sign in", http.StatusBadRequest)
			return
		}
		if req.Contract == "" {
			writeError(w, "A contract must be selected before signing in", http.StatusBadRequest)
			return
		}
	}

	timestamp := req.Time
	if timestamp == "" {
		timestamp = models.FormatTime(h.now())
	} else if _, err := models.ParseTime(timestamp); err != nil {
		writeError(w, "Invalid time format, expected yyyy-MM-dd HH:mm:ss", http.StatusBadRequest)
		return
	}

	location := req.Location
	if location == "" {
		location = "Location unavailable"
	}

	record, err := h.attendance.Record(r.Context(), user.UID, user.FirstName, user.LastName, req.Contract, status, location, timestamp)
	if err != nil {
		log.Printf("❌ Failed to record attendance for %s: %v", user.UID, err)
		writeError(w, "Failed to record attendance", http.StatusInternalServerError)
		return
	}

	if err := h.presence.SetPresence(r.Context(), user.UID, req.SigningIn, req.Contract, req.Coord, req.Location); err != nil {
		// The attendance record is already written; the presence flag
		// will re-synchronize from the live subscription.
		log.Printf("❌ Failed to update presence for %s: %v", user.UID, err)
		writeError(w, "Attendance recorded but presence update failed", http.StatusInternalServerError)
		return
	}

	log.Printf("📍 %s %s %s (contract: %s)", user.FirstName, user.LastName, status, req.Contract)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(SignResponse{Record: record})
}

type recordsResponse struct {
	Records []models.AttendanceRecord `json:"records"`
	Count   int                       `json:"count"`
}

// Today returns the caller's attendance records for the current
// calendar day, most recent first.
func (h *AttendanceHandler) Today(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := userFromContext(r)
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	records, err := h.attendance.ListForToday(r.Context(), user.UID, h.now())
	if err != nil {
		log.Printf("❌ Failed to list records for %s: %v", user.UID, err)
		writeError(w, "Failed to retrieve records", http.StatusInternalServerError)
		return
	}

	writeRecords(w, records)
}

// Records returns the full history for admins and the caller's own
// records for today otherwise.
func (h *AttendanceHandler) Records(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := userFromContext(r)
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	records, err := h.attendance.ListForAdminOrSelf(r.Context(), user.UID, user.IsAdmin, h.now())
	if err != nil {
		log.Printf("❌ Failed to list records for %s: %v", user.UID, err)
		writeError(w, "Failed to retrieve records", http.StatusInternalServerError)
		return
	}

	writeRecords(w, records)
}

// ByDate returns the records for one calendar day, given as
// ?date=yyyy-MM-dd. Non-admin callers only receive their own records.
func (h *AttendanceHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := userFromContext(r)
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	dateParam := r.URL.Query().Get("date")
	date, err := time.ParseInLocation("2006-01-02", dateParam, time.Local)
	if err != nil {
		writeError(w, "Invalid 'date' parameter, expected yyyy-MM-dd", http.StatusBadRequest)
		return
	}

	records, err := h.attendance.ListByDate(r.Context(), user.UID, user.IsAdmin, date)
	if err != nil {
		log.Printf("❌ Failed to list records for %s: %v", user.UID, err)
		writeError(w, "Failed to retrieve records", http.StatusInternalServerError)
		return
	}

	writeRecords(w, records)
}

// Roster returns the currently signed-in users with their last-known
// sign-in coordinate.
func (h *AttendanceHandler) Roster(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	users, err := h.presence.Roster(r.Context())
	if err != nil {
		log.Printf("❌ Failed to fetch roster: %v", err)
		writeError(w, "Failed to retrieve roster", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

// RosterLive streams the signed-in roster as server-sent events. A new
// event carries the full roster whenever any member's presence changes,
// starting with the current state; the stream ends when the client
// disconnects.
func (h *AttendanceHandler) RosterLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	updates, stop := h.presence.SubscribeRoster(r.Context())
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for {
		select {
		case <-r.Context().Done():
			return
		case users, live := <-updates:
			if !live {
				return
			}
			payload, err := json.Marshal(map[string]interface{}{
				"users": users,
				"count": len(users),
			})
			if err != nil {
				log.Printf("❌ Failed to encode roster event: %v", err)
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}

// PresenceLive streams the caller's own signed-in flag as server-sent
// events, starting with the current value. Lets a device re-synchronize
// after an attendance write whose presence update failed.
func (h *AttendanceHandler) PresenceLive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := userFromContext(r)
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	flags, stop := h.presence.SubscribePresence(r.Context(), user.UID)
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for {
		select {
		case <-r.Context().Done():
			return
		case signedIn, live := <-flags:
			if !live {
				return
			}
			fmt.Fprintf(w, "data: {\"is_signed_in\":%t}\n\n", signedIn)
			flusher.Flush()
		}
	}
}

// Export writes the full attendance history as a CSV download. Admin
// only; the route is gated by middleware.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := userFromContext(r)
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	records, err := h.attendance.ListForAdminOrSelf(r.Context(), user.UID, true, h.now())
	if err != nil {
		log.Printf("❌ Failed to list records: %v", err)
		writeError(w, "Failed to retrieve records", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("attendance_%s.csv", h.now().Format("2006-01-02_15-04-05"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"Record ID", "Time", "Status", "Contract", "First Name", "Last Name", "User ID", "Location"}
	if err := writer.Write(header); err != nil {
		log.Printf("❌ Failed to write CSV header: %v", err)
		return
	}

	for _, record := range records {
		row := []string{
			record.ID,
			record.Time,
			string(record.Status),
			record.Contract,
			record.FirstName,
			record.LastName,
			record.UserID,
			record.Location,
		}
		if err := writer.Write(row); err != nil {
			log.Printf("❌ Failed to write CSV row: %v", err)
			return
		}
	}

	log.Printf("📊 CSV export by %s: %d records", user.Email, len(records))
}

func writeRecords(w http.ResponseWriter, records []models.AttendanceRecord) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(recordsResponse{
		Records: records,
		Count:   len(records),
	})
}

func userFromContext(r *http.Request) (*models.UserPresence, bool) {
	return middleware.GetUserFromContext(r.Context())
}
