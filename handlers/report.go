package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"sitesafe/models"
	"sitesafe/store"
	"time"
)

type ReportHandler struct {
	reports *store.ReportStore
}

func NewReportHandler(reports *store.ReportStore) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Submit accepts one safety report. The reporter's identity comes from
// the session, never from the request body. The report lands only in the
// collection matching its type and is never readable back through this
// API.
func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	user, ok := userFromContext(r)
	if !ok {
		writeError(w, "User not found in context", http.StatusUnauthorized)
		return
	}

	var report models.Report
	if err := json.NewDecoder(r.Body).Decode(&report); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if _, err := store.CollectionForType(report.Type); err != nil {
		writeError(w, "Report type must be Accident, Incident or Near Miss", http.StatusBadRequest)
		return
	}
	if report.Description == "" {
		writeError(w, "A description is required", http.StatusBadRequest)
		return
	}

	report.FirstName = user.FirstName
	report.LastName = user.LastName
	report.UserID = user.UID
	if report.Date.IsZero() {
		report.Date = time.Now()
	}

	if err := h.reports.Submit(r.Context(), &report); err != nil {
		log.Printf("❌ Failed to submit %s report for %s: %v", report.Type, user.UID, err)
		writeError(w, "Failed to submit report", http.StatusInternalServerError)
		return
	}

	log.Printf("📝 %s report submitted by %s %s", report.Type, user.FirstName, user.LastName)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Report submitted",
	})
}

// Reference returns the fixed form reference lists: contracts, job
// titles, and the report classification enumerations.
func (h *ReportHandler) Reference(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"contracts":        models.Contracts,
		"job_titles":       models.JobTitles,
		"genders":          models.Genders,
		"accident_types":   models.AccidentTypes,
		"body_parts":       models.BodyParts,
		"severities":       models.Severities,
		"injury_types":     models.InjuryTypes,
		"employment_types": models.EmploymentTypes,
		"checklist":        store.ChecklistQuestions,
	})
}
