package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sitesafe/models"
	"sitesafe/store"
	"testing"
)

type memReports struct {
	byCollection map[string][]models.Report
}

func (m *memReports) CreateReport(_ context.Context, collection string, report *models.Report) error {
	m.byCollection[collection] = append(m.byCollection[collection], *report)
	return nil
}

func newReportFixture() (*ReportHandler, *memReports) {
	backend := &memReports{byCollection: map[string][]models.Report{}}
	return NewReportHandler(store.NewReportStore(backend)), backend
}

func TestSubmitRoutesByType(t *testing.T) {
	h, backend := newReportFixture()

	for _, tc := range []struct {
		reportType models.ReportType
		collection string
	}{
		{models.ReportAccident, "Accidents"},
		{models.ReportIncident, "Incidents"},
		{models.ReportNearMiss, "NearMisses"},
	} {
		report := models.Report{Type: tc.reportType, Description: "slipped on wet floor"}
		w := httptest.NewRecorder()
		h.Submit(w, authedRequest(http.MethodPost, "/api/reports", report, sessionUser()))

		if w.Code != http.StatusCreated {
			t.Fatalf("%s: expected 201, got %d: %s", tc.reportType, w.Code, w.Body.String())
		}
		if len(backend.byCollection[tc.collection]) != 1 {
			t.Fatalf("%s: report not filed under %s", tc.reportType, tc.collection)
		}
	}

	total := 0
	for _, reports := range backend.byCollection {
		total += len(reports)
	}
	if total != 3 {
		t.Fatalf("expected exactly one write per report, got %d total", total)
	}
}

func TestSubmitIdentityComesFromSession(t *testing.T) {
	h, backend := newReportFixture()

	// The body claims to be someone else; the session wins.
	report := models.Report{
		Type:        models.ReportIncident,
		Description: "ladder left unsecured",
		FirstName:   "Mallory",
		LastName:    "Intruder",
		UserID:      "someone-else",
	}
	w := httptest.NewRecorder()
	h.Submit(w, authedRequest(http.MethodPost, "/api/reports", report, sessionUser()))

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	stored := backend.byCollection["Incidents"][0]
	if stored.UserID != "u1" || stored.FirstName != "Anna" || stored.LastName != "Smith" {
		t.Fatalf("reporter identity must come from the session: %+v", stored)
	}
	if stored.Date.IsZero() {
		t.Fatal("a missing report date must default to submission time")
	}
}

func TestSubmitRejectsUnknownType(t *testing.T) {
	h, backend := newReportFixture()

	report := models.Report{Type: "Hazard", Description: "loose scaffolding"}
	w := httptest.NewRecorder()
	h.Submit(w, authedRequest(http.MethodPost, "/api/reports", report, sessionUser()))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	for collection, reports := range backend.byCollection {
		if len(reports) != 0 {
			t.Fatalf("nothing may be written for an unknown type, found %d in %s", len(reports), collection)
		}
	}
}

func TestSubmitRequiresDescription(t *testing.T) {
	h, _ := newReportFixture()

	report := models.Report{Type: models.ReportAccident}
	w := httptest.NewRecorder()
	h.Submit(w, authedRequest(http.MethodPost, "/api/reports", report, sessionUser()))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}
