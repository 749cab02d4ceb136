package store

import (
	"context"
	"fmt"
	"sitesafe/models"
)

// ReportBackend is the slice of the database the report store needs.
// *db.FirestoreDB satisfies it.
type ReportBackend interface {
	CreateReport(ctx context.Context, collection string, report *models.Report) error
}

// ReportStore appends safety reports into type-specific collections.
// Reports are a compliance log: write-only, never read back, edited, or
// deleted by the application.
type ReportStore struct {
	backend ReportBackend
}

func NewReportStore(backend ReportBackend) *ReportStore {
	return &ReportStore{backend: backend}
}

// Submit routes the report to the collection matching its type and
// performs a single write. Failures are returned to the caller and not
// retried.
func (s *ReportStore) Submit(ctx context.Context, report *models.Report) error {
	collection, err := CollectionForType(report.Type)
	if err != nil {
		return err
	}
	if err := s.backend.CreateReport(ctx, collection, report); err != nil {
		return fmt.Errorf("failed to submit report: %w", err)
	}
	return nil
}

// CollectionForType maps a report type to its destination collection.
func CollectionForType(t models.ReportType) (string, error) {
	switch t {
	case models.ReportAccident:
		return "Accidents", nil
	case models.ReportIncident:
		return "Incidents", nil
	case models.ReportNearMiss:
		return "NearMisses", nil
	default:
		return "", fmt.Errorf("unknown report type: %q", t)
	}
}
