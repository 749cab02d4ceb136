package store

import (
	"context"
	"fmt"
	"sitesafe/models"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AttendanceBackend is the slice of the database the attendance store
// needs. *db.FirestoreDB satisfies it.
type AttendanceBackend interface {
	CreateSignInRecord(ctx context.Context, record *models.AttendanceRecord) error
	SignInRecordsByUser(ctx context.Context, userID string) ([]models.AttendanceRecord, error)
	AllSignInRecords(ctx context.Context) ([]models.AttendanceRecord, error)
	SignInRecordsInRange(ctx context.Context, userID, lo, hi string) ([]models.AttendanceRecord, error)
}

// AttendanceStore owns the lifecycle of attendance records: create,
// list-for-user, list-for-all, filter-by-date. Records are immutable
// once written. A small in-memory list of recently written records is
// kept, most-recent-first, for immediate feedback to the caller.
type AttendanceStore struct {
	backend AttendanceBackend

	mu     sync.Mutex
	recent []models.AttendanceRecord
}

func NewAttendanceStore(backend AttendanceBackend) *AttendanceStore {
	return &AttendanceStore{backend: backend}
}

// Record constructs an attendance record from the caller-supplied fields
// and wall-clock time, persists it, and prepends it to the recent list.
// The write is not retried on failure.
func (s *AttendanceStore) Record(ctx context.Context, userID, firstName, lastName, contract string, status models.AttendanceStatus, location, timestamp string) (models.AttendanceRecord, error) {
	record := models.AttendanceRecord{
		ID:        uuid.NewString(),
		Time:      timestamp,
		Location:  location,
		Status:    status,
		Contract:  contract,
		FirstName: firstName,
		LastName:  lastName,
		UserID:    userID,
	}

	if err := s.backend.CreateSignInRecord(ctx, &record); err != nil {
		return models.AttendanceRecord{}, fmt.Errorf("failed to record attendance: %w", err)
	}

	s.mu.Lock()
	s.recent = append([]models.AttendanceRecord{record}, s.recent...)
	s.mu.Unlock()

	return record, nil
}

// Recent returns a copy of the records written through this store since
// construction, most recent first.
func (s *AttendanceStore) Recent() []models.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AttendanceRecord, len(s.recent))
	copy(out, s.recent)
	return out
}

// ListForToday returns the user's records whose timestamp falls on the
// same calendar day as now, most recent first. Records with
// unparseable timestamps are dropped.
func (s *AttendanceStore) ListForToday(ctx context.Context, userID string, now time.Time) ([]models.AttendanceRecord, error) {
	records, err := s.backend.SignInRecordsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sortDescending(filterToDay(records, now)), nil
}

// ListForAdminOrSelf returns the full history of every user for admins,
// and the caller's own records for today otherwise. Sorted most recent
// first.
func (s *AttendanceStore) ListForAdminOrSelf(ctx context.Context, userID string, isAdmin bool, now time.Time) ([]models.AttendanceRecord, error) {
	if isAdmin {
		records, err := s.backend.AllSignInRecords(ctx)
		if err != nil {
			return nil, err
		}
		return sortDescending(records), nil
	}
	return s.ListForToday(ctx, userID, now)
}

// ListByDate returns the records for the given calendar day, most recent
// first. The query range-filters on the string-encoded timestamp field
// with inclusive start-of-day and exclusive start-of-next-day bounds;
// lexical comparison on those bounds is chronological because the
// encoding is zero-padded. Non-admin callers only see their own records.
func (s *AttendanceStore) ListByDate(ctx context.Context, userID string, isAdmin bool, date time.Time) ([]models.AttendanceRecord, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	lo := models.FormatTime(start)
	hi := models.FormatTime(start.AddDate(0, 0, 1))

	queryUser := userID
	if isAdmin {
		queryUser = ""
	}

	records, err := s.backend.SignInRecordsInRange(ctx, queryUser, lo, hi)
	if err != nil {
		return nil, err
	}
	return sortDescending(records), nil
}

// filterToDay keeps records whose parsed timestamp shares a calendar day
// with now, dropping any record that fails to parse.
func filterToDay(records []models.AttendanceRecord, now time.Time) []models.AttendanceRecord {
	y, m, d := now.Date()
	var kept []models.AttendanceRecord
	for _, record := range records {
		when, err := models.ParseTime(record.Time)
		if err != nil {
			continue
		}
		ry, rm, rd := when.Date()
		if ry == y && rm == m && rd == d {
			kept = append(kept, record)
		}
	}
	return kept
}

// sortDescending orders records most recent first by parsed timestamp.
// Unparseable timestamps sort to the end; ties keep no particular order.
func sortDescending(records []models.AttendanceRecord) []models.AttendanceRecord {
	keyed := make([]struct {
		record models.AttendanceRecord
		when   time.Time
	}, len(records))
	for i, record := range records {
		when, err := models.ParseTime(record.Time)
		if err != nil {
			when = time.Time{}
		}
		keyed[i].record = record
		keyed[i].when = when
	}
	sort.SliceStable(keyed, func(i, j int) bool {
		return keyed[i].when.After(keyed[j].when)
	})
	out := make([]models.AttendanceRecord, len(records))
	for i := range keyed {
		out[i] = keyed[i].record
	}
	return out
}
