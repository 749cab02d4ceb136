package store

import (
	"context"
	"errors"
	"sitesafe/models"
	"sync"
	"testing"
	"time"
)

// fakeAttendanceBackend is an in-memory stand-in for the Firestore
// collection. Range queries compare the string timestamp field lexically,
// exactly as the remote store does.
type fakeAttendanceBackend struct {
	mu         sync.Mutex
	records    []models.AttendanceRecord
	failCreate bool
}

func (f *fakeAttendanceBackend) CreateSignInRecord(_ context.Context, record *models.AttendanceRecord) error {
	if f.failCreate {
		return errors.New("remote write failure")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeAttendanceBackend) SignInRecordsByUser(_ context.Context, userID string) ([]models.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AttendanceRecord
	for _, record := range f.records {
		if record.UserID == userID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (f *fakeAttendanceBackend) AllSignInRecords(_ context.Context) ([]models.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.AttendanceRecord(nil), f.records...), nil
}

func (f *fakeAttendanceBackend) SignInRecordsInRange(_ context.Context, userID, lo, hi string) ([]models.AttendanceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.AttendanceRecord
	for _, record := range f.records {
		if record.Time < lo || record.Time >= hi {
			continue
		}
		if userID != "" && record.UserID != userID {
			continue
		}
		out = append(out, record)
	}
	return out, nil
}

func seedRecord(t *testing.T, s *AttendanceStore, userID, timestamp string) models.AttendanceRecord {
	t.Helper()
	record, err := s.Record(context.Background(), userID, "First", "Last", "ECO4",
		models.StatusSigningIn, "Manchester, UK", timestamp)
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return record
}

func TestRecordRoundTrip(t *testing.T) {
	backend := &fakeAttendanceBackend{}
	s := NewAttendanceStore(backend)
	now := time.Date(2024, 10, 7, 12, 0, 0, 0, time.Local)

	written, err := s.Record(context.Background(), "u1", "Anna", "Smith", "Torus",
		models.StatusSigningOut, "Liverpool, UK", "2024-10-07 08:00:00")
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if written.ID == "" {
		t.Fatal("expected a generated record id")
	}

	listed, err := s.ListForToday(context.Background(), "u1", now)
	if err != nil {
		t.Fatalf("list for today: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 record, got %d", len(listed))
	}
	if listed[0] != written {
		t.Fatalf("round trip mismatch: wrote %+v, read %+v", written, listed[0])
	}
}

func TestRecordWriteFailure(t *testing.T) {
	backend := &fakeAttendanceBackend{failCreate: true}
	s := NewAttendanceStore(backend)

	if _, err := s.Record(context.Background(), "u1", "Anna", "Smith", "ECO4",
		models.StatusSigningIn, "Manchester, UK", "2024-10-07 08:00:00"); err == nil {
		t.Fatal("expected an error from a failed write")
	}
	if got := len(s.Recent()); got != 0 {
		t.Fatalf("failed write must not enter the recent list, got %d entries", got)
	}
}

func TestRecentIsMostRecentFirst(t *testing.T) {
	backend := &fakeAttendanceBackend{}
	s := NewAttendanceStore(backend)

	seedRecord(t, s, "u1", "2024-10-07 08:00:00")
	seedRecord(t, s, "u1", "2024-10-07 17:00:00")

	recent := s.Recent()
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent records, got %d", len(recent))
	}
	if recent[0].Time != "2024-10-07 17:00:00" {
		t.Fatalf("expected the latest write first, got %s", recent[0].Time)
	}
}

func TestListForTodayFiltersDayAndMalformed(t *testing.T) {
	backend := &fakeAttendanceBackend{}
	s := NewAttendanceStore(backend)
	now := time.Date(2024, 10, 7, 12, 0, 0, 0, time.Local)

	seedRecord(t, s, "u1", "2024-10-07 08:00:00")
	seedRecord(t, s, "u1", "2024-10-06 08:00:00") // previous day
	seedRecord(t, s, "u1", "not-a-timestamp")     // malformed, dropped
	seedRecord(t, s, "u2", "2024-10-07 09:00:00") // other user

	listed, err := s.ListForToday(context.Background(), "u1", now)
	if err != nil {
		t.Fatalf("list for today: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 record, got %d", len(listed))
	}
	if listed[0].Time != "2024-10-07 08:00:00" {
		t.Fatalf("unexpected record: %+v", listed[0])
	}
}

func TestListForAdminOrSelf(t *testing.T) {
	backend := &fakeAttendanceBackend{}
	s := NewAttendanceStore(backend)
	now := time.Date(2024, 10, 7, 12, 0, 0, 0, time.Local)

	seedRecord(t, s, "u1", "2024-10-07 08:00:00")
	seedRecord(t, s, "u1", "2024-09-01 08:00:00")
	seedRecord(t, s, "u2", "2024-10-07 09:00:00")

	admin, err := s.ListForAdminOrSelf(context.Background(), "u1", true, now)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(admin) != 3 {
		t.Fatalf("admin should see all history, got %d records", len(admin))
	}

	own, err := s.ListForAdminOrSelf(context.Background(), "u1", false, now)
	if err != nil {
		t.Fatalf("self list: %v", err)
	}
	if len(own) != 1 {
		t.Fatalf("non-admin should see own records for today only, got %d", len(own))
	}
	for _, record := range own {
		if record.UserID != "u1" {
			t.Fatalf("non-admin received a foreign record: %+v", record)
		}
	}
}

func TestListByDateBoundsAndVisibility(t *testing.T) {
	backend := &fakeAttendanceBackend{}
	s := NewAttendanceStore(backend)
	day := time.Date(2024, 10, 7, 0, 0, 0, 0, time.Local)

	seedRecord(t, s, "u1", "2024-10-07 00:00:00") // inclusive lower bound
	seedRecord(t, s, "u1", "2024-10-07 23:59:59")
	seedRecord(t, s, "u1", "2024-10-08 00:00:00") // exclusive upper bound
	seedRecord(t, s, "u2", "2024-10-07 12:00:00")

	own, err := s.ListByDate(context.Background(), "u1", false, day)
	if err != nil {
		t.Fatalf("list by date: %v", err)
	}
	if len(own) != 2 {
		t.Fatalf("expected 2 records in the day for u1, got %d", len(own))
	}
	for _, record := range own {
		if record.UserID != "u1" {
			t.Fatalf("non-admin received a foreign record: %+v", record)
		}
	}

	all, err := s.ListByDate(context.Background(), "u1", true, day)
	if err != nil {
		t.Fatalf("admin list by date: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records in the day for admin, got %d", len(all))
	}
}

func TestListOrderingIsDescending(t *testing.T) {
	backend := &fakeAttendanceBackend{}
	s := NewAttendanceStore(backend)
	now := time.Date(2024, 10, 7, 23, 0, 0, 0, time.Local)

	times := []string{
		"2024-10-07 09:30:00",
		"2024-10-07 17:45:12",
		"2024-10-07 07:01:59",
		"2024-10-07 12:00:00",
	}
	for _, ts := range times {
		seedRecord(t, s, "u1", ts)
	}

	listed, err := s.ListForToday(context.Background(), "u1", now)
	if err != nil {
		t.Fatalf("list for today: %v", err)
	}
	if len(listed) != len(times) {
		t.Fatalf("expected %d records, got %d", len(times), len(listed))
	}
	for i := 1; i < len(listed); i++ {
		prev, _ := models.ParseTime(listed[i-1].Time)
		cur, _ := models.ParseTime(listed[i].Time)
		if cur.After(prev) {
			t.Fatalf("records out of order at %d: %s before %s", i, listed[i-1].Time, listed[i].Time)
		}
	}
}
