package store

import (
	"context"
	"errors"
	"sitesafe/models"
	"testing"
)

// fakePresenceBackend keeps presence documents in a map and applies
// field updates the way the remote store does.
type fakePresenceBackend struct {
	users      map[string]*models.UserPresence
	failUpdate bool

	userCh   chan models.UserPresence
	rosterCh chan []models.UserPresence
}

func newFakePresenceBackend() *fakePresenceBackend {
	return &fakePresenceBackend{users: make(map[string]*models.UserPresence)}
}

func (f *fakePresenceBackend) GetUser(_ context.Context, userID string) (*models.UserPresence, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, errors.New("user not found")
	}
	copied := *user
	return &copied, nil
}

func (f *fakePresenceBackend) UpdatePresence(_ context.Context, userID string, fields map[string]interface{}) error {
	if f.failUpdate {
		return errors.New("remote write failure")
	}
	user, ok := f.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	for path, value := range fields {
		switch path {
		case "isSignedIn":
			user.IsSignedIn = value.(bool)
		case "contract":
			user.Contract = value.(string)
		case "signInAddress":
			user.SignInAddress = value.(string)
		case "signInLocation":
			if value == nil {
				user.SignInLocation = nil
				continue
			}
			coord := value.(map[string]interface{})
			user.SignInLocation = &models.Coordinate{
				Latitude:  coord["latitude"].(float64),
				Longitude: coord["longitude"].(float64),
			}
		}
	}
	return nil
}

func (f *fakePresenceBackend) SignedInUsers(_ context.Context) ([]models.UserPresence, error) {
	var out []models.UserPresence
	for _, user := range f.users {
		if user.IsSignedIn {
			out = append(out, *user)
		}
	}
	return out, nil
}

func (f *fakePresenceBackend) WatchUser(ctx context.Context, userID string) (<-chan models.UserPresence, func()) {
	f.userCh = make(chan models.UserPresence, 4)
	return f.userCh, func() { close(f.userCh) }
}

func (f *fakePresenceBackend) WatchSignedInUsers(ctx context.Context) (<-chan []models.UserPresence, func()) {
	f.rosterCh = make(chan []models.UserPresence, 4)
	return f.rosterCh, func() { close(f.rosterCh) }
}

func seedUser(backend *fakePresenceBackend, uid string) {
	backend.users[uid] = &models.UserPresence{
		UID:           uid,
		FirstName:     "First",
		LastName:      "Last",
		Contract:      models.NoneValue,
		SignInAddress: models.NoneValue,
	}
}

func TestSetPresenceSignInRequiresCoordinate(t *testing.T) {
	backend := newFakePresenceBackend()
	seedUser(backend, "u1")
	s := NewPresenceStore(backend)

	err := s.SetPresence(context.Background(), "u1", true, "ECO4", nil, "Manchester, UK")
	if !errors.Is(err, ErrLocationUnavailable) {
		t.Fatalf("expected ErrLocationUnavailable, got %v", err)
	}
	if backend.users["u1"].IsSignedIn {
		t.Fatal("presence must be unchanged after a rejected sign-in")
	}
}

func TestSetPresenceSignIn(t *testing.T) {
	backend := newFakePresenceBackend()
	seedUser(backend, "u1")
	s := NewPresenceStore(backend)

	coord := &models.Coordinate{Latitude: 53.4808, Longitude: -2.2426}
	if err := s.SetPresence(context.Background(), "u1", true, "ECO4", coord, "Manchester, UK"); err != nil {
		t.Fatalf("set presence: %v", err)
	}

	user := backend.users["u1"]
	if !user.IsSignedIn {
		t.Fatal("expected isSignedIn=true")
	}
	if user.Contract != "ECO4" {
		t.Fatalf("expected contract ECO4, got %q", user.Contract)
	}
	if user.SignInAddress != "Manchester, UK" {
		t.Fatalf("expected address, got %q", user.SignInAddress)
	}
	if user.SignInLocation == nil || user.SignInLocation.Latitude != 53.4808 {
		t.Fatalf("expected coordinate recorded, got %+v", user.SignInLocation)
	}
}

func TestSetPresenceSignOutResetsFields(t *testing.T) {
	backend := newFakePresenceBackend()
	seedUser(backend, "u1")
	s := NewPresenceStore(backend)

	coord := &models.Coordinate{Latitude: 53.4808, Longitude: -2.2426}
	if err := s.SetPresence(context.Background(), "u1", true, "ECO4", coord, "Manchester, UK"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	// Sign-out is unconditional: no coordinate required.
	if err := s.SetPresence(context.Background(), "u1", false, "", nil, ""); err != nil {
		t.Fatalf("sign out: %v", err)
	}

	user := backend.users["u1"]
	if user.IsSignedIn {
		t.Fatal("expected isSignedIn=false")
	}
	if user.Contract != models.NoneValue || user.SignInAddress != models.NoneValue {
		t.Fatalf("expected contract/address reset to None, got %q/%q", user.Contract, user.SignInAddress)
	}
	if user.SignInLocation != nil {
		t.Fatalf("expected coordinate cleared, got %+v", user.SignInLocation)
	}
}

func TestRosterExcludesUnlocatedEntries(t *testing.T) {
	backend := newFakePresenceBackend()
	seedUser(backend, "u1")
	seedUser(backend, "u2")
	seedUser(backend, "u3")
	backend.users["u1"].IsSignedIn = true
	backend.users["u1"].SignInLocation = &models.Coordinate{Latitude: 53.4, Longitude: -2.2}
	backend.users["u2"].IsSignedIn = true // no coordinate: excluded
	s := NewPresenceStore(backend)

	roster, err := s.Roster(context.Background())
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	if len(roster) != 1 {
		t.Fatalf("expected 1 roster entry, got %d", len(roster))
	}
	if roster[0].UID != "u1" {
		t.Fatalf("unexpected roster entry: %+v", roster[0])
	}
}

func TestSubscribePresenceEmitsFlag(t *testing.T) {
	backend := newFakePresenceBackend()
	seedUser(backend, "u1")
	s := NewPresenceStore(backend)

	flags, stop := s.SubscribePresence(context.Background(), "u1")

	backend.userCh <- models.UserPresence{UID: "u1", IsSignedIn: true}
	backend.userCh <- models.UserPresence{UID: "u1", IsSignedIn: false}
	stop()

	var got []bool
	for flag := range flags {
		got = append(got, flag)
	}
	if len(got) != 2 || !got[0] || got[1] {
		t.Fatalf("expected [true false], got %v", got)
	}
}

func TestSubscribeRosterFiltersUnlocated(t *testing.T) {
	backend := newFakePresenceBackend()
	s := NewPresenceStore(backend)

	rosters, stop := s.SubscribeRoster(context.Background())

	backend.rosterCh <- []models.UserPresence{
		{UID: "u1", IsSignedIn: true, SignInLocation: &models.Coordinate{Latitude: 1, Longitude: 2}},
		{UID: "u2", IsSignedIn: true},
	}
	stop()

	set, ok := <-rosters
	if !ok {
		t.Fatal("expected a roster emission")
	}
	if len(set) != 1 || set[0].UID != "u1" {
		t.Fatalf("expected only the located entry, got %+v", set)
	}
}
