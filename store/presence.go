package store

import (
	"context"
	"fmt"
	"sitesafe/models"
	"time"
)

// PresenceBackend is the slice of the database the presence store needs.
// *db.FirestoreDB satisfies it.
type PresenceBackend interface {
	GetUser(ctx context.Context, userID string) (*models.UserPresence, error)
	UpdatePresence(ctx context.Context, userID string, fields map[string]interface{}) error
	SignedInUsers(ctx context.Context) ([]models.UserPresence, error)
	WatchUser(ctx context.Context, userID string) (<-chan models.UserPresence, func())
	WatchSignedInUsers(ctx context.Context) (<-chan []models.UserPresence, func())
}

// PresenceStore owns the per-user signed-in flag and the roster of
// currently signed-in users. The presence document is last-write-wins;
// subscribers re-synchronize from the live watch rather than through any
// locking.
type PresenceStore struct {
	backend PresenceBackend
}

func NewPresenceStore(backend PresenceBackend) *PresenceStore {
	return &PresenceStore{backend: backend}
}

// SetPresence upserts the signed-in flag. Signing in records the
// contract, coordinate, and reverse-geocoded address; signing in without
// a coordinate fails with ErrLocationUnavailable and leaves the document
// untouched. Signing out resets contract and address to "None" and
// clears the coordinate.
func (s *PresenceStore) SetPresence(ctx context.Context, userID string, signedIn bool, contract string, coord *models.Coordinate, address string) error {
	fields := map[string]interface{}{
		"isSignedIn":  signedIn,
		"lastUpdated": time.Now(),
	}

	if signedIn {
		if coord == nil {
			return ErrLocationUnavailable
		}
		fields["contract"] = contract
		fields["signInLocation"] = map[string]interface{}{
			"latitude":  coord.Latitude,
			"longitude": coord.Longitude,
		}
		fields["signInAddress"] = address
	} else {
		fields["contract"] = models.NoneValue
		fields["signInLocation"] = nil
		fields["signInAddress"] = models.NoneValue
	}

	if err := s.backend.UpdatePresence(ctx, userID, fields); err != nil {
		return fmt.Errorf("failed to set presence: %w", err)
	}
	return nil
}

// Get returns the user's current presence document.
func (s *PresenceStore) Get(ctx context.Context, userID string) (*models.UserPresence, error) {
	return s.backend.GetUser(ctx, userID)
}

// SubscribePresence emits the user's signed-in flag on every remote
// change, initial value included. The returned stop function releases
// the listener; the channel closes when the listener ends.
func (s *PresenceStore) SubscribePresence(ctx context.Context, userID string) (<-chan bool, func()) {
	users, stop := s.backend.WatchUser(ctx, userID)
	out := make(chan bool, 1)
	go func() {
		defer close(out)
		for user := range users {
			out <- user.IsSignedIn
		}
	}()
	return out, stop
}

// SubscribeRoster emits the full set of signed-in users on every change
// to any member. Entries without a valid sign-in coordinate are
// excluded.
func (s *PresenceStore) SubscribeRoster(ctx context.Context) (<-chan []models.UserPresence, func()) {
	sets, stop := s.backend.WatchSignedInUsers(ctx)
	out := make(chan []models.UserPresence, 1)
	go func() {
		defer close(out)
		for set := range sets {
			out <- filterLocated(set)
		}
	}()
	return out, stop
}

// Roster is the one-shot equivalent of SubscribeRoster, used for manual
// refresh.
func (s *PresenceStore) Roster(ctx context.Context) ([]models.UserPresence, error) {
	users, err := s.backend.SignedInUsers(ctx)
	if err != nil {
		return nil, err
	}
	return filterLocated(users), nil
}

func filterLocated(users []models.UserPresence) []models.UserPresence {
	var located []models.UserPresence
	for _, user := range users {
		if user.SignInLocation == nil {
			continue
		}
		located = append(located, user)
	}
	return located
}
