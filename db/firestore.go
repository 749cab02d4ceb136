package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sitesafe/models"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Collection names. Each store component owns writes to exactly one of
// these namespaces.
const (
	ColSignInRecords = "signInRecords"
	ColUsers         = "users"
	ColAccidents     = "Accidents"
	ColIncidents     = "Incidents"
	ColNearMisses    = "NearMisses"
	ColInviteCodes   = "inviteCodes"
	ColPasswords     = "passwords"
)

// FirestoreDB wraps the Firestore client
type FirestoreDB struct {
	client *firestore.Client
}

// NewFirestoreDB initializes a new Firestore client
func NewFirestoreDB(ctx context.Context, projectID, credentialsPath string) (*FirestoreDB, error) {
	opt := option.WithCredentialsFile(credentialsPath)

	config := &firebase.Config{ProjectID: projectID}
	app, err := firebase.NewApp(ctx, config, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firestore client: %w", err)
	}

	log.Printf("✅ Connected to Firestore project: %s", projectID)

	return &FirestoreDB{client: client}, nil
}

// Close closes the Firestore client
func (db *FirestoreDB) Close() error {
	return db.client.Close()
}

// --- Attendance Record Operations ---

// CreateSignInRecord persists a new attendance record
func (db *FirestoreDB) CreateSignInRecord(ctx context.Context, record *models.AttendanceRecord) error {
	_, err := db.client.Collection(ColSignInRecords).Doc(record.ID).Set(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to create sign-in record: %w", err)
	}
	return nil
}

// SignInRecordsByUser retrieves all attendance records for a user
func (db *FirestoreDB) SignInRecordsByUser(ctx context.Context, userID string) ([]models.AttendanceRecord, error) {
	iter := db.client.Collection(ColSignInRecords).
		Where("userID", "==", userID).
		Documents(ctx)
	return collectRecords(iter)
}

// AllSignInRecords retrieves every attendance record
func (db *FirestoreDB) AllSignInRecords(ctx context.Context) ([]models.AttendanceRecord, error) {
	iter := db.client.Collection(ColSignInRecords).Documents(ctx)
	return collectRecords(iter)
}

// SignInRecordsInRange retrieves records whose string timestamp falls in
// [lo, hi). The bounds compare lexically, which matches chronological
// order because timestamps are stored zero-padded. userID narrows the
// query when non-empty.
func (db *FirestoreDB) SignInRecordsInRange(ctx context.Context, userID, lo, hi string) ([]models.AttendanceRecord, error) {
	query := db.client.Collection(ColSignInRecords).
		Where("time", ">=", lo).
		Where("time", "<", hi)
	if userID != "" {
		query = query.Where("userID", "==", userID)
	}
	return collectRecords(query.Documents(ctx))
}

func collectRecords(iter *firestore.DocumentIterator) ([]models.AttendanceRecord, error) {
	defer iter.Stop()

	var records []models.AttendanceRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate sign-in records: %w", err)
		}

		var record models.AttendanceRecord
		if err := doc.DataTo(&record); err != nil {
			log.Printf("Warning: failed to parse sign-in record %s: %v", doc.Ref.ID, err)
			continue
		}
		records = append(records, record)
	}

	return records, nil
}

// --- User / Presence Operations ---

// CreateUser creates the per-user presence document
func (db *FirestoreDB) CreateUser(ctx context.Context, user *models.UserPresence) error {
	_, err := db.client.Collection(ColUsers).Doc(user.UID).Set(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user's presence document by id
func (db *FirestoreDB) GetUser(ctx context.Context, userID string) (*models.UserPresence, error) {
	doc, err := db.client.Collection(ColUsers).Doc(userID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user models.UserPresence
	if err := doc.DataTo(&user); err != nil {
		return nil, &models.DeserializationError{Collection: ColUsers, DocID: userID, Err: err}
	}

	return &user, nil
}

// GetUserByEmail retrieves a user by email address
func (db *FirestoreDB) GetUserByEmail(ctx context.Context, email string) (*models.UserPresence, error) {
	iter := db.client.Collection(ColUsers).
		Where("email", "==", email).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, fmt.Errorf("user not found: %s", email)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	var user models.UserPresence
	if err := doc.DataTo(&user); err != nil {
		return nil, &models.DeserializationError{Collection: ColUsers, DocID: doc.Ref.ID, Err: err}
	}

	return &user, nil
}

// UpdatePresence applies field updates to a user's presence document.
// Last write wins; there is no version check on the document.
func (db *FirestoreDB) UpdatePresence(ctx context.Context, userID string, fields map[string]interface{}) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: value})
	}
	_, err := db.client.Collection(ColUsers).Doc(userID).Update(ctx, updates)
	if err != nil {
		return fmt.Errorf("failed to update presence for %s: %w", userID, err)
	}
	return nil
}

// SignedInUsers retrieves all users whose presence flag is set
func (db *FirestoreDB) SignedInUsers(ctx context.Context) ([]models.UserPresence, error) {
	iter := db.client.Collection(ColUsers).
		Where("isSignedIn", "==", true).
		Documents(ctx)
	defer iter.Stop()

	var users []models.UserPresence
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate users: %w", err)
		}

		var user models.UserPresence
		if err := doc.DataTo(&user); err != nil {
			log.Printf("Warning: failed to parse user %s: %v", doc.Ref.ID, err)
			continue
		}
		users = append(users, user)
	}

	return users, nil
}

// WatchUser opens a snapshot listener on a single user document. The
// returned channel carries the current document on every remote change,
// starting with the initial snapshot. The stop function releases the
// listener; the channel closes when the listener ends.
func (db *FirestoreDB) WatchUser(ctx context.Context, userID string) (<-chan models.UserPresence, func()) {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan models.UserPresence, 1)
	snaps := db.client.Collection(ColUsers).Doc(userID).Snapshots(ctx)

	go func() {
		defer close(ch)
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("Warning: presence watch for %s ended: %v", userID, err)
				}
				return
			}
			if !snap.Exists() {
				continue
			}
			var user models.UserPresence
			if err := snap.DataTo(&user); err != nil {
				log.Printf("Warning: failed to parse user %s: %v", userID, err)
				continue
			}
			select {
			case ch <- user:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, cancel
}

// WatchSignedInUsers opens a snapshot listener over all signed-in users.
// The full current set is re-emitted on every change to any member.
func (db *FirestoreDB) WatchSignedInUsers(ctx context.Context) (<-chan []models.UserPresence, func()) {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan []models.UserPresence, 1)
	snaps := db.client.Collection(ColUsers).
		Where("isSignedIn", "==", true).
		Snapshots(ctx)

	go func() {
		defer close(ch)
		defer snaps.Stop()
		for {
			qsnap, err := snaps.Next()
			if err != nil {
				if ctx.Err() == nil {
					log.Printf("Warning: roster watch ended: %v", err)
				}
				return
			}

			var users []models.UserPresence
			for {
				doc, err := qsnap.Documents.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					log.Printf("Warning: failed to iterate roster snapshot: %v", err)
					break
				}
				var user models.UserPresence
				if err := doc.DataTo(&user); err != nil {
					log.Printf("Warning: failed to parse user %s: %v", doc.Ref.ID, err)
					continue
				}
				users = append(users, user)
			}

			select {
			case ch <- users:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, cancel
}

// --- Report Operations ---

// CreateReport writes a report document into the named collection with a
// generated document id. Reports are append-only; no read path exists.
func (db *FirestoreDB) CreateReport(ctx context.Context, collection string, report *models.Report) error {
	_, _, err := db.client.Collection(collection).Add(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to create report in %s: %w", collection, err)
	}
	return nil
}

// --- Invite Code Operations ---

// CreateInviteCode persists a new invite code, keyed by the code itself
func (db *FirestoreDB) CreateInviteCode(ctx context.Context, invite *models.InviteCode) error {
	_, err := db.client.Collection(ColInviteCodes).Doc(invite.Code).Set(ctx, invite)
	if err != nil {
		return fmt.Errorf("failed to create invite code: %w", err)
	}
	return nil
}

// GetInviteCode retrieves an invite code document; returns ok=false when
// the code does not exist. Any other read failure is returned as an
// error; the snapshot is nil in that case and must not be touched.
func (db *FirestoreDB) GetInviteCode(ctx context.Context, code string) (*models.InviteCode, bool, error) {
	doc, err := db.client.Collection(ColInviteCodes).Doc(code).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get invite code: %w", err)
	}

	var invite models.InviteCode
	if err := doc.DataTo(&invite); err != nil {
		return nil, false, &models.DeserializationError{Collection: ColInviteCodes, DocID: code, Err: err}
	}

	return &invite, true, nil
}

// MarkInviteCodeUsed flags an invite code as consumed. The check and the
// write run in one transaction, so two racing registrations cannot both
// spend the same code; the loser gets models.ErrInviteCodeSpent.
func (db *FirestoreDB) MarkInviteCodeUsed(ctx context.Context, code string) error {
	ref := db.client.Collection(ColInviteCodes).Doc(code)
	err := db.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return models.ErrInviteCodeSpent
		}
		if err != nil {
			return err
		}

		var invite models.InviteCode
		if err := doc.DataTo(&invite); err != nil {
			return &models.DeserializationError{Collection: ColInviteCodes, DocID: code, Err: err}
		}
		if invite.IsUsed {
			return models.ErrInviteCodeSpent
		}

		return tx.Update(ref, []firestore.Update{
			{Path: "isUsed", Value: true},
		})
	})
	if err != nil {
		if errors.Is(err, models.ErrInviteCodeSpent) {
			return models.ErrInviteCodeSpent
		}
		return fmt.Errorf("failed to mark invite code used: %w", err)
	}
	return nil
}

// --- Password Operations ---

// StorePasswordHash stores a password hash for a user
func (db *FirestoreDB) StorePasswordHash(ctx context.Context, userID, passwordHash string) error {
	_, err := db.client.Collection(ColPasswords).Doc(userID).Set(ctx, map[string]interface{}{
		"user_id":       userID,
		"password_hash": passwordHash,
		"updated_at":    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to store password hash: %w", err)
	}
	return nil
}

// GetPasswordHash retrieves a password hash for a user
func (db *FirestoreDB) GetPasswordHash(ctx context.Context, userID string) (string, error) {
	doc, err := db.client.Collection(ColPasswords).Doc(userID).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get password hash: %w", err)
	}

	data := doc.Data()
	if hash, ok := data["password_hash"].(string); ok {
		return hash, nil
	}

	return "", fmt.Errorf("password hash not found for user: %s", userID)
}
