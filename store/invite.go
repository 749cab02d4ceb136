package store

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sitesafe/models"
)

// InviteBackend is the slice of the database the invite store needs.
// *db.FirestoreDB satisfies it. MarkInviteCodeUsed is atomic: it must
// fail with models.ErrInviteCodeSpent when the code is missing or
// already used, so two racing callers cannot both spend one code.
type InviteBackend interface {
	CreateInviteCode(ctx context.Context, invite *models.InviteCode) error
	GetInviteCode(ctx context.Context, code string) (*models.InviteCode, bool, error)
	MarkInviteCodeUsed(ctx context.Context, code string) error
}

// CodeLength is the length of a generated invite code.
const CodeLength = 8

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// InviteStore owns generation and one-time validation of account
// creation invite codes.
type InviteStore struct {
	backend InviteBackend
}

func NewInviteStore(backend InviteBackend) *InviteStore {
	return &InviteStore{backend: backend}
}

// Generate creates a new random invite code, persists it unused, and
// returns it for distribution. Each character is an independent uniform
// draw from the alphabet.
func (s *InviteStore) Generate(ctx context.Context) (string, error) {
	alphabetSize := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, CodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("failed to generate invite code: %w", err)
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	code := string(buf)

	invite := models.InviteCode{Code: code, IsUsed: false}
	if err := s.backend.CreateInviteCode(ctx, &invite); err != nil {
		return "", fmt.Errorf("failed to store invite code: %w", err)
	}
	return code, nil
}

// Validate reports whether the code exists and is still unused. It does
// not consume the code; Consume does that at account creation.
func (s *InviteStore) Validate(ctx context.Context, code string) (bool, error) {
	invite, ok, err := s.backend.GetInviteCode(ctx, code)
	if err != nil {
		return false, err
	}
	if !ok || invite.IsUsed {
		return false, nil
	}
	return true, nil
}

// Consume marks the code used. Codes are single use: the backend's
// atomic check-and-mark guarantees exactly one caller wins; any later
// or racing attempt gets ErrInvalidInviteCode.
func (s *InviteStore) Consume(ctx context.Context, code string) error {
	if err := s.backend.MarkInviteCodeUsed(ctx, code); err != nil {
		if errors.Is(err, models.ErrInviteCodeSpent) {
			return ErrInvalidInviteCode
		}
		return fmt.Errorf("failed to consume invite code: %w", err)
	}
	return nil
}
