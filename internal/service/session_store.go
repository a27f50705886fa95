package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	domainauth "github.com/target/tbrd-ui/internal/domain/auth"
	"github.com/target/tbrd-ui/internal/ports"
)

// GuestSessionKey is the profile storage key holding the guest record.
const GuestSessionKey = "tbrd.guestSession"

// GuestSessionStore persists the guest record in a profile's storage.
type GuestSessionStore struct {
	store  ports.Storage
	logger *slog.Logger
}

// NewGuestSessionStore constructs a GuestSessionStore. A nil logger falls back to slog.Default.
func NewGuestSessionStore(store ports.Storage, logger *slog.Logger) *GuestSessionStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuestSessionStore{store: store, logger: logger.With("component", "guest_session")}
}

// Save overwrites the profile's guest record.
func (s *GuestSessionStore) Save(ctx context.Context, profile string, rec domainauth.GuestRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode guest session: %w", err)
	}
	if setErr := s.store.Set(ctx, profile, GuestSessionKey, string(raw)); setErr != nil {
		return fmt.Errorf("save guest session: %w", setErr)
	}
	return nil
}

// Load returns the profile's guest record, or nil when there is none.
// Unparseable data counts as none; only storage failures are errors.
func (s *GuestSessionStore) Load(ctx context.Context, profile string) (*domainauth.GuestRecord, error) {
	raw, ok, err := s.store.Get(ctx, profile, GuestSessionKey)
	if err != nil {
		return nil, fmt.Errorf("load guest session: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var rec domainauth.GuestRecord
	if jsonErr := json.Unmarshal([]byte(raw), &rec); jsonErr != nil {
		s.logger.DebugContext(ctx, "ignoring unparseable guest session", "error", jsonErr)
		return nil, nil
	}
	if !rec.Valid() {
		s.logger.DebugContext(ctx, "ignoring guest session with unexpected shape")
		return nil, nil
	}
	return &rec, nil
}

// Clear removes the profile's guest record. Clearing an absent record is a no-op.
func (s *GuestSessionStore) Clear(ctx context.Context, profile string) error {
	if err := s.store.Delete(ctx, profile, GuestSessionKey); err != nil {
		return fmt.Errorf("clear guest session: %w", err)
	}
	return nil
}
