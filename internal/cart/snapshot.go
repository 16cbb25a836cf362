package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/logger"
	"github.com/angelmondragon/storefront-checkout/pkg/redis"
)

type kvStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	CartKey(userID string) string
}

type snapshotPayload struct {
	Version int    `json:"version"`
	Items   []Item `json:"items"`
	SavedAt int64  `json:"saved_at"`
}

const snapshotVersion = 1

// SnapshotStore persists a user's cart between runs.
type SnapshotStore struct {
	kv   kvStore
	ttl  time.Duration
	logg *logger.Logger
	now  func() time.Time
}

// NewSnapshotStore builds a Redis-backed snapshot store.
func NewSnapshotStore(kv kvStore, ttl time.Duration, logg *logger.Logger) (*SnapshotStore, error) {
	if kv == nil {
		return nil, fmt.Errorf("key/value store required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &SnapshotStore{kv: kv, ttl: ttl, logg: logg, now: time.Now}, nil
}

// Save writes items for userID. An empty cart deletes the snapshot.
func (s *SnapshotStore) Save(ctx context.Context, userID string, items []Item) error {
	key := s.kv.CartKey(userID)
	if len(items) == 0 {
		if err := s.kv.Del(ctx, key); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart snapshot")
		}
		return nil
	}
	payload, err := json.Marshal(snapshotPayload{
		Version: snapshotVersion,
		Items:   items,
		SavedAt: s.now().UTC().Unix(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart snapshot")
	}
	if err := s.kv.Set(ctx, key, string(payload), s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write cart snapshot")
	}
	return nil
}

// Load returns the persisted items for userID, or nil when none exist.
func (s *SnapshotStore) Load(ctx context.Context, userID string) ([]Item, error) {
	raw, err := s.kv.Get(ctx, s.kv.CartKey(userID))
	if err != nil {
		if redis.IsNil(err) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart snapshot")
	}
	var payload snapshotPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode cart snapshot")
	}
	if payload.Version != snapshotVersion {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported cart snapshot version").
			WithDetails(map[string]any{"version": payload.Version})
	}
	return payload.Items, nil
}

// RestoreInto loads the snapshot for userID into store. A missing or unreadable
// snapshot leaves the store empty and is only logged.
func (s *SnapshotStore) RestoreInto(ctx context.Context, userID string, store *Store) {
	items, err := s.Load(ctx, userID)
	if err == nil && len(items) > 0 {
		err = store.Restore(ctx, items)
	}
	if err != nil {
		s.logg.Error(s.logg.WithUserID(ctx, userID), "cart snapshot not restored", err)
	}
}

// PersistOnChange returns an observer that saves the cart after each mutation.
// Write failures are logged; the in-memory cart stays authoritative.
func (s *SnapshotStore) PersistOnChange(userID string) Observer {
	return func(ctx context.Context, event Event) {
		if err := s.Save(ctx, userID, event.Items); err != nil {
			s.logg.Error(s.logg.WithUserID(ctx, userID), "cart snapshot not saved", err)
		}
	}
}
