package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// PrefStore is the persistent preference store. It survives client reloads
// and remembers only the user's last active brand id.
type PrefStore struct {
	client *redis.Client
}

func NewPrefStore(ps *PubSub) *PrefStore {
	return &PrefStore{client: ps.Client()}
}

func activeBrandKey(userID uuid.UUID) string {
	return "users:" + userID.String() + ":prefs:active_brand"
}

// ActiveBrand returns the stored active brand id, or "" when none is set.
func (s *PrefStore) ActiveBrand(ctx context.Context, userID uuid.UUID) (string, error) {
	val, err := s.client.Get(ctx, activeBrandKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis.PrefStore.ActiveBrand: %w", err)
	}
	return val, nil
}

func (s *PrefStore) SetActiveBrand(ctx context.Context, userID uuid.UUID, brandID string) error {
	if err := s.client.Set(ctx, activeBrandKey(userID), brandID, 0).Err(); err != nil {
		return fmt.Errorf("redis.PrefStore.SetActiveBrand: %w", err)
	}
	return nil
}

func (s *PrefStore) ClearActiveBrand(ctx context.Context, userID uuid.UUID) error {
	if err := s.client.Del(ctx, activeBrandKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis.PrefStore.ClearActiveBrand: %w", err)
	}
	return nil
}
