package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// AllowListStore implements ports.AllowListService on Redis sets,
// one set per gated auction.
type AllowListStore struct {
	client *goredis.Client
	prefix string
}

// NewAllowListStore creates a new Redis-backed allow-list store.
func NewAllowListStore(client *goredis.Client) *AllowListStore {
	return &AllowListStore{
		client: client,
		prefix: "allowlist:",
	}
}

func (s *AllowListStore) key(auctionID uuid.UUID) string {
	return s.prefix + auctionID.String()
}

// IsAllowed reports whether the account is on the auction's allow-list.
func (s *AllowListStore) IsAllowed(ctx context.Context, auctionID, accountID uuid.UUID) (bool, error) {
	ok, err := s.client.SIsMember(ctx, s.key(auctionID), accountID.String()).Result()
	if err != nil {
		return false, fmt.Errorf("redis allowlist check: %w", err)
	}
	return ok, nil
}

// Add puts accounts on the auction's allow-list.
func (s *AllowListStore) Add(ctx context.Context, auctionID uuid.UUID, accountIDs ...uuid.UUID) error {
	if len(accountIDs) == 0 {
		return nil
	}
	if err := s.client.SAdd(ctx, s.key(auctionID), members(accountIDs)...).Err(); err != nil {
		return fmt.Errorf("redis allowlist add: %w", err)
	}
	return nil
}

// Remove takes accounts off the auction's allow-list.
func (s *AllowListStore) Remove(ctx context.Context, auctionID uuid.UUID, accountIDs ...uuid.UUID) error {
	if len(accountIDs) == 0 {
		return nil
	}
	if err := s.client.SRem(ctx, s.key(auctionID), members(accountIDs)...).Err(); err != nil {
		return fmt.Errorf("redis allowlist remove: %w", err)
	}
	return nil
}

func members(ids []uuid.UUID) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
