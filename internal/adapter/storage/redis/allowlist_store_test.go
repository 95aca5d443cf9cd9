package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowListStore_AddAndCheck(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewAllowListStore(client)
	ctx := context.Background()

	auctionID := uuid.New()
	allowed := uuid.New()
	stranger := uuid.New()

	require.NoError(t, store.Add(ctx, auctionID, allowed))

	ok, err := store.IsAllowed(ctx, auctionID, allowed)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.IsAllowed(ctx, auctionID, stranger)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAllowListStore_Remove(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewAllowListStore(client)
	ctx := context.Background()

	auctionID := uuid.New()
	account := uuid.New()

	require.NoError(t, store.Add(ctx, auctionID, account))
	require.NoError(t, store.Remove(ctx, auctionID, account))

	ok, err := store.IsAllowed(ctx, auctionID, account)
	require.NoError(t, err)
	assert.False(t, ok, "removed account should no longer be allowed")
}

func TestAllowListStore_ScopedPerAuction(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewAllowListStore(client)
	ctx := context.Background()

	auctionA := uuid.New()
	auctionB := uuid.New()
	account := uuid.New()

	require.NoError(t, store.Add(ctx, auctionA, account))

	ok, err := store.IsAllowed(ctx, auctionB, account)
	require.NoError(t, err)
	assert.False(t, ok, "allow-lists are per auction")
}

func TestAllowListStore_AddMultiple(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewAllowListStore(client)
	ctx := context.Background()

	auctionID := uuid.New()
	a, b := uuid.New(), uuid.New()

	require.NoError(t, store.Add(ctx, auctionID, a, b))

	for _, id := range []uuid.UUID{a, b} {
		ok, err := store.IsAllowed(ctx, auctionID, id)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestAllowListStore_AddEmpty(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	store := NewAllowListStore(client)

	// No-op, no error
	assert.NoError(t, store.Add(context.Background(), uuid.New()))
	assert.NoError(t, store.Remove(context.Background(), uuid.New()))
}
