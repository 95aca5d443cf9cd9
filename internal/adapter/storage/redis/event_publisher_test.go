package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"auction-escrow-service/internal/core/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventPublisher_PublishBidAccepted(t *testing.T) {
	s := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: s.Addr()})
	pub := NewEventPublisher(client, "auction.events")
	ctx := context.Background()

	sub := client.Subscribe(ctx, "auction.events")
	defer sub.Close()
	_, err := sub.Receive(ctx) // wait for subscription confirmation
	require.NoError(t, err)

	event := &domain.BidAccepted{
		AuctionID:     uuid.New(),
		Bidder:        uuid.New(),
		PayoutAddress: "payout-addr-1",
		Amount:        110,
		Timestamp:     time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, pub.PublishBidAccepted(ctx, event))

	select {
	case msg := <-sub.Channel():
		var got domain.BidAccepted
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, event.AuctionID, got.AuctionID)
		assert.Equal(t, event.Bidder, got.Bidder)
		assert.Equal(t, event.Amount, got.Amount)
		assert.Equal(t, event.PayoutAddress, got.PayoutAddress)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published event")
	}
}
