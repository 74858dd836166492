package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)

	n, err := New("redis://"+mr.Addr(), nil)
	require.NoError(t, err)
	defer n.Close()

	ctx := context.Background()
	sub := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer sub.Close()
	ps := sub.Subscribe(ctx, Channel("game-1"))
	defer ps.Close()
	_, err = ps.Receive(ctx)
	require.NoError(t, err)

	n.Publish(ctx, Event{
		Type:     EventDividend,
		GameID:   "game-1",
		PlayerID: "p-1",
		Amount:   12.5,
		Detail:   map[string]any{"symbol": "GRANIT"},
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	msg, err := ps.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, EventDividend, got.Type)
	assert.Equal(t, "p-1", got.PlayerID)
	assert.Equal(t, 12.5, got.Amount)
	assert.Equal(t, "GRANIT", got.Detail["symbol"])
}

func TestPublishWithoutBackendIsNoop(t *testing.T) {
	n, err := New("", nil)
	require.NoError(t, err)
	// Must not panic or block.
	n.Publish(context.Background(), Event{Type: EventWeeklyIncome, GameID: "g"})
	assert.NoError(t, n.Close())

	var nilN *Notifier
	nilN.Publish(context.Background(), Event{Type: EventWeeklyIncome, GameID: "g"})
	assert.NoError(t, nilN.Close())
}

func TestChannelNaming(t *testing.T) {
	assert.Equal(t, "landlord:events:abc", Channel("abc"))
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("not a url", nil)
	assert.Error(t, err)
}
