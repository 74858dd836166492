package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Event is the structured payload broadcast after an economic operation
// touches a player. Delivery to connected clients is someone else's job;
// the engine only publishes.
type Event struct {
	Type     string         `json:"type"`
	GameID   string         `json:"game_id"`
	PlayerID string         `json:"player_id,omitempty"`
	Amount   float64        `json:"amount"`
	Detail   map[string]any `json:"detail,omitempty"`
}

const (
	EventDividend     = "dividend"
	EventWeeklyIncome = "weekly_income"
)

// Notifier publishes events on a per-game redis channel, fire-and-forget.
// A nil Notifier (or one built without a redis URL) is a silent no-op so
// the engine runs fine without a broadcast backend.
type Notifier struct {
	rdb *redis.Client
	log *slog.Logger
}

func New(redisURL string, logger *slog.Logger) (*Notifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if redisURL == "" {
		return &Notifier{log: logger}, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &Notifier{rdb: redis.NewClient(opts), log: logger}, nil
}

func Channel(gameID string) string {
	return "landlord:events:" + gameID
}

// Publish emits ev to the game's channel. Errors are logged, never returned.
func (n *Notifier) Publish(ctx context.Context, ev Event) {
	if n == nil || n.rdb == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		n.log.Error("marshal event", "err", err, "type", ev.Type)
		return
	}
	if err := n.rdb.Publish(ctx, Channel(ev.GameID), payload).Err(); err != nil {
		n.log.Error("publish event", "err", err, "game_id", ev.GameID, "type", ev.Type)
	}
}

func (n *Notifier) Close() error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Close()
}
