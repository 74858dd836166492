package market

import (
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"landlord/internal/notify"
)

// Service owns the market side of a game's economy: history backfill, the
// daily advance, dividends, trading and returns. Each game's tape is fully
// independent; nothing here is shared across games except the connection
// pool.
type Service struct {
	db           *pgxpool.Pool
	log          *slog.Logger
	notifier     *notify.Notifier
	historyYears int
}

func NewService(db *pgxpool.Pool, logger *slog.Logger, notifier *notify.Notifier, historyYears int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if historyYears <= 0 {
		historyYears = 50
	}
	return &Service{db: db, log: logger, notifier: notifier, historyYears: historyYears}
}
