package ports

import (
	"context"

	"cryptoTradeJournal/internal/domain"
)

// TradeRepository defines the interface for reading and mutating journal trades.
type TradeRepository interface {
	// CreateTrade saves a new trade record and returns its assigned ID.
	CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error)
	// FindOpen retrieves all open trades across all users.
	FindOpen(ctx context.Context) ([]*domain.Trade, error)
	// FindOpenByUser retrieves the open trades belonging to one user.
	FindOpenByUser(ctx context.Context, userID string) ([]*domain.Trade, error)
	// FindByID retrieves a trade by its unique ID. Returns nil, nil if not found.
	FindByID(ctx context.Context, id int64) (*domain.Trade, error)
	// CloseTrade records the exit price and frozen P&L and marks the trade closed.
	CloseTrade(ctx context.Context, id int64, exitPrice, pnl float64) error
}

// ProfileRepository defines the interface for reading and updating user
// notification profiles.
type ProfileRepository interface {
	// FindNotifiable retrieves all profiles with a non-empty chat identifier.
	FindNotifiable(ctx context.Context) ([]*domain.Profile, error)
	// FindByChatID retrieves the profile registered with the given chat
	// identifier. Returns nil, nil if not found.
	FindByChatID(ctx context.Context, chatID string) (*domain.Profile, error)
	// UpdateLastReportMessageID persists the identifier of the most recently
	// sent report message for the user.
	UpdateLastReportMessageID(ctx context.Context, userID string, messageID int64) error
}
