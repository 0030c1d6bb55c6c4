package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cryptoTradeJournal/internal/domain"
	"cryptoTradeJournal/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Repository implements the ports.TradeRepository and ports.ProfileRepository
// interfaces using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/trade_journal.db"
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		err = fmt.Errorf("failed to open database at '%s': %w", dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		err = fmt.Errorf("%w: failed to ping database at '%s': %v", ports.ErrDBConnection, dbPath, err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		err = fmt.Errorf("failed to initialize database schema: %w", err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}
	cfg.Logger.Info(context.Background(), "SQLite database ready", map[string]interface{}{"path": dbPath})

	return repo, nil
}

// initializeSchema creates tables if they don't exist.
func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS trades (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		crypto_pair TEXT NOT NULL,
		direction TEXT NOT NULL,
		entry_price REAL NOT NULL,
		position_size REAL NOT NULL,
		leverage INTEGER NOT NULL DEFAULT 1,
		exit_price REAL DEFAULT NULL,
		status TEXT NOT NULL DEFAULT 'open',
		pnl REAL DEFAULT NULL,
		opened_at TIMESTAMP NOT NULL,
		strategy TEXT DEFAULT '',
		emotions TEXT DEFAULT '',
		mistakes TEXT DEFAULT '',
		notes TEXT DEFAULT '',
		market_conditions TEXT DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		full_name TEXT NOT NULL DEFAULT '',
		telegram_chat_id TEXT DEFAULT NULL,
		profit_alert_percent REAL DEFAULT NULL,
		last_report_message_id INTEGER DEFAULT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trades_status ON trades (status);
	CREATE INDEX IF NOT EXISTS idx_trades_user_status ON trades (user_id, status);
	`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- TradeRepository Implementation ---

const tradeColumns = `
	id, user_id, crypto_pair, direction, entry_price, position_size, leverage,
	COALESCE(exit_price, 0), status, COALESCE(pnl, 0), opened_at,
	strategy, emotions, mistakes, notes, market_conditions`

// CreateTrade saves a new trade record and returns its assigned ID.
func (r *Repository) CreateTrade(ctx context.Context, trade *domain.Trade) (int64, error) {
	const query = `
	INSERT INTO trades (user_id, crypto_pair, direction, entry_price, position_size, leverage,
	                    status, opened_at, strategy, emotions, mistakes, notes, market_conditions)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	openedAt := trade.OpenedAt
	if openedAt.IsZero() {
		openedAt = time.Now().UTC()
	}
	status := trade.Status
	if status == "" {
		status = domain.StatusOpen
	}

	result, err := r.db.ExecContext(ctx, query,
		trade.UserID, trade.Pair, trade.Direction, trade.EntryPrice, trade.PositionSize, trade.Leverage,
		status, openedAt, trade.Strategy, trade.Emotions, trade.Mistakes, trade.Notes, trade.MarketConditions)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to insert trade for pair %s: %v", ports.ErrQueryFailed, trade.Pair, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for trade %s: %w", trade.Pair, err)
	}
	trade.ID = id
	trade.Status = status
	trade.OpenedAt = openedAt
	r.logger.Debug(ctx, "Trade created", map[string]interface{}{"tradeID": id, "pair": trade.Pair})
	return id, nil
}

// FindOpen retrieves all open trades across all users.
func (r *Repository) FindOpen(ctx context.Context) ([]*domain.Trade, error) {
	query := `SELECT` + tradeColumns + ` FROM trades WHERE status = ? ORDER BY opened_at DESC`
	return r.queryTrades(ctx, query, domain.StatusOpen)
}

// FindOpenByUser retrieves the open trades belonging to one user.
func (r *Repository) FindOpenByUser(ctx context.Context, userID string) ([]*domain.Trade, error) {
	query := `SELECT` + tradeColumns + ` FROM trades WHERE user_id = ? AND status = ? ORDER BY opened_at DESC`
	return r.queryTrades(ctx, query, userID, domain.StatusOpen)
}

// FindByID retrieves a trade by its unique ID.
func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.Trade, error) {
	query := `SELECT` + tradeColumns + ` FROM trades WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	trade, err := scanTrade(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "Trade not found by ID", map[string]interface{}{"tradeID": id})
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to query trade by ID %d: %v", ports.ErrQueryFailed, id, err)
	}
	return trade, nil
}

// CloseTrade records the exit price and frozen P&L and marks the trade closed.
// The P&L written here is never recomputed afterwards.
func (r *Repository) CloseTrade(ctx context.Context, id int64, exitPrice, pnl float64) error {
	const query = `UPDATE trades SET exit_price = ?, pnl = ?, status = ? WHERE id = ? AND status = ?`

	result, err := r.db.ExecContext(ctx, query, exitPrice, pnl, domain.StatusClosed, id, domain.StatusOpen)
	if err != nil {
		return fmt.Errorf("%w: failed to close trade ID %d: %v", ports.ErrUpdateFailed, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for close trade ID %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("open trade ID %d not found for close: %w", id, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Trade closed", map[string]interface{}{"tradeID": id, "exitPrice": exitPrice, "pnl": pnl})
	return nil
}

func (r *Repository) queryTrades(ctx context.Context, query string, args ...interface{}) ([]*domain.Trade, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query trades: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	trades := make([]*domain.Trade, 0)
	for rows.Next() {
		trade, err := scanTrade(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		trades = append(trades, trade)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trade rows: %w", err)
	}
	return trades, nil
}

// --- ProfileRepository Implementation ---

// FindNotifiable retrieves all profiles with a non-empty chat identifier.
func (r *Repository) FindNotifiable(ctx context.Context) ([]*domain.Profile, error) {
	const query = `
	SELECT user_id, full_name, telegram_chat_id, profit_alert_percent, last_report_message_id
	FROM profiles
	WHERE telegram_chat_id IS NOT NULL AND telegram_chat_id != ''`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query notifiable profiles: %v", ports.ErrQueryFailed, err)
	}
	defer rows.Close()

	profiles := make([]*domain.Profile, 0)
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		profiles = append(profiles, profile)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profile rows: %w", err)
	}
	return profiles, nil
}

// FindByChatID retrieves the profile registered with the given chat identifier.
func (r *Repository) FindByChatID(ctx context.Context, chatID string) (*domain.Profile, error) {
	const query = `
	SELECT user_id, full_name, telegram_chat_id, profit_alert_percent, last_report_message_id
	FROM profiles
	WHERE telegram_chat_id = ?`

	row := r.db.QueryRowContext(ctx, query, chatID)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			r.logger.Debug(ctx, "No profile found for chat ID", map[string]interface{}{"chatID": chatID})
			return nil, nil
		}
		return nil, fmt.Errorf("%w: failed to query profile by chat ID: %v", ports.ErrQueryFailed, err)
	}
	return profile, nil
}

// UpdateLastReportMessageID persists the identifier of the most recently sent
// report message for the user.
func (r *Repository) UpdateLastReportMessageID(ctx context.Context, userID string, messageID int64) error {
	const query = `UPDATE profiles SET last_report_message_id = ? WHERE user_id = ?`

	result, err := r.db.ExecContext(ctx, query, messageID, userID)
	if err != nil {
		return fmt.Errorf("%w: failed to update last report message ID for user %s: %v", ports.ErrUpdateFailed, userID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for profile update %s: %w", userID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("profile for user %s not found: %w", userID, ports.ErrNotFound)
	}
	r.logger.Debug(ctx, "Last report message ID updated", map[string]interface{}{"userID": userID, "messageID": messageID})
	return nil
}

// UpsertProfile inserts or replaces a profile row. Used by provisioning and tests;
// the web application normally owns profile writes.
func (r *Repository) UpsertProfile(ctx context.Context, profile *domain.Profile) error {
	const query = `
	INSERT INTO profiles (user_id, full_name, telegram_chat_id, profit_alert_percent, last_report_message_id)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		full_name = excluded.full_name,
		telegram_chat_id = excluded.telegram_chat_id,
		profit_alert_percent = excluded.profit_alert_percent,
		last_report_message_id = excluded.last_report_message_id`

	var chatID sql.NullString
	if profile.ChatID != "" {
		chatID = sql.NullString{String: profile.ChatID, Valid: true}
	}
	var alertPct sql.NullFloat64
	if profile.ProfitAlertPercent != nil {
		alertPct = sql.NullFloat64{Float64: *profile.ProfitAlertPercent, Valid: true}
	}
	var lastMsgID sql.NullInt64
	if profile.LastReportMessageID != 0 {
		lastMsgID = sql.NullInt64{Int64: profile.LastReportMessageID, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query, profile.UserID, profile.FullName, chatID, alertPct, lastMsgID)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert profile for user %s: %v", ports.ErrUpdateFailed, profile.UserID, err)
	}
	return nil
}

// --- Helper Scan Functions ---

// scanner defines an interface compatible with *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTrade(s scanner) (*domain.Trade, error) {
	t := &domain.Trade{}
	var direction, status string
	err := s.Scan(
		&t.ID, &t.UserID, &t.Pair, &direction, &t.EntryPrice, &t.PositionSize, &t.Leverage,
		&t.ExitPrice, &status, &t.PNL, &t.OpenedAt,
		&t.Strategy, &t.Emotions, &t.Mistakes, &t.Notes, &t.MarketConditions)
	if err != nil {
		return nil, err // sql.ErrNoRows handled by the caller
	}
	t.Direction = domain.Direction(direction)
	t.Status = domain.TradeStatus(status)
	return t, nil
}

func scanProfile(s scanner) (*domain.Profile, error) {
	p := &domain.Profile{}
	var chatID sql.NullString
	var alertPct sql.NullFloat64
	var lastMsgID sql.NullInt64
	err := s.Scan(&p.UserID, &p.FullName, &chatID, &alertPct, &lastMsgID)
	if err != nil {
		return nil, err // sql.ErrNoRows handled by the caller
	}
	if chatID.Valid {
		p.ChatID = chatID.String
	}
	if alertPct.Valid {
		v := alertPct.Float64
		p.ProfitAlertPercent = &v
	}
	if lastMsgID.Valid {
		p.LastReportMessageID = lastMsgID.Int64
	}
	return p, nil
}
