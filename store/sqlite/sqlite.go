/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

INTERFACES IMPLEMENTED:
  wallet.Store:              The append-only transaction ledger
  achievement.ActivityStore: Date-indexed activity facts (read side)
  achievement.ProgressStore: The rebuildable progress mirror

APPEND-ONLY ENFORCEMENT:
  The transactions table has no UPDATE or DELETE path in this package.
  Corrections go through adjustment transactions.

CLAIM UNIQUENESS:
  idx_unique_claim is the heart of the engine's race safety: a partial
  unique index on (user_id, reason) restricted to grant rows. Two
  concurrent claims for the same achievement and period both try to
  insert the same reason; the loser fails the index and the failure is
  translated into wallet.ErrDuplicateClaim. Redemptions and adjustments
  are outside the index and may repeat reasons.

ACTIVITY FACTS:
  diary_entries, photos, and todo_completions store when things
  happened, never what they contained. The day column is derived from
  the store's canonical location at write time so that date queries are
  a plain string match.

WAL MODE:
  Opened with WAL for concurrent readers alongside the single writer.

SEE ALSO:
  - wallet/store.go: Interface contract
  - wallet/store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/focusbridge/reward-engine/achievement"
	"github.com/focusbridge/reward-engine/wallet"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db  *sql.DB
	mu  sync.RWMutex
	loc *time.Location
}

// New opens (or creates) the database at dbPath and migrates the
// schema. Use ":memory:" for an in-memory database. loc is the
// canonical location used to date activity facts; nil means UTC and
// must match the engine clock's location.
func New(dbPath string, loc *time.Location) (*Store, error) {
	if loc == nil {
		loc = time.UTC
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite has a single writer anyway, and a ":memory:"
	// database exists per connection, so a pool would shard it.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, loc: loc}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Transactions (append-only ledger). seq is the insertion sequence
	-- that breaks timestamp ties in the ledger's total order.
	CREATE TABLE IF NOT EXISTS transactions (
		seq           INTEGER PRIMARY KEY AUTOINCREMENT,
		id            TEXT NOT NULL UNIQUE,
		user_id       TEXT NOT NULL,
		delta         TEXT NOT NULL,
		tx_type       TEXT NOT NULL,
		reason        TEXT NOT NULL,
		balance_after TEXT NOT NULL,
		created_at    TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_user
		ON transactions(user_id, created_at, seq);

	-- CRITICAL: at most one grant per (user, reason). The reason string
	-- for achievement grants is the claim key, so this index is the
	-- storage-level guarantee that a claim race credits exactly once.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_claim
		ON transactions(user_id, reason)
		WHERE tx_type = 'grant';

	-- Activity facts (no content, only dates and counts)
	CREATE TABLE IF NOT EXISTS diary_entries (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id    TEXT NOT NULL,
		day        TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_diary_user_day
		ON diary_entries(user_id, day);

	CREATE TABLE IF NOT EXISTS photos (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id     TEXT NOT NULL,
		uploaded_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_photos_user
		ON photos(user_id);

	CREATE TABLE IF NOT EXISTS todo_completions (
		id           INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id      TEXT NOT NULL,
		day          TEXT NOT NULL,
		completed_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_todos_user_day
		ON todo_completions(user_id, day);

	-- Progress mirror (rebuildable cache, upsert allowed)
	CREATE TABLE IF NOT EXISTS achievement_progress (
		user_id        TEXT NOT NULL,
		achievement_id TEXT NOT NULL,
		progress       REAL NOT NULL DEFAULT 0,
		unlocked       INTEGER NOT NULL DEFAULT 0,
		updated_at     TEXT NOT NULL,
		PRIMARY KEY (user_id, achievement_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTION LEDGER (wallet.Store interface)
// =============================================================================

// Append adds a transaction to the ledger.
func (s *Store) Append(ctx context.Context, tx wallet.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO transactions
		(id, user_id, delta, tx_type, reason, balance_after, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		string(tx.ID),
		string(tx.UserID),
		tx.Delta.String(),
		string(tx.Type),
		tx.Reason,
		tx.Balance.String(),
		tx.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isClaimUniquenessError(err) {
			return wallet.ErrDuplicateClaim
		}
		return fmt.Errorf("failed to append transaction: %w", err)
	}
	return nil
}

// Load returns all transactions for a user in ledger order.
func (s *Store) Load(ctx context.Context, userID wallet.UserID) ([]wallet.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT seq, id, user_id, delta, tx_type, reason, balance_after, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at ASC, seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, string(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []wallet.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// Latest returns the most recent transaction for a user, or nil.
func (s *Store) Latest(ctx context.Context, userID wallet.UserID) (*wallet.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT seq, id, user_id, delta, tx_type, reason, balance_after, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY created_at DESC, seq DESC
		LIMIT 1
	`
	row := s.db.QueryRowContext(ctx, query, string(userID))
	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// ClaimExists reports whether a grant with this reason exists.
func (s *Store) ClaimExists(ctx context.Context, userID wallet.UserID, reason string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE user_id = ? AND reason = ? AND tx_type = 'grant'`,
		string(userID), reason,
	).Scan(&count)
	return count > 0, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (wallet.Transaction, error) {
	var (
		tx        wallet.Transaction
		id        string
		userID    string
		delta     string
		txType    string
		balance   string
		createdAt string
	)
	err := row.Scan(&tx.Seq, &id, &userID, &delta, &txType, &tx.Reason, &balance, &createdAt)
	if err == sql.ErrNoRows {
		return tx, err
	}
	if err != nil {
		return tx, fmt.Errorf("failed to scan transaction: %w", err)
	}

	tx.ID = wallet.TransactionID(id)
	tx.UserID = wallet.UserID(userID)
	tx.Delta = wallet.ParseAmount(delta)
	tx.Type = wallet.TransactionType(txType)
	tx.Balance = wallet.ParseAmount(balance)
	t, perr := time.Parse(time.RFC3339Nano, createdAt)
	if perr != nil {
		return tx, fmt.Errorf("failed to parse created_at %q: %w", createdAt, perr)
	}
	tx.CreatedAt = t
	return tx, nil
}

// =============================================================================
// ACTIVITY FACT RECORDING (write side, used by the surrounding app)
// =============================================================================

// RecordDiaryEntry records that a diary entry was created at createdAt.
// The entry's day is derived in the store's canonical location.
func (s *Store) RecordDiaryEntry(ctx context.Context, userID wallet.UserID, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := wallet.DayOf(createdAt, s.loc)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO diary_entries (user_id, day, created_at) VALUES (?, ?, ?)`,
		string(userID), day.String(), createdAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// RecordPhoto records one photo upload.
func (s *Store) RecordPhoto(ctx context.Context, userID wallet.UserID, uploadedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO photos (user_id, uploaded_at) VALUES (?, ?)`,
		string(userID), uploadedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// RecordTodoCompletion records a to-do completed on the given day.
func (s *Store) RecordTodoCompletion(ctx context.Context, userID wallet.UserID, day wallet.Day, completedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO todo_completions (user_id, day, completed_at) VALUES (?, ?, ?)`,
		string(userID), day.String(), completedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// =============================================================================
// ACTIVITY FACTS (achievement.ActivityStore interface)
// =============================================================================

func (s *Store) DiaryCount(ctx context.Context, userID wallet.UserID) (int, error) {
	return s.countQuery(ctx, `SELECT COUNT(*) FROM diary_entries WHERE user_id = ?`, string(userID))
}

func (s *Store) DiaryExistsOn(ctx context.Context, userID wallet.UserID, day wallet.Day) (bool, error) {
	n, err := s.countQuery(ctx,
		`SELECT COUNT(*) FROM diary_entries WHERE user_id = ? AND day = ?`,
		string(userID), day.String(),
	)
	return n > 0, err
}

func (s *Store) DiaryCreatedTimes(ctx context.Context, userID wallet.UserID) ([]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT created_at FROM diary_entries WHERE user_id = ? ORDER BY created_at ASC`,
		string(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query diary times: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse diary time %q: %w", raw, err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (s *Store) PhotoCount(ctx context.Context, userID wallet.UserID) (int, error) {
	return s.countQuery(ctx, `SELECT COUNT(*) FROM photos WHERE user_id = ?`, string(userID))
}

func (s *Store) TodosCompletedOn(ctx context.Context, userID wallet.UserID, day wallet.Day) (int, error) {
	return s.countQuery(ctx,
		`SELECT COUNT(*) FROM todo_completions WHERE user_id = ? AND day = ?`,
		string(userID), day.String(),
	)
}

func (s *Store) TodoEverCompleted(ctx context.Context, userID wallet.UserID) (bool, error) {
	n, err := s.countQuery(ctx, `SELECT COUNT(*) FROM todo_completions WHERE user_id = ?`, string(userID))
	return n > 0, err
}

func (s *Store) countQuery(ctx context.Context, query string, args ...any) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return n, nil
}

// =============================================================================
// PROGRESS MIRROR (achievement.ProgressStore interface)
// =============================================================================

func (s *Store) Upsert(ctx context.Context, p achievement.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO achievement_progress (user_id, achievement_id, progress, unlocked, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, achievement_id) DO UPDATE SET
			progress   = excluded.progress,
			unlocked   = excluded.unlocked,
			updated_at = excluded.updated_at
	`
	_, err := s.db.ExecContext(ctx, query,
		string(p.UserID), p.AchievementID, p.Progress, boolToInt(p.Unlocked),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *Store) Get(ctx context.Context, userID wallet.UserID, achievementID string) (*achievement.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, achievement_id, progress, unlocked FROM achievement_progress
		 WHERE user_id = ? AND achievement_id = ?`,
		string(userID), achievementID,
	)
	p, err := scanProgress(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) List(ctx context.Context, userID wallet.UserID) ([]achievement.Progress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, achievement_id, progress, unlocked FROM achievement_progress
		 WHERE user_id = ? ORDER BY achievement_id ASC`,
		string(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var out []achievement.Progress
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProgress(row rowScanner) (achievement.Progress, error) {
	var (
		p        achievement.Progress
		userID   string
		unlocked int
	)
	err := row.Scan(&userID, &p.AchievementID, &p.Progress, &unlocked)
	if err != nil {
		return p, err
	}
	p.UserID = wallet.UserID(userID)
	p.Unlocked = unlocked != 0
	return p, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isClaimUniquenessError matches the failure of idx_unique_claim. The
// id column's UNIQUE can only collide on a UUID reuse, so any unique
// violation on this table is treated as a duplicate claim.
func isClaimUniquenessError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
