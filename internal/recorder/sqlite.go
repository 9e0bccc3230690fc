package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"ChartQuest/internal/model"
)

const dateLayout = "2006-01-02"

// SQLiteRecorder persists the progression record and the trade journal to SQLite.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Immediate transactions take the write lock up front so the
	// read-modify-write of player_stats cannot interleave with another writer.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS player_stats (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			level      INTEGER NOT NULL DEFAULT 1,
			exp        INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
		`INSERT INTO player_stats (level, exp, created_at, updated_at)
			SELECT 1, 0, strftime('%s','now'), strftime('%s','now')
			WHERE NOT EXISTS (SELECT 1 FROM player_stats)`,

		`CREATE TABLE IF NOT EXISTS trades (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			session_id   TEXT,
			symbol       TEXT,
			trade_date   TEXT,
			kind         TEXT,
			quantity     INTEGER,
			price        INTEGER,
			amount       INTEGER,
			profit       INTEGER,
			cash_after   INTEGER,
			shares_after INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trades_session ON trades(session_id)`,

		`CREATE TABLE IF NOT EXISTS level_ups (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			session_id TEXT,
			trade_date TEXT,
			source     TEXT,
			gained     INTEGER,
			old_level  INTEGER,
			new_level  INTEGER,
			exp        INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_level_ups_ts ON level_ups(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// Load returns the latest progression row, or the default record if none exists.
func (r *SQLiteRecorder) Load() (model.Progression, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var p model.Progression
	err := r.db.QueryRow(`SELECT level, exp FROM player_stats ORDER BY id DESC LIMIT 1`).Scan(&p.Level, &p.Exp)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultProgression(), nil
	}
	if err != nil {
		return model.Progression{}, fmt.Errorf("load progression: %w", err)
	}
	return p, nil
}

// Update reads the progression, applies fn and writes it back in one transaction.
func (r *SQLiteRecorder) Update(fn func(model.Progression) model.Progression) (model.Progression, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return model.Progression{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var id int64
	cur := model.DefaultProgression()
	err = tx.QueryRow(`SELECT id, level, exp FROM player_stats ORDER BY id DESC LIMIT 1`).Scan(&id, &cur.Level, &cur.Exp)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		res, err := tx.Exec(`INSERT INTO player_stats (level, exp, created_at, updated_at) VALUES (1, 0, ?, ?)`,
			time.Now().Unix(), time.Now().Unix())
		if err != nil {
			return model.Progression{}, fmt.Errorf("seed progression: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return model.Progression{}, fmt.Errorf("seed progression: %w", err)
		}
	case err != nil:
		return model.Progression{}, fmt.Errorf("read progression: %w", err)
	}

	next := fn(cur)
	if _, err := tx.Exec(`UPDATE player_stats SET level = ?, exp = ?, updated_at = ? WHERE id = ?`,
		next.Level, next.Exp, time.Now().Unix(), id); err != nil {
		return model.Progression{}, fmt.Errorf("write progression: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Progression{}, fmt.Errorf("commit: %w", err)
	}
	return next, nil
}

// Reset sets the progression back to level 1 with no experience.
func (r *SQLiteRecorder) Reset() error {
	_, err := r.Update(func(model.Progression) model.Progression {
		return model.DefaultProgression()
	})
	return err
}

func (r *SQLiteRecorder) RecordTrade(evt *TradeEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO trades
		(timestamp, session_id, symbol, trade_date, kind, quantity, price, amount, profit, cash_after, shares_after)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.SessionID, evt.Symbol, evt.Date.Format(dateLayout), string(evt.Kind),
		evt.Quantity, evt.Price, evt.Amount, evt.Profit, evt.CashAfter, evt.SharesAfter,
	)
	return err
}

func (r *SQLiteRecorder) RecordLevelUp(evt *LevelUpEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO level_ups
		(timestamp, session_id, trade_date, source, gained, old_level, new_level, exp)
		VALUES (?,?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.SessionID, evt.Date.Format(dateLayout), string(evt.Source),
		evt.Gained, evt.OldLevel, evt.NewLevel, evt.Exp,
	)
	return err
}

// RecentTrades returns up to limit trades, newest first.
func (r *SQLiteRecorder) RecentTrades(limit int) ([]TradeEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT session_id, symbol, trade_date, kind, quantity, price, amount, profit, cash_after, shares_after
		FROM trades ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []TradeEvent
	for rows.Next() {
		var evt TradeEvent
		var day, kind string
		if err := rows.Scan(&evt.SessionID, &evt.Symbol, &day, &kind, &evt.Quantity, &evt.Price,
			&evt.Amount, &evt.Profit, &evt.CashAfter, &evt.SharesAfter); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		evt.Kind = model.TradeKind(kind)
		if evt.Date, err = time.Parse(dateLayout, day); err != nil {
			return nil, fmt.Errorf("parse trade date %q: %w", day, err)
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
