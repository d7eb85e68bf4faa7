package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// durableLayer persists cache entries across process restarts in a SQLite
// database. It is only ever accessed through the Store.
type durableLayer struct {
	db    *sql.DB
	stats counters
	now   func() time.Time
}

func newDurableLayer(dir string) (*durableLayer, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	dbPath := filepath.Join(dir, "cache.db")

	// WAL mode keeps concurrent readers off the writers' backs.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	const schema = `
		CREATE TABLE IF NOT EXISTS cache_entries (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			stage      TEXT NOT NULL,
			version    TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			expires_at INTEGER
		);
		CREATE INDEX IF NOT EXISTS idx_cache_expires ON cache_entries(expires_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing cache schema: %w", err)
	}

	return &durableLayer{db: db, now: time.Now}, nil
}

// get returns the stored value, the remaining TTL (zero for entries without
// expiry), and whether the key was found and unexpired. Expired entries are
// deleted on access.
func (d *durableLayer) get(ctx context.Context, key string) ([]byte, time.Duration, bool) {
	var (
		value     []byte
		expiresAt sql.NullInt64
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM cache_entries WHERE key = ?`, key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		d.stats.miss()
		return nil, 0, false
	}
	if err != nil {
		// A broken durable layer is a miss, never a run failure.
		d.stats.miss()
		return nil, 0, false
	}

	var remaining time.Duration
	if expiresAt.Valid {
		deadline := time.Unix(expiresAt.Int64, 0)
		remaining = deadline.Sub(d.now())
		if remaining <= 0 {
			_, _ = d.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
			d.stats.miss()
			return nil, 0, false
		}
	}
	d.stats.hit()
	return value, remaining, true
}

func (d *durableLayer) put(ctx context.Context, k Key, value []byte, ttl time.Duration) error {
	var expiresAt any
	if ttl > 0 {
		expiresAt = d.now().Add(ttl).Unix()
	}
	_, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_entries (key, value, stage, version, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		k.String(), value, k.Stage, k.Version, d.now().Unix(), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}
	return nil
}

func (d *durableLayer) remove(ctx context.Context, key string) {
	_, _ = d.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
}

func (d *durableLayer) removePrefix(ctx context.Context, prefix string) (int, error) {
	res, err := d.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE key LIKE ? || '%'`, prefix)
	if err != nil {
		return 0, fmt.Errorf("invalidating cache prefix: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (d *durableLayer) sweep(ctx context.Context) (int, error) {
	res, err := d.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		d.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("sweeping expired cache entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (d *durableLayer) flush(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM cache_entries`); err != nil {
		return fmt.Errorf("flushing cache: %w", err)
	}
	return nil
}

func (d *durableLayer) len(ctx context.Context) int {
	var n int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries`).Scan(&n); err != nil {
		return 0
	}
	return n
}

func (d *durableLayer) close() error {
	return d.db.Close()
}
