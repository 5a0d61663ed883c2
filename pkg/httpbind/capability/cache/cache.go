// Package cache caches successful GET responses in a local SQLite
// database keyed by configKey+URL, modeled on the reference project's
// SQLiteStorage (database/sql with the modernc.org/sqlite driver).
package cache

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tombee/declarative-http/pkg/httpbind"
)

// Store is a SQLite-backed response cache.
type Store struct {
	db  *sql.DB
	ttl time.Duration
}

// Open opens (creating if necessary) a SQLite database at path and prepares
// its response_cache table. ttl is how long a cached entry stays fresh.
func Open(path string, ttl time.Duration) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("cache: opening database: %w", err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS response_cache (
		cache_key TEXT PRIMARY KEY,
		status_code INTEGER NOT NULL,
		status TEXT NOT NULL,
		body BLOB,
		cached_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("cache: creating schema: %w", err)
	}
	return &Store{db: db, ttl: ttl}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Capability wraps Components.Transport: GET requests are served from the
// cache when a fresh entry exists, and successful GET responses populate
// it on the way back out. Non-GET requests always pass through.
func (s *Store) Capability() httpbind.Capability {
	return httpbind.CapabilityFunc(func(comps *httpbind.Components) error {
		inner := comps.Transport
		comps.Transport = httpbind.TransportFunc(func(ctx context.Context, req *httpbind.Request, opts *httpbind.CallOptions) (*httpbind.Response, error) {
			if req.Method != http.MethodGet {
				return inner.Execute(ctx, req, opts)
			}
			key := cacheKey(req)

			if resp, ok := s.lookup(ctx, key, req); ok {
				return resp, nil
			}

			resp, err := inner.Execute(ctx, req, opts)
			if err != nil {
				return resp, err
			}
			if resp.IsSuccess() {
				s.store(ctx, key, resp)
			}
			return resp, nil
		})
		return nil
	})
}

func cacheKey(req *httpbind.Request) string {
	configKey := ""
	if req.Template != nil && req.Template.Metadata != nil {
		configKey = req.Template.Metadata.ConfigKey
	}
	return configKey + "|" + req.URL
}

func (s *Store) lookup(ctx context.Context, key string, req *httpbind.Request) (*httpbind.Response, bool) {
	var statusCode int
	var status string
	var body []byte
	var cachedAt int64
	row := s.db.QueryRowContext(ctx, `SELECT status_code, status, body, cached_at FROM response_cache WHERE cache_key = ?`, key)
	if err := row.Scan(&statusCode, &status, &body, &cachedAt); err != nil {
		return nil, false
	}
	if s.ttl > 0 && time.Since(time.Unix(cachedAt, 0)) > s.ttl {
		return nil, false
	}
	return &httpbind.Response{
		StatusCode: statusCode,
		Status:     status,
		Header:     http.Header{},
		Body:       body,
		Request:    req,
	}, true
}

func (s *Store) store(ctx context.Context, key string, resp *httpbind.Response) {
	_, _ = s.db.ExecContext(ctx,
		`INSERT INTO response_cache (cache_key, status_code, status, body, cached_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET status_code=excluded.status_code, status=excluded.status, body=excluded.body, cached_at=excluded.cached_at`,
		key, resp.StatusCode, resp.Status, resp.Body, time.Now().Unix(),
	)
}
