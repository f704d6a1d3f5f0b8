package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionsTable holds OAuth sessions written by the install flow (out of scope here).
// This store only ever reads from it.
const SessionsTable = "shop_sessions"

// SessionRecord represents a persisted OAuth session for a shop.
type SessionRecord struct {
	ID          string     `db:"id"`
	ShopDomain  string     `db:"shop_domain"`
	IsOnline    bool       `db:"is_online"`
	AccessToken *string    `db:"access_token"`
	ExpiresAt   *time.Time `db:"expires_at"`
	CreatedAt   time.Time  `db:"created_at"`
}

// SessionStore provides read-only access to persisted shop sessions.
type SessionStore struct {
	pool *pgxpool.Pool
}

// NewSessionStore creates a store; assumes migrations already created the table.
func NewSessionStore(pool *pgxpool.Pool) (*SessionStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &SessionStore{pool: pool}, nil
}

// LatestOffline returns the freshest offline session holding a token for a shop.
// Sessions without an expiry sort last, i.e. a non-expiring token wins.
func (s *SessionStore) LatestOffline(ctx context.Context, shopDomain string) (SessionRecord, error) {
	query := fmt.Sprintf(`SELECT id, shop_domain, is_online, access_token, expires_at, created_at
        FROM %s
        WHERE shop_domain = $1 AND is_online = FALSE AND access_token IS NOT NULL AND access_token <> ''
        ORDER BY expires_at DESC NULLS FIRST
        LIMIT 1`, SessionsTable)

	var rec SessionRecord
	err := s.pool.QueryRow(ctx, query, shopDomain).
		Scan(&rec.ID, &rec.ShopDomain, &rec.IsOnline, &rec.AccessToken, &rec.ExpiresAt, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SessionRecord{}, ErrNotFound
		}
		return SessionRecord{}, err
	}
	return rec, nil
}
