package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// APIKey is a stored API key. The key itself is never persisted.
type APIKey struct {
	APIKeyID   string       `db:"api_key_id"`
	AppID      string       `db:"app_id"`
	Name       string       `db:"name"`
	SecretID   string       `db:"secret_id"`
	CreatedAt  time.Time    `db:"created_at"`
	LastUsedAt sql.NullTime `db:"last_used_at"`
	RevokedAt  sql.NullTime `db:"revoked_at"`
}

// CallRecord is one journaled bridge invocation.
type CallRecord struct {
	CallID       string    `db:"call_id" json:"call_id"`
	AppID        string    `db:"app_id" json:"app_id"`
	Module       string    `db:"module" json:"module"`
	Method       string    `db:"method" json:"method"`
	Status       string    `db:"status" json:"status"`
	Degraded     int       `db:"degraded" json:"degraded"`
	DurationUS   int64     `db:"duration_us" json:"duration_us"`
	ErrorMessage string    `db:"error_message" json:"error,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// InsertAPIKey stores k with its HMAC hash.
func (q *Queries) InsertAPIKey(ctx context.Context, k APIKey, hash []byte) error {
	_, err := q.Exec(ctx, "insert-api-key", k.APIKeyID, k.AppID, k.Name, k.SecretID, hash, k.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert api key: %w", err)
	}
	return nil
}

// RevokeAPIKey marks a key revoked. Returns false when the key is unknown
// or already revoked.
func (q *Queries) RevokeAPIKey(ctx context.Context, apiKeyID string, at time.Time) (bool, error) {
	res, err := q.Exec(ctx, "revoke-api-key", at.UTC(), apiKeyID)
	if err != nil {
		return false, fmt.Errorf("failed to revoke api key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListAPIKeys returns every stored key, oldest first.
func (q *Queries) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	var keys []APIKey
	if err := q.Select(ctx, "list-api-keys", &keys); err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	return keys, nil
}

// InsertCall journals one invocation.
func (q *Queries) InsertCall(ctx context.Context, rec CallRecord) error {
	_, err := q.Exec(ctx, "insert-call",
		rec.CallID, rec.AppID, rec.Module, rec.Method, rec.Status,
		rec.Degraded, rec.DurationUS, rec.ErrorMessage, rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert call: %w", err)
	}
	return nil
}

// RecentCalls returns up to limit invocations, newest first.
func (q *Queries) RecentCalls(ctx context.Context, limit int) ([]CallRecord, error) {
	var calls []CallRecord
	if err := q.Select(ctx, "list-recent-calls", &calls, limit); err != nil {
		return nil, fmt.Errorf("failed to list calls: %w", err)
	}
	return calls, nil
}

// PruneCalls deletes invocations recorded before cutoff.
func (q *Queries) PruneCalls(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.Exec(ctx, "prune-calls", cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to prune calls: %w", err)
	}
	return res.RowsAffected()
}
