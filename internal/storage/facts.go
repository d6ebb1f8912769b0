package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// CoreFact is a global memory record, not tied to any user.
type CoreFact struct {
	ID         string
	Key        string
	Value      string
	Confidence float32
	CreatedAt  time.Time
}

// UserFact is a memory record scoped to a single user.
type UserFact struct {
	ID         string
	UserID     int64
	Key        string
	Value      string
	Confidence float32
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Fact kind constants for unified search results.
const (
	FactKindCore = "core"
	FactKindUser = "user"
)

// FactRecord is a unified view over core and user facts, used by search.
type FactRecord struct {
	Kind       string
	UserID     int64
	Key        string
	Value      string
	Confidence float32
	CreatedAt  time.Time
}

// UpsertCoreFact creates or updates a global fact. Last write wins.
func (db *DB) UpsertCoreFact(ctx context.Context, key, value string, confidence float32) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO core_facts (key, value, confidence)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, confidence = EXCLUDED.confidence
	`, SanitizeUTF8(key), SanitizeUTF8(value), confidence)
	if err != nil {
		return fmt.Errorf("upsert core fact: %w", err)
	}

	return nil
}

// GetCoreFact returns a global fact by key, or nil when absent.
func (db *DB) GetCoreFact(ctx context.Context, key string) (*CoreFact, error) {
	var f CoreFact

	err := db.Pool.QueryRow(ctx, `
		SELECT id, key, value, confidence, created_at
		FROM core_facts
		WHERE key = $1
	`, key).Scan(&f.ID, &f.Key, &f.Value, &f.Confidence, &f.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil means fact not found
		}

		return nil, fmt.Errorf("get core fact: %w", err)
	}

	return &f, nil
}

// ListCoreFacts returns all global facts ordered by creation time.
func (db *DB) ListCoreFacts(ctx context.Context) ([]CoreFact, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, key, value, confidence, created_at
		FROM core_facts
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list core facts: %w", err)
	}
	defer rows.Close()

	var facts []CoreFact

	for rows.Next() {
		var f CoreFact

		if err := rows.Scan(&f.ID, &f.Key, &f.Value, &f.Confidence, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan core fact row: %w", err)
		}

		facts = append(facts, f)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate core fact rows: %w", rows.Err())
	}

	return facts, nil
}

// UpsertUserFact creates or updates a per-user fact. Last write wins.
func (db *DB) UpsertUserFact(ctx context.Context, userID int64, key, value string, confidence float32) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO user_facts (user_id, key, value, confidence)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, key)
		DO UPDATE SET value = EXCLUDED.value, confidence = EXCLUDED.confidence, updated_at = now()
	`, userID, SanitizeUTF8(key), SanitizeUTF8(value), confidence)
	if err != nil {
		return fmt.Errorf("upsert user fact: %w", err)
	}

	return nil
}

// GetUserFact returns a user fact by key, or nil when absent.
func (db *DB) GetUserFact(ctx context.Context, userID int64, key string) (*UserFact, error) {
	var f UserFact

	err := db.Pool.QueryRow(ctx, `
		SELECT id, user_id, key, value, confidence, created_at, updated_at
		FROM user_facts
		WHERE user_id = $1 AND key = $2
	`, userID, key).Scan(&f.ID, &f.UserID, &f.Key, &f.Value, &f.Confidence, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil means fact not found
		}

		return nil, fmt.Errorf("get user fact: %w", err)
	}

	return &f, nil
}

// ListUserFacts returns all facts for a user ordered by creation time.
func (db *DB) ListUserFacts(ctx context.Context, userID int64) ([]UserFact, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, key, value, confidence, created_at, updated_at
		FROM user_facts
		WHERE user_id = $1
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user facts: %w", err)
	}
	defer rows.Close()

	var facts []UserFact

	for rows.Next() {
		var f UserFact

		if err := rows.Scan(&f.ID, &f.UserID, &f.Key, &f.Value, &f.Confidence, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user fact row: %w", err)
		}

		facts = append(facts, f)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate user fact rows: %w", rows.Err())
	}

	return facts, nil
}

// SearchFactsKeyword performs a case-insensitive substring match over fact
// keys and values, covering the user's facts plus global facts. Results are
// ordered most recent first.
func (db *DB) SearchFactsKeyword(ctx context.Context, userID int64, query string, limit int) ([]FactRecord, error) {
	pattern := "%" + query + "%"

	rows, err := db.Pool.Query(ctx, `
		SELECT kind, user_id, key, value, confidence, created_at FROM (
			SELECT 'core' AS kind, 0::bigint AS user_id, key, value, confidence, created_at
			FROM core_facts
			WHERE key ILIKE $1 OR value ILIKE $1
			UNION ALL
			SELECT 'user' AS kind, user_id, key, value, confidence, created_at
			FROM user_facts
			WHERE user_id = $2 AND (key ILIKE $1 OR value ILIKE $1)
		) matches
		ORDER BY created_at DESC
		LIMIT $3
	`, pattern, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("search facts: %w", err)
	}
	defer rows.Close()

	var records []FactRecord

	for rows.Next() {
		var r FactRecord

		if err := rows.Scan(&r.Kind, &r.UserID, &r.Key, &r.Value, &r.Confidence, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan fact match row: %w", err)
		}

		records = append(records, r)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate fact match rows: %w", rows.Err())
	}

	return records, nil
}
