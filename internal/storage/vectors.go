package db

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
)

// VectorEntry is an embedded piece of memory, either a conversation turn or
// a fact. Entries with a zero UserID are global.
type VectorEntry struct {
	ID        string
	UserID    int64
	Kind      string
	RefID     string
	Text      string
	CreatedAt time.Time
}

// Vector entry kind constants.
const (
	VectorKindTurn = "turn"
	VectorKindFact = "fact"
)

// VectorMatch is a search hit with its cosine similarity score.
type VectorMatch struct {
	Entry VectorEntry
	Score float32
}

// SaveVectorEntry stores an embedded memory entry.
func (db *DB) SaveVectorEntry(ctx context.Context, entry VectorEntry, embedding []float32) error {
	var userID any
	if entry.UserID != 0 {
		userID = entry.UserID
	}

	_, err := db.Pool.Exec(ctx, `
		INSERT INTO vector_entries (user_id, kind, ref_id, text, embedding)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, entry.Kind, entry.RefID, SanitizeUTF8(entry.Text), pgvector.NewVector(embedding))
	if err != nil {
		return fmt.Errorf("save vector entry: %w", err)
	}

	return nil
}

// SearchVectorEntries returns the topK entries closest to the query
// embedding by cosine distance, covering the user's entries plus global
// ones. Score is 1 - distance, higher is more similar.
func (db *DB) SearchVectorEntries(ctx context.Context, userID int64, embedding []float32, topK int) ([]VectorMatch, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, COALESCE(user_id, 0), kind, ref_id, text, created_at,
		       embedding <=> $2::vector AS distance
		FROM vector_entries
		WHERE user_id = $1 OR user_id IS NULL
		ORDER BY embedding <=> $2::vector
		LIMIT $3
	`, userID, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, fmt.Errorf("search vector entries: %w", err)
	}
	defer rows.Close()

	var matches []VectorMatch

	for rows.Next() {
		var (
			m        VectorMatch
			distance float32
		)

		err := rows.Scan(&m.Entry.ID, &m.Entry.UserID, &m.Entry.Kind, &m.Entry.RefID, &m.Entry.Text, &m.Entry.CreatedAt, &distance)
		if err != nil {
			return nil, fmt.Errorf("scan vector match row: %w", err)
		}

		m.Score = 1 - distance

		matches = append(matches, m)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate vector match rows: %w", rows.Err())
	}

	return matches, nil
}
