package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// ConversationTurn is a single message in a user's conversation history.
type ConversationTurn struct {
	ID        string
	UserID    int64
	SessionID string
	Role      string
	Text      string
	PersonaID string
	CreatedAt time.Time
}

// Turn role constants.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// AppendTurn stores a conversation turn. Turns are append-only.
func (db *DB) AppendTurn(ctx context.Context, turn ConversationTurn) (string, error) {
	var id string

	err := db.Pool.QueryRow(ctx, `
		INSERT INTO conversation_turns (user_id, session_id, role, text, persona_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, turn.UserID, turn.SessionID, turn.Role, SanitizeUTF8(turn.Text), turn.PersonaID).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("append turn: %w", err)
	}

	return id, nil
}

// RecentTurns returns the last n turns of a user's session in chronological
// order, most recent last. Turns from other sessions never leak into the
// result.
func (db *DB) RecentTurns(ctx context.Context, userID int64, sessionID string, n int) ([]ConversationTurn, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, session_id, role, text, persona_id, created_at
		FROM conversation_turns
		WHERE user_id = $1 AND session_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, userID, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("query recent turns: %w", err)
	}
	defer rows.Close()

	var turns []ConversationTurn

	for rows.Next() {
		var (
			t         ConversationTurn
			createdAt pgtype.Timestamptz
		)

		if err := rows.Scan(&t.ID, &t.UserID, &t.SessionID, &t.Role, &t.Text, &t.PersonaID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan turn row: %w", err)
		}

		t.CreatedAt = fromTimestamptz(createdAt)

		turns = append(turns, t)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate turn rows: %w", rows.Err())
	}

	// The query returns newest first, callers want chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}

	return turns, nil
}
