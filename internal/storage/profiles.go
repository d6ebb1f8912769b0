package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// UserProfile holds per-user settings, currently the preferred persona.
type UserProfile struct {
	UserID           int64
	PreferredPersona string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// GetUserProfile returns a user's profile, or nil when the user has none yet.
func (db *DB) GetUserProfile(ctx context.Context, userID int64) (*UserProfile, error) {
	var p UserProfile

	err := db.Pool.QueryRow(ctx, `
		SELECT user_id, preferred_persona, created_at, updated_at
		FROM user_profiles
		WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.PreferredPersona, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil //nolint:nilnil // nil means profile not found
		}

		return nil, fmt.Errorf("get user profile: %w", err)
	}

	return &p, nil
}

// SetPreferredPersona records which persona should answer a user's messages.
func (db *DB) SetPreferredPersona(ctx context.Context, userID int64, personaID string) error {
	_, err := db.Pool.Exec(ctx, `
		INSERT INTO user_profiles (user_id, preferred_persona)
		VALUES ($1, $2)
		ON CONFLICT (user_id)
		DO UPDATE SET preferred_persona = EXCLUDED.preferred_persona, updated_at = now()
	`, userID, personaID)
	if err != nil {
		return fmt.Errorf("set preferred persona: %w", err)
	}

	return nil
}
