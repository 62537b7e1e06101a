package repository

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"trivia-service/internal/constants"
	"trivia-service/internal/models"

	"github.com/google/uuid"
)

type PowerUpRepository struct {
	db *sql.DB
}

func NewPowerUpRepository(db *sql.DB) *PowerUpRepository {
	return &PowerUpRepository{db: db}
}

// InitializePowerUps creates one row per power-up type with that type's
// allowance. Idempotent: existing rows are left untouched, so a repeated
// call never resets a partially spent counter.
func (r *PowerUpRepository) InitializePowerUps(ctx context.Context, playerID string, allowances map[string]int) error {
	types := make([]string, 0, len(allowances))
	for t := range allowances {
		types = append(types, t)
	}
	sort.Strings(types)

	query := `
		INSERT INTO player_power_ups (id, player_id, power_up_type, uses_remaining)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (player_id, power_up_type) DO NOTHING
	`
	for _, t := range types {
		if _, err := r.db.ExecContext(ctx, query, uuid.New().String(), playerID, t, allowances[t]); err != nil {
			return err
		}
	}
	return nil
}

func (r *PowerUpRepository) GetPlayerPowerUp(ctx context.Context, playerID, powerUpType string) (*models.PlayerPowerUp, error) {
	query := `
		SELECT id, player_id, power_up_type, uses_remaining
		FROM player_power_ups
		WHERE player_id = $1 AND power_up_type = $2
	`
	powerUp := &models.PlayerPowerUp{}
	err := r.db.QueryRowContext(ctx, query, playerID, powerUpType).Scan(
		&powerUp.ID,
		&powerUp.PlayerID,
		&powerUp.PowerUpType,
		&powerUp.UsesRemaining,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return powerUp, nil
}

// ConsumeUse decrements the counter only while uses remain. Two concurrent
// clicks race on the guarded update and exactly one wins.
func (r *PowerUpRepository) ConsumeUse(ctx context.Context, playerID, powerUpType string) (bool, error) {
	query := `
		UPDATE player_power_ups
		SET uses_remaining = uses_remaining - 1
		WHERE player_id = $1 AND power_up_type = $2 AND uses_remaining > 0
	`
	result, err := r.db.ExecContext(ctx, query, playerID, powerUpType)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *PowerUpRepository) InsertUsage(ctx context.Context, usage *models.PowerUpUsage) error {
	usage.ID = uuid.New().String()
	if usage.UsedAt.IsZero() {
		usage.UsedAt = time.Now()
	}

	query := `
		INSERT INTO power_up_usage (id, player_id, power_up_type, question_id, used_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		usage.ID,
		usage.PlayerID,
		usage.PowerUpType,
		usage.QuestionID,
		usage.UsedAt,
	)
	return err
}

// IsDoublePointsArmed reports whether the player armed double points for
// the given question.
func (r *PowerUpRepository) IsDoublePointsArmed(ctx context.Context, playerID, questionID string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM power_up_usage
			WHERE player_id = $1 AND question_id = $2 AND power_up_type = $3
		)
	`
	var armed bool
	err := r.db.QueryRowContext(ctx, query, playerID, questionID, constants.PowerUpDoublePoints).Scan(&armed)
	return armed, err
}

// ResetPowerUps restores every counter for the session's players to the
// configured allowance. Called on game restart.
func (r *PowerUpRepository) ResetPowerUps(ctx context.Context, sessionID string, allowances map[string]int) error {
	types := make([]string, 0, len(allowances))
	for t := range allowances {
		types = append(types, t)
	}
	sort.Strings(types)

	query := `
		UPDATE player_power_ups
		SET uses_remaining = $1
		WHERE power_up_type = $2
		  AND player_id IN (SELECT id FROM players WHERE session_id = $3)
	`
	for _, t := range types {
		if _, err := r.db.ExecContext(ctx, query, allowances[t], t, sessionID); err != nil {
			return err
		}
	}
	return nil
}
