package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"trivia-service/internal/apperrors"
	"trivia-service/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type PlayerRepository struct {
	db *sql.DB
}

func NewPlayerRepository(db *sql.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

func (r *PlayerRepository) CreatePlayer(ctx context.Context, player *models.Player) error {
	player.ID = uuid.New().String()
	player.Score = 0
	player.JoinedAt = time.Now()

	query := `
		INSERT INTO players (id, session_id, nickname, score, joined_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		player.ID,
		player.SessionID,
		player.Nickname,
		player.Score,
		player.JoinedAt,
	)
	if isUniqueViolation(err) {
		return apperrors.NewConflict("Nickname already taken")
	}
	return err
}

func (r *PlayerRepository) GetPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	query := `
		SELECT id, session_id, nickname, score, joined_at
		FROM players
		WHERE id = $1
	`
	player := &models.Player{}
	err := r.db.QueryRowContext(ctx, query, playerID).Scan(
		&player.ID,
		&player.SessionID,
		&player.Nickname,
		&player.Score,
		&player.JoinedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("Player not found")
	}
	if err != nil {
		return nil, err
	}
	return player, nil
}

// ListPlayersBySession returns players in leaderboard order: score
// descending, earlier join breaking ties.
func (r *PlayerRepository) ListPlayersBySession(ctx context.Context, sessionID string) ([]*models.Player, error) {
	query := `
		SELECT id, session_id, nickname, score, joined_at
		FROM players
		WHERE session_id = $1
		ORDER BY score DESC, joined_at ASC
	`
	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		player := &models.Player{}
		err := rows.Scan(
			&player.ID,
			&player.SessionID,
			&player.Nickname,
			&player.Score,
			&player.JoinedAt,
		)
		if err != nil {
			return nil, err
		}
		players = append(players, player)
	}
	return players, rows.Err()
}

func (r *PlayerRepository) ResetScores(ctx context.Context, sessionID string) error {
	query := `UPDATE players SET score = 0 WHERE session_id = $1`
	_, err := r.db.ExecContext(ctx, query, sessionID)
	return err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
