package repository

import (
	"context"
	"database/sql"

	"trivia-service/internal/apperrors"
	"trivia-service/internal/models"

	"github.com/google/uuid"
)

type AnswerRepository struct {
	db *sql.DB
}

func NewAnswerRepository(db *sql.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

func (r *AnswerRepository) AnswerExists(ctx context.Context, playerID, questionID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM player_answers WHERE player_id = $1 AND question_id = $2)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, playerID, questionID).Scan(&exists)
	return exists, err
}

// RecordAnswer inserts the answer row and applies the score delta to the
// player in one transaction. The unique index on (player_id, question_id)
// makes concurrent retries lose cleanly with a conflict instead of a
// double-counted score.
func (r *AnswerRepository) RecordAnswer(ctx context.Context, answer *models.PlayerAnswer, pointsEarned int) (int, error) {
	answer.ID = uuid.New().String()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	insert := `
		INSERT INTO player_answers (id, player_id, question_id, selected_answer, is_correct, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.ExecContext(ctx, insert,
		answer.ID,
		answer.PlayerID,
		answer.QuestionID,
		answer.SelectedAnswer,
		answer.IsCorrect,
		answer.AnsweredAt,
	)
	if isUniqueViolation(err) {
		return 0, apperrors.NewConflict("Answer already submitted for this question")
	}
	if err != nil {
		return 0, err
	}

	var newScore int
	update := `UPDATE players SET score = score + $1 WHERE id = $2 RETURNING score`
	if err := tx.QueryRowContext(ctx, update, pointsEarned, answer.PlayerID).Scan(&newScore); err != nil {
		if err == sql.ErrNoRows {
			return 0, apperrors.NewNotFound("Player not found")
		}
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return newScore, nil
}
