package repository

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"trivia-service/internal/apperrors"
	"trivia-service/internal/constants"
	"trivia-service/internal/models"

	"github.com/google/uuid"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) CreateSession(ctx context.Context, session *models.Session) error {
	session.ID = uuid.New().String()
	session.Status = constants.SessionStatusWaiting
	session.CreatedAt = time.Now()

	var err error
	session.JoinCode, err = r.generateUniqueJoinCode(ctx)
	if err != nil {
		return fmt.Errorf("failed to generate join code: %w", err)
	}

	query := `
		INSERT INTO sessions (id, quiz_id, host_id, join_code, status, current_question_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		session.ID,
		session.QuizID,
		session.HostID,
		session.JoinCode,
		session.Status,
		session.CurrentQuestionID,
		session.CreatedAt,
	)
	return err
}

func (r *SessionRepository) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	query := `
		SELECT id, quiz_id, host_id, join_code, status, current_question_id, created_at
		FROM sessions
		WHERE id = $1
	`
	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(
		&session.ID,
		&session.QuizID,
		&session.HostID,
		&session.JoinCode,
		&session.Status,
		&session.CurrentQuestionID,
		&session.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("Session not found")
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetSessionByJoinCode resolves a join code against non-completed sessions.
func (r *SessionRepository) GetSessionByJoinCode(ctx context.Context, joinCode string) (*models.Session, error) {
	query := `
		SELECT id, quiz_id, host_id, join_code, status, current_question_id, created_at
		FROM sessions
		WHERE join_code = $1 AND status <> $2
	`
	session := &models.Session{}
	err := r.db.QueryRowContext(ctx, query, joinCode, constants.SessionStatusCompleted).Scan(
		&session.ID,
		&session.QuizID,
		&session.HostID,
		&session.JoinCode,
		&session.Status,
		&session.CurrentQuestionID,
		&session.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("Session not found")
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// UpdateSessionState moves a session through its lifecycle. The current
// question id is cleared when currentQuestionID is invalid.
func (r *SessionRepository) UpdateSessionState(ctx context.Context, sessionID, status string, currentQuestionID sql.NullString) error {
	query := `UPDATE sessions SET status = $1, current_question_id = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, currentQuestionID, sessionID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperrors.NewNotFound("Session not found")
	}
	return nil
}

const joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func (r *SessionRepository) generateUniqueJoinCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		code := make([]byte, 6)
		for i := range code {
			n, err := rand.Int(rand.Reader, big.NewInt(int64(len(joinCodeAlphabet))))
			if err != nil {
				return "", err
			}
			code[i] = joinCodeAlphabet[n.Int64()]
		}

		query := `SELECT EXISTS(SELECT 1 FROM sessions WHERE join_code = $1 AND status <> $2)`
		var exists bool
		if err := r.db.QueryRowContext(ctx, query, string(code), constants.SessionStatusCompleted).Scan(&exists); err != nil {
			return "", err
		}
		if !exists {
			return string(code), nil
		}
	}
	return "", fmt.Errorf("exhausted join code attempts")
}
