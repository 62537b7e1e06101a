package game

import (
	"context"
	"database/sql"

	"trivia-service/internal/broadcast"
	"trivia-service/internal/models"
)

// Store interfaces are defined on the consumer side so every component
// receives an explicit injected dependency instead of a process-wide
// client. The repositories satisfy them in production.

type SessionStore interface {
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
	UpdateSessionState(ctx context.Context, sessionID, status string, currentQuestionID sql.NullString) error
}

type PlayerStore interface {
	GetPlayer(ctx context.Context, playerID string) (*models.Player, error)
	ListPlayersBySession(ctx context.Context, sessionID string) ([]*models.Player, error)
	ResetScores(ctx context.Context, sessionID string) error
}

type QuestionStore interface {
	GetQuestion(ctx context.Context, questionID string) (*models.Question, error)
}

type AnswerStore interface {
	AnswerExists(ctx context.Context, playerID, questionID string) (bool, error)
	RecordAnswer(ctx context.Context, answer *models.PlayerAnswer, pointsEarned int) (int, error)
}

type PowerUpStore interface {
	InitializePowerUps(ctx context.Context, playerID string, allowances map[string]int) error
	GetPlayerPowerUp(ctx context.Context, playerID, powerUpType string) (*models.PlayerPowerUp, error)
	ConsumeUse(ctx context.Context, playerID, powerUpType string) (bool, error)
	InsertUsage(ctx context.Context, usage *models.PowerUpUsage) error
	IsDoublePointsArmed(ctx context.Context, playerID, questionID string) (bool, error)
	ResetPowerUps(ctx context.Context, sessionID string, allowances map[string]int) error
}

type FlagStore interface {
	SetShowResults(ctx context.Context, sessionID string, show bool) error
	GetShowResults(ctx context.Context, sessionID string) (bool, error)
}

// Broadcaster is the slice of GameStateSync the game components drive.
type Broadcaster interface {
	GetCurrentGameState(ctx context.Context) (*models.GameState, error)
	BroadcastQuestionChanged(ctx context.Context, question *models.Question, timeRemaining int) error
	BroadcastAnswerReveal(ctx context.Context, payload broadcast.AnswerRevealPayload) error
	BroadcastAnswerSubmitted(ctx context.Context, payload broadcast.AnswerSubmittedPayload) error
	BroadcastGameStateSync(ctx context.Context, state *models.GameState) error
	BroadcastGameComplete(ctx context.Context, finalScores []models.LeaderboardEntry) error
	Cleanup() error
}
