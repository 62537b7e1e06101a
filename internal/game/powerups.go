package game

import (
	"context"
	"log"
	"math/rand"

	"trivia-service/internal/apperrors"
	"trivia-service/internal/constants"
	"trivia-service/internal/models"
)

// PowerUpService manages per-player, per-type use counters and one-shot
// effects. Exhausted or missing counters are expected UI outcomes and come
// back as soft failures, not errors.
type PowerUpService struct {
	players    PlayerStore
	powerUps   PowerUpStore
	questions  QuestionStore
	flags      FlagStore
	allowances map[string]int
}

func NewPowerUpService(
	players PlayerStore,
	powerUps PowerUpStore,
	questions QuestionStore,
	flags FlagStore,
	allowances map[string]int,
) *PowerUpService {
	return &PowerUpService{
		players:    players,
		powerUps:   powerUps,
		questions:  questions,
		flags:      flags,
		allowances: allowances,
	}
}

type UsePowerUpInput struct {
	SessionID   string
	PlayerID    string
	PowerUpType string
	QuestionID  string
}

type UsePowerUpResult struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	UsesRemaining  int      `json:"uses_remaining"`
	RemovedOptions []string `json:"removed_options,omitempty"`
}

// UsePowerUp applies one use of a power-up for the current question.
func (s *PowerUpService) UsePowerUp(ctx context.Context, in UsePowerUpInput) (*UsePowerUpResult, error) {
	if !constants.IsPowerUpType(in.PowerUpType) {
		return nil, apperrors.NewValidation("Unknown power-up type")
	}

	powerUp, err := s.powerUps.GetPlayerPowerUp(ctx, in.PlayerID, in.PowerUpType)
	if err != nil {
		return nil, err
	}
	if powerUp == nil || powerUp.UsesRemaining <= 0 {
		return &UsePowerUpResult{Success: false, Message: "No uses remaining"}, nil
	}

	var message string
	var removedOptions []string

	switch in.PowerUpType {
	case constants.PowerUpSkipQuestion:
		revealed, err := s.flags.GetShowResults(ctx, in.SessionID)
		if err != nil {
			return nil, err
		}
		if revealed {
			return &UsePowerUpResult{Success: false, Message: "Cannot skip after the answer is revealed"}, nil
		}
		message = "Question skipped"

	case constants.PowerUpDoublePoints:
		message = "Double points armed for this question"

	case constants.PowerUpFiftyFifty:
		question, err := s.questions.GetQuestion(ctx, in.QuestionID)
		if err != nil {
			return nil, err
		}
		removedOptions = pickIncorrectOptions(question, 2)
		message = "Two incorrect options removed"
	}

	// Conditional decrement closes the double-click race: of two
	// concurrent uses of a last charge, exactly one wins.
	consumed, err := s.powerUps.ConsumeUse(ctx, in.PlayerID, in.PowerUpType)
	if err != nil {
		return nil, err
	}
	if !consumed {
		return &UsePowerUpResult{Success: false, Message: "No uses remaining"}, nil
	}

	usage := &models.PowerUpUsage{
		PlayerID:    in.PlayerID,
		PowerUpType: in.PowerUpType,
		QuestionID:  in.QuestionID,
	}
	if err := s.powerUps.InsertUsage(ctx, usage); err != nil {
		// The use is already spent; the audit row is best effort.
		log.Printf("Failed to record power-up usage: player=%s, type=%s: %v", in.PlayerID, in.PowerUpType, err)
	}

	return &UsePowerUpResult{
		Success:        true,
		Message:        message,
		UsesRemaining:  powerUp.UsesRemaining - 1,
		RemovedOptions: removedOptions,
	}, nil
}

// InitializePlayerPowerUps grants the configured allowance of every
// power-up type. Idempotent: repeat calls never duplicate rows or reset
// spent counters.
func (s *PowerUpService) InitializePlayerPowerUps(ctx context.Context, playerID string) error {
	if _, err := s.players.GetPlayer(ctx, playerID); err != nil {
		return err
	}
	return s.powerUps.InitializePowerUps(ctx, playerID, s.allowances)
}

// pickIncorrectOptions selects up to n incorrect options for client-side
// redaction. A two-option question yields a single removal.
func pickIncorrectOptions(question *models.Question, n int) []string {
	var incorrect []string
	for _, option := range question.Options {
		if option != question.CorrectAnswer {
			incorrect = append(incorrect, option)
		}
	}
	rand.Shuffle(len(incorrect), func(i, j int) {
		incorrect[i], incorrect[j] = incorrect[j], incorrect[i]
	})
	if len(incorrect) > n {
		incorrect = incorrect[:n]
	}
	return incorrect
}
