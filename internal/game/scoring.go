package game

import (
	"context"
	"math"
	"time"

	"trivia-service/internal/apperrors"
	"trivia-service/internal/models"
)

// ScoringEngine turns an answer submission into points with
// exactly-once-effect semantics: the duplicate gate plus the unique index
// behind AnswerStore guarantee a player's second submission for the same
// question never changes score.
type ScoringEngine struct {
	players  PlayerStore
	answers  AnswerStore
	powerUps PowerUpStore
	flags    FlagStore

	maxPoints        int
	questionDuration float64
}

func NewScoringEngine(
	players PlayerStore,
	answers AnswerStore,
	powerUps PowerUpStore,
	flags FlagStore,
	maxPoints, questionDurationSec int,
) *ScoringEngine {
	return &ScoringEngine{
		players:          players,
		answers:          answers,
		powerUps:         powerUps,
		flags:            flags,
		maxPoints:        maxPoints,
		questionDuration: float64(questionDurationSec),
	}
}

type SubmitAnswerInput struct {
	SessionID          string
	PlayerID           string
	QuestionID         string
	SelectedAnswer     string
	CorrectAnswer      string
	TimeRemainingSec   float64
	ActiveDoublePoints bool
}

type SubmitAnswerResult struct {
	Answer          *models.PlayerAnswer `json:"answer"`
	NewScore        int                  `json:"new_score"`
	PointsEarned    int                  `json:"points_earned"`
	IsCorrect       bool                 `json:"is_correct"`
	HasDoublePoints bool                 `json:"has_double_points"`
}

// SubmitAnswer scores one submission. The caller publishes the
// answer_submitted event after this returns.
func (e *ScoringEngine) SubmitAnswer(ctx context.Context, in SubmitAnswerInput) (*SubmitAnswerResult, error) {
	revealed, err := e.flags.GetShowResults(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if revealed {
		return nil, apperrors.NewValidation("Answers are closed for this question")
	}

	exists, err := e.answers.AnswerExists(ctx, in.PlayerID, in.QuestionID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperrors.NewConflict("Answer already submitted for this question")
	}

	isCorrect := in.SelectedAnswer == in.CorrectAnswer

	basePoints := 0
	if isCorrect {
		basePoints = e.basePoints(in.TimeRemainingSec)
	}

	hasDoublePoints := false
	if in.ActiveDoublePoints {
		hasDoublePoints, err = e.powerUps.IsDoublePointsArmed(ctx, in.PlayerID, in.QuestionID)
		if err != nil {
			return nil, err
		}
	}

	pointsEarned := basePoints
	if hasDoublePoints {
		pointsEarned = basePoints * 2
	}

	answer := &models.PlayerAnswer{
		PlayerID:       in.PlayerID,
		QuestionID:     in.QuestionID,
		SelectedAnswer: in.SelectedAnswer,
		IsCorrect:      isCorrect,
		AnsweredAt:     time.Now(),
	}

	newScore, err := e.answers.RecordAnswer(ctx, answer, pointsEarned)
	if err != nil {
		return nil, err
	}

	return &SubmitAnswerResult{
		Answer:          answer,
		NewScore:        newScore,
		PointsEarned:    pointsEarned,
		IsCorrect:       isCorrect,
		HasDoublePoints: hasDoublePoints,
	}, nil
}

// basePoints awards a speed bonus confined to the 50-100% band of
// maxPoints, so correctness always dominates speed.
func (e *ScoringEngine) basePoints(timeRemainingSec float64) int {
	ratio := timeRemainingSec / e.questionDuration
	if ratio < 0 {
		ratio = 0
	}
	if ratio > 1 {
		ratio = 1
	}
	return int(math.Round(float64(e.maxPoints) * (0.5 + 0.5*ratio)))
}

// GetSessionLeaderboard returns players ordered by score descending,
// earlier join breaking ties.
func (e *ScoringEngine) GetSessionLeaderboard(ctx context.Context, sessionID string) ([]models.LeaderboardEntry, error) {
	players, err := e.players.ListPlayersBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return BuildLeaderboard(players), nil
}
