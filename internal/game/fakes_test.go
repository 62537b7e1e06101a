package game

import (
	"context"
	"database/sql"
	"fmt"

	"trivia-service/internal/apperrors"
	"trivia-service/internal/broadcast"
	"trivia-service/internal/models"
)

type sessionUpdate struct {
	status            string
	currentQuestionID sql.NullString
}

type fakeSessionStore struct {
	session *models.Session
	err     error
	updates []sessionUpdate
}

func (f *fakeSessionStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.session == nil {
		return nil, apperrors.NewNotFound("Session not found")
	}
	return f.session, nil
}

func (f *fakeSessionStore) UpdateSessionState(ctx context.Context, sessionID, status string, currentQuestionID sql.NullString) error {
	f.updates = append(f.updates, sessionUpdate{status: status, currentQuestionID: currentQuestionID})
	f.session.Status = status
	f.session.CurrentQuestionID = currentQuestionID
	return nil
}

type fakePlayerStore struct {
	players    []*models.Player
	resetCalls int
}

func (f *fakePlayerStore) GetPlayer(ctx context.Context, playerID string) (*models.Player, error) {
	for _, p := range f.players {
		if p.ID == playerID {
			return p, nil
		}
	}
	return nil, apperrors.NewNotFound("Player not found")
}

func (f *fakePlayerStore) ListPlayersBySession(ctx context.Context, sessionID string) ([]*models.Player, error) {
	return f.players, nil
}

func (f *fakePlayerStore) ResetScores(ctx context.Context, sessionID string) error {
	f.resetCalls++
	for _, p := range f.players {
		p.Score = 0
	}
	return nil
}

type fakeQuestionStore struct {
	questions map[string]*models.Question
}

func (f *fakeQuestionStore) GetQuestion(ctx context.Context, questionID string) (*models.Question, error) {
	q, ok := f.questions[questionID]
	if !ok {
		return nil, apperrors.NewNotFound("Question not found")
	}
	return q, nil
}

type fakeAnswerStore struct {
	existing map[string]bool
	recorded []*models.PlayerAnswer
	points   []int
	score    int
}

func answerKey(playerID, questionID string) string {
	return fmt.Sprintf("%s|%s", playerID, questionID)
}

func (f *fakeAnswerStore) AnswerExists(ctx context.Context, playerID, questionID string) (bool, error) {
	return f.existing[answerKey(playerID, questionID)], nil
}

func (f *fakeAnswerStore) RecordAnswer(ctx context.Context, answer *models.PlayerAnswer, pointsEarned int) (int, error) {
	key := answerKey(answer.PlayerID, answer.QuestionID)
	if f.existing[key] {
		return 0, apperrors.NewConflict("Answer already submitted for this question")
	}
	if f.existing == nil {
		f.existing = make(map[string]bool)
	}
	f.existing[key] = true
	f.recorded = append(f.recorded, answer)
	f.points = append(f.points, pointsEarned)
	f.score += pointsEarned
	return f.score, nil
}

type fakePowerUpStore struct {
	rows          map[string]*models.PlayerPowerUp
	armed         map[string]bool
	usages        []*models.PowerUpUsage
	initCalls     int
	resetCalls    int
	consumeDenied bool
}

func powerUpKey(playerID, powerUpType string) string {
	return fmt.Sprintf("%s|%s", playerID, powerUpType)
}

func (f *fakePowerUpStore) InitializePowerUps(ctx context.Context, playerID string, allowances map[string]int) error {
	f.initCalls++
	if f.rows == nil {
		f.rows = make(map[string]*models.PlayerPowerUp)
	}
	for powerUpType, uses := range allowances {
		key := powerUpKey(playerID, powerUpType)
		if _, ok := f.rows[key]; ok {
			continue
		}
		f.rows[key] = &models.PlayerPowerUp{
			PlayerID:      playerID,
			PowerUpType:   powerUpType,
			UsesRemaining: uses,
		}
	}
	return nil
}

func (f *fakePowerUpStore) GetPlayerPowerUp(ctx context.Context, playerID, powerUpType string) (*models.PlayerPowerUp, error) {
	return f.rows[powerUpKey(playerID, powerUpType)], nil
}

func (f *fakePowerUpStore) ConsumeUse(ctx context.Context, playerID, powerUpType string) (bool, error) {
	if f.consumeDenied {
		return false, nil
	}
	row, ok := f.rows[powerUpKey(playerID, powerUpType)]
	if !ok || row.UsesRemaining <= 0 {
		return false, nil
	}
	row.UsesRemaining--
	return true, nil
}

func (f *fakePowerUpStore) InsertUsage(ctx context.Context, usage *models.PowerUpUsage) error {
	f.usages = append(f.usages, usage)
	return nil
}

func (f *fakePowerUpStore) IsDoublePointsArmed(ctx context.Context, playerID, questionID string) (bool, error) {
	return f.armed[answerKey(playerID, questionID)], nil
}

func (f *fakePowerUpStore) ResetPowerUps(ctx context.Context, sessionID string, allowances map[string]int) error {
	f.resetCalls++
	for _, row := range f.rows {
		if uses, ok := allowances[row.PowerUpType]; ok {
			row.UsesRemaining = uses
		}
	}
	return nil
}

type fakeFlagStore struct {
	showResults map[string]bool
	err         error
}

func (f *fakeFlagStore) SetShowResults(ctx context.Context, sessionID string, show bool) error {
	if f.err != nil {
		return f.err
	}
	if f.showResults == nil {
		f.showResults = make(map[string]bool)
	}
	f.showResults[sessionID] = show
	return nil
}

func (f *fakeFlagStore) GetShowResults(ctx context.Context, sessionID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.showResults[sessionID], nil
}

type questionBroadcast struct {
	question      *models.Question
	timeRemaining int
}

type fakeBroadcaster struct {
	state    *models.GameState
	stateErr error

	questionChanges []questionBroadcast
	reveals         []broadcast.AnswerRevealPayload
	submissions     []broadcast.AnswerSubmittedPayload
	stateSyncs      []*models.GameState
	completions     [][]models.LeaderboardEntry
	cleanups        int
}

func (f *fakeBroadcaster) GetCurrentGameState(ctx context.Context) (*models.GameState, error) {
	if f.stateErr != nil {
		return nil, f.stateErr
	}
	return f.state, nil
}

func (f *fakeBroadcaster) BroadcastQuestionChanged(ctx context.Context, question *models.Question, timeRemaining int) error {
	f.questionChanges = append(f.questionChanges, questionBroadcast{question: question, timeRemaining: timeRemaining})
	return nil
}

func (f *fakeBroadcaster) BroadcastAnswerReveal(ctx context.Context, payload broadcast.AnswerRevealPayload) error {
	f.reveals = append(f.reveals, payload)
	return nil
}

func (f *fakeBroadcaster) BroadcastAnswerSubmitted(ctx context.Context, payload broadcast.AnswerSubmittedPayload) error {
	f.submissions = append(f.submissions, payload)
	return nil
}

func (f *fakeBroadcaster) BroadcastGameStateSync(ctx context.Context, state *models.GameState) error {
	f.stateSyncs = append(f.stateSyncs, state)
	return nil
}

func (f *fakeBroadcaster) BroadcastGameComplete(ctx context.Context, finalScores []models.LeaderboardEntry) error {
	f.completions = append(f.completions, finalScores)
	return nil
}

func (f *fakeBroadcaster) Cleanup() error {
	f.cleanups++
	return nil
}
