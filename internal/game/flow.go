package game

import (
	"context"
	"database/sql"
	"log"

	"trivia-service/internal/apperrors"
	"trivia-service/internal/broadcast"
	"trivia-service/internal/constants"
	"trivia-service/internal/models"
)

// CompletionHook is a best-effort side effect run after a game completes.
// Hooks never fail the primary action: panics are recovered and errors
// logged.
type CompletionHook func(ctx context.Context, sessionID string, finalScores []models.LeaderboardEntry)

// FlowManager drives one session through its lifecycle. Every action
// authorizes the caller as host, mutates the store, and only then publishes
// an event, so subscribers never observe a state change that did not
// durably happen.
type FlowManager struct {
	sessionID string

	sessions  SessionStore
	players   PlayerStore
	questions QuestionStore
	powerUps  PowerUpStore
	flags     FlagStore
	sync      Broadcaster

	questionDuration int
	allowances       map[string]int
	hooks            []CompletionHook

	state *models.GameState
}

type FlowManagerConfig struct {
	QuestionDurationSec int
	PowerUpAllowances   map[string]int
}

func NewFlowManager(
	sessionID string,
	sessions SessionStore,
	players PlayerStore,
	questions QuestionStore,
	powerUps PowerUpStore,
	flags FlagStore,
	sync Broadcaster,
	cfg FlowManagerConfig,
) *FlowManager {
	return &FlowManager{
		sessionID:        sessionID,
		sessions:         sessions,
		players:          players,
		questions:        questions,
		powerUps:         powerUps,
		flags:            flags,
		sync:             sync,
		questionDuration: cfg.QuestionDurationSec,
		allowances:       cfg.PowerUpAllowances,
	}
}

// AddCompletionHook registers a post-commit hook for game completion.
func (m *FlowManager) AddCompletionHook(hook CompletionHook) {
	m.hooks = append(m.hooks, hook)
}

// Initialize loads the current game state before any action runs.
func (m *FlowManager) Initialize(ctx context.Context) error {
	state, err := m.sync.GetCurrentGameState(ctx)
	if err != nil {
		return err
	}
	m.state = state
	return nil
}

// authorize re-reads the session and rejects non-host callers before any
// mutation.
func (m *FlowManager) authorize(ctx context.Context, hostID string) (*models.Session, error) {
	session, err := m.sessions.GetSession(ctx, m.sessionID)
	if err != nil {
		return nil, err
	}
	if session.HostID != hostID {
		return nil, apperrors.NewAuthorization("Unauthorized: Only the host can control game flow")
	}
	return session, nil
}

// StartGame moves a waiting session to active on the first question.
func (m *FlowManager) StartGame(ctx context.Context, hostID string, questions []*models.Question) error {
	session, err := m.authorize(ctx, hostID)
	if err != nil {
		return err
	}

	if session.Status != constants.SessionStatusWaiting {
		return apperrors.NewValidation("Game has already started")
	}

	players, err := m.players.ListPlayersBySession(ctx, m.sessionID)
	if err != nil {
		return err
	}
	if len(players) < 1 {
		return apperrors.NewValidation("At least one player is required to start")
	}
	if len(questions) < 1 {
		return apperrors.NewValidation("Quiz has no questions")
	}

	first := questions[0]
	if err := m.flags.SetShowResults(ctx, m.sessionID, false); err != nil {
		return err
	}
	if err := m.sessions.UpdateSessionState(ctx, m.sessionID, constants.SessionStatusActive, nullString(first.ID)); err != nil {
		return err
	}

	log.Printf("Game started: session=%s, questions=%d, players=%d", m.sessionID, len(questions), len(players))
	return m.sync.BroadcastQuestionChanged(ctx, first, m.questionDuration)
}

// NextQuestion advances to the successor of the current question, or
// completes the game when none remains.
func (m *FlowManager) NextQuestion(ctx context.Context, hostID string, questions []*models.Question) error {
	session, err := m.authorize(ctx, hostID)
	if err != nil {
		return err
	}

	if session.Status != constants.SessionStatusActive {
		return apperrors.NewValidation("Game is not active")
	}
	if !session.CurrentQuestionID.Valid {
		return apperrors.NewValidation("Session has no current question")
	}

	currentIndex := -1
	for i, q := range questions {
		if q.ID == session.CurrentQuestionID.String {
			currentIndex = i
			break
		}
	}
	if currentIndex == -1 {
		return apperrors.NewNotFound("Current question not found in quiz")
	}

	if currentIndex+1 >= len(questions) {
		return m.complete(ctx, session)
	}

	next := questions[currentIndex+1]
	if err := m.flags.SetShowResults(ctx, m.sessionID, false); err != nil {
		return err
	}
	if err := m.sessions.UpdateSessionState(ctx, m.sessionID, constants.SessionStatusActive, nullString(next.ID)); err != nil {
		return err
	}

	return m.sync.BroadcastQuestionChanged(ctx, next, m.questionDuration)
}

// RevealAnswer flips the ephemeral reveal flag and publishes the correct
// answer. Session status does not change.
func (m *FlowManager) RevealAnswer(ctx context.Context, hostID, questionID string) error {
	if _, err := m.authorize(ctx, hostID); err != nil {
		return err
	}

	if questionID == "" {
		return apperrors.NewValidation("Invalid request data")
	}

	question, err := m.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}

	if err := m.flags.SetShowResults(ctx, m.sessionID, true); err != nil {
		return err
	}

	return m.sync.BroadcastAnswerReveal(ctx, revealPayload(question))
}

// CompleteGame finishes an active session and publishes the final
// leaderboard.
func (m *FlowManager) CompleteGame(ctx context.Context, hostID string) error {
	session, err := m.authorize(ctx, hostID)
	if err != nil {
		return err
	}

	if session.Status != constants.SessionStatusActive {
		return apperrors.NewValidation("Game is not active")
	}

	return m.complete(ctx, session)
}

func (m *FlowManager) complete(ctx context.Context, session *models.Session) error {
	if err := m.sessions.UpdateSessionState(ctx, m.sessionID, constants.SessionStatusCompleted, session.CurrentQuestionID); err != nil {
		return err
	}

	players, err := m.players.ListPlayersBySession(ctx, m.sessionID)
	if err != nil {
		return err
	}
	finalScores := BuildLeaderboard(players)

	if err := m.sync.BroadcastGameComplete(ctx, finalScores); err != nil {
		return err
	}

	m.runCompletionHooks(ctx, finalScores)
	log.Printf("Game completed: session=%s, players=%d", m.sessionID, len(finalScores))
	return nil
}

func (m *FlowManager) runCompletionHooks(ctx context.Context, finalScores []models.LeaderboardEntry) {
	for _, hook := range m.hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Completion hook panicked for session %s: %v", m.sessionID, r)
				}
			}()
			hook(ctx, m.sessionID, finalScores)
		}()
	}
}

// RestartGame returns the session to waiting with scores and power-up
// counters reset, then publishes a full snapshot.
func (m *FlowManager) RestartGame(ctx context.Context, hostID string) error {
	if _, err := m.authorize(ctx, hostID); err != nil {
		return err
	}

	if err := m.sessions.UpdateSessionState(ctx, m.sessionID, constants.SessionStatusWaiting, sql.NullString{}); err != nil {
		return err
	}
	if err := m.players.ResetScores(ctx, m.sessionID); err != nil {
		return err
	}
	if err := m.powerUps.ResetPowerUps(ctx, m.sessionID, m.allowances); err != nil {
		return err
	}
	if err := m.flags.SetShowResults(ctx, m.sessionID, false); err != nil {
		return err
	}

	state, err := m.sync.GetCurrentGameState(ctx)
	if err != nil {
		return err
	}
	m.state = state

	log.Printf("Game restarted: session=%s", m.sessionID)
	return m.sync.BroadcastGameStateSync(ctx, state)
}

// Cleanup releases subscription resources. Safe to call after any action,
// including failed ones.
func (m *FlowManager) Cleanup() error {
	return m.sync.Cleanup()
}

func revealPayload(question *models.Question) broadcast.AnswerRevealPayload {
	return broadcast.AnswerRevealPayload{
		QuestionID:    question.ID,
		CorrectAnswer: question.CorrectAnswer,
		Explanation:   question.Explanation,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}
