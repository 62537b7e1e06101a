package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"trivia-service/internal/models"
)

// EventBus is the pub/sub transport under a session channel. The redis
// client implements it in production.
type EventBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, func() error)
}

type SessionStore interface {
	GetSession(ctx context.Context, sessionID string) (*models.Session, error)
}

type PlayerStore interface {
	ListPlayersBySession(ctx context.Context, sessionID string) ([]*models.Player, error)
}

type QuestionStore interface {
	GetQuestion(ctx context.Context, questionID string) (*models.Question, error)
}

type FlagStore interface {
	GetShowResults(ctx context.Context, sessionID string) (bool, error)
}

// GameStateSync is the only component touching the broadcast transport for
// one session. It offers push (publish/subscribe of the five event types)
// and pull (GetCurrentGameState) so clients can reconcile missed events.
type GameStateSync struct {
	sessionID string
	bus       EventBus
	sessions  SessionStore
	players   PlayerStore
	questions QuestionStore
	flags     FlagStore

	mu      sync.Mutex
	closers []func() error
	done    chan struct{}
	closed  bool
	wg      sync.WaitGroup
}

func NewGameStateSync(
	sessionID string,
	bus EventBus,
	sessions SessionStore,
	players PlayerStore,
	questions QuestionStore,
	flags FlagStore,
) *GameStateSync {
	return &GameStateSync{
		sessionID: sessionID,
		bus:       bus,
		sessions:  sessions,
		players:   players,
		questions: questions,
		flags:     flags,
		done:      make(chan struct{}),
	}
}

func (s *GameStateSync) Channel() string {
	return fmt.Sprintf("session:%s", s.sessionID)
}

// GetCurrentGameState assembles the canonical snapshot directly from the
// store. Persistence mutation always precedes publish, so a puller is at
// least as current as anything already broadcast.
func (s *GameStateSync) GetCurrentGameState(ctx context.Context) (*models.GameState, error) {
	session, err := s.sessions.GetSession(ctx, s.sessionID)
	if err != nil {
		return nil, err
	}

	players, err := s.players.ListPlayersBySession(ctx, s.sessionID)
	if err != nil {
		return nil, err
	}

	state := &models.GameState{
		Session: session,
		Players: players,
	}

	if session.CurrentQuestionID.Valid {
		question, err := s.questions.GetQuestion(ctx, session.CurrentQuestionID.String)
		if err != nil {
			return nil, err
		}
		state.CurrentQuestion = question
	}

	showResults, err := s.flags.GetShowResults(ctx, s.sessionID)
	if err != nil {
		log.Printf("Failed to read show_results for session %s: %v", s.sessionID, err)
	} else {
		state.ShowResults = showResults
	}

	return state, nil
}

// Subscribe registers typed callbacks against the session's channel. The
// dispatch goroutine exits on Cleanup; Cleanup waits for it, so no callback
// fires after Cleanup returns.
func (s *GameStateSync) Subscribe(handlers Handlers) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	msgs, closeFn := s.bus.Subscribe(context.Background(), s.Channel())
	s.closers = append(s.closers, closeFn)
	// Counted under the lock so a racing Cleanup cannot pass wg.Wait
	// before this subscription's dispatch goroutine is accounted for.
	s.wg.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.done:
				return
			case raw, ok := <-msgs:
				if !ok {
					return
				}
				s.dispatch(handlers, raw)
			}
		}
	}()
}

func (s *GameStateSync) dispatch(handlers Handlers, raw []byte) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		log.Printf("Failed to unmarshal event on %s: %v", s.Channel(), err)
		return
	}

	switch event.Type {
	case EventQuestionChanged:
		var payload QuestionChangedPayload
		if err := json.Unmarshal(event.Payload, &payload); err == nil && handlers.OnQuestionChange != nil {
			handlers.OnQuestionChange(payload)
		}
	case EventAnswerReveal:
		var payload AnswerRevealPayload
		if err := json.Unmarshal(event.Payload, &payload); err == nil && handlers.OnAnswerReveal != nil {
			handlers.OnAnswerReveal(payload)
		}
	case EventAnswerSubmitted:
		var payload AnswerSubmittedPayload
		if err := json.Unmarshal(event.Payload, &payload); err == nil && handlers.OnAnswerSubmitted != nil {
			handlers.OnAnswerSubmitted(payload)
		}
	case EventGameStateSync:
		var payload models.GameState
		if err := json.Unmarshal(event.Payload, &payload); err == nil && handlers.OnGameStateChange != nil {
			handlers.OnGameStateChange(payload)
		}
	case EventGameComplete:
		var payload GameCompletePayload
		if err := json.Unmarshal(event.Payload, &payload); err == nil && handlers.OnGameComplete != nil {
			handlers.OnGameComplete(payload)
		}
	default:
		log.Printf("Unknown event type on %s: %s", s.Channel(), event.Type)
	}
}

func (s *GameStateSync) publish(ctx context.Context, eventType EventType, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}

	event := Event{
		Type:       eventType,
		Payload:    data,
		ServerTime: time.Now().UnixMilli(),
	}
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	return s.bus.Publish(ctx, s.Channel(), raw)
}

func (s *GameStateSync) BroadcastQuestionChanged(ctx context.Context, question *models.Question, timeRemaining int) error {
	return s.publish(ctx, EventQuestionChanged, QuestionChangedPayload{
		Question:      question,
		TimeRemaining: timeRemaining,
	})
}

func (s *GameStateSync) BroadcastAnswerReveal(ctx context.Context, payload AnswerRevealPayload) error {
	return s.publish(ctx, EventAnswerReveal, payload)
}

func (s *GameStateSync) BroadcastAnswerSubmitted(ctx context.Context, payload AnswerSubmittedPayload) error {
	return s.publish(ctx, EventAnswerSubmitted, payload)
}

func (s *GameStateSync) BroadcastGameStateSync(ctx context.Context, state *models.GameState) error {
	return s.publish(ctx, EventGameStateSync, state)
}

func (s *GameStateSync) BroadcastGameComplete(ctx context.Context, finalScores []models.LeaderboardEntry) error {
	return s.publish(ctx, EventGameComplete, GameCompletePayload{FinalScores: finalScores})
}

// Cleanup releases the subscription. Idempotent and safe after failures.
func (s *GameStateSync) Cleanup() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	closers := s.closers
	s.closers = nil
	s.mu.Unlock()

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("Failed to close subscription on %s: %v", s.Channel(), err)
		}
	}
	s.wg.Wait()
	return nil
}
