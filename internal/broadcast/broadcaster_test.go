package broadcast

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"trivia-service/internal/models"
)

// fakeBus is an in-process EventBus: Publish pushes onto every open
// subscription channel for the target channel name.
type fakeBus struct {
	mu        sync.Mutex
	published [][]byte
	subs      map[string][]chan []byte
	closes    int
}

func newFakeBus() *fakeBus {
	return &fakeBus{subs: make(map[string][]chan []byte)}
}

func (b *fakeBus) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, payload)
	for _, ch := range b.subs[channel] {
		ch <- payload
	}
	return nil
}

func (b *fakeBus) Subscribe(ctx context.Context, channel string) (<-chan []byte, func() error) {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	b.subs[channel] = append(b.subs[channel], ch)
	b.mu.Unlock()
	return ch, func() error {
		b.mu.Lock()
		b.closes++
		open := b.subs[channel][:0]
		for _, sub := range b.subs[channel] {
			if sub != ch {
				open = append(open, sub)
			}
		}
		b.subs[channel] = open
		b.mu.Unlock()
		close(ch)
		return nil
	}
}

type stubSessionStore struct {
	session *models.Session
}

func (s *stubSessionStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	return s.session, nil
}

type stubPlayerStore struct {
	players []*models.Player
}

func (s *stubPlayerStore) ListPlayersBySession(ctx context.Context, sessionID string) ([]*models.Player, error) {
	return s.players, nil
}

type stubQuestionStore struct {
	question *models.Question
}

func (s *stubQuestionStore) GetQuestion(ctx context.Context, questionID string) (*models.Question, error) {
	return s.question, nil
}

type stubFlagStore struct {
	showResults bool
	err         error
}

func (s *stubFlagStore) GetShowResults(ctx context.Context, sessionID string) (bool, error) {
	return s.showResults, s.err
}

func newSyncFixture(bus *fakeBus) *GameStateSync {
	session := &models.Session{
		ID:                "sess-1",
		HostID:            "host-1",
		Status:            "active",
		CurrentQuestionID: sql.NullString{String: "q-1", Valid: true},
	}
	return NewGameStateSync(
		"sess-1",
		bus,
		&stubSessionStore{session: session},
		&stubPlayerStore{players: []*models.Player{{ID: "p1", Nickname: "alice", Score: 50}}},
		&stubQuestionStore{question: &models.Question{ID: "q-1", Text: "capital of France?"}},
		&stubFlagStore{showResults: true},
	)
}

// The snapshot carries the session, players, current question, and the
// reveal flag.
func TestGetCurrentGameState(t *testing.T) {
	s := newSyncFixture(newFakeBus())

	state, err := s.GetCurrentGameState(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentGameState: %v", err)
	}
	if state.Session.ID != "sess-1" {
		t.Fatalf("session id = %q", state.Session.ID)
	}
	if len(state.Players) != 1 || state.Players[0].Nickname != "alice" {
		t.Fatalf("players = %+v", state.Players)
	}
	if state.CurrentQuestion == nil || state.CurrentQuestion.ID != "q-1" {
		t.Fatalf("current question = %+v", state.CurrentQuestion)
	}
	if !state.ShowResults {
		t.Fatalf("ShowResults = false, want true")
	}
}

// A flag store failure degrades to show_results=false instead of failing
// the snapshot.
func TestGetCurrentGameStateFlagFailure(t *testing.T) {
	s := NewGameStateSync(
		"sess-1",
		newFakeBus(),
		&stubSessionStore{session: &models.Session{ID: "sess-1"}},
		&stubPlayerStore{},
		&stubQuestionStore{},
		&stubFlagStore{err: errors.New("redis down")},
	)

	state, err := s.GetCurrentGameState(context.Background())
	if err != nil {
		t.Fatalf("GetCurrentGameState: %v", err)
	}
	if state.ShowResults {
		t.Fatalf("ShowResults = true after flag failure")
	}
}

// Published events are wrapped in the envelope with a server timestamp.
func TestPublishEnvelope(t *testing.T) {
	bus := newFakeBus()
	s := newSyncFixture(bus)

	question := &models.Question{ID: "q-1", Text: "capital of France?"}
	if err := s.BroadcastQuestionChanged(context.Background(), question, 30); err != nil {
		t.Fatalf("BroadcastQuestionChanged: %v", err)
	}

	if len(bus.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(bus.published))
	}
	var event Event
	if err := json.Unmarshal(bus.published[0], &event); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if event.Type != EventQuestionChanged {
		t.Fatalf("event type = %q", event.Type)
	}
	if event.ServerTime <= 0 {
		t.Fatalf("ServerTime = %d", event.ServerTime)
	}
	var payload QuestionChangedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Question.ID != "q-1" || payload.TimeRemaining != 30 {
		t.Fatalf("payload = %+v", payload)
	}
}

// A subscriber's typed callback fires for events published on the session
// channel.
func TestSubscribeDispatch(t *testing.T) {
	bus := newFakeBus()
	s := newSyncFixture(bus)
	defer s.Cleanup()

	received := make(chan AnswerSubmittedPayload, 1)
	s.Subscribe(Handlers{
		OnAnswerSubmitted: func(payload AnswerSubmittedPayload) {
			received <- payload
		},
	})

	want := AnswerSubmittedPayload{
		PlayerID:     "p1",
		QuestionID:   "q-1",
		IsCorrect:    true,
		PointsEarned: 100,
		NewScore:     150,
	}
	if err := s.BroadcastAnswerSubmitted(context.Background(), want); err != nil {
		t.Fatalf("BroadcastAnswerSubmitted: %v", err)
	}

	select {
	case got := <-received:
		if got.PlayerID != want.PlayerID || got.PointsEarned != want.PointsEarned || got.NewScore != want.NewScore {
			t.Fatalf("payload = %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatalf("callback never fired")
	}
}

// Cleanup closes the subscription and guarantees no callback fires after it
// returns. It is idempotent.
func TestCleanup(t *testing.T) {
	bus := newFakeBus()
	s := newSyncFixture(bus)

	fired := make(chan struct{}, 16)
	s.Subscribe(Handlers{
		OnGameComplete: func(GameCompletePayload) {
			fired <- struct{}{}
		},
	})

	if err := s.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if err := s.Cleanup(); err != nil {
		t.Fatalf("second Cleanup: %v", err)
	}
	if bus.closes != 1 {
		t.Fatalf("subscription closed %d times, want 1", bus.closes)
	}

	if err := s.BroadcastGameComplete(context.Background(), nil); err != nil {
		t.Fatalf("BroadcastGameComplete: %v", err)
	}

	select {
	case <-fired:
		t.Fatalf("callback fired after Cleanup")
	case <-time.After(50 * time.Millisecond):
	}
}

// A Subscribe racing Cleanup either loses cleanly or has its dispatch
// goroutine fully retired before Cleanup returns; either way no callback
// fires afterwards.
func TestCleanupConcurrentSubscribe(t *testing.T) {
	for i := 0; i < 50; i++ {
		bus := newFakeBus()
		s := newSyncFixture(bus)

		var cleaned atomic.Bool
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Subscribe(Handlers{
				OnGameComplete: func(GameCompletePayload) {
					if cleaned.Load() {
						t.Errorf("callback fired after Cleanup returned")
					}
				},
			})
		}()

		if err := s.Cleanup(); err != nil {
			t.Fatalf("Cleanup: %v", err)
		}
		cleaned.Store(true)
		wg.Wait()

		if err := s.BroadcastGameComplete(context.Background(), nil); err != nil {
			t.Fatalf("BroadcastGameComplete: %v", err)
		}
	}
}

// Subscribing after Cleanup is a no-op.
func TestSubscribeAfterCleanup(t *testing.T) {
	bus := newFakeBus()
	s := newSyncFixture(bus)

	if err := s.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	s.Subscribe(Handlers{})

	bus.mu.Lock()
	subs := len(bus.subs[s.Channel()])
	bus.mu.Unlock()
	if subs != 0 {
		t.Fatalf("subscription opened after Cleanup")
	}
}
