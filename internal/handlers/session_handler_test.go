package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"trivia-service/internal/apperrors"
	"trivia-service/internal/constants"
	"trivia-service/internal/models"
)

type fakeSessionWriter struct {
	created   []*models.Session
	byCode    map[string]*models.Session
	createErr error
}

func (f *fakeSessionWriter) CreateSession(ctx context.Context, session *models.Session) error {
	if f.createErr != nil {
		return f.createErr
	}
	session.ID = testSessionID
	session.JoinCode = "ABC234"
	session.Status = constants.SessionStatusWaiting
	f.created = append(f.created, session)
	return nil
}

func (f *fakeSessionWriter) GetSessionByJoinCode(ctx context.Context, joinCode string) (*models.Session, error) {
	session, ok := f.byCode[joinCode]
	if !ok {
		return nil, apperrors.NewNotFound("Session not found")
	}
	return session, nil
}

type fakePlayerWriter struct {
	created   []*models.Player
	createErr error
}

func (f *fakePlayerWriter) CreatePlayer(ctx context.Context, player *models.Player) error {
	if f.createErr != nil {
		return f.createErr
	}
	player.ID = testPlayerID
	f.created = append(f.created, player)
	return nil
}

type fakePowerUpInitializer struct {
	initialized []string
	err         error
}

func (f *fakePowerUpInitializer) InitializePlayerPowerUps(ctx context.Context, playerID string) error {
	f.initialized = append(f.initialized, playerID)
	return f.err
}

const testQuizID = "4d3c2b1a-9e8f-4d7c-b6a5-f4e3d2c1b0a9"

func TestHandleCreateSession(t *testing.T) {
	sessions := &fakeSessionWriter{}
	handler := NewSessionHandler(sessions, &fakePlayerWriter{}, &fakePowerUpInitializer{})

	w := postJSON(t, handler.HandleCreateSession, CreateSessionRequest{
		QuizID: testQuizID,
		HostID: testHostID,
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(sessions.created) != 1 {
		t.Fatalf("created %d sessions, want 1", len(sessions.created))
	}

	var resp struct {
		Session models.Session `json:"session"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Session.JoinCode != "ABC234" || resp.Session.Status != constants.SessionStatusWaiting {
		t.Fatalf("session = %+v", resp.Session)
	}
}

func TestHandleCreateSessionInvalidQuiz(t *testing.T) {
	handler := NewSessionHandler(&fakeSessionWriter{}, &fakePlayerWriter{}, &fakePowerUpInitializer{})

	w := postJSON(t, handler.HandleCreateSession, CreateSessionRequest{
		QuizID: "not-a-uuid",
		HostID: testHostID,
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

// Joining a waiting session creates the player and grants power-up
// counters.
func TestHandleJoinSession(t *testing.T) {
	sessions := &fakeSessionWriter{byCode: map[string]*models.Session{
		"ABC234": {ID: testSessionID, Status: constants.SessionStatusWaiting},
	}}
	players := &fakePlayerWriter{}
	powerUps := &fakePowerUpInitializer{}
	handler := NewSessionHandler(sessions, players, powerUps)

	w := postJSON(t, handler.HandleJoinSession, JoinSessionRequest{
		JoinCode: "ABC234",
		Nickname: "alice",
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(players.created) != 1 || players.created[0].Nickname != "alice" {
		t.Fatalf("players = %+v", players.created)
	}
	if len(powerUps.initialized) != 1 || powerUps.initialized[0] != testPlayerID {
		t.Fatalf("power-ups initialized for %v", powerUps.initialized)
	}
}

func TestHandleJoinSessionUnknownCode(t *testing.T) {
	handler := NewSessionHandler(&fakeSessionWriter{byCode: map[string]*models.Session{}}, &fakePlayerWriter{}, &fakePowerUpInitializer{})

	w := postJSON(t, handler.HandleJoinSession, JoinSessionRequest{
		JoinCode: "ZZZZZZ",
		Nickname: "alice",
	})

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestHandleJoinSessionAlreadyStarted(t *testing.T) {
	sessions := &fakeSessionWriter{byCode: map[string]*models.Session{
		"ABC234": {ID: testSessionID, Status: constants.SessionStatusActive},
	}}
	players := &fakePlayerWriter{}
	handler := NewSessionHandler(sessions, players, &fakePowerUpInitializer{})

	w := postJSON(t, handler.HandleJoinSession, JoinSessionRequest{
		JoinCode: "ABC234",
		Nickname: "alice",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if len(players.created) != 0 {
		t.Fatalf("player created in a started game")
	}
}

func TestHandleJoinSessionNicknameTaken(t *testing.T) {
	sessions := &fakeSessionWriter{byCode: map[string]*models.Session{
		"ABC234": {ID: testSessionID, Status: constants.SessionStatusWaiting},
	}}
	players := &fakePlayerWriter{createErr: apperrors.NewConflict("Nickname already taken")}
	handler := NewSessionHandler(sessions, players, &fakePowerUpInitializer{})

	w := postJSON(t, handler.HandleJoinSession, JoinSessionRequest{
		JoinCode: "ABC234",
		Nickname: "alice",
	})

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}
