package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"trivia-service/internal/apperrors"
	"trivia-service/internal/broadcast"
	"trivia-service/internal/game"
	"trivia-service/internal/models"

	"github.com/gin-gonic/gin"
)

type fakeAnswerScorer struct {
	result      *game.SubmitAnswerResult
	err         error
	leaderboard []models.LeaderboardEntry
}

func (f *fakeAnswerScorer) SubmitAnswer(ctx context.Context, in game.SubmitAnswerInput) (*game.SubmitAnswerResult, error) {
	return f.result, f.err
}

func (f *fakeAnswerScorer) GetSessionLeaderboard(ctx context.Context, sessionID string) ([]models.LeaderboardEntry, error) {
	return f.leaderboard, nil
}

type fakeAnswerPublisher struct {
	published []broadcast.AnswerSubmittedPayload
	cleanups  int
}

func (f *fakeAnswerPublisher) BroadcastAnswerSubmitted(ctx context.Context, payload broadcast.AnswerSubmittedPayload) error {
	f.published = append(f.published, payload)
	return nil
}

func (f *fakeAnswerPublisher) Cleanup() error {
	f.cleanups++
	return nil
}

func submitRequest() SubmitAnswerRequest {
	return SubmitAnswerRequest{
		PlayerID:       testPlayerID,
		QuestionID:     testQuestionID,
		SelectedAnswer: "Paris",
		CorrectAnswer:  "Paris",
		SessionID:      testSessionID,
		TimeRemaining:  20,
	}
}

// A scored answer is broadcast after the response-relevant work is done,
// and the publisher is cleaned up.
func TestHandleSubmitAnswer(t *testing.T) {
	scorer := &fakeAnswerScorer{result: &game.SubmitAnswerResult{
		Answer: &models.PlayerAnswer{
			PlayerID:   testPlayerID,
			QuestionID: testQuestionID,
			IsCorrect:  true,
			AnsweredAt: time.Unix(1000, 0),
		},
		NewScore:     180,
		PointsEarned: 80,
		IsCorrect:    true,
	}}
	publisher := &fakeAnswerPublisher{}
	handler := NewAnswerHandler(scorer, func(sessionID string) AnswerPublisher {
		return publisher
	})

	w := postJSON(t, handler.HandleSubmitAnswer, submitRequest())

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(publisher.published) != 1 {
		t.Fatalf("published %d events, want 1", len(publisher.published))
	}
	event := publisher.published[0]
	if event.PlayerID != testPlayerID || event.PointsEarned != 80 || event.NewScore != 180 {
		t.Fatalf("event = %+v", event)
	}
	if publisher.cleanups != 1 {
		t.Fatalf("cleanups = %d, want 1", publisher.cleanups)
	}

	var resp SubmitAnswerResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if !resp.Success || resp.NewScore != 180 {
		t.Fatalf("response = %+v", resp)
	}
}

// A scoring failure maps to its status and nothing is broadcast.
func TestHandleSubmitAnswerDuplicate(t *testing.T) {
	scorer := &fakeAnswerScorer{err: apperrors.NewConflict("Answer already submitted for this question")}
	publisher := &fakeAnswerPublisher{}
	handler := NewAnswerHandler(scorer, func(sessionID string) AnswerPublisher {
		return publisher
	})

	w := postJSON(t, handler.HandleSubmitAnswer, submitRequest())

	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if len(publisher.published) != 0 {
		t.Fatalf("broadcast sent for failed submission")
	}
}

func TestHandleSubmitAnswerInvalidBody(t *testing.T) {
	handler := NewAnswerHandler(&fakeAnswerScorer{}, func(sessionID string) AnswerPublisher {
		return &fakeAnswerPublisher{}
	})

	req := submitRequest()
	req.PlayerID = "not-a-uuid"
	w := postJSON(t, handler.HandleSubmitAnswer, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestHandleGetLeaderboard(t *testing.T) {
	scorer := &fakeAnswerScorer{leaderboard: []models.LeaderboardEntry{
		{Rank: 1, PlayerID: "p1", Nickname: "alice", Score: 200},
	}}
	handler := NewAnswerHandler(scorer, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/game/leaderboard?session_id="+testSessionID, nil)
	handler.HandleGetLeaderboard(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Leaderboard []models.LeaderboardEntry `json:"leaderboard"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(resp.Leaderboard) != 1 || resp.Leaderboard[0].Nickname != "alice" {
		t.Fatalf("leaderboard = %+v", resp.Leaderboard)
	}
}

func TestHandleGetLeaderboardInvalidSession(t *testing.T) {
	handler := NewAnswerHandler(&fakeAnswerScorer{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/game/leaderboard?session_id=abc", nil)
	handler.HandleGetLeaderboard(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
