package broadcast

import (
	"encoding/json"

	"trivia-service/internal/models"
)

type EventType string

const (
	EventQuestionChanged EventType = "question_changed"
	EventAnswerReveal    EventType = "answer_reveal"
	EventAnswerSubmitted EventType = "answer_submitted"
	EventGameStateSync   EventType = "game_state_sync"
	EventGameComplete    EventType = "game_complete"
)

// Event is the envelope published on a session's channel. Subscribers must
// treat events as hints: delivery is at-least-once and only per-publisher
// ordered, so a client that suspects drift re-pulls the snapshot.
type Event struct {
	Type       EventType       `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	ServerTime int64           `json:"server_time"`
}

type QuestionChangedPayload struct {
	Question      *models.Question `json:"question"`
	TimeRemaining int              `json:"time_remaining"`
}

type AnswerRevealPayload struct {
	QuestionID    string `json:"question_id"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}

type AnswerSubmittedPayload struct {
	PlayerID       string `json:"player_id"`
	QuestionID     string `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"`
	IsCorrect      bool   `json:"is_correct"`
	PointsEarned   int    `json:"points_earned"`
	NewScore       int    `json:"new_score"`
	Timestamp      int64  `json:"timestamp"`
}

type GameCompletePayload struct {
	FinalScores []models.LeaderboardEntry `json:"final_scores"`
}

// Handlers holds the typed callbacks a subscriber registers against a
// session's channel. Nil callbacks are skipped.
type Handlers struct {
	OnQuestionChange  func(QuestionChangedPayload)
	OnAnswerReveal    func(AnswerRevealPayload)
	OnAnswerSubmitted func(AnswerSubmittedPayload)
	OnGameStateChange func(models.GameState)
	OnGameComplete    func(GameCompletePayload)
}
