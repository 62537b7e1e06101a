package models

import (
	"database/sql"
	"time"

	"github.com/lib/pq"
)

type Session struct {
	ID                string         `json:"id"`
	QuizID            string         `json:"quiz_id"`
	HostID            string         `json:"host_id"`
	JoinCode          string         `json:"join_code"`
	Status            string         `json:"status"` // "waiting", "active", "completed"
	CurrentQuestionID sql.NullString `json:"-"`
	CreatedAt         time.Time      `json:"created_at"`
}

type Player struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Nickname  string    `json:"nickname"`
	Score     int       `json:"score"`
	JoinedAt  time.Time `json:"joined_at"`
}

type Question struct {
	ID            string         `json:"id"`
	QuizID        string         `json:"quiz_id"`
	Text          string         `json:"text"`
	Options       pq.StringArray `json:"options"`
	CorrectAnswer string         `json:"correct_answer"`
	Explanation   string         `json:"explanation"`
	QuestionOrder int            `json:"question_order"`
}

type PlayerAnswer struct {
	ID             string    `json:"id"`
	PlayerID       string    `json:"player_id"`
	QuestionID     string    `json:"question_id"`
	SelectedAnswer string    `json:"selected_answer"`
	IsCorrect      bool      `json:"is_correct"`
	AnsweredAt     time.Time `json:"answered_at"`
}

type PlayerPowerUp struct {
	ID            string `json:"id"`
	PlayerID      string `json:"player_id"`
	PowerUpType   string `json:"power_up_type"`
	UsesRemaining int    `json:"uses_remaining"`
}

type PowerUpUsage struct {
	ID          string    `json:"id"`
	PlayerID    string    `json:"player_id"`
	PowerUpType string    `json:"power_up_type"`
	QuestionID  string    `json:"question_id"`
	UsedAt      time.Time `json:"used_at"`
}

// GameState is the canonical snapshot a client pulls on (re)connect. It is
// assembled from the store on demand and never persisted as its own row.
type GameState struct {
	Session         *Session  `json:"session"`
	Players         []*Player `json:"players"`
	CurrentQuestion *Question `json:"current_question,omitempty"`
	TimeRemaining   *int      `json:"time_remaining,omitempty"`
	ShowResults     bool      `json:"show_results"`
}

type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Nickname string `json:"nickname"`
	Score    int    `json:"score"`
}
