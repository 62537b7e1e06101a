package repository

import (
	"context"
	"database/sql"
	"errors"

	"trivia-service/internal/apperrors"
	"trivia-service/internal/models"
)

type QuestionRepository struct {
	db *sql.DB
}

func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

func (r *QuestionRepository) GetQuestion(ctx context.Context, questionID string) (*models.Question, error) {
	query := `
		SELECT id, quiz_id, text, options, correct_answer, explanation, question_order
		FROM questions
		WHERE id = $1
	`
	question := &models.Question{}
	err := r.db.QueryRowContext(ctx, query, questionID).Scan(
		&question.ID,
		&question.QuizID,
		&question.Text,
		&question.Options,
		&question.CorrectAnswer,
		&question.Explanation,
		&question.QuestionOrder,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewNotFound("Question not found")
	}
	if err != nil {
		return nil, err
	}
	return question, nil
}

func (r *QuestionRepository) ListQuestionsByQuiz(ctx context.Context, quizID string) ([]*models.Question, error) {
	query := `
		SELECT id, quiz_id, text, options, correct_answer, explanation, question_order
		FROM questions
		WHERE quiz_id = $1
		ORDER BY question_order ASC
	`
	rows, err := r.db.QueryContext(ctx, query, quizID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []*models.Question
	for rows.Next() {
		question := &models.Question{}
		err := rows.Scan(
			&question.ID,
			&question.QuizID,
			&question.Text,
			&question.Options,
			&question.CorrectAnswer,
			&question.Explanation,
			&question.QuestionOrder,
		)
		if err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}
	return questions, rows.Err()
}
