package database

import (
	"context"
	"database/sql"
	"fmt"

	"trivia-service/config"

	_ "github.com/lib/pq"
)

type PostgresClient struct {
	db     *sql.DB
	config *config.DBConfig
}

func NewPostgresClient(cfg *config.DBConfig) (*PostgresClient, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{
		db:     db,
		config: cfg,
	}, nil
}

func (c *PostgresClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *PostgresClient) GetDB() *sql.DB {
	return c.db
}

func (c *PostgresClient) InitSchema(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id UUID PRIMARY KEY,
			quiz_id UUID NOT NULL,
			host_id UUID NOT NULL,
			join_code VARCHAR(16) NOT NULL,
			status VARCHAR(50) NOT NULL DEFAULT 'waiting',
			current_question_id UUID,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_join_code_open
			ON sessions(join_code) WHERE status <> 'completed';
		CREATE INDEX IF NOT EXISTS idx_sessions_quiz_id ON sessions(quiz_id);

		CREATE TABLE IF NOT EXISTS players (
			id UUID PRIMARY KEY,
			session_id UUID NOT NULL REFERENCES sessions(id),
			nickname VARCHAR(100) NOT NULL,
			score INTEGER NOT NULL DEFAULT 0 CHECK (score >= 0),
			joined_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_players_session_nickname
			ON players(session_id, LOWER(nickname));

		CREATE TABLE IF NOT EXISTS questions (
			id UUID PRIMARY KEY,
			quiz_id UUID NOT NULL,
			text TEXT NOT NULL,
			options TEXT[] NOT NULL,
			correct_answer TEXT NOT NULL,
			explanation TEXT NOT NULL DEFAULT '',
			question_order INTEGER NOT NULL,
			UNIQUE (quiz_id, question_order)
		);

		CREATE TABLE IF NOT EXISTS player_answers (
			id UUID PRIMARY KEY,
			player_id UUID NOT NULL REFERENCES players(id),
			question_id UUID NOT NULL REFERENCES questions(id),
			selected_answer TEXT NOT NULL,
			is_correct BOOLEAN NOT NULL,
			answered_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (player_id, question_id)
		);

		CREATE TABLE IF NOT EXISTS player_power_ups (
			id UUID PRIMARY KEY,
			player_id UUID NOT NULL REFERENCES players(id),
			power_up_type VARCHAR(50) NOT NULL,
			uses_remaining INTEGER NOT NULL CHECK (uses_remaining >= 0),
			UNIQUE (player_id, power_up_type)
		);

		CREATE TABLE IF NOT EXISTS power_up_usage (
			id UUID PRIMARY KEY,
			player_id UUID NOT NULL REFERENCES players(id),
			power_up_type VARCHAR(50) NOT NULL,
			question_id UUID NOT NULL,
			used_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_power_up_usage_player ON power_up_usage(player_id);
	`

	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
