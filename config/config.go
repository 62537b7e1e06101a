package config

import (
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	DB       DBConfig
	Redis    RedisConfig
	RabbitMQ RabbitMQConfig
	Auth     AuthConfig
	Game     GameConfig
}

type ServerConfig struct {
	HTTPPort string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	Host     string
	Port     string
	User     string
	Password string
}

type AuthConfig struct {
	JWTSecret string
}

// GameConfig carries the scoring and power-up tuning knobs. The point
// formula constants are configurable rather than hardcoded.
type GameConfig struct {
	MaxPoints           int
	QuestionDurationSec int
	SkipQuestionUses    int
	DoublePointsUses    int
	FiftyFiftyUses      int
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: getEnv("HTTP_PORT", "8080"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "postgres"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "trivia"),
			Password: getEnv("DB_PASSWORD", "trivia_password"),
			DBName:   getEnv("DB_NAME", "trivia"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "redis"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		RabbitMQ: RabbitMQConfig{
			Host:     getEnv("RABBITMQ_HOST", "rabbitmq"),
			Port:     getEnv("RABBITMQ_PORT", "5672"),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),
		},
		Game: GameConfig{
			MaxPoints:           getEnvAsInt("GAME_MAX_POINTS", 100),
			QuestionDurationSec: getEnvAsInt("GAME_QUESTION_DURATION_SEC", 30),
			SkipQuestionUses:    getEnvAsInt("GAME_SKIP_QUESTION_USES", 1),
			DoublePointsUses:    getEnvAsInt("GAME_DOUBLE_POINTS_USES", 1),
			FiftyFiftyUses:      getEnvAsInt("GAME_FIFTY_FIFTY_USES", 1),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
