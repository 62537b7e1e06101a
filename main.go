package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trivia-service/config"
	"trivia-service/internal/broadcast"
	"trivia-service/internal/constants"
	"trivia-service/internal/game"
	"trivia-service/internal/handlers"
	"trivia-service/internal/middleware"
	"trivia-service/internal/models"
	"trivia-service/internal/repository"
	ws "trivia-service/internal/websocket"
	"trivia-service/pkg/cache"
	"trivia-service/pkg/database"
	"trivia-service/pkg/messaging"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	log.Println("Configuration loaded")

	pgClient, err := database.NewPostgresClient(&cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	log.Println("Connected to PostgreSQL")
	defer pgClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := pgClient.InitSchema(ctx); err != nil {
		log.Printf("Warning: Failed to initialize PostgreSQL schema: %v", err)
	} else {
		log.Println("PostgreSQL schema initialized")
	}
	cancel()

	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")
	defer redisClient.Close()

	rabbitClient, err := messaging.NewRabbitMQClient(&cfg.RabbitMQ)
	if err != nil {
		log.Printf("Warning: Failed to connect to RabbitMQ: %v", err)
		rabbitClient = nil
	} else {
		log.Println("Connected to RabbitMQ")
		defer rabbitClient.Close()
	}

	db := pgClient.GetDB()
	sessionRepo := repository.NewSessionRepository(db)
	playerRepo := repository.NewPlayerRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	powerUpRepo := repository.NewPowerUpRepository(db)

	allowances := map[string]int{
		constants.PowerUpSkipQuestion: cfg.Game.SkipQuestionUses,
		constants.PowerUpDoublePoints: cfg.Game.DoublePointsUses,
		constants.PowerUpFiftyFifty:   cfg.Game.FiftyFiftyUses,
	}

	newSync := func(sessionID string) *broadcast.GameStateSync {
		return broadcast.NewGameStateSync(sessionID, redisClient, sessionRepo, playerRepo, questionRepo, redisClient)
	}

	flowCfg := game.FlowManagerConfig{
		QuestionDurationSec: cfg.Game.QuestionDurationSec,
		PowerUpAllowances:   allowances,
	}
	newManager := func(sessionID string) handlers.FlowRunner {
		manager := game.NewFlowManager(
			sessionID,
			sessionRepo,
			playerRepo,
			questionRepo,
			powerUpRepo,
			redisClient,
			newSync(sessionID),
			flowCfg,
		)
		if rabbitClient != nil {
			manager.AddCompletionHook(func(ctx context.Context, sessionID string, finalScores []models.LeaderboardEntry) {
				body, err := json.Marshal(map[string]any{
					"session_id":   sessionID,
					"final_scores": finalScores,
					"completed_at": time.Now().UnixMilli(),
				})
				if err != nil {
					log.Printf("Failed to marshal completion event for session %s: %v", sessionID, err)
					return
				}
				if err := rabbitClient.Publish(ctx, constants.GameCompletedQueue, body); err != nil {
					log.Printf("Failed to publish completion event for session %s: %v", sessionID, err)
				}
			})
		}
		return manager
	}

	scoringEngine := game.NewScoringEngine(
		playerRepo,
		answerRepo,
		powerUpRepo,
		redisClient,
		cfg.Game.MaxPoints,
		cfg.Game.QuestionDurationSec,
	)
	powerUpService := game.NewPowerUpService(playerRepo, powerUpRepo, questionRepo, redisClient, allowances)

	hub := ws.NewHub(func(sessionID string) ws.Syncer {
		return newSync(sessionID)
	})
	go hub.Run()
	log.Println("WebSocket hub started")

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "trivia-service",
		})
	})

	router.GET("/ready", func(c *gin.Context) {
		if pgClient == nil || redisClient == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status": "ready",
		})
	})

	flowHandler := handlers.NewFlowHandler(sessionRepo, questionRepo, newManager)
	answerHandler := handlers.NewAnswerHandler(scoringEngine, func(sessionID string) handlers.AnswerPublisher {
		return newSync(sessionID)
	})
	powerUpHandler := handlers.NewPowerUpHandler(powerUpService)
	stateHandler := handlers.NewStateHandler(func(sessionID string) handlers.StateSyncer {
		return newSync(sessionID)
	})
	sessionHandler := handlers.NewSessionHandler(sessionRepo, playerRepo, powerUpService)
	wsHandler := handlers.NewWebSocketHandler(hub, sessionRepo)

	api := router.Group("/game")
	api.Use(middleware.JWTAuth(cfg.Auth.JWTSecret))
	api.POST("/sessions", sessionHandler.HandleCreateSession)
	api.POST("/join", sessionHandler.HandleJoinSession)
	api.POST("/flow", flowHandler.HandleFlowAction)
	api.POST("/answer", answerHandler.HandleSubmitAnswer)
	api.POST("/powerups", powerUpHandler.HandlePowerUp)
	api.GET("/state", stateHandler.HandleGetState)
	api.GET("/leaderboard", answerHandler.HandleGetLeaderboard)

	router.GET("/ws", wsHandler.HandleWebSocket)

	httpAddr := ":" + cfg.Server.HTTPPort
	log.Printf("Trivia Service HTTP server starting on port %s...", cfg.Server.HTTPPort)

	go func() {
		if err := router.Run(httpAddr); err != nil {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Trivia service stopped")
}
