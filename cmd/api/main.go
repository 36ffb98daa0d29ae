package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"mock-interviewer/internal/config"
	"mock-interviewer/internal/db"
	apihttp "mock-interviewer/internal/http"
	"mock-interviewer/internal/llm"
	"mock-interviewer/internal/questionbank"
	"mock-interviewer/internal/repository"
	"mock-interviewer/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadServerConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	var interviewer service.Interviewer
	switch cfg.Interviewer {
	case "llm":
		llmClient := llm.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMMaxTokens, logger)
		interviewer = service.NewLLMInterviewer(llmClient)
	default:
		bank, err := questionbank.Load(cfg.QuestionBank)
		if err != nil {
			logger.Fatal("load question bank", zap.Error(err), zap.String("path", cfg.QuestionBank))
		}
		interviewer = service.NewScriptedInterviewer(bank)
	}

	var (
		sessionRepo  repository.SessionRepository = repository.NewMemorySessionRepository()
		startLimiter                              = service.NewStartRateLimiter(time.Minute, 10)
	)
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisClient.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, using in-memory sessions", zap.Error(err))
		} else {
			sessionRepo = repository.NewRedisSessionRepository(redisClient, cfg.SessionTTL)
			startLimiter = service.NewRedisStartRateLimiter(redisClient, time.Minute, 10)
		}
		cancel()
	}

	var transcriptRepo repository.TranscriptRepository
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer pool.Close()
		ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := db.Ping(ctxPing, pool); err != nil {
			cancel()
			logger.Fatal("db ping", zap.Error(err))
		}
		cancel()
		if err := db.Migrate(ctx, pool); err != nil {
			logger.Fatal("db migrate", zap.Error(err))
		}
		transcriptRepo = repository.NewPgTranscriptRepository(pool)
	} else {
		logger.Warn("database not configured, transcripts will not be archived")
	}

	interviewSvc := service.NewInterviewService(sessionRepo, transcriptRepo, interviewer, logger)
	interviewHandler := apihttp.NewInterviewHandler(logger, interviewSvc, startLimiter)
	router := apihttp.NewRouter(logger, interviewHandler, cfg.AllowedOrigins)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting question service",
		zap.String("port", cfg.HTTPPort),
		zap.String("interviewer", cfg.Interviewer),
	)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
