package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradewise/gradewise-api/internal/config"
	"github.com/gradewise/gradewise-api/internal/database"
	"github.com/gradewise/gradewise-api/internal/handler"
	"github.com/gradewise/gradewise-api/internal/middleware"
	"github.com/gradewise/gradewise-api/internal/models"
	"github.com/gradewise/gradewise-api/internal/repository"
	"github.com/gradewise/gradewise-api/internal/router"
	"github.com/gradewise/gradewise-api/internal/service"
	"github.com/gradewise/gradewise-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Student{}, &models.Exam{}, &models.Question{}, &models.Answer{}, &models.Grade{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	retry := ai.RetryPolicy{
		MaxAttempts:       cfg.MaxRetries,
		BaseDelay:         cfg.RetryBaseDelay,
		BackoffMultiplier: 2,
	}

	modelClient, err := ai.NewClient(ai.ClientConfig{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		Model:          cfg.GradingModel,
		Temperature:    cfg.Temperature,
		MaxTokens:      cfg.MaxTokens,
		RequestTimeout: cfg.RequestTimeout,
		Retry:          retry,
		Logger:         logger,
	})
	if err != nil {
		log.Fatalf("failed to create model client: %v", err)
	}

	grader := ai.NewGrader(modelClient, logger)
	orchestrator := ai.NewBatchOrchestrator(grader, ai.BatchPolicy{
		ChunkSize:  cfg.BatchSize,
		ChunkDelay: cfg.BatchDelay,
	}, logger)

	// Parse and repair callers bring their own key, so those endpoints get
	// a fresh client per request instead of the shared one.
	clientFactory := func(apiKey, model string) (ai.ModelClient, error) {
		if model == "" {
			model = cfg.GradingModel
		}
		return ai.NewClient(ai.ClientConfig{
			APIKey:         apiKey,
			BaseURL:        cfg.OpenAIBaseURL,
			Model:          model,
			Temperature:    cfg.Temperature,
			MaxTokens:      cfg.MaxTokens,
			RequestTimeout: cfg.RequestTimeout,
			Retry:          retry,
			Logger:         logger,
		})
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	examRepo := repository.NewExamRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	answerRepo := repository.NewAnswerRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	studentRepo := repository.NewStudentRepository(db)

	examService := service.NewExamService(examRepo, questionRepo, answerRepo, studentRepo, validate, logger)
	studentService := service.NewStudentService(studentRepo, validate, logger)
	gradingService := service.NewExamGradingService(examRepo, questionRepo, answerRepo, gradeRepo, orchestrator, logger)
	overrideService := service.NewTeacherOverrideService(gradeRepo, questionRepo, validate, logger)
	statsService := service.NewExamStatsService(examRepo, gradeRepo, redisClient, cfg.StatsCacheTTL, logger)
	parseService := service.NewExamParseService(clientFactory, validate, logger)

	examHandler := handler.NewExamHandler(examService, logger)
	studentHandler := handler.NewStudentHandler(studentService, logger)
	gradingHandler := handler.NewGradingHandler(gradingService, overrideService, statsService, logger)
	parseHandler := handler.NewParseHandler(parseService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ExamHandler:    examHandler,
		GradingHandler: gradingHandler,
		ParseHandler:   parseHandler,
		StudentHandler: studentHandler,
		JWTMiddleware:  middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
