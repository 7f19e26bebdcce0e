package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gradewise/gradewise-api/internal/config"
	"github.com/gradewise/gradewise-api/internal/handler"
	"github.com/gradewise/gradewise-api/internal/middleware"
	"github.com/gradewise/gradewise-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ExamHandler    *handler.ExamHandler
	GradingHandler *handler.GradingHandler
	ParseHandler   *handler.ParseHandler
	StudentHandler *handler.StudentHandler
	JWTMiddleware  fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	api.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Students
	if deps.StudentHandler != nil {
		students := api.Group("/students", jwtMiddleware)
		deps.StudentHandler.Register(students)
	}

	// Exams (CRUD + answers)
	if deps.ExamHandler != nil {
		exams := api.Group("/exams", jwtMiddleware)
		deps.ExamHandler.Register(exams)
	}

	// Grading, stats, and teacher overrides. Grading runs hold a model
	// conversation per student, so they are limited harder and gated to
	// teaching staff.
	if deps.GradingHandler != nil {
		grading := api.Group("/exams",
			jwtMiddleware,
			middleware.RequireRole("admin", "teacher"),
			middleware.RateLimit("grading", 10, time.Minute),
		)
		deps.GradingHandler.Register(grading)
	}

	// Exam paper intake: callers authenticate with their own model API key.
	if deps.ParseHandler != nil {
		intake := api.Group("/ai", middleware.RateLimit("intake", 20, time.Minute))
		deps.ParseHandler.Register(intake)
	}
}
