package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradewise/gradewise-api/internal/dto"
	"github.com/gradewise/gradewise-api/internal/service"
	"github.com/gradewise/gradewise-api/internal/utils"
	"github.com/gradewise/gradewise-api/pkg/ai"
)

// GradingHandler wires AI grading, grade listing, stats, and teacher
// override endpoints.
type GradingHandler struct {
	grading   service.ExamGradingService
	overrides service.TeacherOverrideService
	stats     service.ExamStatsService
	logger    zerolog.Logger
}

// NewGradingHandler constructs the handler.
func NewGradingHandler(grading service.ExamGradingService, overrides service.TeacherOverrideService, stats service.ExamStatsService, logger zerolog.Logger) *GradingHandler {
	return &GradingHandler{
		grading:   grading,
		overrides: overrides,
		stats:     stats,
		logger:    logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register attaches grading endpoints to the exam router group.
func (h *GradingHandler) Register(router fiber.Router) {
	router.Post("/:id/grade", h.gradeExam)
	router.Get("/:id/grades", h.listGrades)
	router.Get("/:id/stats", h.examStats)
	router.Patch("/:id/questions/:questionId/students/:studentId/grade", h.override)
}

func (h *GradingHandler) gradeExam(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	run, err := h.grading.GradeExam(c.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "exam not found")
		case errors.Is(err, service.ErrExamNotGradable):
			return utils.SendError(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, service.ErrNoAnswers):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, ai.ErrNoQuestions):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("exam_id", id).Msg("grading run failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "grading run failed")
		}
	}

	h.stats.Invalidate(c.Context(), id)

	return utils.SendSuccess(c, "exam graded", run)
}

func (h *GradingHandler) listGrades(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	grades, err := h.grading.ListGrades(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "exam not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("exam_id", id).Msg("failed to list grades")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list grades")
	}

	return utils.SendSuccess(c, "grades retrieved", grades)
}

func (h *GradingHandler) examStats(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	stats, err := h.stats.Stats(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "exam not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("exam_id", id).Msg("failed to compute stats")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to compute stats")
	}

	return utils.SendSuccess(c, "stats retrieved", stats)
}

func (h *GradingHandler) override(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	questionID, err := parseUintParam(c, "questionId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	studentID, err := parseUintParam(c, "studentId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.TeacherOverrideRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	grade, err := h.overrides.Override(c.Context(), examID, questionID, studentID, payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGradeNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "grade not found")
		case errors.Is(err, service.ErrScoreExceedsMax):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).
				Uint("exam_id", examID).
				Uint("question_id", questionID).
				Uint("student_id", studentID).
				Msg("failed to override grade")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to override grade")
		}
	}

	h.stats.Invalidate(c.Context(), examID)

	return utils.SendSuccess(c, "grade overridden", grade)
}
