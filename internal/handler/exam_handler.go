package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradewise/gradewise-api/internal/dto"
	"github.com/gradewise/gradewise-api/internal/service"
	"github.com/gradewise/gradewise-api/internal/utils"
)

// ExamHandler wires exam CRUD and answer submission endpoints.
type ExamHandler struct {
	service service.ExamService
	logger  zerolog.Logger
}

// NewExamHandler constructs the handler.
func NewExamHandler(service service.ExamService, logger zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		service: service,
		logger:  logger.With().Str("component", "exam_handler").Logger(),
	}
}

// Register attaches exam endpoints to the router group.
func (h *ExamHandler) Register(router fiber.Router) {
	router.Post("/", h.create)
	router.Get("/", h.list)
	router.Get("/:id", h.get)
	router.Post("/:id/answers", h.submitAnswer)
}

func (h *ExamHandler) create(c *fiber.Ctx) error {
	var payload dto.ExamCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	exam, err := h.service.Create(c.Context(), userIDFromContext(c), payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to create exam")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to create exam")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "exam created", exam)
}

func (h *ExamHandler) list(c *fiber.Ctx) error {
	exams, err := h.service.List(c.Context())
	if err != nil {
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list exams")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list exams")
	}

	return utils.SendSuccess(c, "exams retrieved", exams)
}

func (h *ExamHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	exam, err := h.service.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "exam not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Uint("exam_id", id).Msg("failed to fetch exam")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to fetch exam")
	}

	return utils.SendSuccess(c, "exam retrieved", exam)
}

func (h *ExamHandler) submitAnswer(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.AnswerSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	if err := h.service.SubmitAnswer(c.Context(), id, payload); err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "exam not found")
		case errors.Is(err, service.ErrQuestionNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "question not found")
		case errors.Is(err, service.ErrStudentNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "student not found")
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		default:
			requestLogger(h.logger, c).Error().Err(err).Uint("exam_id", id).Msg("failed to submit answer")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to submit answer")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "answer submitted", nil)
}
