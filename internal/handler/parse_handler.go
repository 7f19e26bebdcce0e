package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/gradewise/gradewise-api/internal/dto"
	"github.com/gradewise/gradewise-api/internal/service"
	"github.com/gradewise/gradewise-api/pkg/ai"
)

// ParseHandler wires the exam-paper intake endpoints. These speak a flat
// {success, ...} JSON shape expected by the upload frontend instead of the
// usual data envelope.
type ParseHandler struct {
	service service.ExamParseService
	logger  zerolog.Logger
}

// NewParseHandler constructs the handler.
func NewParseHandler(service service.ExamParseService, logger zerolog.Logger) *ParseHandler {
	return &ParseHandler{
		service: service,
		logger:  logger.With().Str("component", "parse_handler").Logger(),
	}
}

// Register attaches parse endpoints to the router group.
func (h *ParseHandler) Register(router fiber.Router) {
	router.Post("/parse-exam", h.parseExam)
	router.Post("/repair-json", h.repairJSON)
}

func (h *ParseHandler) parseExam(c *fiber.Ctx) error {
	var payload dto.ParseExamRequest
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ParseExamResponse{Error: "invalid payload"})
	}

	resp, err := h.service.ParseExam(c.Context(), payload)
	if err != nil {
		status, message := parseErrorStatus(err)
		if status == fiber.StatusInternalServerError || status == fiber.StatusBadGateway {
			requestLogger(h.logger, c).Error().Err(err).Msg("exam parse failed")
		}
		return c.Status(status).JSON(dto.ParseExamResponse{Error: message})
	}

	return c.JSON(resp)
}

func (h *ParseHandler) repairJSON(c *fiber.Ctx) error {
	var payload dto.RepairJSONRequest
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.RepairJSONResponse{Error: "invalid payload"})
	}

	resp, err := h.service.RepairJSON(c.Context(), payload)
	if err != nil {
		status, message := parseErrorStatus(err)
		if status == fiber.StatusInternalServerError || status == fiber.StatusBadGateway {
			requestLogger(h.logger, c).Error().Err(err).Msg("json repair failed")
		}
		return c.Status(status).JSON(dto.RepairJSONResponse{Error: message})
	}

	return c.JSON(resp)
}

func parseErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrEmptyExamContent):
		return fiber.StatusBadRequest, err.Error()
	case isValidationError(err):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, ai.ErrGenerationFailed):
		return fiber.StatusBadGateway, "model unavailable"
	case errors.Is(err, ai.ErrRepairFailed):
		return fiber.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, ai.ErrMalformedGrading):
		return fiber.StatusUnprocessableEntity, err.Error()
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}
