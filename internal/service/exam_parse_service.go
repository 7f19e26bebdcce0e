package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/gradewise/gradewise-api/internal/dto"
	"github.com/gradewise/gradewise-api/pkg/ai"
)

// ErrEmptyExamContent indicates neither file text nor images were supplied.
var ErrEmptyExamContent = errors.New("exam content is empty")

// ModelClientFactory builds a short-lived model client for one request.
// Callers on the parse and repair endpoints bring their own API key, so
// clients are never shared process-wide.
type ModelClientFactory func(apiKey, model string) (ai.ModelClient, error)

// ExamParseService backs the exam-paper intake endpoints: extracting
// questions from uploaded text or photographs, and the standalone JSON
// repair endpoint.
type ExamParseService interface {
	ParseExam(ctx context.Context, payload dto.ParseExamRequest) (dto.ParseExamResponse, error)
	RepairJSON(ctx context.Context, payload dto.RepairJSONRequest) (dto.RepairJSONResponse, error)
}

type examParseService struct {
	clients   ModelClientFactory
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewExamParseService constructs the parse service.
func NewExamParseService(clients ModelClientFactory, validate *validator.Validate, logger zerolog.Logger) ExamParseService {
	return &examParseService{
		clients:   clients,
		validator: validate,
		logger:    logger.With().Str("component", "exam_parse_service").Logger(),
	}
}

type parsedExamPayload struct {
	Questions  []dto.ParsedQuestion `json:"questions"`
	TotalScore float64              `json:"totalScore"`
}

func (s *examParseService) ParseExam(ctx context.Context, payload dto.ParseExamRequest) (dto.ParseExamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ParseExamResponse{}, err
	}
	if payload.FileContent == "" && len(payload.Images) == 0 {
		return dto.ParseExamResponse{}, ErrEmptyExamContent
	}

	client, err := s.clients(payload.APIKey, payload.Model)
	if err != nil {
		return dto.ParseExamResponse{}, err
	}

	prompt := ai.BuildParseExamPrompt(payload.FileContent)

	var raw string
	if len(payload.Images) > 0 {
		raw, err = client.GenerateWithImages(ctx, prompt, payload.Images)
	} else {
		raw, err = client.Generate(ctx, prompt)
	}
	if err != nil {
		return dto.ParseExamResponse{}, err
	}

	candidate := ExtractParsable(ctx, client, raw, s.logger)

	var parsed parsedExamPayload
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return dto.ParseExamResponse{}, fmt.Errorf("%w: %v", ai.ErrMalformedGrading, err)
	}
	if len(parsed.Questions) == 0 {
		return dto.ParseExamResponse{}, fmt.Errorf("%w: no questions extracted", ai.ErrMalformedGrading)
	}

	if parsed.TotalScore == 0 {
		for _, question := range parsed.Questions {
			parsed.TotalScore += question.Score
		}
	}

	return dto.ParseExamResponse{
		Success:    true,
		Questions:  parsed.Questions,
		TotalScore: parsed.TotalScore,
	}, nil
}

func (s *examParseService) RepairJSON(ctx context.Context, payload dto.RepairJSONRequest) (dto.RepairJSONResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RepairJSONResponse{}, err
	}

	client, err := s.clients(payload.APIKey, payload.Model)
	if err != nil {
		return dto.RepairJSONResponse{}, err
	}

	repairer := ai.NewRepairer(client, s.logger)
	fixed, err := repairer.Repair(ctx, payload.BrokenJSON, errors.New(payload.ErrorMessage), ai.ShapeObject)
	if err != nil {
		return dto.RepairJSONResponse{}, err
	}

	return dto.RepairJSONResponse{Success: true, FixedJSON: fixed}, nil
}

// ExtractParsable narrows raw model output to a JSON document, running the
// repair pipeline when the extracted span does not parse. On total repair
// failure the original candidate is returned so the caller's parse error
// carries the real text.
func ExtractParsable(ctx context.Context, client ai.ModelClient, raw string, logger zerolog.Logger) string {
	candidate := ai.ExtractJSON(raw, ai.ShapeObject)

	var probe json.RawMessage
	parseErr := json.Unmarshal([]byte(candidate), &probe)
	if parseErr == nil {
		return candidate
	}

	repairer := ai.NewRepairer(client, logger)
	fixed, err := repairer.Repair(ctx, candidate, parseErr, ai.ShapeObject)
	if err != nil {
		return candidate
	}
	return fixed
}
