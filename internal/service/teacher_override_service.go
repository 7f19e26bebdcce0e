package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradewise/gradewise-api/internal/dto"
	"github.com/gradewise/gradewise-api/internal/models"
	"github.com/gradewise/gradewise-api/internal/repository"
)

// ErrGradeNotFound indicates no grade exists for the requested unit.
var ErrGradeNotFound = errors.New("grade not found")

// ErrScoreExceedsMax indicates an override score surpasses the question max.
var ErrScoreExceedsMax = errors.New("score exceeds question max")

// TeacherOverrideService lets a teacher correct an AI-produced grade. After
// an override the grade's provenance switches from "ai" to "teacher"; the
// original AI score and confidence are preserved alongside.
type TeacherOverrideService interface {
	Override(ctx context.Context, examID, questionID, studentID uint, payload dto.TeacherOverrideRequest) (dto.GradeResponse, error)
}

type teacherOverrideService struct {
	grades    repository.GradeRepository
	questions repository.QuestionRepository
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewTeacherOverrideService constructs the override service.
func NewTeacherOverrideService(gradeRepo repository.GradeRepository, questionRepo repository.QuestionRepository, validate *validator.Validate, logger zerolog.Logger) TeacherOverrideService {
	return &teacherOverrideService{
		grades:    gradeRepo,
		questions: questionRepo,
		validator: validate,
		logger:    logger.With().Str("component", "teacher_override_service").Logger(),
		now:       time.Now,
	}
}

func (s *teacherOverrideService) Override(ctx context.Context, examID, questionID, studentID uint, payload dto.TeacherOverrideRequest) (dto.GradeResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.GradeResponse{}, err
	}

	grade, err := s.grades.GetByUnit(ctx, examID, questionID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradeResponse{}, ErrGradeNotFound
		}
		return dto.GradeResponse{}, err
	}

	question, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return dto.GradeResponse{}, err
	}

	if payload.Score > question.Score+1e-9 {
		return dto.GradeResponse{}, ErrScoreExceedsMax
	}

	feedback := strings.TrimSpace(payload.Feedback)
	isIdempotent := grade.GradedBy == models.GradedByTeacher &&
		math.Abs(grade.Score-payload.Score) < 1e-6 &&
		strings.TrimSpace(grade.Feedback) == feedback
	if isIdempotent {
		return dto.NewGradeResponse(grade), nil
	}

	grade.Score = payload.Score
	if feedback != "" {
		grade.Feedback = feedback
	}
	grade.GradedBy = models.GradedByTeacher
	grade.GradedAt = s.now()
	grade.NeedsReview = false

	if err := s.grades.Update(ctx, &grade); err != nil {
		return dto.GradeResponse{}, err
	}

	s.logger.Info().
		Uint("exam_id", examID).
		Uint("question_id", questionID).
		Uint("student_id", studentID).
		Float64("score", payload.Score).
		Msg("grade overridden by teacher")

	return dto.NewGradeResponse(grade), nil
}
