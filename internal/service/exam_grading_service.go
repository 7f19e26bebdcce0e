package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gradewise/gradewise-api/internal/dto"
	"github.com/gradewise/gradewise-api/internal/models"
	"github.com/gradewise/gradewise-api/internal/repository"
	"github.com/gradewise/gradewise-api/pkg/ai"
)

// ErrExamNotFound indicates the exam could not be located.
var ErrExamNotFound = errors.New("exam not found")

// ErrExamNotGradable indicates the exam is already grading or completed.
var ErrExamNotGradable = errors.New("exam is not in a gradable state")

// ErrNoAnswers indicates no student submitted anything for the exam.
var ErrNoAnswers = errors.New("no answers to grade")

// Results with a confidence below this are flagged for human review.
const reviewConfidenceThreshold = 60

// ExamGrader runs a batch grading run over an exam. Satisfied by
// *ai.BatchOrchestrator; tests substitute doubles.
type ExamGrader interface {
	GradeExam(ctx context.Context, examID uint, questions []ai.ExamQuestion, submissions []ai.StudentSubmission) ([]ai.BatchGradingOutcome, error)
}

// ExamGradingService drives an exam through the grading state machine:
// draft|published -> grading -> completed, or grading -> error when the
// batch run fails before producing any outcomes. Per-student failures are
// absorbed as fallback grades and never force the error state.
type ExamGradingService interface {
	GradeExam(ctx context.Context, examID uint) (dto.GradingRunResponse, error)
	ListGrades(ctx context.Context, examID uint) ([]dto.GradeResponse, error)
}

type examGradingService struct {
	exams     repository.ExamRepository
	questions repository.QuestionRepository
	answers   repository.AnswerRepository
	grades    repository.GradeRepository
	grader    ExamGrader
	logger    zerolog.Logger
	now       func() time.Time
}

// NewExamGradingService constructs the grading service.
func NewExamGradingService(examRepo repository.ExamRepository, questionRepo repository.QuestionRepository, answerRepo repository.AnswerRepository, gradeRepo repository.GradeRepository, grader ExamGrader, logger zerolog.Logger) ExamGradingService {
	return &examGradingService{
		exams:     examRepo,
		questions: questionRepo,
		answers:   answerRepo,
		grades:    gradeRepo,
		grader:    grader,
		logger:    logger.With().Str("component", "exam_grading_service").Logger(),
		now:       time.Now,
	}
}

func (s *examGradingService) GradeExam(ctx context.Context, examID uint) (dto.GradingRunResponse, error) {
	tracer := otel.Tracer("github.com/gradewise/gradewise-api/internal/service/exam_grading")
	ctx, span := tracer.Start(ctx, "grading.exam")
	span.SetAttributes(attribute.Int64("grading.exam_id", int64(examID)))
	defer span.End()

	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.GradingRunResponse{}, ErrExamNotFound
		}
		return dto.GradingRunResponse{}, err
	}

	if !exam.Gradable() {
		span.SetStatus(codes.Error, "exam_not_gradable")
		return dto.GradingRunResponse{}, ErrExamNotGradable
	}

	questions, err := s.questions.ListByExam(ctx, examID)
	if err != nil {
		return dto.GradingRunResponse{}, err
	}

	answers, err := s.answers.ListByExam(ctx, examID)
	if err != nil {
		return dto.GradingRunResponse{}, err
	}
	if len(answers) == 0 {
		span.SetStatus(codes.Error, "no_answers")
		return dto.GradingRunResponse{}, ErrNoAnswers
	}

	if err := s.exams.UpdateStatus(ctx, examID, models.ExamStatusGrading); err != nil {
		return dto.GradingRunResponse{}, err
	}

	examQuestions := toExamQuestions(questions)
	submissions := groupByStudent(answers)

	outcomes, err := s.grader.GradeExam(ctx, examID, examQuestions, submissions)
	if err != nil {
		// Batch-level failure before any outcome: the exam lands in error.
		s.logger.Error().Err(err).Uint("exam_id", examID).Msg("batch grading run failed")
		if statusErr := s.exams.UpdateStatus(ctx, examID, models.ExamStatusError); statusErr != nil {
			s.logger.Error().Err(statusErr).Uint("exam_id", examID).Msg("failed to mark exam errored")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch_failed")
		return dto.GradingRunResponse{}, err
	}

	gradedAt := s.now()
	fallbacks := 0
	for _, outcome := range outcomes {
		if outcome.Fallback {
			fallbacks++
		}
		grade, err := s.toGrade(examID, outcome, gradedAt)
		if err != nil {
			s.logger.Warn().Err(err).
				Uint("question_id", outcome.QuestionID).
				Uint("student_id", outcome.StudentID).
				Msg("failed to encode scoring points")
		}
		if err := s.grades.Upsert(ctx, &grade); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "grade_persist_failed")
			return dto.GradingRunResponse{}, err
		}
	}

	if err := s.exams.MarkGraded(ctx, examID, gradedAt); err != nil {
		return dto.GradingRunResponse{}, err
	}

	span.SetAttributes(
		attribute.Int("grading.outcomes", len(outcomes)),
		attribute.Int("grading.fallbacks", fallbacks),
	)

	return dto.GradingRunResponse{
		ExamID:    examID,
		Status:    models.ExamStatusCompleted,
		Students:  len(submissions),
		Questions: len(examQuestions),
		Outcomes:  len(outcomes),
		Fallbacks: fallbacks,
	}, nil
}

func (s *examGradingService) ListGrades(ctx context.Context, examID uint) ([]dto.GradeResponse, error) {
	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}

	grades, err := s.grades.ListByExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	return dto.NewGradeResponseSlice(grades), nil
}

func (s *examGradingService) toGrade(examID uint, outcome ai.BatchGradingOutcome, gradedAt time.Time) (models.Grade, error) {
	score := outcome.Result.Score
	confidence := outcome.Result.Confidence

	grade := models.Grade{
		ExamID:       examID,
		QuestionID:   outcome.QuestionID,
		StudentID:    outcome.StudentID,
		Score:        score,
		AIScore:      &score,
		AIConfidence: &confidence,
		Feedback:     outcome.Result.Feedback,
		NeedsReview:  outcome.Fallback || confidence < reviewConfidenceThreshold,
		GradedBy:     models.GradedByAI,
		GradedAt:     gradedAt,
	}

	points, err := json.Marshal(outcome.Result.ScoringPoints)
	if err != nil {
		return grade, err
	}
	grade.ScoringPoints = datatypes.JSON(points)

	return grade, nil
}

func toExamQuestions(questions []models.Question) []ai.ExamQuestion {
	examQuestions := make([]ai.ExamQuestion, 0, len(questions))
	for _, question := range questions {
		examQuestions = append(examQuestions, ai.ExamQuestion{
			ID:             question.ID,
			Content:        question.Content,
			StandardAnswer: question.StandardAnswer,
			MaxScore:       question.Score,
		})
	}
	return examQuestions
}

func groupByStudent(answers []models.Answer) []ai.StudentSubmission {
	order := make([]uint, 0)
	grouped := make(map[uint][]ai.StudentAnswer)
	for _, answer := range answers {
		if _, ok := grouped[answer.StudentID]; !ok {
			order = append(order, answer.StudentID)
		}
		grouped[answer.StudentID] = append(grouped[answer.StudentID], ai.StudentAnswer{
			QuestionID: answer.QuestionID,
			Content:    answer.Content,
		})
	}

	submissions := make([]ai.StudentSubmission, 0, len(order))
	for _, studentID := range order {
		submissions = append(submissions, ai.StudentSubmission{
			StudentID: studentID,
			Answers:   grouped[studentID],
		})
	}
	return submissions
}
