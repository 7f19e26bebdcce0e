package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradewise/gradewise-api/internal/dto"
	"github.com/gradewise/gradewise-api/internal/models"
	"github.com/gradewise/gradewise-api/internal/repository"
)

// ErrQuestionNotFound indicates a question does not belong to the exam.
var ErrQuestionNotFound = errors.New("question not found")

// ExamService covers the exam and answer CRUD the grading flow depends on.
type ExamService interface {
	Create(ctx context.Context, creatorID uint, payload dto.ExamCreateRequest) (dto.ExamResponse, error)
	Get(ctx context.Context, id uint) (dto.ExamResponse, error)
	List(ctx context.Context) ([]dto.ExamResponse, error)
	SubmitAnswer(ctx context.Context, examID uint, payload dto.AnswerSubmitRequest) error
}

type examService struct {
	exams     repository.ExamRepository
	questions repository.QuestionRepository
	answers   repository.AnswerRepository
	students  repository.StudentRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewExamService constructs an ExamService instance.
func NewExamService(examRepo repository.ExamRepository, questionRepo repository.QuestionRepository, answerRepo repository.AnswerRepository, studentRepo repository.StudentRepository, validate *validator.Validate, logger zerolog.Logger) ExamService {
	return &examService{
		exams:     examRepo,
		questions: questionRepo,
		answers:   answerRepo,
		students:  studentRepo,
		validator: validate,
		logger:    logger.With().Str("component", "exam_service").Logger(),
	}
}

func (s *examService) Create(ctx context.Context, creatorID uint, payload dto.ExamCreateRequest) (dto.ExamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}

	totalScore := 0.0
	for _, question := range payload.Questions {
		totalScore += question.Score
	}

	exam := models.Exam{
		Title:       payload.Title,
		Description: payload.Description,
		Status:      models.ExamStatusDraft,
		TotalScore:  totalScore,
		CreatedBy:   creatorID,
	}
	if err := s.exams.Create(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}

	questions := make([]models.Question, 0, len(payload.Questions))
	for i, question := range payload.Questions {
		questions = append(questions, models.Question{
			ExamID:         exam.ID,
			Content:        question.Content,
			StandardAnswer: question.StandardAnswer,
			Score:          question.Score,
			Position:       i + 1,
		})
	}
	if err := s.questions.CreateBatch(ctx, questions); err != nil {
		return dto.ExamResponse{}, err
	}

	exam.Questions = questions
	return dto.NewExamResponse(exam), nil
}

func (s *examService) Get(ctx context.Context, id uint) (dto.ExamResponse, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrExamNotFound
		}
		return dto.ExamResponse{}, err
	}
	return dto.NewExamResponse(exam), nil
}

func (s *examService) List(ctx context.Context) ([]dto.ExamResponse, error) {
	exams, err := s.exams.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewExamResponseSlice(exams), nil
}

func (s *examService) SubmitAnswer(ctx context.Context, examID uint, payload dto.AnswerSubmitRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	question, err := s.questions.GetByID(ctx, payload.QuestionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrQuestionNotFound
		}
		return err
	}
	if question.ExamID != examID {
		return ErrQuestionNotFound
	}

	if _, err := s.students.GetByID(ctx, payload.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}

	answer := models.Answer{
		ExamID:     examID,
		QuestionID: payload.QuestionID,
		StudentID:  payload.StudentID,
		Content:    payload.Content,
	}
	return s.answers.Create(ctx, &answer)
}
