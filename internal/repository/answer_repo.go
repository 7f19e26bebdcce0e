package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/gradewise/gradewise-api/internal/models"
)

// AnswerRepository defines data operations for student answers.
type AnswerRepository interface {
	Create(ctx context.Context, answer *models.Answer) error
	ListByExam(ctx context.Context, examID uint) ([]models.Answer, error)
	ListByExamAndStudent(ctx context.Context, examID, studentID uint) ([]models.Answer, error)
}

type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository instantiates the repository.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) Create(ctx context.Context, answer *models.Answer) error {
	return r.db.WithContext(ctx).Create(answer).Error
}

func (r *answerRepository) ListByExam(ctx context.Context, examID uint) ([]models.Answer, error) {
	var answers []models.Answer
	if err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("student_id ASC, question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *answerRepository) ListByExamAndStudent(ctx context.Context, examID, studentID uint) ([]models.Answer, error) {
	var answers []models.Answer
	if err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Where("student_id = ?", studentID).
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}
