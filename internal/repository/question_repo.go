package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/gradewise/gradewise-api/internal/models"
)

// QuestionRepository defines data operations for exam questions.
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	CreateBatch(ctx context.Context, questions []models.Question) error
	GetByID(ctx context.Context, id uint) (models.Question, error)
	ListByExam(ctx context.Context, examID uint) ([]models.Question, error)
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository instantiates the repository.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *questionRepository) CreateBatch(ctx context.Context, questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&questions).Error
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return models.Question{}, err
	}
	return question, nil
}

func (r *questionRepository) ListByExam(ctx context.Context, examID uint) ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("position ASC, id ASC").
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}
