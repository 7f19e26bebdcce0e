package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/gradewise/gradewise-api/internal/models"
)

// ExamRepository defines data operations for exams.
type ExamRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	GetByID(ctx context.Context, id uint) (models.Exam, error)
	List(ctx context.Context) ([]models.Exam, error)
	UpdateStatus(ctx context.Context, id uint, status string) error
	MarkGraded(ctx context.Context, id uint, gradedAt time.Time) error
}

type examRepository struct {
	db *gorm.DB
}

// NewExamRepository instantiates the repository.
func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) Create(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Create(exam).Error
}

func (r *examRepository) GetByID(ctx context.Context, id uint) (models.Exam, error) {
	var exam models.Exam
	if err := r.db.WithContext(ctx).Preload("Questions").First(&exam, id).Error; err != nil {
		return models.Exam{}, err
	}
	return exam, nil
}

func (r *examRepository) List(ctx context.Context) ([]models.Exam, error) {
	var exams []models.Exam
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&exams).Error; err != nil {
		return nil, err
	}
	return exams, nil
}

func (r *examRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Model(&models.Exam{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *examRepository) MarkGraded(ctx context.Context, id uint, gradedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Exam{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":    models.ExamStatusCompleted,
			"graded_at": gradedAt,
		}).Error
}
