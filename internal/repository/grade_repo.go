package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gradewise/gradewise-api/internal/models"
)

// GradeRepository defines data operations for grading results.
type GradeRepository interface {
	Upsert(ctx context.Context, grade *models.Grade) error
	GetByUnit(ctx context.Context, examID, questionID, studentID uint) (models.Grade, error)
	ListByExam(ctx context.Context, examID uint) ([]models.Grade, error)
	Update(ctx context.Context, grade *models.Grade) error
}

type gradeRepository struct {
	db *gorm.DB
}

// NewGradeRepository instantiates the repository.
func NewGradeRepository(db *gorm.DB) GradeRepository {
	return &gradeRepository{db: db}
}

// Upsert writes a grade, replacing any previous result for the same
// (exam, question, student) triple so re-running a batch is idempotent.
func (r *gradeRepository) Upsert(ctx context.Context, grade *models.Grade) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "exam_id"}, {Name: "question_id"}, {Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"score", "ai_score", "ai_confidence", "feedback",
			"scoring_points", "needs_review", "graded_by", "graded_at", "updated_at",
		}),
	}).Create(grade).Error
}

func (r *gradeRepository) GetByUnit(ctx context.Context, examID, questionID, studentID uint) (models.Grade, error) {
	var grade models.Grade
	if err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Where("question_id = ?", questionID).
		Where("student_id = ?", studentID).
		First(&grade).Error; err != nil {
		return models.Grade{}, err
	}
	return grade, nil
}

func (r *gradeRepository) ListByExam(ctx context.Context, examID uint) ([]models.Grade, error) {
	var grades []models.Grade
	if err := r.db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Order("student_id ASC, question_id ASC").
		Find(&grades).Error; err != nil {
		return nil, err
	}
	return grades, nil
}

func (r *gradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	return r.db.WithContext(ctx).Save(grade).Error
}
