package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/gradewise/gradewise-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Exam{}, &models.Question{}, &models.Answer{}, &models.Grade{}, &models.Student{}))
	return db
}

func TestGradeRepositoryUpsertReplacesExistingUnit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGradeRepository(db)
	ctx := context.Background()

	aiScore := 6.0
	confidence := 70.0
	first := models.Grade{
		ExamID: 1, QuestionID: 2, StudentID: 3,
		Score: 6, AIScore: &aiScore, AIConfidence: &confidence,
		Feedback: "first pass", GradedBy: models.GradedByAI, GradedAt: time.Now(),
	}
	require.NoError(t, repo.Upsert(ctx, &first))

	better := 8.0
	second := models.Grade{
		ExamID: 1, QuestionID: 2, StudentID: 3,
		Score: 8, AIScore: &better, AIConfidence: &confidence,
		Feedback: "second pass", GradedBy: models.GradedByAI, GradedAt: time.Now(),
	}
	require.NoError(t, repo.Upsert(ctx, &second))

	stored, err := repo.GetByUnit(ctx, 1, 2, 3)
	require.NoError(t, err)
	require.Equal(t, 8.0, stored.Score)
	require.Equal(t, "second pass", stored.Feedback)

	grades, err := repo.ListByExam(ctx, 1)
	require.NoError(t, err)
	require.Len(t, grades, 1, "upsert must not duplicate the unit")
}

func TestExamRepositoryStatusTransitions(t *testing.T) {
	db := setupTestDB(t)
	repo := NewExamRepository(db)
	ctx := context.Background()

	exam := models.Exam{Title: "Midterm", Status: models.ExamStatusPublished, TotalScore: 100}
	require.NoError(t, repo.Create(ctx, &exam))

	require.NoError(t, repo.UpdateStatus(ctx, exam.ID, models.ExamStatusGrading))
	stored, err := repo.GetByID(ctx, exam.ID)
	require.NoError(t, err)
	require.Equal(t, models.ExamStatusGrading, stored.Status)

	gradedAt := time.Now()
	require.NoError(t, repo.MarkGraded(ctx, exam.ID, gradedAt))
	stored, err = repo.GetByID(ctx, exam.ID)
	require.NoError(t, err)
	require.Equal(t, models.ExamStatusCompleted, stored.Status)
	require.NotNil(t, stored.GradedAt)
}
