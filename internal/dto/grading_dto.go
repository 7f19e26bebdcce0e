package dto

import (
	"encoding/json"
	"time"

	"github.com/gradewise/gradewise-api/internal/models"
	"github.com/gradewise/gradewise-api/pkg/ai"
)

// GradingRunResponse summarizes one batch grading run over an exam.
type GradingRunResponse struct {
	ExamID    uint   `json:"exam_id"`
	Status    string `json:"status"`
	Students  int    `json:"students"`
	Questions int    `json:"questions"`
	Outcomes  int    `json:"outcomes"`
	Fallbacks int    `json:"fallbacks"`
}

// TeacherOverrideRequest describes a manual grade correction.
type TeacherOverrideRequest struct {
	Score    float64 `json:"score" validate:"gte=0"`
	Feedback string  `json:"feedback"`
}

// GradeResponse serializes one persisted grading result.
type GradeResponse struct {
	ExamID        uint              `json:"exam_id"`
	QuestionID    uint              `json:"question_id"`
	StudentID     uint              `json:"student_id"`
	Score         float64           `json:"score"`
	AIScore       *float64          `json:"ai_score"`
	AIConfidence  *float64          `json:"ai_confidence"`
	Feedback      string            `json:"feedback"`
	ScoringPoints []ai.ScoringPoint `json:"scoring_points"`
	NeedsReview   bool              `json:"needs_review"`
	GradedBy      string            `json:"graded_by"`
	GradedAt      time.Time         `json:"graded_at"`
}

// NewGradeResponse converts a Grade model into a DTO.
func NewGradeResponse(model models.Grade) GradeResponse {
	response := GradeResponse{
		ExamID:       model.ExamID,
		QuestionID:   model.QuestionID,
		StudentID:    model.StudentID,
		Score:        model.Score,
		AIScore:      model.AIScore,
		AIConfidence: model.AIConfidence,
		Feedback:     model.Feedback,
		NeedsReview:  model.NeedsReview,
		GradedBy:     model.GradedBy,
		GradedAt:     model.GradedAt,
	}

	if len(model.ScoringPoints) > 0 {
		// Ignore decode failures: scoring points are advisory detail.
		_ = json.Unmarshal(model.ScoringPoints, &response.ScoringPoints)
	}

	return response
}

// NewGradeResponseSlice converts a slice of grades.
func NewGradeResponseSlice(grades []models.Grade) []GradeResponse {
	responses := make([]GradeResponse, 0, len(grades))
	for _, grade := range grades {
		responses = append(responses, NewGradeResponse(grade))
	}
	return responses
}

// ExamStatsResponse summarizes grading results for one exam.
type ExamStatsResponse struct {
	ExamID        uint    `json:"exam_id"`
	GradedUnits   int     `json:"graded_units"`
	AverageScore  float64 `json:"average_score"`
	LowConfidence int     `json:"low_confidence"`
	NeedsReview   int     `json:"needs_review"`
	TeacherGraded int     `json:"teacher_graded"`
}
