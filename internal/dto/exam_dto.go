package dto

import (
	"time"

	"github.com/gradewise/gradewise-api/internal/models"
)

// ExamCreateRequest describes the payload for creating an exam.
type ExamCreateRequest struct {
	Title       string                  `json:"title" validate:"required,min=1,max=255"`
	Description string                  `json:"description"`
	Questions   []QuestionCreateRequest `json:"questions" validate:"omitempty,dive"`
}

// QuestionCreateRequest describes one question of a new exam.
type QuestionCreateRequest struct {
	Content        string  `json:"content" validate:"required"`
	StandardAnswer string  `json:"standard_answer" validate:"required"`
	Score          float64 `json:"score" validate:"required,gt=0"`
}

// AnswerSubmitRequest describes a student submitting one answer.
type AnswerSubmitRequest struct {
	QuestionID uint   `json:"question_id" validate:"required,gt=0"`
	StudentID  uint   `json:"student_id" validate:"required,gt=0"`
	Content    string `json:"content"`
}

// ExamResponse is returned to API clients when viewing exams.
type ExamResponse struct {
	ID          uint               `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Status      string             `json:"status"`
	TotalScore  float64            `json:"total_score"`
	GradedAt    *time.Time         `json:"graded_at"`
	CreatedAt   time.Time          `json:"created_at"`
	Questions   []QuestionResponse `json:"questions,omitempty"`
}

// QuestionResponse serializes one exam question.
type QuestionResponse struct {
	ID             uint    `json:"id"`
	ExamID         uint    `json:"exam_id"`
	Content        string  `json:"content"`
	StandardAnswer string  `json:"standard_answer"`
	Score          float64 `json:"score"`
	Position       int     `json:"position"`
}

// NewExamResponse converts an Exam model into a DTO.
func NewExamResponse(model models.Exam) ExamResponse {
	response := ExamResponse{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		Status:      model.Status,
		TotalScore:  model.TotalScore,
		GradedAt:    model.GradedAt,
		CreatedAt:   model.CreatedAt,
	}
	for _, question := range model.Questions {
		response.Questions = append(response.Questions, NewQuestionResponse(question))
	}
	return response
}

// NewQuestionResponse converts a Question model into a DTO.
func NewQuestionResponse(model models.Question) QuestionResponse {
	return QuestionResponse{
		ID:             model.ID,
		ExamID:         model.ExamID,
		Content:        model.Content,
		StandardAnswer: model.StandardAnswer,
		Score:          model.Score,
		Position:       model.Position,
	}
}

// NewExamResponseSlice converts a slice of exams.
func NewExamResponseSlice(exams []models.Exam) []ExamResponse {
	responses := make([]ExamResponse, 0, len(exams))
	for _, exam := range exams {
		responses = append(responses, NewExamResponse(exam))
	}
	return responses
}
