package models

import "time"

// Exam statuses. Grading drives published exams through grading into a
// terminal completed or error state.
const (
	ExamStatusDraft     = "draft"
	ExamStatusPublished = "published"
	ExamStatusGrading   = "grading"
	ExamStatusCompleted = "completed"
	ExamStatusError     = "error"
)

// Exam is a teacher-authored exam paper.
type Exam struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Status      string     `gorm:"size:32;not null;default:draft" json:"status"`
	TotalScore  float64    `json:"total_score"`
	CreatedBy   uint       `json:"created_by"`
	GradedAt    *time.Time `json:"graded_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	Questions   []Question `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"questions,omitempty"`
}

// Gradable reports whether a batch grading run may start for this exam.
func (e Exam) Gradable() bool {
	return e.Status == ExamStatusDraft || e.Status == ExamStatusPublished || e.Status == ExamStatusError
}
