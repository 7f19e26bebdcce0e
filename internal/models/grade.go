package models

import (
	"time"

	"gorm.io/datatypes"
)

// Grade provenance: results start as AI output and switch to teacher after
// a manual override.
const (
	GradedByAI      = "ai"
	GradedByTeacher = "teacher"
)

// Grade is the persisted grading result for one (exam, question, student)
// triple. Score holds the effective grade; AIScore and AIConfidence keep the
// model's original judgment even after a teacher override.
type Grade struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ExamID        uint           `gorm:"not null;uniqueIndex:idx_grades_unit" json:"exam_id"`
	QuestionID    uint           `gorm:"not null;uniqueIndex:idx_grades_unit" json:"question_id"`
	StudentID     uint           `gorm:"not null;uniqueIndex:idx_grades_unit" json:"student_id"`
	Score         float64        `gorm:"not null" json:"score"`
	AIScore       *float64       `json:"ai_score"`
	AIConfidence  *float64       `json:"ai_confidence"`
	Feedback      string         `gorm:"type:text" json:"feedback"`
	ScoringPoints datatypes.JSON `json:"scoring_points"`
	NeedsReview   bool           `json:"needs_review"`
	GradedBy      string         `gorm:"size:32;not null" json:"graded_by"`
	GradedAt      time.Time      `json:"graded_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}
