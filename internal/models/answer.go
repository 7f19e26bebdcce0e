package models

import "time"

// Answer is one student's free-text answer to a question.
type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ExamID     uint      `gorm:"not null;index" json:"exam_id"`
	QuestionID uint      `gorm:"not null;index" json:"question_id"`
	StudentID  uint      `gorm:"not null;index" json:"student_id"`
	Content    string    `gorm:"type:text" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Question   Question  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"question,omitempty"`
	Student    Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student,omitempty"`
}
