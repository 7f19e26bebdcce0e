package models

import "time"

// Question is one free-text question of an exam, carrying the standard
// answer it is graded against and its maximum score.
type Question struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	ExamID         uint      `gorm:"not null;index" json:"exam_id"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	StandardAnswer string    `gorm:"type:text;not null" json:"standard_answer"`
	Score          float64   `gorm:"not null" json:"score"`
	Position       int       `json:"position"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
