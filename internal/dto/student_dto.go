package dto

import "github.com/gradewise/gradewise-api/internal/models"

// StudentCreateRequest describes the payload for registering a student.
type StudentCreateRequest struct {
	Name  string `json:"name" validate:"required,min=1,max=255"`
	Email string `json:"email" validate:"required,email"`
	Class string `json:"class"`
}

// StudentResponse serializes one student.
type StudentResponse struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Class string `json:"class"`
}

// NewStudentResponse converts a Student model into a DTO.
func NewStudentResponse(model models.Student) StudentResponse {
	return StudentResponse{
		ID:    model.ID,
		Name:  model.Name,
		Email: model.Email,
		Class: model.Class,
	}
}

// NewStudentResponseSlice converts a slice of students.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}
	return responses
}
