package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/gradewise/gradewise-api/internal/dto"
	"github.com/gradewise/gradewise-api/internal/models"
	"github.com/gradewise/gradewise-api/internal/repository"
)

// ErrStudentNotFound indicates the referenced student is not registered.
var ErrStudentNotFound = errors.New("student not found")

// StudentService covers student registration and listing.
type StudentService interface {
	Register(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	List(ctx context.Context) ([]dto.StudentResponse, error)
}

type studentService struct {
	students  repository.StudentRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewStudentService constructs a StudentService instance.
func NewStudentService(studentRepo repository.StudentRepository, validate *validator.Validate, logger zerolog.Logger) StudentService {
	return &studentService{
		students:  studentRepo,
		validator: validate,
		logger:    logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) Register(ctx context.Context, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	student := models.Student{
		Name:  payload.Name,
		Email: payload.Email,
		Class: payload.Class,
	}
	if err := s.students.Create(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) List(ctx context.Context) ([]dto.StudentResponse, error) {
	students, err := s.students.List(ctx)
	if err != nil {
		return nil, err
	}
	return dto.NewStudentResponseSlice(students), nil
}
