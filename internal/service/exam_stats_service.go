package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/gradewise/gradewise-api/internal/dto"
	"github.com/gradewise/gradewise-api/internal/models"
	"github.com/gradewise/gradewise-api/internal/repository"
)

// ExamStatsService aggregates grading results per exam, cached in Redis so
// dashboards do not hammer the grades table.
type ExamStatsService interface {
	Stats(ctx context.Context, examID uint) (dto.ExamStatsResponse, error)
	Invalidate(ctx context.Context, examID uint)
}

type examStatsService struct {
	exams  repository.ExamRepository
	grades repository.GradeRepository
	cache  *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewExamStatsService constructs the stats service. A nil cache disables
// caching entirely, which tests rely on.
func NewExamStatsService(examRepo repository.ExamRepository, gradeRepo repository.GradeRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) ExamStatsService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &examStatsService{
		exams:  examRepo,
		grades: gradeRepo,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "exam_stats_service").Logger(),
	}
}

func statsCacheKey(examID uint) string {
	return fmt.Sprintf("gradewise:exam_stats:%d", examID)
}

func (s *examStatsService) Stats(ctx context.Context, examID uint) (dto.ExamStatsResponse, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, statsCacheKey(examID)).Result()
		if err == nil {
			var stats dto.ExamStatsResponse
			if json.Unmarshal([]byte(cached), &stats) == nil {
				return stats, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Uint("exam_id", examID).Msg("stats cache read failed")
		}
	}

	if _, err := s.exams.GetByID(ctx, examID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamStatsResponse{}, ErrExamNotFound
		}
		return dto.ExamStatsResponse{}, err
	}

	grades, err := s.grades.ListByExam(ctx, examID)
	if err != nil {
		return dto.ExamStatsResponse{}, err
	}

	stats := computeStats(examID, grades)

	if s.cache != nil {
		if payload, err := json.Marshal(stats); err == nil {
			if err := s.cache.Set(ctx, statsCacheKey(examID), payload, s.ttl).Err(); err != nil {
				s.logger.Warn().Err(err).Uint("exam_id", examID).Msg("stats cache write failed")
			}
		}
	}

	return stats, nil
}

func (s *examStatsService) Invalidate(ctx context.Context, examID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, statsCacheKey(examID)).Err(); err != nil {
		s.logger.Warn().Err(err).Uint("exam_id", examID).Msg("stats cache invalidation failed")
	}
}

func computeStats(examID uint, grades []models.Grade) dto.ExamStatsResponse {
	stats := dto.ExamStatsResponse{ExamID: examID, GradedUnits: len(grades)}
	if len(grades) == 0 {
		return stats
	}

	total := 0.0
	for _, grade := range grades {
		total += grade.Score
		if grade.AIConfidence != nil && *grade.AIConfidence < reviewConfidenceThreshold {
			stats.LowConfidence++
		}
		if grade.NeedsReview {
			stats.NeedsReview++
		}
		if grade.GradedBy == models.GradedByTeacher {
			stats.TeacherGraded++
		}
	}
	stats.AverageScore = total / float64(len(grades))

	return stats
}
