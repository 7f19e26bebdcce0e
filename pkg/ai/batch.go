package ai

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SubmissionGrader grades one student's whole exam. Satisfied by *Grader;
// tests substitute doubles.
type SubmissionGrader interface {
	GradeSubmission(ctx context.Context, questions []ExamQuestion, submission StudentSubmission) ([]BatchGradingOutcome, error)
}

// BatchOrchestrator fans a set of student submissions out across the model
// endpoint: students are partitioned into fixed-size chunks, graded
// concurrently within a chunk, and a fixed delay separates chunks to stay
// under the endpoint's rate limit. A failed student yields fallback
// outcomes; the batch itself never aborts because of one student.
type BatchOrchestrator struct {
	grader SubmissionGrader
	policy BatchPolicy
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewBatchOrchestrator builds an orchestrator with the given chunking policy.
func NewBatchOrchestrator(grader SubmissionGrader, policy BatchPolicy, logger zerolog.Logger) *BatchOrchestrator {
	if policy == (BatchPolicy{}) {
		policy = DefaultBatchPolicy()
	}
	return &BatchOrchestrator{
		grader: grader,
		policy: policy.normalized(),
		tracer: otel.Tracer("github.com/gradewise/gradewise-api/pkg/ai/batch"),
		logger: logger.With().Str("component", "batch_orchestrator").Logger(),
	}
}

// GradeExam grades every submission against every question and returns
// exactly len(submissions) x len(questions) outcomes: graded results for
// answered questions, fallback sentinels for failed students, and
// no-answer sentinels for questions a student skipped. It returns an error
// only when there is nothing to grade.
func (o *BatchOrchestrator) GradeExam(parent context.Context, examID uint, questions []ExamQuestion, submissions []StudentSubmission) ([]BatchGradingOutcome, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	runID := uuid.NewString()
	ctx, span := o.tracer.Start(parent, "batch.grade_exam", trace.WithAttributes(
		attribute.String("batch.run_id", runID),
		attribute.Int64("batch.exam_id", int64(examID)),
		attribute.Int("batch.students", len(submissions)),
		attribute.Int("batch.questions", len(questions)),
	))
	defer span.End()

	logger := o.logger.With().Str("run_id", runID).Uint("exam_id", examID).Logger()
	logger.Info().
		Int("students", len(submissions)).
		Int("questions", len(questions)).
		Int("chunk_size", o.policy.ChunkSize).
		Msg("starting batch grading run")

	outcomes := make([]BatchGradingOutcome, 0, len(submissions)*len(questions))
	fallbacks := 0

	for start := 0; start < len(submissions); start += o.policy.ChunkSize {
		end := start + o.policy.ChunkSize
		if end > len(submissions) {
			end = len(submissions)
		}
		chunk := submissions[start:end]

		// All of a chunk's results are collected before the next chunk
		// starts, so chunk N's requests never overlap chunk N+1's.
		chunkOutcomes := make([][]BatchGradingOutcome, len(chunk))
		var wg sync.WaitGroup
		for i, submission := range chunk {
			wg.Add(1)
			go func(i int, submission StudentSubmission) {
				defer wg.Done()
				chunkOutcomes[i] = o.gradeStudent(ctx, logger, questions, submission)
			}(i, submission)
		}
		wg.Wait()

		for _, studentOutcomes := range chunkOutcomes {
			for _, outcome := range studentOutcomes {
				if outcome.Fallback {
					fallbacks++
				}
			}
			outcomes = append(outcomes, studentOutcomes...)
		}

		if end < len(submissions) {
			if err := waitFor(ctx, o.policy.ChunkDelay); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return outcomes, err
			}
		}
	}

	span.SetAttributes(
		attribute.Int("batch.outcomes", len(outcomes)),
		attribute.Int("batch.fallbacks", fallbacks),
	)
	logger.Info().
		Int("outcomes", len(outcomes)).
		Int("fallbacks", fallbacks).
		Msg("batch grading run finished")

	return outcomes, nil
}

// gradeStudent grades one submission and tops the result list up so the
// student contributes exactly one outcome per exam question.
func (o *BatchOrchestrator) gradeStudent(ctx context.Context, logger zerolog.Logger, questions []ExamQuestion, submission StudentSubmission) []BatchGradingOutcome {
	graded, err := o.grader.GradeSubmission(ctx, questions, submission)
	if err != nil {
		logger.Error().Err(err).
			Uint("student_id", submission.StudentID).
			Msg("grading failed for student, substituting fallback outcomes")
		return fallbackOutcomes(questions, submission.StudentID)
	}

	covered := make(map[uint]struct{}, len(graded))
	for _, outcome := range graded {
		covered[outcome.QuestionID] = struct{}{}
	}

	outcomes := graded
	for _, question := range questions {
		if _, ok := covered[question.ID]; ok {
			continue
		}
		outcomes = append(outcomes, BatchGradingOutcome{
			StudentID:  submission.StudentID,
			QuestionID: question.ID,
			Result:     NoAnswerResult(),
			Fallback:   true,
		})
	}

	return outcomes
}

func fallbackOutcomes(questions []ExamQuestion, studentID uint) []BatchGradingOutcome {
	outcomes := make([]BatchGradingOutcome, 0, len(questions))
	for _, question := range questions {
		outcomes = append(outcomes, BatchGradingOutcome{
			StudentID:  studentID,
			QuestionID: question.ID,
			Result:     FallbackResult(),
			Fallback:   true,
		})
	}
	return outcomes
}
