package ai

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Grader runs the per-unit pipeline: prompt, generate, extract, parse,
// repair when needed, then validate and clamp.
type Grader struct {
	client   ModelClient
	repairer *Repairer
	tracer   trace.Tracer
	logger   zerolog.Logger
}

// NewGrader builds a grader on top of the given model client.
func NewGrader(client ModelClient, logger zerolog.Logger) *Grader {
	return &Grader{
		client:   client,
		repairer: NewRepairer(client, logger),
		tracer:   otel.Tracer("github.com/gradewise/gradewise-api/pkg/ai/grader"),
		logger:   logger.With().Str("component", "grader").Logger(),
	}
}

// GradeAnswer grades one candidate answer against its standard answer.
func (g *Grader) GradeAnswer(parent context.Context, req GradingRequest) (GradingResult, error) {
	ctx, span := g.tracer.Start(parent, "grader.answer")
	defer span.End()

	raw, err := g.client.Generate(ctx, BuildGradingPrompt(req))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingResult{}, err
	}

	candidate, err := g.parsable(ctx, raw, ShapeObject)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingResult{}, err
	}

	result, err := ToGradingResult([]byte(candidate), req.MaxScore)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return GradingResult{}, err
	}

	span.SetAttributes(
		attribute.Float64("grading.score", result.Score),
		attribute.Float64("grading.confidence", result.Confidence),
	)
	return result, nil
}

// GradeSubmission grades all of one student's answered questions in a single
// whole-exam model call and returns one outcome per answered question.
// Questions missing from the model's response fall back to the sentinel
// result rather than being omitted.
func (g *Grader) GradeSubmission(parent context.Context, questions []ExamQuestion, submission StudentSubmission) ([]BatchGradingOutcome, error) {
	ctx, span := g.tracer.Start(parent, "grader.submission", trace.WithAttributes(
		attribute.Int64("grading.student_id", int64(submission.StudentID)),
		attribute.Int("grading.answers", len(submission.Answers)),
	))
	defer span.End()

	answered := make(map[uint]struct{}, len(submission.Answers))
	for _, answer := range submission.Answers {
		answered[answer.QuestionID] = struct{}{}
	}

	maxScores := make(map[uint]float64, len(questions))
	for _, question := range questions {
		if _, ok := answered[question.ID]; ok {
			maxScores[question.ID] = question.MaxScore
		}
	}

	raw, err := g.client.Generate(ctx, BuildExamPrompt(questions, submission.Answers))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	candidate, err := g.parsable(ctx, raw, ShapeArray)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	results, err := ToExamResults([]byte(candidate), maxScores)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	outcomes := make([]BatchGradingOutcome, 0, len(submission.Answers))
	for _, answer := range submission.Answers {
		outcome := BatchGradingOutcome{
			StudentID:  submission.StudentID,
			QuestionID: answer.QuestionID,
		}
		if result, ok := results[answer.QuestionID]; ok {
			outcome.Result = result
		} else {
			g.logger.Warn().
				Uint("student_id", submission.StudentID).
				Uint("question_id", answer.QuestionID).
				Msg("question missing from whole-exam response, using fallback")
			outcome.Result = FallbackResult()
			outcome.Fallback = true
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// parsable returns a candidate JSON document extracted from raw model
// output, invoking the repair pipeline when the first extraction does not
// parse.
func (g *Grader) parsable(ctx context.Context, raw string, shape JSONShape) (string, error) {
	candidate := ExtractJSON(raw, shape)

	var probe json.RawMessage
	parseErr := json.Unmarshal([]byte(candidate), &probe)
	if parseErr == nil {
		return candidate, nil
	}

	g.logger.Warn().Err(parseErr).Msg("model response is not valid json, attempting repair")
	return g.repairer.Repair(ctx, candidate, parseErr, shape)
}
