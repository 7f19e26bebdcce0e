package ai

import (
	"context"
	"errors"
	"time"
)

// Scoring point verdicts reported by the model for a single rubric criterion.
const (
	ScoringPointCorrect   = "correct"
	ScoringPointPartially = "partially"
	ScoringPointIncorrect = "incorrect"
)

// GradingRequest carries one (question, standard answer, candidate answer)
// triple to be graded against a maximum score.
type GradingRequest struct {
	Question        string
	StandardAnswer  string
	CandidateAnswer string
	MaxScore        float64
}

// ScoringPoint is one rubric criterion with a verdict and a comment.
type ScoringPoint struct {
	Point   string `json:"point"`
	Status  string `json:"status"`
	Comment string `json:"comment"`
}

// GradingResult is the canonical outcome of grading one answer.
// Score is clamped to [0, maxScore] and Confidence to [0, 100].
type GradingResult struct {
	Score         float64        `json:"score"`
	Confidence    float64        `json:"confidence"`
	Feedback      string         `json:"feedback"`
	ScoringPoints []ScoringPoint `json:"scoringPoints"`
}

// BatchGradingOutcome pairs a grading result with the student and question it
// belongs to. A batch run yields exactly one outcome per (student, question).
type BatchGradingOutcome struct {
	StudentID  uint          `json:"student_id"`
	QuestionID uint          `json:"question_id"`
	Result     GradingResult `json:"result"`
	Fallback   bool          `json:"fallback"`
}

// ExamQuestion is one gradable question of an exam.
type ExamQuestion struct {
	ID             uint
	Content        string
	StandardAnswer string
	MaxScore       float64
}

// StudentAnswer is one student's answer text for a question.
type StudentAnswer struct {
	QuestionID uint
	Content    string
}

// StudentSubmission groups the answers one student submitted for an exam.
type StudentSubmission struct {
	StudentID uint
	Answers   []StudentAnswer
}

// Sentinel errors surfaced by the grading pipeline.
var (
	// ErrGenerationFailed indicates the model endpoint could not produce a
	// response within the configured retry budget.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrNoChoices indicates the endpoint answered without any completion.
	ErrNoChoices = errors.New("no choices returned")

	// ErrMalformedGrading indicates valid JSON that does not match the
	// grading response shape.
	ErrMalformedGrading = errors.New("malformed grading response")

	// ErrRepairFailed indicates every repair pass left the text unparsable.
	ErrRepairFailed = errors.New("json repair failed")

	// ErrNoQuestions indicates a batch run was started without questions.
	ErrNoQuestions = errors.New("no questions to grade")
)

// ModelClient sends prompts to a text-generation endpoint and returns the raw
// completion text.
type ModelClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateWithImages(ctx context.Context, prompt string, imageURLs []string) (string, error)
}

// RetryPolicy controls automatic retries on transient generation failures.
// Tests inject zero-delay policies to avoid waiting on real timers.
type RetryPolicy struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	BackoffMultiplier float64
}

// DefaultRetryPolicy mirrors the reference tuning: three attempts with an
// exponential backoff starting at one second.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, BackoffMultiplier: 2}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 1
	}
	if p.BaseDelay < 0 {
		p.BaseDelay = 0
	}
	if p.BackoffMultiplier < 1 {
		p.BackoffMultiplier = 1
	}
	return p
}

// Delay returns the wait before the given attempt. Attempt 0 is the initial
// call and never waits.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	p = p.normalized()
	if attempt <= 0 {
		return 0
	}
	delay := p.BaseDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * p.BackoffMultiplier)
	}
	return delay
}

// BatchPolicy controls how a batch run is chunked and throttled. The
// reference tuning (chunk size 3, two-second delay) carries no documented
// rate-limit rationale, so both knobs stay configurable.
type BatchPolicy struct {
	ChunkSize  int
	ChunkDelay time.Duration
}

// DefaultBatchPolicy returns the reference chunking behaviour.
func DefaultBatchPolicy() BatchPolicy {
	return BatchPolicy{ChunkSize: 3, ChunkDelay: 2 * time.Second}
}

func (p BatchPolicy) normalized() BatchPolicy {
	if p.ChunkSize <= 0 {
		p.ChunkSize = 3
	}
	if p.ChunkDelay < 0 {
		p.ChunkDelay = 0
	}
	return p
}

// FallbackResult is substituted for a unit whose grading failed outright, so
// one bad answer never aborts a whole run.
func FallbackResult() GradingResult {
	return GradingResult{
		Score:         0,
		Confidence:    0,
		Feedback:      "Automatic grading failed for this answer; manual review is required.",
		ScoringPoints: []ScoringPoint{},
	}
}

// NoAnswerResult marks a question the student never answered.
func NoAnswerResult() GradingResult {
	return GradingResult{
		Score:         0,
		Confidence:    0,
		Feedback:      "No answer was submitted for this question.",
		ScoringPoints: []ScoringPoint{},
	}
}
