package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingGrader logs call start/end events so tests can observe chunk
// boundaries, and can be scripted to fail for some or all students.
type recordingGrader struct {
	mu      sync.Mutex
	events  []string
	fail    map[uint]bool
	failAll bool
}

func (g *recordingGrader) GradeSubmission(_ context.Context, questions []ExamQuestion, submission StudentSubmission) ([]BatchGradingOutcome, error) {
	g.record("start", submission.StudentID)
	defer g.record("end", submission.StudentID)

	if g.failAll || g.fail[submission.StudentID] {
		return nil, ErrGenerationFailed
	}

	outcomes := make([]BatchGradingOutcome, 0, len(submission.Answers))
	for _, answer := range submission.Answers {
		outcomes = append(outcomes, BatchGradingOutcome{
			StudentID:  submission.StudentID,
			QuestionID: answer.QuestionID,
			Result:     GradingResult{Score: 1, Confidence: 90, Feedback: "ok", ScoringPoints: []ScoringPoint{}},
		})
	}
	return outcomes, nil
}

func (g *recordingGrader) record(kind string, studentID uint) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, fmt.Sprintf("%s:%d", kind, studentID))
}

func makeSubmissions(students int, questions []ExamQuestion) []StudentSubmission {
	submissions := make([]StudentSubmission, 0, students)
	for i := 1; i <= students; i++ {
		answers := make([]StudentAnswer, 0, len(questions))
		for _, question := range questions {
			answers = append(answers, StudentAnswer{QuestionID: question.ID, Content: "answer"})
		}
		submissions = append(submissions, StudentSubmission{StudentID: uint(i), Answers: answers})
	}
	return submissions
}

func makeQuestions(n int) []ExamQuestion {
	questions := make([]ExamQuestion, 0, n)
	for i := 1; i <= n; i++ {
		questions = append(questions, ExamQuestion{ID: uint(i), Content: "Q", StandardAnswer: "A", MaxScore: 10})
	}
	return questions
}

func TestBatchOrchestratorNoQuestions(t *testing.T) {
	orchestrator := NewBatchOrchestrator(&recordingGrader{}, BatchPolicy{ChunkSize: 3}, testLogger())

	_, err := orchestrator.GradeExam(context.Background(), 1, nil, makeSubmissions(2, makeQuestions(1)))
	require.ErrorIs(t, err, ErrNoQuestions)
}

func TestBatchOrchestratorAlwaysReturnsNxQOutcomes(t *testing.T) {
	questions := makeQuestions(4)
	submissions := makeSubmissions(5, questions)
	grader := &recordingGrader{failAll: true}
	orchestrator := NewBatchOrchestrator(grader, BatchPolicy{ChunkSize: 3}, testLogger())

	outcomes, err := orchestrator.GradeExam(context.Background(), 1, questions, submissions)
	require.NoError(t, err, "per-student failures must not abort the batch")
	require.Len(t, outcomes, 5*4)

	for _, outcome := range outcomes {
		require.True(t, outcome.Fallback)
		require.Equal(t, 0.0, outcome.Result.Score)
		require.Equal(t, 0.0, outcome.Result.Confidence)
		require.NotEmpty(t, outcome.Result.Feedback)
	}
}

func TestBatchOrchestratorPartialFailureKeepsOtherStudents(t *testing.T) {
	questions := makeQuestions(2)
	submissions := makeSubmissions(3, questions)
	grader := &recordingGrader{fail: map[uint]bool{2: true}}
	orchestrator := NewBatchOrchestrator(grader, BatchPolicy{ChunkSize: 3}, testLogger())

	outcomes, err := orchestrator.GradeExam(context.Background(), 1, questions, submissions)
	require.NoError(t, err)
	require.Len(t, outcomes, 6)

	byStudent := make(map[uint][]BatchGradingOutcome)
	for _, outcome := range outcomes {
		byStudent[outcome.StudentID] = append(byStudent[outcome.StudentID], outcome)
	}
	for _, outcome := range byStudent[1] {
		require.False(t, outcome.Fallback)
		require.Equal(t, 1.0, outcome.Result.Score)
	}
	for _, outcome := range byStudent[2] {
		require.True(t, outcome.Fallback)
	}
}

func TestBatchOrchestratorChunksOf3With7Students(t *testing.T) {
	questions := makeQuestions(1)
	submissions := makeSubmissions(7, questions)
	grader := &recordingGrader{}
	orchestrator := NewBatchOrchestrator(grader, BatchPolicy{ChunkSize: 3, ChunkDelay: 0}, testLogger())

	outcomes, err := orchestrator.GradeExam(context.Background(), 1, questions, submissions)
	require.NoError(t, err)
	require.Len(t, outcomes, 7)

	// Chunks of (1,2,3), (4,5,6), (7): every call of a later chunk must
	// start after every call of the earlier chunk has ended.
	position := make(map[string]int, len(grader.events))
	for i, event := range grader.events {
		position[event] = i
	}

	chunks := [][]uint{{1, 2, 3}, {4, 5, 6}, {7}}
	for i := 1; i < len(chunks); i++ {
		for _, later := range chunks[i] {
			for _, earlier := range chunks[i-1] {
				require.Greater(t,
					position[fmt.Sprintf("start:%d", later)],
					position[fmt.Sprintf("end:%d", earlier)],
					"student %d must not start before student %d finished", later, earlier)
			}
		}
	}
}

func TestBatchOrchestratorTopsUpUnansweredQuestions(t *testing.T) {
	questions := makeQuestions(3)
	// Student answered only question 1.
	submissions := []StudentSubmission{{
		StudentID: 1,
		Answers:   []StudentAnswer{{QuestionID: 1, Content: "answer"}},
	}}
	orchestrator := NewBatchOrchestrator(&recordingGrader{}, BatchPolicy{ChunkSize: 3}, testLogger())

	outcomes, err := orchestrator.GradeExam(context.Background(), 1, questions, submissions)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	seen := make(map[uint]BatchGradingOutcome)
	for _, outcome := range outcomes {
		seen[outcome.QuestionID] = outcome
	}
	require.False(t, seen[1].Fallback)
	require.True(t, seen[2].Fallback)
	require.True(t, seen[3].Fallback)
}

func TestBatchOrchestratorContextCancelledBetweenChunks(t *testing.T) {
	questions := makeQuestions(1)
	submissions := makeSubmissions(6, questions)
	grader := &recordingGrader{}
	orchestrator := NewBatchOrchestrator(grader, BatchPolicy{ChunkSize: 3, ChunkDelay: 1}, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcomes, err := orchestrator.GradeExam(ctx, 1, questions, submissions)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
	require.Len(t, outcomes, 3, "first chunk's outcomes are still returned")
}
