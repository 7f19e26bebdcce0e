package ai

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// scriptedClient returns canned responses in order and records every prompt.
type scriptedClient struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
	images    [][]string
}

func (c *scriptedClient) Generate(_ context.Context, prompt string) (string, error) {
	return c.next(prompt, nil)
}

func (c *scriptedClient) GenerateWithImages(_ context.Context, prompt string, imageURLs []string) (string, error) {
	return c.next(prompt, imageURLs)
}

func (c *scriptedClient) next(prompt string, imageURLs []string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.prompts = append(c.prompts, prompt)
	c.images = append(c.images, imageURLs)

	if c.err != nil {
		return "", c.err
	}
	if len(c.responses) == 0 {
		return "", errors.New("scripted client exhausted")
	}
	response := c.responses[0]
	c.responses = c.responses[1:]
	return response, nil
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestGraderGradeAnswerEndToEnd(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"score":10,"confidence":95,"feedback":"Correct","scoringPoints":[{"point":"arithmetic","status":"correct","comment":"matches"}]}`,
	}}
	grader := NewGrader(client, testLogger())

	result, err := grader.GradeAnswer(context.Background(), GradingRequest{
		Question:        "2+2=?",
		StandardAnswer:  "4",
		CandidateAnswer: "4",
		MaxScore:        10,
	})
	require.NoError(t, err)
	require.Equal(t, 10.0, result.Score)
	require.Equal(t, 95.0, result.Confidence)

	require.Len(t, client.prompts, 1)
	require.Contains(t, client.prompts[0], "2+2=?")
	require.Contains(t, client.prompts[0], "Standard Answer")
}

func TestGraderGradeAnswerClampsAboveMax(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"score":12,"confidence":95,"feedback":"Correct","scoringPoints":[]}`,
	}}
	grader := NewGrader(client, testLogger())

	result, err := grader.GradeAnswer(context.Background(), GradingRequest{
		Question: "2+2=?", StandardAnswer: "4", CandidateAnswer: "4", MaxScore: 10,
	})
	require.NoError(t, err)
	require.Equal(t, 10.0, result.Score)
}

func TestGraderGradeAnswerRecoversFencedResponse(t *testing.T) {
	client := &scriptedClient{responses: []string{
		"Sure, here is the grading:\n```json\n{\"score\":6,\"confidence\":70,\"feedback\":\"partial\",\"scoringPoints\":[]}\n```",
	}}
	grader := NewGrader(client, testLogger())

	result, err := grader.GradeAnswer(context.Background(), GradingRequest{MaxScore: 10})
	require.NoError(t, err)
	require.Equal(t, 6.0, result.Score)
}

func TestGraderGradeAnswerRepairsBrokenJSON(t *testing.T) {
	client := &scriptedClient{responses: []string{
		`{"score":6,"confidence":70,"feedback":"partial","scoringPoints":[],}`,
	}}
	grader := NewGrader(client, testLogger())

	// Trailing comma: the deterministic cleanup pass fixes it after the
	// model-assisted repair call (second scripted response) comes back empty.
	client.responses = append(client.responses, "not json either")

	result, err := grader.GradeAnswer(context.Background(), GradingRequest{MaxScore: 10})
	require.NoError(t, err)
	require.Equal(t, 6.0, result.Score)
	require.Len(t, client.prompts, 2, "expected one grading call and one repair call")
}

func TestGraderGradeAnswerGenerationFailure(t *testing.T) {
	client := &scriptedClient{err: ErrGenerationFailed}
	grader := NewGrader(client, testLogger())

	_, err := grader.GradeAnswer(context.Background(), GradingRequest{MaxScore: 10})
	require.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGraderGradeAnswerMalformedShape(t *testing.T) {
	client := &scriptedClient{responses: []string{`{"verdict":"pass"}`}}
	grader := NewGrader(client, testLogger())

	_, err := grader.GradeAnswer(context.Background(), GradingRequest{MaxScore: 10})
	require.ErrorIs(t, err, ErrMalformedGrading)
}

func TestGraderGradeSubmissionCorrelatesQuestions(t *testing.T) {
	client := &scriptedClient{responses: []string{`[
		{"questionId":1,"score":5,"confidence":90,"feedback":"good","scoringPoints":[]},
		{"questionId":2,"score":3,"confidence":80,"feedback":"partial","scoringPoints":[]}
	]`}}
	grader := NewGrader(client, testLogger())

	questions := []ExamQuestion{
		{ID: 1, Content: "Q1", StandardAnswer: "A1", MaxScore: 5},
		{ID: 2, Content: "Q2", StandardAnswer: "A2", MaxScore: 5},
	}
	submission := StudentSubmission{StudentID: 42, Answers: []StudentAnswer{
		{QuestionID: 1, Content: "answer one"},
		{QuestionID: 2, Content: "answer two"},
	}}

	outcomes, err := grader.GradeSubmission(context.Background(), questions, submission)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	require.Equal(t, uint(42), outcomes[0].StudentID)
	require.Equal(t, 5.0, outcomes[0].Result.Score)
	require.Equal(t, 3.0, outcomes[1].Result.Score)
	require.False(t, outcomes[0].Fallback)
}

func TestGraderGradeSubmissionFallsBackForMissingQuestion(t *testing.T) {
	client := &scriptedClient{responses: []string{`[
		{"questionId":1,"score":5,"confidence":90,"feedback":"good","scoringPoints":[]}
	]`}}
	grader := NewGrader(client, testLogger())

	questions := []ExamQuestion{
		{ID: 1, MaxScore: 5},
		{ID: 2, MaxScore: 5},
	}
	submission := StudentSubmission{StudentID: 42, Answers: []StudentAnswer{
		{QuestionID: 1, Content: "answer one"},
		{QuestionID: 2, Content: "answer two"},
	}}

	outcomes, err := grader.GradeSubmission(context.Background(), questions, submission)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	require.True(t, outcomes[1].Fallback)
	require.Equal(t, 0.0, outcomes[1].Result.Score)
	require.Equal(t, 0.0, outcomes[1].Result.Confidence)
}

func TestGraderGradeSubmissionPromptEnumeratesQuestionIDs(t *testing.T) {
	client := &scriptedClient{responses: []string{`[]`}}
	grader := NewGrader(client, testLogger())

	questions := []ExamQuestion{{ID: 7, Content: "Q7", StandardAnswer: "A7", MaxScore: 5}}
	submission := StudentSubmission{StudentID: 1, Answers: []StudentAnswer{{QuestionID: 7, Content: "my answer"}}}

	_, err := grader.GradeSubmission(context.Background(), questions, submission)
	require.NoError(t, err)
	require.Contains(t, client.prompts[0], "Question 7")
	require.Contains(t, client.prompts[0], "my answer")
}
