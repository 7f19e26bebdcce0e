package ai

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToGradingResultWellFormedPassesThroughUnchanged(t *testing.T) {
	payload := `{"score":10,"confidence":95,"feedback":"Correct","scoringPoints":[{"point":"arithmetic","status":"correct","comment":"matches"}]}`

	result, err := ToGradingResult([]byte(payload), 10)
	require.NoError(t, err)
	require.Equal(t, 10.0, result.Score)
	require.Equal(t, 95.0, result.Confidence)
	require.Equal(t, "Correct", result.Feedback)
	require.Len(t, result.ScoringPoints, 1)
	require.Equal(t, "arithmetic", result.ScoringPoints[0].Point)
	require.Equal(t, ScoringPointCorrect, result.ScoringPoints[0].Status)
	require.Equal(t, "matches", result.ScoringPoints[0].Comment)
}

func TestToGradingResultClampsScore(t *testing.T) {
	above := `{"score":12,"confidence":90,"feedback":"ok","scoringPoints":[]}`
	result, err := ToGradingResult([]byte(above), 10)
	require.NoError(t, err)
	require.Equal(t, 10.0, result.Score)

	wayAbove := `{"score":150,"confidence":90,"feedback":"ok","scoringPoints":[]}`
	result, err = ToGradingResult([]byte(wayAbove), 10)
	require.NoError(t, err)
	require.Equal(t, 10.0, result.Score)

	negative := `{"score":-3,"confidence":90,"feedback":"ok","scoringPoints":[]}`
	result, err = ToGradingResult([]byte(negative), 10)
	require.NoError(t, err)
	require.Equal(t, 0.0, result.Score)
}

func TestToGradingResultClampsConfidence(t *testing.T) {
	payload := `{"score":5,"confidence":130,"feedback":"ok","scoringPoints":[]}`
	result, err := ToGradingResult([]byte(payload), 10)
	require.NoError(t, err)
	require.Equal(t, 100.0, result.Confidence)

	payload = `{"score":5,"confidence":-1,"feedback":"ok","scoringPoints":[]}`
	result, err = ToGradingResult([]byte(payload), 10)
	require.NoError(t, err)
	require.Equal(t, 0.0, result.Confidence)
}

func TestToGradingResultMissingFields(t *testing.T) {
	cases := map[string]string{
		"score":         `{"confidence":90,"feedback":"ok","scoringPoints":[]}`,
		"confidence":    `{"score":5,"feedback":"ok","scoringPoints":[]}`,
		"feedback":      `{"score":5,"confidence":90,"scoringPoints":[]}`,
		"scoringPoints": `{"score":5,"confidence":90,"feedback":"ok"}`,
	}

	for field, payload := range cases {
		_, err := ToGradingResult([]byte(payload), 10)
		require.Error(t, err, "missing %s should be rejected", field)
		require.ErrorIs(t, err, ErrMalformedGrading)
	}
}

func TestToGradingResultWrongTypes(t *testing.T) {
	payload := `{"score":"ten","confidence":90,"feedback":"ok","scoringPoints":[]}`
	_, err := ToGradingResult([]byte(payload), 10)
	require.ErrorIs(t, err, ErrMalformedGrading)

	payload = `{"score":5,"confidence":90,"feedback":"ok","scoringPoints":"none"}`
	_, err = ToGradingResult([]byte(payload), 10)
	require.ErrorIs(t, err, ErrMalformedGrading)
}

func TestToGradingResultInvalidJSON(t *testing.T) {
	_, err := ToGradingResult([]byte(`{"score": oops}`), 10)
	require.ErrorIs(t, err, ErrMalformedGrading)
}

func TestToGradingResultNormalizesScoringPointStatus(t *testing.T) {
	payload := `{"score":5,"confidence":90,"feedback":"ok","scoringPoints":[
		{"point":"a","status":"Correct","comment":""},
		{"point":"b","status":"partial","comment":""},
		{"point":"c","status":"wrong","comment":""}
	]}`

	result, err := ToGradingResult([]byte(payload), 10)
	require.NoError(t, err)
	require.Equal(t, ScoringPointCorrect, result.ScoringPoints[0].Status)
	require.Equal(t, ScoringPointPartially, result.ScoringPoints[1].Status)
	require.Equal(t, ScoringPointIncorrect, result.ScoringPoints[2].Status)
}

func TestToExamResultsCorrelatesByQuestionID(t *testing.T) {
	payload := `[
		{"questionId":7,"score":4,"confidence":80,"feedback":"good","scoringPoints":[]},
		{"questionId":9,"score":11,"confidence":60,"feedback":"over","scoringPoints":[]}
	]`

	results, err := ToExamResults([]byte(payload), map[uint]float64{7: 5, 9: 10})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, 4.0, results[7].Score)
	require.Equal(t, 10.0, results[9].Score, "per-question max score should clamp")
}

func TestToExamResultsDropsUnknownQuestions(t *testing.T) {
	payload := `[{"questionId":99,"score":4,"confidence":80,"feedback":"?","scoringPoints":[]}]`

	results, err := ToExamResults([]byte(payload), map[uint]float64{7: 5})
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestToExamResultsMissingQuestionID(t *testing.T) {
	payload := `[{"score":4,"confidence":80,"feedback":"?","scoringPoints":[]}]`

	_, err := ToExamResults([]byte(payload), map[uint]float64{7: 5})
	require.ErrorIs(t, err, ErrMalformedGrading)
}
