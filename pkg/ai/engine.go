package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

type rawScoringPoint struct {
	Point   *string `json:"point"`
	Status  *string `json:"status"`
	Comment *string `json:"comment"`
}

type rawGradingPayload struct {
	Score         *float64          `json:"score"`
	Confidence    *float64          `json:"confidence"`
	Feedback      *string           `json:"feedback"`
	ScoringPoints []rawScoringPoint `json:"scoringPoints"`
}

type rawExamItem struct {
	QuestionID *uint `json:"questionId"`
	rawGradingPayload
}

// ToGradingResult validates a parsed single-answer response and converts it
// into a canonical GradingResult. Missing or mistyped fields are rejected as
// ErrMalformedGrading; out-of-range numbers are clamped, never rejected,
// since the model's numeric judgment is advisory.
func ToGradingResult(data []byte, maxScore float64) (GradingResult, error) {
	var payload rawGradingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return GradingResult{}, fmt.Errorf("%w: %v", ErrMalformedGrading, err)
	}

	return buildResult(payload, maxScore)
}

// ToExamResults validates a whole-exam response array and returns results
// keyed by question identifier. Items referencing unknown questions are
// dropped; items with a malformed body fail the whole response.
func ToExamResults(data []byte, maxScores map[uint]float64) (map[uint]GradingResult, error) {
	var items []rawExamItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGrading, err)
	}

	results := make(map[uint]GradingResult, len(items))
	for i, item := range items {
		if item.QuestionID == nil {
			return nil, fmt.Errorf("%w: item %d is missing questionId", ErrMalformedGrading, i)
		}
		maxScore, ok := maxScores[*item.QuestionID]
		if !ok {
			continue
		}
		result, err := buildResult(item.rawGradingPayload, maxScore)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", *item.QuestionID, err)
		}
		results[*item.QuestionID] = result
	}

	return results, nil
}

func buildResult(payload rawGradingPayload, maxScore float64) (GradingResult, error) {
	switch {
	case payload.Score == nil:
		return GradingResult{}, fmt.Errorf("%w: missing score", ErrMalformedGrading)
	case payload.Confidence == nil:
		return GradingResult{}, fmt.Errorf("%w: missing confidence", ErrMalformedGrading)
	case payload.Feedback == nil:
		return GradingResult{}, fmt.Errorf("%w: missing feedback", ErrMalformedGrading)
	case payload.ScoringPoints == nil:
		return GradingResult{}, fmt.Errorf("%w: missing scoringPoints", ErrMalformedGrading)
	}

	points := make([]ScoringPoint, 0, len(payload.ScoringPoints))
	for i, raw := range payload.ScoringPoints {
		if raw.Point == nil || raw.Status == nil {
			return GradingResult{}, fmt.Errorf("%w: scoring point %d is incomplete", ErrMalformedGrading, i)
		}
		point := ScoringPoint{
			Point:  *raw.Point,
			Status: normalizeStatus(*raw.Status),
		}
		if raw.Comment != nil {
			point.Comment = *raw.Comment
		}
		points = append(points, point)
	}

	return GradingResult{
		Score:         clamp(*payload.Score, 0, maxScore),
		Confidence:    clamp(*payload.Confidence, 0, 100),
		Feedback:      *payload.Feedback,
		ScoringPoints: points,
	}, nil
}

func normalizeStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case ScoringPointCorrect:
		return ScoringPointCorrect
	case ScoringPointPartially, "partial", "partially_correct":
		return ScoringPointPartially
	default:
		return ScoringPointIncorrect
	}
}

func clamp(value, low, high float64) float64 {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
