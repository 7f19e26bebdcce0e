package ai

import (
	"regexp"
	"strings"
)

// JSONShape tells the extractor whether to look for an object or an array.
type JSONShape int

const (
	// ShapeObject expects a single {...} document (single-answer grading).
	ShapeObject JSONShape = iota
	// ShapeArray expects a [...] document (whole-exam grading).
	ShapeArray
)

var (
	fencedBlock  = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)\\s*```")
	widestObject = regexp.MustCompile(`(?s)\{.*\}`)
	widestArray  = regexp.MustCompile(`(?s)\[.*\]`)
)

// ExtractJSON narrows arbitrarily-formatted model output down to the span
// most likely to be the JSON document: a fenced code block first, then the
// widest brace or bracket span for the expected shape, then the raw text.
// Extraction never parses; it only narrows the search space, because models
// routinely wrap valid JSON in explanatory prose or partial markdown.
func ExtractJSON(raw string, shape JSONShape) string {
	trimmed := strings.TrimSpace(raw)

	if match := fencedBlock.FindStringSubmatch(trimmed); len(match) == 2 {
		return strings.TrimSpace(match[1])
	}

	span := widestObject
	if shape == ShapeArray {
		span = widestArray
	}
	if match := span.FindString(trimmed); match != "" {
		return match
	}

	return trimmed
}
