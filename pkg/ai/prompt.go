package ai

import (
	"fmt"
	"strings"
)

// BuildGradingPrompt renders the single-answer grading instruction. The
// question, standard answer, and candidate answer are embedded verbatim and
// the response schema is spelled out so the model returns bare JSON.
func BuildGradingPrompt(req GradingRequest) string {
	builder := strings.Builder{}
	builder.WriteString("You are an experienced exam grader. Grade the student's answer against the standard answer.\n\n")
	builder.WriteString("## Question\n")
	builder.WriteString(req.Question)
	builder.WriteString("\n\n## Standard Answer\n")
	builder.WriteString(req.StandardAnswer)
	builder.WriteString("\n\n## Student Answer\n")
	builder.WriteString(req.CandidateAnswer)
	builder.WriteString(fmt.Sprintf("\n\n## Maximum Score\n%g\n\n", req.MaxScore))
	builder.WriteString("Respond with exactly one JSON object and nothing else. No prose, no markdown. Schema:\n")
	builder.WriteString(`{"score": <number between 0 and the maximum score>, "confidence": <number between 0 and 100>, "feedback": "<overall feedback for the student>", "scoringPoints": [{"point": "<rubric criterion>", "status": "correct" | "partially" | "incorrect", "comment": "<short justification>"}]}`)
	return builder.String()
}

// BuildExamPrompt renders the whole-exam instruction covering every question
// a student answered. Each pair carries the question's numeric identifier so
// the response array can be correlated back.
func BuildExamPrompt(questions []ExamQuestion, answers []StudentAnswer) string {
	byID := make(map[uint]string, len(answers))
	for _, answer := range answers {
		byID[answer.QuestionID] = answer.Content
	}

	builder := strings.Builder{}
	builder.WriteString("You are an experienced exam grader. Grade every answer below against its standard answer.\n")
	for _, question := range questions {
		content, ok := byID[question.ID]
		if !ok {
			continue
		}
		builder.WriteString(fmt.Sprintf("\n### Question %d (max score %g)\n", question.ID, question.MaxScore))
		builder.WriteString(question.Content)
		builder.WriteString("\n\nStandard answer:\n")
		builder.WriteString(question.StandardAnswer)
		builder.WriteString("\n\nStudent answer:\n")
		builder.WriteString(content)
		builder.WriteString("\n")
	}
	builder.WriteString("\nRespond with exactly one JSON array and nothing else. No prose, no markdown. One element per question:\n")
	builder.WriteString(`[{"questionId": <the numeric question identifier shown above>, "score": <number>, "confidence": <number between 0 and 100>, "feedback": "<feedback>", "scoringPoints": [{"point": "<criterion>", "status": "correct" | "partially" | "incorrect", "comment": "<comment>"}]}]`)
	return builder.String()
}

// BuildRepairPrompt asks the model to fix a broken JSON document, handing it
// the parser's error message for context.
func BuildRepairPrompt(broken, parserError string) string {
	builder := strings.Builder{}
	builder.WriteString("The following text was supposed to be a valid JSON document but fails to parse.\n\n")
	builder.WriteString("## Broken JSON\n")
	builder.WriteString(broken)
	builder.WriteString("\n\n## Parser Error\n")
	builder.WriteString(parserError)
	builder.WriteString("\n\nReturn only the corrected JSON document. Preserve all values. No commentary, no markdown fences.")
	return builder.String()
}

// BuildParseExamPrompt asks the model to extract questions, standard answers,
// and per-question scores from raw exam text. When the exam was submitted as
// photographs the text section may be empty and the images carry the content.
func BuildParseExamPrompt(fileText string) string {
	builder := strings.Builder{}
	builder.WriteString("Extract every question from the exam paper below, together with its standard answer and score.\n")
	if strings.TrimSpace(fileText) != "" {
		builder.WriteString("\n## Exam Content\n")
		builder.WriteString(fileText)
		builder.WriteString("\n")
	} else {
		builder.WriteString("\nThe exam content is provided as one or more images attached to this message.\n")
	}
	builder.WriteString("\nRespond with exactly one JSON object and nothing else. Schema:\n")
	builder.WriteString(`{"questions": [{"content": "<full question text>", "standardAnswer": "<reference answer>", "score": <number>}], "totalScore": <sum of all question scores>}`)
	return builder.String()
}
