package dto

// ParseExamRequest is the payload for extracting questions from an uploaded
// exam paper. Either FileContent (extracted text) or Images (photographs)
// must be present; the caller supplies its own model API key.
type ParseExamRequest struct {
	FileContent string   `json:"fileContent"`
	Images      []string `json:"images"`
	APIKey      string   `json:"apiKey" validate:"required"`
	Model       string   `json:"model"`
}

// ParsedQuestion is one question extracted from an exam paper.
type ParsedQuestion struct {
	Content        string  `json:"content"`
	StandardAnswer string  `json:"standardAnswer"`
	Score          float64 `json:"score"`
}

// ParseExamResponse mirrors the external contract of the parse endpoint:
// fields sit at the top level rather than inside the usual data envelope.
type ParseExamResponse struct {
	Success    bool             `json:"success"`
	Questions  []ParsedQuestion `json:"questions,omitempty"`
	TotalScore float64          `json:"totalScore,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// RepairJSONRequest is the payload for the standalone JSON repair endpoint.
type RepairJSONRequest struct {
	BrokenJSON   string `json:"brokenJson" validate:"required"`
	ErrorMessage string `json:"errorMessage"`
	APIKey       string `json:"apiKey" validate:"required"`
	Model        string `json:"model"`
}

// RepairJSONResponse mirrors the external contract of the repair endpoint.
type RepairJSONResponse struct {
	Success   bool   `json:"success"`
	FixedJSON string `json:"fixedJson,omitempty"`
	Error     string `json:"error,omitempty"`
}
