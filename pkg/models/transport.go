package models

// AnalysisRequest carries exactly one image source: an inline data URI
// or a URL the server downloads.
type AnalysisRequest struct {
	Image string `json:"image,omitempty" binding:"required_without=URL,excluded_with=URL"`
	URL   string `json:"url,omitempty" binding:"omitempty,url"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Type    string `json:"type,omitempty"`
	RunID   string `json:"run_id,omitempty"`
}

// AnalysisResponse is the HTTP body for a finished analysis
type AnalysisResponse struct {
	AnalysisResult
	RunID             string   `json:"run_id"`
	Statuses          []string `json:"statuses"`
	ProcessingTimeSec float64  `json:"processing_time_sec"`
}
