package models

// AnalysisResult is the outcome of one pipeline run.
// CorrectedImage is set if and only if IsBlurry is true.
type AnalysisResult struct {
	IsBlurry       bool    `json:"is_blurry"`
	CorrectedImage *string `json:"corrected_image"`
	Diagnosis      string  `json:"diagnosis"`
}

// ImageMetadata describes an image fetched from a remote source
type ImageMetadata struct {
	ContentType   string `json:"content_type"`
	ContentLength int64  `json:"content_length"`
	Source        string `json:"source"`
}
