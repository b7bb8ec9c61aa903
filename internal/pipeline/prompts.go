package pipeline

// Instructions sent with the image to each provider operation.
const (
	QualityInstruction = "Analyze the quality of this chest CT scan image. Is it blurry, low-contrast, " +
		"or contain motion artifacts that would hinder diagnosis? Respond with only one word: " +
		"'YES' if it has quality issues, or 'NO' if it is clear."

	CorrectionInstruction = "This is a blurry / low-quality chest CT scan. Generate a new version of this " +
		"image that is de-blurred, with enhanced contrast and sharpness, suitable for medical diagnosis. " +
		"Do not add any text or artifacts. The output should be only the corrected image."

	DiagnosticInstruction = `You are a radiology assistant AI. Analyze the provided chest CT scan image. Provide a detailed analysis based on visible information. Structure your response in markdown format with the following sections:

### Overall Impression
(A brief summary of the findings.)

### Potential Pneumonia Indicators
(Detail any findings suggestive of pneumonia, such as consolidations, ground-glass opacities, or infiltrates. If none, state 'No clear indicators of pneumonia identified.')

### Potential COVID-19 Indicators
(Detail any findings commonly associated with COVID-19, such as bilateral, peripheral ground-glass opacities. If none, state 'No specific indicators of COVID-19 identified.')

### Image Quality & Technical Analysis
(Analyze the image for any defects. This includes, but is not limited to:
- **Patient Motion:** Mention any blurring or ghosting artifacts indicative of patient movement.
- **Technician Errors:** Comment on potential issues like incorrect patient positioning or centering.
- **Technical Parameters:** Assess if parameters like slice thickness, noise levels, or contrast seem appropriate for a diagnostic chest CT. Note any visible artifacts like beam hardening or streak artifacts. If the image quality is good, state that.)

**Disclaimer:** This is an AI-generated analysis and is for informational purposes only. It is not a substitute for a diagnosis by a qualified medical professional.`
)

// Answer tokens expected from the quality check.
const (
	AnswerDefect = "YES"
	AnswerClear  = "NO"
)
