package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "ct-scan-inspector/internal/errors"
	"ct-scan-inspector/internal/payload"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Model identifiers are fixed per operation.
const (
	ClassifyModel       = "gemini-2.5-flash"
	TransformImageModel = "gemini-2.5-flash-image"
	GenerateTextModel   = "gemini-2.5-pro"
)

// Engine implements provider.Provider on the Gemini API.
type Engine struct {
	client *genai.Client
	log    *logrus.Logger
}

// New builds a Gemini-backed provider. The API key is required.
func New(ctx context.Context, apiKey string, log *logrus.Logger) (*Engine, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Engine{client: cl, log: log}, nil
}

// Name identifies the backend in logs.
func (e *Engine) Name() string { return "gemini" }

// Classify sends the image with a short-answer instruction at temperature 0.
func (e *Engine) Classify(ctx context.Context, img payload.ImagePayload, instruction string) (string, error) {
	m := e.client.GenerativeModel(ClassifyModel)
	m.SetTemperature(0)

	resp, err := e.generate(ctx, m, ClassifyModel, "classify", img, instruction)
	if err != nil {
		return "", err
	}
	return candidateText(resp), nil
}

// TransformImage returns the first inline image of the first candidate, or
// nil when the model answered without one.
func (e *Engine) TransformImage(ctx context.Context, img payload.ImagePayload, instruction string) (*payload.ImagePayload, error) {
	m := e.client.GenerativeModel(TransformImageModel)

	resp, err := e.generate(ctx, m, TransformImageModel, "transform_image", img, instruction)
	if err != nil {
		return nil, err
	}
	return e.transformedImage(resp), nil
}

// maxLoggedReply caps the model prose kept in the missing-image warning
const maxLoggedReply = 200

func (e *Engine) transformedImage(resp *genai.GenerateContentResponse) *payload.ImagePayload {
	if out := candidateImage(resp); out != nil {
		return out
	}
	reply := strings.TrimSpace(candidateText(resp))
	if len(reply) > maxLoggedReply {
		reply = reply[:maxLoggedReply] + "..."
	}
	fields := logrus.Fields{
		"provider": e.Name(),
		"model":    TransformImageModel,
		"reply":    reply,
	}
	if c := firstCandidate(resp); c != nil {
		fields["finish_reason"] = fmt.Sprint(c.FinishReason)
	}
	e.log.WithFields(fields).Warn("Image model returned no image part")
	return nil
}

// GenerateText returns the concatenated text parts of the first candidate.
func (e *Engine) GenerateText(ctx context.Context, img payload.ImagePayload, instruction string) (string, error) {
	m := e.client.GenerativeModel(GenerateTextModel)

	resp, err := e.generate(ctx, m, GenerateTextModel, "generate_text", img, instruction)
	if err != nil {
		return "", err
	}
	return candidateText(resp), nil
}

// Close releases the underlying client.
func (e *Engine) Close() error {
	return e.client.Close()
}

func (e *Engine) generate(ctx context.Context, m *genai.GenerativeModel, model, op string, img payload.ImagePayload, instruction string) (*genai.GenerateContentResponse, error) {
	data, err := img.Decode()
	if err != nil {
		return nil, apperrors.NewMalformedInputError("image data is not valid base64")
	}

	start := time.Now()
	resp, err := m.GenerateContent(ctx,
		&genai.Blob{MIMEType: img.MediaType, Data: data},
		genai.Text(instruction),
	)
	fields := logrus.Fields{
		"provider":    e.Name(),
		"operation":   op,
		"model":       model,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		e.log.WithError(err).WithFields(fields).Debug("Provider call failed")
		return nil, wrapError(err)
	}
	if resp.UsageMetadata != nil {
		fields["total_tokens"] = resp.UsageMetadata.TotalTokenCount
	}
	e.log.WithFields(fields).Debug("Provider call completed")
	return resp, nil
}

// wrapError marks API and transport failures as provider errors. Context
// errors stay untouched so callers can tell their own deadline apart.
func wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	status := 0
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		status = gerr.Code
	}
	return apperrors.NewProviderError(err, status)
}

func firstCandidate(resp *genai.GenerateContentResponse) *genai.Candidate {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return nil
	}
	return c
}

func candidateText(resp *genai.GenerateContentResponse) string {
	c := firstCandidate(resp)
	if c == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range c.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

func candidateImage(resp *genai.GenerateContentResponse) *payload.ImagePayload {
	c := firstCandidate(resp)
	if c == nil {
		return nil
	}
	for _, p := range c.Content.Parts {
		blob, ok := p.(genai.Blob)
		if !ok {
			if ptr, isPtr := p.(*genai.Blob); isPtr && ptr != nil {
				blob, ok = *ptr, true
			}
		}
		if ok && len(blob.Data) > 0 && strings.HasPrefix(blob.MIMEType, "image/") {
			out := payload.FromBytes(blob.MIMEType, blob.Data)
			return &out
		}
	}
	return nil
}
