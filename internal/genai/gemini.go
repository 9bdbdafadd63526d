package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var DefaultModels = []string{"gemini-1.5-pro", "gemini-1.5-flash", "gemini-pro"}

const (
	DefaultBaseURL          = "https://generativelanguage.googleapis.com"
	defaultAttemptsPerModel = 2
	defaultBackoff          = time.Second
	defaultRequestTimeout   = 30 * time.Second
	maxErrorBody            = 512
)

// ErrGenerationFailed is matched by every error a Generator returns when no
// usable text could be produced.
var ErrGenerationFailed = errors.New("generation failed")

// Generator produces free text for a prompt, optionally grounded on an image.
type Generator interface {
	Generate(ctx context.Context, prompt string, img *Image) (string, error)
}

// CascadeError collects every attempt made across the model list.
type CascadeError struct {
	Errs []error
}

func (e *CascadeError) Error() string {
	if len(e.Errs) == 0 {
		return ErrGenerationFailed.Error()
	}
	return fmt.Sprintf("%s after %d attempts: %v", ErrGenerationFailed, len(e.Errs), e.Errs[len(e.Errs)-1])
}

func (e *CascadeError) Is(target error) bool { return target == ErrGenerationFailed }

func (e *CascadeError) Unwrap() []error { return e.Errs }

// StatusError is a non-2xx reply from the generation endpoint.
type StatusError struct {
	Model  string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gemini %s: status %d: %s", e.Model, e.Status, e.Body)
}

type GeminiConfig struct {
	APIKey           string
	BaseURL          string
	Models           []string
	AttemptsPerModel int
	Backoff          time.Duration
	RequestTimeout   time.Duration
}

// GeminiClient tries each configured model in order, retrying a model before
// moving to the next, and returns the first non-empty text.
type GeminiClient struct {
	http     *resty.Client
	models   []string
	attempts int
	backoff  time.Duration
	log      *zap.Logger
	tracer   trace.Tracer
}

func NewGeminiClient(cfg GeminiConfig, log *zap.Logger) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if len(cfg.Models) == 0 {
		cfg.Models = DefaultModels
	}
	if cfg.AttemptsPerModel <= 0 {
		cfg.AttemptsPerModel = defaultAttemptsPerModel
	}
	if cfg.Backoff < 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("x-goog-api-key", cfg.APIKey)

	return &GeminiClient{
		http:     httpClient,
		models:   append([]string(nil), cfg.Models...),
		attempts: cfg.AttemptsPerModel,
		backoff:  cfg.Backoff,
		log:      log.Named("gemini"),
		tracer:   otel.Tracer("github.com/Skufu/healthtwin/internal/genai"),
	}, nil
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
	SafetySettings   []geminiSafetySetting  `json:"safetySettings"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (r *geminiResponse) text() string {
	if len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return r.Candidates[0].Content.Parts[0].Text
}

var safetyCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
}

func newGeminiRequest(prompt string, img *Image) geminiRequest {
	var parts []geminiPart
	if img != nil {
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{MimeType: img.MimeType, Data: img.base64()}})
	}
	parts = append(parts, geminiPart{Text: prompt})

	safety := make([]geminiSafetySetting, 0, len(safetyCategories))
	for _, c := range safetyCategories {
		safety = append(safety, geminiSafetySetting{Category: c, Threshold: "BLOCK_NONE"})
	}

	return geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.7,
			TopK:            40,
			TopP:            0.95,
			MaxOutputTokens: 2048,
		},
		SafetySettings: safety,
	}
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string, img *Image) (string, error) {
	ctx, span := c.tracer.Start(ctx, "genai.Generate", trace.WithAttributes(
		attribute.Bool("genai.has_image", img != nil),
		attribute.Int("genai.prompt_length", len(prompt)),
	))
	defer span.End()

	body := newGeminiRequest(prompt, img)
	cascade := &CascadeError{}

	for _, model := range c.models {
		for attempt := 1; attempt <= c.attempts; attempt++ {
			text, err := c.generateOnce(ctx, model, body)
			if err == nil {
				span.SetAttributes(attribute.String("genai.model", model), attribute.Int("genai.attempts", len(cascade.Errs)+1))
				return text, nil
			}
			cascade.Errs = append(cascade.Errs, err)
			c.log.Warn("generation attempt failed",
				zap.String("model", model),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)

			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", c.fail(span, cascade, ctxErr)
			}
			if attempt < c.attempts {
				if err := sleep(ctx, c.backoff*time.Duration(attempt)); err != nil {
					return "", c.fail(span, cascade, err)
				}
			}
		}
	}
	return "", c.fail(span, cascade, nil)
}

func (c *GeminiClient) fail(span trace.Span, cascade *CascadeError, cause error) error {
	if cause != nil {
		cascade.Errs = append(cascade.Errs, cause)
	}
	span.RecordError(cascade)
	span.SetStatus(codes.Error, "all models failed")
	return cascade
}

func (c *GeminiClient) generateOnce(ctx context.Context, model string, body geminiRequest) (string, error) {
	ctx, span := c.tracer.Start(ctx, "genai.generateContent", trace.WithAttributes(attribute.String("genai.model", model)))
	defer span.End()

	var out geminiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("model", model).
		SetBody(body).
		SetResult(&out).
		Post("/v1beta/models/{model}:generateContent")
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("gemini %s: %w", model, err)
	}
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode()))
	if resp.IsError() {
		return "", &StatusError{Model: model, Status: resp.StatusCode(), Body: truncate(resp.String(), maxErrorBody)}
	}

	text := out.text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini %s: empty response", model)
	}
	return text, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
