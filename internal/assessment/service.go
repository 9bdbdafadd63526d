package assessment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Skufu/healthtwin/internal/genai"
	"github.com/Skufu/healthtwin/internal/integrity"
	"github.com/Skufu/healthtwin/internal/narrative"
	"github.com/Skufu/healthtwin/internal/risk"
)

const (
	defaultDeadline = 25 * time.Second

	// Raw model text longer than this is shown as the explanation when it
	// cannot be parsed.
	minExcerptLength = 50
	maxExcerptLength = 500
)

// Observer receives outcome events for metrics.
type Observer interface {
	AnalysisCompleted(source Source, region string, anomaly bool)
	GenerationFailed(reason string)
	ChainAppended(length int)
}

type nopObserver struct{}

func (nopObserver) AnalysisCompleted(Source, string, bool) {}
func (nopObserver) GenerationFailed(string)                {}
func (nopObserver) ChainAppended(int)                      {}

type Service struct {
	chain     *integrity.Chain
	store     Store
	generator genai.Generator
	deadline  time.Duration
	now       func() time.Time
	log       *zap.Logger
	observer  Observer
}

type Option func(*Service)

// WithGenerator enables AI narration. Without it every result comes from the
// rule-based narrative.
func WithGenerator(g genai.Generator) Option {
	return func(s *Service) { s.generator = g }
}

// WithDeadline bounds the whole generation cascade of one request.
func WithDeadline(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.deadline = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

func NewService(chain *integrity.Chain, store Store, opts ...Option) *Service {
	s := &Service{
		chain:    chain,
		store:    store,
		deadline: defaultDeadline,
		now:      time.Now,
		log:      zap.NewNop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) AIEnabled() bool {
	return s.generator != nil
}

// Analyze scores the request, narrates the scores, fingerprints the result in
// the integrity chain and stores it when the caller consented. Generation
// problems never fail the request.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (AnalysisResult, error) {
	vitals, problems := req.Vitals.resolve()

	var img *genai.Image
	if req.ImageData != "" {
		parsed, err := genai.ParseDataURL(req.ImageData)
		if err != nil {
			problems = append(problems, "imageData: "+err.Error())
		}
		img = parsed
	}
	if len(problems) > 0 {
		return AnalysisResult{}, &ValidationError{Fields: problems}
	}

	symptoms := risk.NewSymptomSet(req.Symptoms)
	scores := risk.Score(vitals, symptoms)
	content, imageAnalysis, source := s.narrate(ctx, vitals, symptoms, scores, img)

	result := AnalysisResult{
		Scores:          scores,
		AffectedRegion:  risk.AffectedRegion(scores),
		Explanation:     content.Explanation,
		Precautions:     content.Precautions,
		SeekHelpWhen:    content.SeekHelpWhen,
		DoctorQuestions: content.DoctorQuestions,
		ImageAnalysis:   imageAnalysis,
		Disclaimer:      Disclaimer,
		Vitals:          vitals,
		Symptoms:        symptoms.Strings(),
		Timestamp:       s.now().UTC().Format(TimestampLayout),
		Source:          source,
		Anomaly:         risk.DetectAnomalies(vitals),
	}

	hash, err := s.chain.Append(result)
	if err != nil {
		return AnalysisResult{}, fmt.Errorf("fingerprint analysis: %w", err)
	}
	result.IntegrityHash = hash
	s.observer.ChainAppended(s.chain.Len())

	if req.SaveConsent {
		id, err := s.store.Save(ctx, result)
		if err != nil {
			s.log.Error("analysis fingerprinted but not saved",
				zap.String("integrity_hash", hash),
				zap.Int("block_index", s.chain.Len()-1),
				zap.Error(err),
			)
			return AnalysisResult{}, fmt.Errorf("save analysis: %w", err)
		}
		result.ID = id
	}

	s.observer.AnalysisCompleted(source, result.AffectedRegion, result.Anomaly.IsAnomaly)
	s.log.Info("analysis completed",
		zap.String("source", string(source)),
		zap.String("region", result.AffectedRegion),
		zap.Int("max_score", scores.Max()),
		zap.Bool("anomaly", result.Anomaly.IsAnomaly),
		zap.Bool("saved", result.ID != ""),
	)
	return result, nil
}

func (s *Service) narrate(ctx context.Context, v risk.Vitals, symptoms risk.SymptomSet, scores risk.Scores, img *genai.Image) (narrative.Content, *string, Source) {
	fallback := narrative.Generate(scores, v, symptoms)
	if s.generator == nil {
		return fallback, nil, SourceRules
	}

	ctx, cancel := context.WithTimeout(ctx, s.deadline)
	defer cancel()

	prompt := genai.BuildAnalysisPrompt(v, symptoms.Strings(), scores, img != nil)
	raw, err := s.generator.Generate(ctx, prompt, img)
	if err != nil {
		s.observer.GenerationFailed(failureReason(err))
		s.log.Warn("generation failed, using rule-based narrative", zap.Error(err))
		return fallback, nil, SourceRules
	}

	parsed, err := genai.ParseAnalysis(genai.CleanResponse(raw))
	if err != nil {
		s.observer.GenerationFailed("unparseable")
		s.log.Warn("unparseable generation output, using rule-based narrative", zap.Error(err))
		if excerpt, ok := excerptOf(raw); ok {
			fallback.Explanation = excerpt
		}
		return fallback, nil, SourceRules
	}

	merged := fallback
	if parsed.Explanation != "" {
		merged.Explanation = parsed.Explanation
	}
	if parsed.Precautions != nil {
		merged.Precautions = parsed.Precautions
	}
	if parsed.SeekHelpWhen != "" {
		merged.SeekHelpWhen = parsed.SeekHelpWhen
	}
	if parsed.DoctorQuestions != nil {
		merged.DoctorQuestions = parsed.DoctorQuestions
	}
	return merged, parsed.ImageAnalysis, SourceAI
}

func excerptOf(raw string) (string, bool) {
	runes := []rune(raw)
	if len(runes) <= minExcerptLength {
		return "", false
	}
	if len(runes) > maxExcerptLength {
		runes = runes[:maxExcerptLength]
	}
	return string(runes) + "...", true
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unavailable"
	}
}

// Chat answers a free-text question, grounded on the caller's latest
// analysis when one is supplied. It falls back to the keyword knowledge base
// whenever generation is disabled or fails.
func (s *Service) Chat(ctx context.Context, req ChatRequest) (string, Source, error) {
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return "", "", &ValidationError{Fields: []string{"message: required"}}
	}

	if s.generator != nil {
		ctx, cancel := context.WithTimeout(ctx, s.deadline)
		defer cancel()

		reply, err := s.generator.Generate(ctx, genai.BuildChatPrompt(message, req.Context, req.History), nil)
		if err == nil && strings.TrimSpace(reply) != "" {
			return strings.TrimSpace(reply), SourceAI, nil
		}
		if err == nil {
			err = errors.New("empty reply")
		}
		s.observer.GenerationFailed(failureReason(err))
		s.log.Warn("chat generation failed, using knowledge base", zap.Error(err))
	}
	return narrative.ChatReply(message, req.Context), SourceRules, nil
}
