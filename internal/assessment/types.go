package assessment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Skufu/healthtwin/internal/genai"
	"github.com/Skufu/healthtwin/internal/narrative"
	"github.com/Skufu/healthtwin/internal/risk"
)

const (
	Disclaimer = "This analysis is for informational purposes only and does not constitute medical advice. Always consult a qualified healthcare professional for medical concerns."

	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

var ErrNotFound = errors.New("analysis not found")

// Source records which path produced the narrative fields of a result.
type Source string

const (
	SourceAI    Source = "ai"
	SourceRules Source = "rules"
)

type AnalysisResult struct {
	ID              string       `json:"id,omitempty"`
	Scores          risk.Scores  `json:"scores"`
	AffectedRegion  string       `json:"affectedRegion"`
	Explanation     string       `json:"explanation"`
	Precautions     []string     `json:"precautions"`
	SeekHelpWhen    string       `json:"seekHelpWhen"`
	DoctorQuestions []string     `json:"doctorQuestions"`
	ImageAnalysis   *string      `json:"imageAnalysis"`
	Disclaimer      string       `json:"disclaimer"`
	Vitals          risk.Vitals  `json:"vitals"`
	Symptoms        []string     `json:"symptoms"`
	Timestamp       string       `json:"timestamp"`
	IntegrityHash   string       `json:"integrityHash"`
	Source          Source       `json:"source,omitempty"`
	Anomaly         risk.Anomaly `json:"anomaly"`
}

// Store persists analyses the caller consented to keep.
type Store interface {
	Save(ctx context.Context, r AnalysisResult) (string, error)
	List(ctx context.Context) ([]AnalysisResult, error)
	Get(ctx context.Context, id string) (AnalysisResult, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// VitalsInput is the wire form of a vitals reading. Every field is required;
// fractional rates and pressures are rounded to the nearest integer.
type VitalsInput struct {
	HeartRate   *float64 `json:"heartRate"`
	Systolic    *float64 `json:"systolic"`
	Diastolic   *float64 `json:"diastolic"`
	SpO2        *float64 `json:"spo2"`
	Temperature *float64 `json:"temperature"`
}

func (in *VitalsInput) resolve() (risk.Vitals, []string) {
	if in == nil {
		return risk.Vitals{}, []string{"vitals: required"}
	}

	var problems []string
	get := func(name string, p *float64) float64 {
		if p == nil {
			problems = append(problems, "vitals."+name+": required")
			return 0
		}
		return *p
	}
	// Integer vitals beyond int32 would wrap when converted.
	getInt := func(name string, p *float64) int {
		x := math.Round(get(name, p))
		if math.IsNaN(x) || math.Abs(x) > math.MaxInt32 {
			problems = append(problems, fmt.Sprintf("vitals.%s: out of range, got %g", name, *p))
			return 0
		}
		return int(x)
	}
	v := risk.Vitals{
		HeartRate:   getInt("heartRate", in.HeartRate),
		Systolic:    getInt("systolic", in.Systolic),
		Diastolic:   getInt("diastolic", in.Diastolic),
		SpO2:        get("spo2", in.SpO2),
		Temperature: get("temperature", in.Temperature),
	}
	if len(problems) > 0 {
		return v, problems
	}

	var verr *risk.ValidationError
	if err := v.Validate(); errors.As(err, &verr) {
		for _, f := range verr.Fields {
			problems = append(problems, "vitals."+f)
		}
	}
	return v, problems
}

type AnalyzeRequest struct {
	Vitals      *VitalsInput `json:"vitals"`
	Symptoms    []string     `json:"symptoms"`
	SaveConsent bool         `json:"saveConsent"`
	ImageData   string       `json:"imageData"`
}

type ChatMessage = genai.Turn

type ChatRequest struct {
	Message string                 `json:"message"`
	Context *narrative.ChatContext `json:"context"`
	History []ChatMessage          `json:"history"`
}

// ValidationError lists every problem found in a request.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields, "; "))
}
