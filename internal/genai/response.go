package genai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	leadingFence  = regexp.MustCompile("(?i)^```(?:json)?\\s*")
	trailingFence = regexp.MustCompile("\\s*```$")
)

// Analysis is the structured narrative the model is asked to return. Fields the
// model omitted or returned with the wrong type are left zero.
type Analysis struct {
	Explanation     string
	ImageAnalysis   *string
	Precautions     []string
	SeekHelpWhen    string
	DoctorQuestions []string
}

// CleanResponse strips Markdown code fences and isolates the first balanced
// JSON object in raw. Best effort: text without an object is returned trimmed.
func CleanResponse(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = leadingFence.ReplaceAllString(cleaned, "")
	cleaned = trailingFence.ReplaceAllString(cleaned, "")

	if obj, ok := firstObject(cleaned); ok {
		return obj
	}
	start, end := strings.Index(cleaned, "{"), strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		return cleaned[start : end+1]
	}
	return strings.TrimSpace(cleaned)
}

func firstObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// ParseAnalysis decodes a cleaned model response. It fails only when the text
// is not a JSON object; individual fields are decoded leniently.
func ParseAnalysis(cleaned string) (Analysis, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return Analysis{}, fmt.Errorf("decode analysis: %w", err)
	}
	if fields == nil {
		return Analysis{}, fmt.Errorf("decode analysis: not an object")
	}

	var a Analysis
	if v, ok := decodeField[string](fields, "explanation"); ok {
		a.Explanation = v
	}
	if v, ok := decodeField[string](fields, "seekHelpWhen"); ok {
		a.SeekHelpWhen = v
	}
	if v, ok := decodeField[[]string](fields, "precautions"); ok {
		a.Precautions = nonBlank(v)
	}
	if v, ok := decodeField[[]string](fields, "doctorQuestions"); ok {
		a.DoctorQuestions = nonBlank(v)
	}
	if v, ok := decodeField[string](fields, "imageAnalysis"); ok && strings.TrimSpace(v) != "" {
		a.ImageAnalysis = &v
	}
	return a, nil
}

// decodeField reports ok only when the whole value decodes; json.Unmarshal
// leaves partially filled slices behind on a type mismatch.
func decodeField[T any](fields map[string]json.RawMessage, key string) (T, bool) {
	var zero T
	raw, ok := fields[key]
	if !ok {
		return zero, false
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false
	}
	return v, true
}

// nonBlank drops empty entries and returns nil when none remain.
func nonBlank(items []string) []string {
	var out []string
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			out = append(out, item)
		}
	}
	return out
}
