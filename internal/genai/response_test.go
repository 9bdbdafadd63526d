package genai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skufu/healthtwin/internal/narrative"
	"github.com/Skufu/healthtwin/internal/risk"
)

func TestCleanResponse(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"fenced json", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence upper", "```JSON {\"a\":1}```", `{"a":1}`},
		{"prose around", "Sure! Here you go: {\"a\":{\"b\":2}} hope it helps {x}", `{"a":{"b":2}}`},
		{"braces inside strings", `{"a":"}{"} trailing`, `{"a":"}{"}`},
		{"escaped quote", `{"a":"say \"}\""}`, `{"a":"say \"}\""}`},
		{"no object", "  just text  ", "just text"},
		{"unbalanced", `{"a":1 }} {`, `{"a":1 }`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, CleanResponse(tc.raw))
		})
	}
}

func TestParseAnalysis(t *testing.T) {
	a, err := ParseAnalysis(`{
		"explanation": "All good.",
		"imageAnalysis": "Clear scan.",
		"precautions": ["rest", "hydrate"],
		"seekHelpWhen": "If worse.",
		"doctorQuestions": ["Why?"]
	}`)
	require.NoError(t, err)
	require.Equal(t, "All good.", a.Explanation)
	require.NotNil(t, a.ImageAnalysis)
	require.Equal(t, "Clear scan.", *a.ImageAnalysis)
	require.Equal(t, []string{"rest", "hydrate"}, a.Precautions)
	require.Equal(t, "If worse.", a.SeekHelpWhen)
	require.Equal(t, []string{"Why?"}, a.DoctorQuestions)
}

func TestParseAnalysis_Lenient(t *testing.T) {
	a, err := ParseAnalysis(`{"explanation": 12, "imageAnalysis": null, "precautions": "rest", "seekHelpWhen": "Now."}`)
	require.NoError(t, err)
	require.Empty(t, a.Explanation)
	require.Nil(t, a.ImageAnalysis)
	require.Nil(t, a.Precautions)
	require.Equal(t, "Now.", a.SeekHelpWhen)
	require.Nil(t, a.DoctorQuestions)
}

func TestParseAnalysis_MixedArraysFallBack(t *testing.T) {
	a, err := ParseAnalysis(`{
		"precautions": ["drink water", 5, null],
		"doctorQuestions": ["Is this serious?", "  ", ""],
		"explanation": "Elevated heart rate."
	}`)
	require.NoError(t, err)
	require.Nil(t, a.Precautions)
	require.Equal(t, []string{"Is this serious?"}, a.DoctorQuestions)
	require.Equal(t, "Elevated heart rate.", a.Explanation)

	a, err = ParseAnalysis(`{"precautions": ["", " "]}`)
	require.NoError(t, err)
	require.Nil(t, a.Precautions)
}

func TestParseAnalysis_RejectsNonObjects(t *testing.T) {
	for _, raw := range []string{"not json", "[1,2]", "null", `"text"`} {
		_, err := ParseAnalysis(raw)
		require.Error(t, err, raw)
	}
}

func TestBuildAnalysisPrompt(t *testing.T) {
	v := risk.Vitals{HeartRate: 110, Systolic: 150, Diastolic: 95, SpO2: 92, Temperature: 101.2}
	scores := risk.Scores{Cardiac: 97, Respiratory: 70, Infection: 52, Stress: 68}

	p := BuildAnalysisPrompt(v, []string{"chest_pain", "fever"}, scores, false)
	require.Contains(t, p, "- Heart Rate: 110 BPM")
	require.Contains(t, p, "- Blood Pressure: 150/95 mmHg")
	require.Contains(t, p, "- Oxygen Saturation (SpO2): 92%")
	require.Contains(t, p, "- Body Temperature: 101.2°F")
	require.Contains(t, p, "- Reported Symptoms: chest_pain, fever")
	require.Contains(t, p, "- Cardiac Risk: 97%")
	require.Contains(t, p, `"imageAnalysis": null`)
	require.NotContains(t, p, "medical scan image")

	withImage := BuildAnalysisPrompt(v, nil, scores, true)
	require.Contains(t, withImage, "None reported")
	require.Contains(t, withImage, "medical scan image has also been provided")
	require.NotContains(t, withImage, `"imageAnalysis": null`)
}

func TestBuildChatPrompt(t *testing.T) {
	require.Contains(t, BuildChatPrompt("hi", nil, nil), "No previous analysis available.")

	ctx := &narrative.ChatContext{
		Vitals:        &risk.Vitals{HeartRate: 80, Systolic: 120, Diastolic: 80, SpO2: 98, Temperature: 98.6},
		Scores:        &risk.Scores{Cardiac: 20},
		Symptoms:      []string{"cough"},
		ImageAnalysis: "Normal chest film.",
	}
	history := make([]Turn, 0, 12)
	for i := 0; i < 12; i++ {
		history = append(history, Turn{Role: "user", Content: strings.Repeat("x", i+1)})
	}

	p := BuildChatPrompt("what now?", ctx, history)
	require.Contains(t, p, "- Heart Rate: 80 BPM")
	require.Contains(t, p, "- Symptoms: cough")
	require.Contains(t, p, "Cardiac 20%")
	require.Contains(t, p, "- Previous Image Analysis: Normal chest film.")
	require.Contains(t, p, "USER MESSAGE: what now?")
	require.Equal(t, maxHistoryTurns, strings.Count(p, "USER: "))
	require.NotContains(t, p, "USER: x\n")
}
