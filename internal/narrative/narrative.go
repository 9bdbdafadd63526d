// Package narrative produces the rule-based explanation text used whenever
// AI-generated content is unavailable. Every function is deterministic.
package narrative

import (
	"fmt"
	"strings"

	"github.com/Skufu/healthtwin/internal/risk"
)

type Content struct {
	Explanation     string
	Precautions     []string
	SeekHelpWhen    string
	DoctorQuestions []string
}

// Generate builds the full fallback bundle keyed by the highest-scoring category.
func Generate(scores risk.Scores, v risk.Vitals, symptoms risk.SymptomSet) Content {
	primary := scores.Primary()
	return Content{
		Explanation:     Explain(scores, v, symptoms),
		Precautions:     Precautions(primary),
		SeekHelpWhen:    SeekHelp(primary),
		DoctorQuestions: DoctorQuestions(primary),
	}
}

// ForName resolves a free-form category name, falling back to cardiac.
func ForName(name string) risk.Category {
	c, _ := risk.ParseCategory(name)
	return c
}

func Precautions(c risk.Category) []string {
	return append([]string(nil), precautions[normalize(c)]...)
}

func SeekHelp(c risk.Category) string {
	return seekHelp[normalize(c)]
}

func DoctorQuestions(c risk.Category) []string {
	return append([]string(nil), doctorQuestions[normalize(c)]...)
}

func normalize(c risk.Category) risk.Category {
	if c < risk.Cardiac || c > risk.Neurological {
		return risk.Cardiac
	}
	return c
}

func Explain(scores risk.Scores, v risk.Vitals, symptoms risk.SymptomSet) string {
	primary := scores.Primary()
	maxScore := scores.Of(primary)
	summary := "Based on your health data analysis: " + strings.Join(describeVitals(v), ". ") + "."
	listed := strings.Join(symptoms.Strings(), ", ")

	var parts []string
	switch {
	case maxScore < 30:
		parts = []string{
			summary,
			"Overall, your readings suggest a healthy baseline.",
			"Continue maintaining your current health practices and stay attentive to any changes in how you feel.",
		}
	case maxScore < 60:
		parts = []string{
			summary,
			fmt.Sprintf("Your readings show some areas in the %s category that may benefit from monitoring.", primary),
		}
		if symptoms.Len() > 0 {
			parts = append(parts, fmt.Sprintf("The symptoms you reported (%s) have been factored into this assessment.", listed))
		}
		parts = append(parts, "This is informational and continued monitoring is recommended.")
	default:
		parts = []string{
			summary,
			fmt.Sprintf("Your analysis indicates elevated readings in the %s category with a risk score of %d%%.", primary, maxScore),
		}
		if symptoms.Len() > 0 {
			parts = append(parts, fmt.Sprintf("Combined with your reported symptoms (%s), we recommend attention to this area.", listed))
		}
		parts = append(parts, "While this tool provides informational guidance only, consider consulting with a healthcare provider for personalized advice.")
	}
	return strings.Join(parts, " ")
}

func describeVitals(v risk.Vitals) []string {
	out := make([]string, 0, 4)

	switch {
	case v.HeartRate < 60:
		out = append(out, "Your heart rate is below the typical resting range (bradycardia)")
	case v.HeartRate > 100:
		out = append(out, "Your heart rate is elevated above the typical resting range (tachycardia)")
	default:
		out = append(out, "Your heart rate is within the normal resting range")
	}

	switch {
	case v.Systolic >= 140 || v.Diastolic >= 90:
		out = append(out, "Your blood pressure reading is elevated")
	case v.Systolic < 90 || v.Diastolic < 60:
		out = append(out, "Your blood pressure reading is lower than typical")
	default:
		out = append(out, "Your blood pressure is within healthy ranges")
	}

	if v.SpO2 < 95 {
		out = append(out, "Your oxygen saturation is below the optimal range")
	} else {
		out = append(out, "Your oxygen saturation is at a healthy level")
	}

	switch {
	case v.Temperature > 99.5:
		out = append(out, "You may have an elevated temperature suggesting fever")
	case v.Temperature < 97:
		out = append(out, "Your body temperature is below the typical range")
	default:
		out = append(out, "Your body temperature is normal")
	}

	return out
}
