package genai

import (
	"fmt"
	"strings"
	"time"

	"github.com/Skufu/healthtwin/internal/narrative"
	"github.com/Skufu/healthtwin/internal/risk"
)

// Turn is one prior chat message carried by the client.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// maxHistoryTurns bounds how much client-held history is replayed into a prompt.
const maxHistoryTurns = 10

func BuildAnalysisPrompt(v risk.Vitals, symptoms []string, scores risk.Scores, hasImage bool) string {
	var b strings.Builder

	b.WriteString("You are an expert medical AI assistant for a Digital Health Twin application. ")
	b.WriteString("Analyze the following health data and provide a comprehensive assessment.\n\n")

	b.WriteString("PATIENT DATA:\n")
	fmt.Fprintf(&b, "- Heart Rate: %d BPM\n", v.HeartRate)
	fmt.Fprintf(&b, "- Blood Pressure: %d/%d mmHg\n", v.Systolic, v.Diastolic)
	fmt.Fprintf(&b, "- Oxygen Saturation (SpO2): %g%%\n", v.SpO2)
	fmt.Fprintf(&b, "- Body Temperature: %g°F\n", v.Temperature)
	fmt.Fprintf(&b, "- Reported Symptoms: %s\n\n", symptomList(symptoms))

	b.WriteString("ML RISK SCORES:\n")
	fmt.Fprintf(&b, "- Cardiac Risk: %d%%\n", scores.Cardiac)
	fmt.Fprintf(&b, "- Respiratory Risk: %d%%\n", scores.Respiratory)
	fmt.Fprintf(&b, "- Infection Risk: %d%%\n", scores.Infection)
	fmt.Fprintf(&b, "- Stress Risk: %d%%\n", scores.Stress)
	fmt.Fprintf(&b, "- Neurological Risk: %d%%\n\n", scores.Neurological)

	if hasImage {
		b.WriteString("A medical scan image has also been provided for analysis.\n\n")
	}

	imageField := "null"
	if hasImage {
		imageField = `"Detailed analysis of the provided medical image."`
	}

	b.WriteString("IMPORTANT: Respond with ONLY valid JSON, no markdown formatting, no code blocks. Use this exact structure:\n\n")
	b.WriteString("{\n")
	b.WriteString(`  "explanation": "A detailed 3-4 sentence explanation of the patient's health status based on vitals, symptoms, and risk scores.",` + "\n")
	b.WriteString(`  "imageAnalysis": ` + imageField + ",\n")
	b.WriteString(`  "precautions": ["precaution 1", "precaution 2", "precaution 3", "precaution 4", "precaution 5"],` + "\n")
	b.WriteString(`  "seekHelpWhen": "Description of warning signs that should prompt immediate medical attention.",` + "\n")
	b.WriteString(`  "doctorQuestions": ["question 1", "question 2", "question 3", "question 4", "question 5"]` + "\n")
	b.WriteString("}")

	return b.String()
}

func BuildChatPrompt(message string, ctx *narrative.ChatContext, history []Turn) string {
	var b strings.Builder

	b.WriteString("You are a helpful and empathetic medical AI assistant for a Digital Health Twin application. ")
	b.WriteString("You provide evidence-based health information while being careful to note that you are not a replacement for professional medical advice.\n\n")

	if ctx == nil {
		b.WriteString("No previous analysis available.\n")
	} else {
		b.WriteString("PATIENT CONTEXT:\n")
		if ctx.Vitals != nil {
			fmt.Fprintf(&b, "- Heart Rate: %d BPM\n", ctx.Vitals.HeartRate)
			fmt.Fprintf(&b, "- Blood Pressure: %d/%d mmHg\n", ctx.Vitals.Systolic, ctx.Vitals.Diastolic)
			fmt.Fprintf(&b, "- SpO2: %g%%\n", ctx.Vitals.SpO2)
			fmt.Fprintf(&b, "- Temperature: %g°F\n", ctx.Vitals.Temperature)
		}
		if len(ctx.Symptoms) > 0 {
			fmt.Fprintf(&b, "- Symptoms: %s\n", strings.Join(ctx.Symptoms, ", "))
		}
		if s := ctx.Scores; s != nil {
			fmt.Fprintf(&b, "- Risk Scores: Cardiac %d%%, Respiratory %d%%, Infection %d%%, Stress %d%%, Neurological %d%%\n",
				s.Cardiac, s.Respiratory, s.Infection, s.Stress, s.Neurological)
		}
		if ctx.ImageAnalysis != "" {
			fmt.Fprintf(&b, "- Previous Image Analysis: %s\n", ctx.ImageAnalysis)
		}
	}

	if len(history) > 0 {
		if len(history) > maxHistoryTurns {
			history = history[len(history)-maxHistoryTurns:]
		}
		b.WriteString("\nCONVERSATION HISTORY:\n")
		for _, turn := range history {
			fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(turn.Role), turn.Content)
		}
	}

	fmt.Fprintf(&b, "\nUSER MESSAGE: %s\n\n", message)
	b.WriteString("Provide a helpful, conversational response that:\n")
	b.WriteString("1. Directly addresses their question\n")
	b.WriteString("2. References their health data when relevant\n")
	b.WriteString("3. Provides actionable advice when appropriate\n")
	b.WriteString("4. Reminds them to consult a healthcare professional for medical concerns\n")
	b.WriteString("5. Is warm and supportive in tone\n\n")
	b.WriteString("Keep your response concise but thorough (2-4 paragraphs max).")

	return b.String()
}

func symptomList(symptoms []string) string {
	if len(symptoms) == 0 {
		return "None reported"
	}
	return strings.Join(symptoms, ", ")
}
