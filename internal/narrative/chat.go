package narrative

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Skufu/healthtwin/internal/risk"
)

// ChatContext is the analysis a chat message may refer to. All fields are optional.
type ChatContext struct {
	Scores         *risk.Scores `json:"scores,omitempty"`
	Vitals         *risk.Vitals `json:"vitals,omitempty"`
	Symptoms       []string     `json:"symptoms,omitempty"`
	ImageAnalysis  string       `json:"imageAnalysis,omitempty"`
	AffectedRegion string       `json:"affectedRegion,omitempty"`
}

const educationalNote = "\n\n*Note: This information is for educational purposes only and is not a substitute for professional medical advice. " +
	"Always consult with a qualified healthcare provider for medical concerns.*"

type chatTopic struct {
	keywords []string
	reply    func(ctx *ChatContext) string
}

var chatTopics = []chatTopic{
	{[]string{"heart", "pulse", "bpm"}, heartRateReply},
	{[]string{"blood pressure", "bp", "systolic", "diastolic"}, bloodPressureReply},
	{[]string{"oxygen", "spo2", "o2", "saturation"}, oxygenReply},
	{[]string{"temperature", "fever", "temp"}, temperatureReply},
	{[]string{"stress", "anxiety", "worried"}, staticReply(stressTopic)},
	{[]string{"sleep", "tired", "fatigue", "rest"}, staticReply(sleepTopic)},
	{[]string{"exercise", "workout", "activity", "fitness"}, staticReply(exerciseTopic)},
	{[]string{"diet", "food", "eat", "eating", "nutrition"}, staticReply(dietTopic)},
	{[]string{"result", "score", "analysis", "mean"}, resultsReply},
	{[]string{"help", "emergency", "serious"}, staticReply(emergencyTopic)},
	{[]string{"hello", "hi", "hey"}, greetingReply},
}

// ChatReply answers a chat message from a fixed knowledge base, personalised
// with ctx when it is present.
func ChatReply(message string, ctx *ChatContext) string {
	lower := strings.ToLower(message)
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, topic := range chatTopics {
		for _, kw := range topic.keywords {
			if matchKeyword(lower, tokens, kw) {
				return topic.reply(ctx) + educationalNote
			}
		}
	}
	return defaultReply(ctx) + educationalNote
}

// Phrases match as substrings, short words must match a whole token, longer
// words match a token prefix so plurals and derived forms still hit.
func matchKeyword(lower string, tokens []string, kw string) bool {
	if strings.Contains(kw, " ") {
		return strings.Contains(lower, kw)
	}
	for _, tok := range tokens {
		if len(kw) <= 3 {
			if tok == kw {
				return true
			}
			continue
		}
		if strings.HasPrefix(tok, kw) {
			return true
		}
	}
	return false
}

func staticReply(text string) func(*ChatContext) string {
	return func(*ChatContext) string { return text }
}

func hasVitals(ctx *ChatContext) bool {
	return ctx != nil && ctx.Vitals != nil
}

func hasScores(ctx *ChatContext) bool {
	return ctx != nil && ctx.Scores != nil
}

func heartRateReply(ctx *ChatContext) string {
	text := "Heart rate (pulse) is the number of times your heart beats per minute. A normal resting heart rate for adults ranges from 60-100 beats per minute. " +
		"Athletes may have lower resting rates (40-60 bpm). Factors affecting heart rate include physical activity, emotions, medications, body size, and temperature."
	if !hasVitals(ctx) || ctx.Vitals.HeartRate == 0 {
		return text
	}
	hr := ctx.Vitals.HeartRate
	var verdict string
	switch {
	case hr >= 60 && hr <= 100:
		verdict = "is within the normal range."
	case hr < 60:
		verdict = "is below typical resting range (bradycardia)."
	default:
		verdict = "is above typical resting range (tachycardia)."
	}
	return fmt.Sprintf("%s Your current reading of %d bpm %s", text, hr, verdict)
}

func bloodPressureReply(ctx *ChatContext) string {
	text := "Blood pressure is measured as systolic (pressure when heart beats) over diastolic (pressure between beats). " +
		"Normal is typically below 120/80 mmHg. Elevated is 120-129/<80. High blood pressure Stage 1 is 130-139/80-89."
	if !hasVitals(ctx) {
		return text
	}
	v := ctx.Vitals
	var verdict string
	switch {
	case v.Systolic < 120 && v.Diastolic < 80:
		verdict = "is in the normal range."
	case v.Systolic >= 140 || v.Diastolic >= 90:
		verdict = "indicates elevated blood pressure that should be monitored."
	default:
		verdict = "is slightly elevated - lifestyle modifications may help."
	}
	return fmt.Sprintf("%s Your reading of %d/%d mmHg %s", text, v.Systolic, v.Diastolic, verdict)
}

func oxygenReply(ctx *ChatContext) string {
	text := "Blood oxygen saturation (SpO2) measures how much oxygen your blood is carrying. Normal SpO2 is typically 95-100%. " +
		"Below 95% may indicate respiratory issues. Below 90% is considered low and may require medical attention."
	if !hasVitals(ctx) || ctx.Vitals.SpO2 == 0 {
		return text
	}
	spo2 := ctx.Vitals.SpO2
	var verdict string
	switch {
	case spo2 >= 95:
		verdict = "is at a healthy level."
	case spo2 >= 90:
		verdict = "is slightly below optimal - monitor closely."
	default:
		verdict = "is concerning and you should seek medical evaluation."
	}
	return fmt.Sprintf("%s Your SpO2 of %g%% %s", text, spo2, verdict)
}

func temperatureReply(ctx *ChatContext) string {
	text := "Normal body temperature averages around 98.6°F (37°C) but can range from 97°F to 99°F. A fever is generally considered 100.4°F (38°C) or higher. " +
		"Temperature can vary based on time of day, activity, and where it's measured."
	if !hasVitals(ctx) || ctx.Vitals.Temperature == 0 {
		return text
	}
	temp := ctx.Vitals.Temperature
	var verdict string
	switch {
	case temp >= 97 && temp <= 99.5:
		verdict = "is within normal range."
	case temp > 99.5:
		verdict = "suggests you may have a fever."
	default:
		verdict = "is below typical range."
	}
	return fmt.Sprintf("%s Your temperature of %g°F %s", text, temp, verdict)
}

func resultsReply(ctx *ChatContext) string {
	if !hasScores(ctx) {
		return "I don't have any recent analysis results to explain. Please run a health analysis first by entering your vitals and symptoms on the Analyze tab."
	}
	s := *ctx.Scores
	primary := s.Primary()
	maxScore := s.Of(primary)

	var level string
	switch {
	case maxScore < 30:
		level = "This is a low risk level, suggesting your health markers are generally within healthy ranges."
	case maxScore < 60:
		level = "This is a moderate level that warrants monitoring but isn't immediately concerning."
	default:
		level = "This elevated level suggests you should pay attention to this area and consider consulting with a healthcare provider."
	}
	return fmt.Sprintf("Based on your analysis, your highest risk indicator is in the %s category at %d%%. %s "+
		"Your other scores are: Cardiac %d%%, Respiratory %d%%, Infection %d%%, Stress %d%%, Neurological %d%%. "+
		"Would you like me to explain any specific category in more detail?",
		primary, maxScore, level, s.Cardiac, s.Respiratory, s.Infection, s.Stress, s.Neurological)
}

func greetingReply(ctx *ChatContext) string {
	follow := "Run a health analysis first to get personalized insights, then come back here with questions."
	if hasScores(ctx) {
		follow = "I see you've already run an analysis - feel free to ask me about your results!"
	}
	return "Hello! I'm your Digital Health Twin assistant. I can help you understand your health analysis results, " +
		"explain what different vital signs mean, and provide general health information. " + follow + " What would you like to know?"
}

func defaultReply(ctx *ChatContext) string {
	if hasScores(ctx) {
		return fmt.Sprintf("I can help you understand your health data. Based on your recent analysis, your primary area of focus is %s health. "+
			"You can ask me about:\n\n"+
			"• Your specific results and what they mean\n"+
			"• Any of your vital signs (heart rate, blood pressure, oxygen, temperature)\n"+
			"• General health topics like stress, sleep, exercise, or diet\n"+
			"• When you should seek medical attention\n\n"+
			"What would you like to know more about?", ctx.Scores.Primary())
	}
	return "I'm here to help you understand health information. You can ask me about:\n\n" +
		"• What different vital signs mean\n" +
		"• General health topics (stress, sleep, exercise, diet)\n" +
		"• Your analysis results (after running an analysis)\n" +
		"• When to seek medical attention\n\n" +
		"Run a health analysis first to get personalized insights, or ask me any general health question!"
}

const (
	stressTopic = "Stress can significantly impact your physical health, affecting heart rate, blood pressure, and immune function. " +
		"Chronic stress is associated with increased risk of heart disease, digestive issues, and mental health challenges. " +
		"Management techniques include regular exercise, adequate sleep, mindfulness practices, and maintaining social connections."
	sleepTopic = "Quality sleep is essential for health. Adults typically need 7-9 hours per night. " +
		"Poor sleep can affect heart health, immune function, mood, and cognitive performance. " +
		"Good sleep hygiene includes maintaining a consistent schedule, limiting screen time before bed, keeping your room cool and dark, and avoiding caffeine late in the day."
	exerciseTopic = "Regular physical activity is crucial for cardiovascular health. " +
		"The American Heart Association recommends at least 150 minutes of moderate aerobic activity or 75 minutes of vigorous activity per week. " +
		"Exercise helps control weight, reduce stress, improve sleep, and strengthen the heart. " +
		"Always consult a healthcare provider before starting a new exercise program if you have health concerns."
	dietTopic = "A heart-healthy diet includes plenty of fruits, vegetables, whole grains, lean proteins, and healthy fats. " +
		"Limit sodium, added sugars, and saturated fats. The DASH diet and Mediterranean diet are both associated with improved cardiovascular outcomes. " +
		"Staying hydrated is also important for overall health."
	emergencyTopic = "If you're experiencing a medical emergency, please call emergency services (911 in the US) immediately. " +
		"Warning signs that require immediate attention include: severe chest pain or pressure, difficulty breathing, sudden confusion or difficulty speaking, " +
		"severe headache (worst of your life), facial drooping, or weakness on one side of the body. " +
		"This health tool is for informational purposes only and is not a substitute for professional medical advice."
)
