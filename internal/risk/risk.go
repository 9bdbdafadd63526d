package risk

import (
	"fmt"
	"math"
	"strings"
)

type Vitals struct {
	HeartRate   int     `json:"heartRate"`
	Systolic    int     `json:"systolic"`
	Diastolic   int     `json:"diastolic"`
	SpO2        float64 `json:"spo2"`
	Temperature float64 `json:"temperature"`
}

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid vitals: " + strings.Join(e.Fields, "; ")
}

// Validate rejects readings that cannot come from a measurement. Implausible
// but finite values are left to the scorers, which clamp.
func (v Vitals) Validate() error {
	var fields []string
	if v.HeartRate < 0 {
		fields = append(fields, fmt.Sprintf("heartRate must not be negative, got %d", v.HeartRate))
	}
	if v.Systolic < 0 {
		fields = append(fields, fmt.Sprintf("systolic must not be negative, got %d", v.Systolic))
	}
	if v.Diastolic < 0 {
		fields = append(fields, fmt.Sprintf("diastolic must not be negative, got %d", v.Diastolic))
	}
	if math.IsNaN(v.SpO2) || math.IsInf(v.SpO2, 0) || v.SpO2 < 0 {
		fields = append(fields, "spo2 must be a non-negative number")
	}
	if math.IsNaN(v.Temperature) || math.IsInf(v.Temperature, 0) || v.Temperature < 0 {
		fields = append(fields, "temperature must be a non-negative number")
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

type Scores struct {
	Cardiac      int `json:"cardiac"`
	Respiratory  int `json:"respiratory"`
	Infection    int `json:"infection"`
	Stress       int `json:"stress"`
	Neurological int `json:"neurological"`
}

func (s Scores) Of(c Category) int {
	switch c {
	case Respiratory:
		return s.Respiratory
	case Infection:
		return s.Infection
	case Stress:
		return s.Stress
	case Neurological:
		return s.Neurological
	default:
		return s.Cardiac
	}
}

// Primary returns the category with the strictly highest score. Ties resolve
// to the earliest category in Categories order.
func (s Scores) Primary() Category {
	best := Cardiac
	for _, c := range Categories[1:] {
		if s.Of(c) > s.Of(best) {
			best = c
		}
	}
	return best
}

func (s Scores) Max() int {
	return s.Of(s.Primary())
}

func AffectedRegion(s Scores) string {
	return s.Primary().Region()
}

func Score(v Vitals, symptoms SymptomSet) Scores {
	return Scores{
		Cardiac:      cardiacRisk(v, symptoms),
		Respiratory:  respiratoryRisk(v, symptoms),
		Infection:    infectionRisk(v, symptoms),
		Stress:       stressRisk(v, symptoms),
		Neurological: neurologicalRisk(v, symptoms),
	}
}

var (
	cardiacSymptoms = map[Symptom]int{
		ChestPain:       20,
		Palpitations:    12,
		ShortnessBreath: 12,
		Dizziness:       12,
	}
	stressSymptoms = map[Symptom]int{
		Anxiety:  15,
		Fatigue:  15,
		Insomnia: 15,
		Nausea:   15,
		Sweating: 15,
	}
	respiratorySymptoms = map[Symptom]int{
		ShortnessBreath: 20,
		Cough:           20,
	}
	infectionSymptoms = map[Symptom]int{
		Fever:      12,
		MusclePain: 12,
		SoreThroat: 12,
		Cough:      12,
		Fatigue:    12,
	}
	neuroSymptoms = map[Symptom]int{
		Headache:  15,
		Dizziness: 15,
		Confusion: 25,
	}
)

func cardiacRisk(v Vitals, symptoms SymptomSet) int {
	risk := 0

	switch {
	case v.HeartRate < 60:
		risk += 15
	case v.HeartRate > 100:
		risk += 25
	case v.HeartRate > 85:
		risk += 10
	}

	switch {
	case v.Systolic > 180:
		risk += 35
	case v.Systolic > 140:
		risk += 25
	case v.Systolic > 130:
		risk += 15
	case v.Systolic < 90:
		risk += 20
	}

	switch {
	case v.Diastolic > 120:
		risk += 25
	case v.Diastolic > 90:
		risk += 15
	case v.Diastolic > 80:
		risk += 8
	}

	risk += symptoms.weigh(cardiacSymptoms)
	return clamp(risk)
}

func stressRisk(v Vitals, symptoms SymptomSet) int {
	risk := 0

	if v.HeartRate > 90 {
		risk += 20
	}
	if v.HeartRate > 100 {
		risk += 15
	}
	if v.Systolic > 130 {
		risk += 15
	}
	if v.Diastolic > 85 {
		risk += 10
	}

	risk += symptoms.weigh(stressSymptoms)

	if v.Temperature > 99 {
		risk += 8
	}
	return clamp(risk)
}

func respiratoryRisk(v Vitals, symptoms SymptomSet) int {
	risk := 0

	switch {
	case v.SpO2 < 90:
		risk += 50
	case v.SpO2 < 94:
		risk += 35
	case v.SpO2 < 96:
		risk += 15
	}

	risk += symptoms.weigh(respiratorySymptoms)

	if v.HeartRate > 100 && v.SpO2 < 96 {
		risk += 15
	}
	return clamp(risk)
}

func infectionRisk(v Vitals, symptoms SymptomSet) int {
	risk := 0

	switch {
	case v.Temperature > 103:
		risk += 45
	case v.Temperature > 101:
		risk += 30
	case v.Temperature > 99.5:
		risk += 15
	}

	risk += symptoms.weigh(infectionSymptoms)

	if v.HeartRate > 100 && v.Temperature > 99.5 {
		risk += 10
	}
	return clamp(risk)
}

func neurologicalRisk(v Vitals, symptoms SymptomSet) int {
	risk := 0

	if v.Systolic > 180 || v.Systolic < 80 {
		risk += 25
	}

	risk += symptoms.weigh(neuroSymptoms)

	if v.SpO2 < 92 {
		risk += 20
	}
	return clamp(risk)
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
