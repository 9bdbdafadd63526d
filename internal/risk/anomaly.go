package risk

import "math"

type Anomaly struct {
	IsAnomaly bool `json:"isAnomaly"`
	Score     int  `json:"score"`
}

type normalRange struct {
	min, max float64
}

var (
	heartRateRange   = normalRange{60, 100}
	systolicRange    = normalRange{90, 140}
	diastolicRange   = normalRange{60, 90}
	spo2Range        = normalRange{95, 100}
	temperatureRange = normalRange{97, 99.5}
)

const anomalyThreshold = 30

// DetectAnomalies averages the relative deviation of each vital outside its
// normal range. It does not feed into Score.
func DetectAnomalies(v Vitals) Anomaly {
	total := heartRateRange.deviation(float64(v.HeartRate)) +
		systolicRange.deviation(float64(v.Systolic)) +
		diastolicRange.deviation(float64(v.Diastolic)) +
		spo2Range.deviation(v.SpO2) +
		temperatureRange.deviation(v.Temperature)

	score := math.Min(total/5, 100)
	return Anomaly{
		IsAnomaly: score > anomalyThreshold,
		Score:     int(math.Round(score)),
	}
}

func (r normalRange) deviation(value float64) float64 {
	switch {
	case value < r.min:
		return (r.min - value) / r.min * 100
	case value > r.max:
		return (value - r.max) / r.max * 100
	default:
		return 0
	}
}
