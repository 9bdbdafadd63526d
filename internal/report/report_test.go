package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Skufu/healthtwin/internal/assessment"
	"github.com/Skufu/healthtwin/internal/risk"
)

func sampleResult() assessment.AnalysisResult {
	image := "No acute findings."
	return assessment.AnalysisResult{
		Scores:          risk.Scores{Cardiac: 97, Respiratory: 70, Infection: 52, Stress: 68},
		AffectedRegion:  "chest (heart region)",
		Explanation:     "Readings are elevated <script>alert(1)</script>",
		Precautions:     []string{"Rest", "Hydrate"},
		SeekHelpWhen:    "Seek immediate medical attention if pain worsens.",
		DoctorQuestions: []string{"Should I worry?", "What tests?", "Any medication?"},
		ImageAnalysis:   &image,
		Disclaimer:      assessment.Disclaimer,
		Vitals:          risk.Vitals{HeartRate: 110, Systolic: 150, Diastolic: 95, SpO2: 92, Temperature: 101.2},
		Symptoms:        []string{"chest_pain"},
		Timestamp:       "2025-06-01T08:30:00.123Z",
		IntegrityHash:   "00abc",
		Anomaly:         risk.Anomaly{IsAnomaly: true, Score: 35},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatHTML, f)

	f, err = ParseFormat(" XLSX ")
	require.NoError(t, err)
	require.Equal(t, FormatXLSX, f)

	_, err = ParseFormat("pdf")
	require.Error(t, err)
}

func TestFilename(t *testing.T) {
	day := time.Date(2025, 6, 1, 23, 0, 0, 0, time.UTC)
	require.Equal(t, "health-report-2025-06-01.html", FormatHTML.Filename(day))
	require.Equal(t, "health-report-2025-06-01.xlsx", FormatXLSX.Filename(day))
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatHTML, sampleResult()))
	out := buf.String()

	require.Contains(t, out, "<title>Digital Health Twin Report</title>")
	require.Contains(t, out, "Generated: June 1, 2025 08:30 UTC")
	require.Contains(t, out, "110 BPM")
	require.Contains(t, out, "150/95 mmHg")
	require.Contains(t, out, "101.2°F")
	require.Contains(t, out, `<div class="score-value">97%</div>`)
	require.Contains(t, out, "<div>Neurological</div>")
	require.Contains(t, out, "<li>Hydrate</li>")
	require.Contains(t, out, "<strong>Image Analysis:</strong> No acute findings.")
	require.Contains(t, out, "Data Integrity Hash: 00abc")
	require.NotContains(t, out, "<script>")
	require.Contains(t, out, "&lt;script&gt;")
}

func TestRenderHTML_WithoutImage(t *testing.T) {
	r := sampleResult()
	r.ImageAnalysis = nil
	r.Timestamp = "yesterday"

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, r))
	require.NotContains(t, buf.String(), "Image Analysis")
	require.Contains(t, buf.String(), "Generated: yesterday")
}

func TestRenderXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatXLSX, sampleResult()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{summarySheet, guidanceSheet}, f.GetSheetList())

	hr, err := f.GetCellValue(summarySheet, "B3")
	require.NoError(t, err)
	require.Equal(t, "110", hr)

	bp, err := f.GetCellValue(summarySheet, "B4")
	require.NoError(t, err)
	require.Equal(t, "150/95", bp)

	cardiacLabel, err := f.GetCellValue(summarySheet, "A7")
	require.NoError(t, err)
	require.Equal(t, "Cardiac Risk (%)", cardiacLabel)

	rows, err := f.GetRows(guidanceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1+2+1+3)
	require.Equal(t, []string{"Doctor Question", "3", "Any medication?"}, rows[6])
}
