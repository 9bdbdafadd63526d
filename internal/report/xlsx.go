package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/Skufu/healthtwin/internal/assessment"
	"github.com/Skufu/healthtwin/internal/risk"
)

const (
	summarySheet  = "Summary"
	guidanceSheet = "Guidance"
)

// RenderXLSX writes r as a two-sheet workbook: measurements and scores on
// Summary, narrative guidance on Guidance.
func RenderXLSX(w io.Writer, r assessment.AnalysisResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(guidanceSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	if err := writeSummary(f, headerStyle, r); err != nil {
		return err
	}
	if err := writeGuidance(f, headerStyle, r); err != nil {
		return err
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx report: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, headerStyle int, r assessment.AnalysisResult) error {
	imageAnalysis := ""
	if r.ImageAnalysis != nil {
		imageAnalysis = *r.ImageAnalysis
	}

	rows := [][]any{
		{"Field", "Value"},
		{"Generated", generatedAt(r.Timestamp)},
		{"Heart Rate (BPM)", r.Vitals.HeartRate},
		{"Blood Pressure (mmHg)", fmt.Sprintf("%d/%d", r.Vitals.Systolic, r.Vitals.Diastolic)},
		{"SpO2 (%)", r.Vitals.SpO2},
		{"Temperature (°F)", r.Vitals.Temperature},
	}
	for _, c := range risk.Categories {
		rows = append(rows, []any{label(c) + " Risk (%)", r.Scores.Of(c)})
	}
	rows = append(rows,
		[]any{"Affected Region", r.AffectedRegion},
		[]any{"Anomaly Score", r.Anomaly.Score},
		[]any{"Explanation", r.Explanation},
		[]any{"Image Analysis", imageAnalysis},
		[]any{"Disclaimer", r.Disclaimer},
		[]any{"Data Integrity Hash", r.IntegrityHash},
	)

	if err := writeRows(f, summarySheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "B1", headerStyle); err != nil {
		return fmt.Errorf("set header style: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "A", "A", 26); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(summarySheet, "B", "B", 80); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}

func writeGuidance(f *excelize.File, headerStyle int, r assessment.AnalysisResult) error {
	rows := [][]any{{"Section", "#", "Guidance"}}
	for i, p := range r.Precautions {
		rows = append(rows, []any{"Precaution", i + 1, p})
	}
	rows = append(rows, []any{"Seek Help When", 1, r.SeekHelpWhen})
	for i, q := range r.DoctorQuestions {
		rows = append(rows, []any{"Doctor Question", i + 1, q})
	}

	if err := writeRows(f, guidanceSheet, rows); err != nil {
		return err
	}
	if err := f.SetCellStyle(guidanceSheet, "A1", "C1", headerStyle); err != nil {
		return fmt.Errorf("set header style: %w", err)
	}
	if err := f.SetColWidth(guidanceSheet, "A", "A", 18); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(guidanceSheet, "C", "C", 100); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
