// Package report renders an analysis result as a downloadable document.
package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/Skufu/healthtwin/internal/assessment"
	"github.com/Skufu/healthtwin/internal/risk"
)

type Format string

const (
	FormatHTML Format = "html"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatHTML:
		return FormatHTML, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported report format %q", s)
	}
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/html; charset=utf-8"
}

// Filename is the attachment name for a report downloaded on day now.
func (f Format) Filename(now time.Time) string {
	return fmt.Sprintf("health-report-%s.%s", now.UTC().Format(time.DateOnly), f)
}

// Render writes r in format f.
func Render(w io.Writer, f Format, r assessment.AnalysisResult) error {
	if f == FormatXLSX {
		return RenderXLSX(w, r)
	}
	return RenderHTML(w, r)
}

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var htmlTemplate = template.Must(template.ParseFS(templateFS, "templates/report.html.tmpl"))

type scoreView struct {
	Label string
	Value int
}

type htmlView struct {
	Result        assessment.AnalysisResult
	Generated     string
	Scores        []scoreView
	ImageAnalysis string
}

func RenderHTML(w io.Writer, r assessment.AnalysisResult) error {
	view := htmlView{
		Result:    r,
		Generated: generatedAt(r.Timestamp),
		Scores:    scoreRows(r.Scores),
	}
	if r.ImageAnalysis != nil {
		view.ImageAnalysis = *r.ImageAnalysis
	}
	if err := htmlTemplate.Execute(w, view); err != nil {
		return fmt.Errorf("render html report: %w", err)
	}
	return nil
}

func scoreRows(s risk.Scores) []scoreView {
	rows := make([]scoreView, 0, len(risk.Categories))
	for _, c := range risk.Categories {
		rows = append(rows, scoreView{Label: label(c), Value: s.Of(c)})
	}
	return rows
}

func label(c risk.Category) string {
	name := c.String()
	return strings.ToUpper(name[:1]) + name[1:]
}

// generatedAt formats an ISO-8601 timestamp for display, passing through
// anything it cannot parse.
func generatedAt(ts string) string {
	t, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return ts
	}
	return t.UTC().Format("January 2, 2006 15:04 UTC")
}
