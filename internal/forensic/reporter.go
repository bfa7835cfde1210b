package forensic

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ReportFormat specifies the output format for forensic reports
type ReportFormat string

const (
	FormatJSON ReportFormat = "json"
	FormatText ReportFormat = "text"
	FormatCSV  ReportFormat = "csv"
)

// Render formats report for the CLI.
func Render(report Report, format ReportFormat) (string, error) {
	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatText:
		return renderText(report), nil
	case FormatCSV:
		return renderCSV(report), nil
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func renderText(report Report) string {
	var sb strings.Builder

	title := "FORENSIC SCAN"
	if report.Ticker != "" {
		title += " - " + report.Ticker
	}
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("=", 60) + "\n")
	sb.WriteString(fmt.Sprintf("Scanned: %s\n", report.ScannedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("Forensic Score: %d/%d (%s)\n", report.Score, MaxScore, report.RiskLevel()))
	sb.WriteString(fmt.Sprintf("RED FLAGS DETECTED: %d\n", len(report.Flags)))

	if len(report.Flags) == 0 {
		sb.WriteString("\nNo red flags detected.\n")
	}
	for i, f := range report.Flags {
		sb.WriteString(fmt.Sprintf("%d. %s (+%d)\n", i+1, f, PointsPerFlag))
	}
	return sb.String()
}

func renderCSV(report Report) string {
	var sb strings.Builder
	sb.WriteString("Ticker,ScannedAt,ForensicScore,Flag\n")
	if len(report.Flags) == 0 {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,\n", report.Ticker, report.ScannedAt.Format("2006-01-02 15:04:05"), report.Score))
	}
	for _, f := range report.Flags {
		sb.WriteString(fmt.Sprintf("%s,%s,%d,\"%s\"\n",
			report.Ticker,
			report.ScannedAt.Format("2006-01-02 15:04:05"),
			report.Score,
			strings.ReplaceAll(f, "\"", "\"\"")))
	}
	return sb.String()
}
