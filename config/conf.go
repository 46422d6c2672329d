package config

import (
	"github.com/fatih/color"

	"github.com/kvesta/audit-guard/pkg/npmaudit"
)

const (
	Version = "1.0.0"

	// DefaultReportPath is where the JUnit report goes without --output.
	DefaultReportPath = "./audit-results.xml"

	// SuiteName names the root testsuites element of the JUnit report.
	SuiteName = "npm-audit-guard"

	ExitClean      = 0
	ExitVulnerable = 1
	ExitError      = 2
)

var Red = color.New(color.FgRed).SprintFunc()

// Style is how a severity is labelled and colored on the console.
type Style struct {
	Label string
	Color color.Attribute
}

// Theme maps every console element to its color. It is plain data, the
// reporter builds printers from it.
type Theme struct {
	Severity map[npmaudit.Severity]Style

	Ignored color.Attribute
	Warning color.Attribute
	Success color.Attribute
	Failure color.Attribute
}

func DefaultTheme() Theme {
	return Theme{
		Severity: map[npmaudit.Severity]Style{
			npmaudit.SeverityCritical: {Label: "Critical", Color: color.FgRed},
			npmaudit.SeverityHigh:     {Label: "High", Color: color.FgYellow},
			npmaudit.SeverityModerate: {Label: "Moderate", Color: color.FgBlue},
			npmaudit.SeverityLow:      {Label: "Low", Color: color.FgHiBlack},
			npmaudit.SeverityInfo:     {Label: "Info", Color: color.FgWhite},
		},
		Ignored: color.FgCyan,
		Warning: color.FgYellow,
		Success: color.FgGreen,
		Failure: color.FgRed,
	}
}
