package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/kvesta/audit-guard/config"
	"github.com/kvesta/audit-guard/internal/classify"
	"github.com/kvesta/audit-guard/pkg/npmaudit"
)

// Console prints classified results as colored text.
type Console struct {
	w     io.Writer
	theme config.Theme
}

func NewConsole(w io.Writer, theme config.Theme) *Console {
	return &Console{w: w, theme: theme}
}

func paint(attr color.Attribute, bold bool, a ...interface{}) string {
	c := color.New(attr)
	if bold {
		c.Add(color.Bold)
	}
	return c.Sprint(a...)
}

func bold(a ...interface{}) string {
	return color.New(color.Bold).Sprint(a...)
}

// ResolveAuditData prints the result of an audit: every severity group,
// the ignored packages, stale exception warnings and the summary.
func (c *Console) ResolveAuditData(r classify.Result, meta npmaudit.Metadata) {
	fmt.Fprintf(c.w, "\n%s\n\n", bold("=== Security Audit Results ==="))

	for _, sev := range npmaudit.ReportedSeverities {
		c.printGroup(sev, r.Group(sev))
	}

	if len(r.Ignored) > 0 {
		fmt.Fprintf(c.w, "\n%s\n", paint(c.theme.Ignored, true, "Ignored (Blacklisted):"))
		for _, pkg := range r.Ignored {
			fmt.Fprintln(c.w, paint(c.theme.Ignored, false, fmt.Sprintf("  - %s (%s)", pkg.Name, pkg.Severity)))
		}
	}

	if len(r.Stale) > 0 {
		fmt.Fprintln(c.w)
		for _, s := range r.Stale {
			fmt.Fprintln(c.w, paint(c.theme.Warning, false, s.Warning()))
			if s.DidYouMean != "" {
				fmt.Fprintln(c.w, paint(c.theme.Warning, false, fmt.Sprintf("  did you mean %q?", s.DidYouMean)))
			}
		}
	}

	c.printSummary(r, meta)
}

func (c *Console) printGroup(sev npmaudit.Severity, entries []classify.Entry) {
	if len(entries) == 0 {
		return
	}

	style := c.theme.Severity[sev]
	fmt.Fprintf(c.w, "\n%s\n", paint(style.Color, true, style.Label+":"))
	for _, e := range entries {
		fmt.Fprintln(c.w, paint(style.Color, false, fmt.Sprintf("  - %s (%s)", e.Name, e.Range)))
	}
}

func (c *Console) printSummary(r classify.Result, meta npmaudit.Metadata) {
	fmt.Fprintf(c.w, "\n%s\n", bold("=== Summary ==="))

	total := paint(c.theme.Success, false, r.Total)
	if r.Total > 0 {
		total = paint(c.theme.Failure, false, r.Total)
	}
	fmt.Fprintf(c.w, "Total vulnerabilities found: %s\n", total)
	fmt.Fprintf(c.w, "Ignored (blacklisted): %d\n", len(r.Ignored))

	if r.Total > 0 || len(r.Ignored) > 0 || meta.Vulnerabilities.Total > 0 {
		fmt.Fprintln(c.w)
		c.printBreakdown(r, meta)
	}

	switch r.Total {
	case 0:
		fmt.Fprintf(c.w, "\n%s\n", paint(c.theme.Success, false, "✓ No vulnerabilities found!"))
	case 1:
		fmt.Fprintf(c.w, "\n%s\n", paint(c.theme.Failure, false, "✗ 1 vulnerability requires attention!"))
	default:
		fmt.Fprintf(c.w, "\n%s\n", paint(c.theme.Failure, false,
			fmt.Sprintf("✗ %d vulnerabilities require attention!", r.Total)))
	}
}

// printBreakdown renders reported and ignored counts next to the counts npm
// itself reported.
func (c *Console) printBreakdown(r classify.Result, meta npmaudit.Metadata) {
	table := tablewriter.NewWriter(c.w)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Severity", "Reported", "Ignored", "npm total"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	severities := append(append([]npmaudit.Severity{}, npmaudit.ReportedSeverities...), npmaudit.SeverityInfo)
	for _, sev := range severities {
		reported := "-"
		if sev != npmaudit.SeverityInfo {
			reported = strconv.Itoa(len(r.Group(sev)))
		}

		table.Append([]string{
			c.theme.Severity[sev].Label,
			reported,
			strconv.Itoa(r.IgnoredCount(sev)),
			strconv.Itoa(meta.Vulnerabilities.Of(sev)),
		})
	}

	table.Render()
}
