package report

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kvesta/audit-guard/config"
	"github.com/kvesta/audit-guard/internal/classify"
	"github.com/kvesta/audit-guard/pkg/npmaudit"
)

var ErrReportWrite = errors.New("failed to write JUnit report")

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// RenderJUnit renders r as a JUnit document. Reported vulnerabilities and
// stale exceptions are failures, ignored packages are skipped test cases.
func RenderJUnit(r classify.Result, now time.Time) string {
	tests := r.Total + len(r.Ignored) + len(r.Stale)
	failures := r.Total + len(r.Stale)
	timestamp := now.UTC().Format("2006-01-02T15:04:05.000Z")

	var sb strings.Builder

	sb.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(&sb, "<testsuites name=\"%s\" tests=\"%d\" failures=\"%d\" time=\"0\">\n",
		config.SuiteName, tests, failures)
	fmt.Fprintf(&sb, "  <testsuite name=\"Security Audit\" tests=\"%d\" failures=\"%d\" timestamp=\"%s\">\n",
		tests, failures, timestamp)

	for _, sev := range npmaudit.ReportedSeverities {
		for _, e := range r.Group(sev) {
			writeVulnerability(&sb, e, sev)
		}
	}

	for _, pkg := range r.Ignored {
		fmt.Fprintf(&sb, "    <testcase name=\"%s\" classname=\"security.ignored\">\n", escapeXML(pkg.Name))
		fmt.Fprintf(&sb, "      <skipped message=\"Package is blacklisted (severity: %s)\" />\n",
			escapeXML(pkg.Severity.String()))
		sb.WriteString("    </testcase>\n")
	}

	for _, s := range r.Stale {
		name := escapeXML(s.Warning())
		fmt.Fprintf(&sb, "    <testcase name=\"%s\" classname=\"security.blacklist.warning\">\n", name)
		sb.WriteString("      <failure message=\"Blacklisted package has no security issues\" type=\"blacklist_cleanup_required\">\n")
		fmt.Fprintf(&sb, "        Package: %s\n", name)
		sb.WriteString("        Issue: Package is on blacklist but has no security vulnerabilities\n")
		sb.WriteString("        Action Required: Remove this package from blacklist or verify it&apos;s still needed\n")
		sb.WriteString("      </failure>\n")
		sb.WriteString("    </testcase>\n")
	}

	sb.WriteString("  </testsuite>\n")
	sb.WriteString("</testsuites>\n")

	return sb.String()
}

func writeVulnerability(sb *strings.Builder, e classify.Entry, sev npmaudit.Severity) {
	name := escapeXML(e.Name)

	fmt.Fprintf(sb, "    <testcase name=\"%s\" classname=\"security.%s\">\n", name, sev)
	fmt.Fprintf(sb, "      <failure message=\"%s vulnerability found\" type=\"%s\">\n", strings.ToUpper(sev.String()), sev)
	fmt.Fprintf(sb, "        Package: %s\n", name)
	fmt.Fprintf(sb, "        Vulnerable Range: %s\n", escapeXML(e.Range))
	fmt.Fprintf(sb, "        Severity: %s\n", sev)
	sb.WriteString("      </failure>\n")
	sb.WriteString("    </testcase>\n")
}

// SaveJUnit writes the JUnit report to path, or to the default report path
// when path is empty, and returns the path written.
func SaveJUnit(r classify.Result, path string, now time.Time) (string, error) {
	filename, err := getOutputFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrReportWrite, err)
	}

	if err := os.WriteFile(filename, []byte(RenderJUnit(r, now)), 0644); err != nil {
		return "", fmt.Errorf("%w: %v", ErrReportWrite, err)
	}

	log.Debug().Str("path", filename).Int("tests", r.Total+len(r.Ignored)+len(r.Stale)).Msg("saved JUnit report")
	return filename, nil
}
