// Package classify partitions an audit report by severity and applies the
// exception list.
package classify

import (
	"fmt"
	"strings"

	"github.com/kvesta/audit-guard/pkg/match"
	"github.com/kvesta/audit-guard/pkg/npmaudit"
)

type Entry struct {
	Name  string
	Range string
}

type Ignored struct {
	Name     string
	Severity npmaudit.Severity
}

// Stale is an exception entry that matched no vulnerable package.
type Stale struct {
	Name string
	// DidYouMean names a vulnerable package the entry looks like a typo of.
	DidYouMean string
}

// Warning is the operator facing message for a stale entry.
func (s Stale) Warning() string {
	return fmt.Sprintf(`Warning: Blacklisted package "%s" not found in audit results`, s.Name)
}

type Result struct {
	Critical []Entry
	High     []Entry
	Moderate []Entry
	Low      []Entry

	Ignored []Ignored
	Stale   []Stale

	// Total is the number of reported vulnerabilities, excluding ignored
	// packages and info severity.
	Total int
}

// Group returns the entries reported under severity s.
func (r Result) Group(s npmaudit.Severity) []Entry {
	switch s {
	case npmaudit.SeverityCritical:
		return r.Critical
	case npmaudit.SeverityHigh:
		return r.High
	case npmaudit.SeverityModerate:
		return r.Moderate
	case npmaudit.SeverityLow:
		return r.Low
	default:
		return nil
	}
}

// Warnings returns one message per stale exception entry.
func (r Result) Warnings() []string {
	warnings := make([]string, 0, len(r.Stale))
	for _, s := range r.Stale {
		warnings = append(warnings, s.Warning())
	}
	return warnings
}

// IgnoredCount returns how many ignored packages had severity s.
func (r Result) IgnoredCount(s npmaudit.Severity) int {
	n := 0
	for _, i := range r.Ignored {
		if i.Severity == s {
			n++
		}
	}
	return n
}

// Classify applies blacklist to doc. Matching is case-insensitive, while
// names keep the casing they were written with.
func Classify(doc *npmaudit.Document, blacklist []string) Result {
	var r Result
	if doc == nil {
		doc = &npmaudit.Document{}
	}

	ignore := make(map[string]struct{}, len(blacklist))
	for _, name := range blacklist {
		ignore[strings.ToLower(name)] = struct{}{}
	}

	found := make(map[string]struct{}, len(doc.Vulnerabilities))
	for _, v := range doc.Vulnerabilities {
		lower := strings.ToLower(v.Name)
		found[lower] = struct{}{}

		if _, ok := ignore[lower]; ok {
			r.Ignored = append(r.Ignored, Ignored{Name: v.Name, Severity: v.Severity})
			continue
		}

		entry := Entry{Name: v.Name, Range: v.Range}
		switch v.Severity {
		case npmaudit.SeverityCritical:
			r.Critical = append(r.Critical, entry)
		case npmaudit.SeverityHigh:
			r.High = append(r.High, entry)
		case npmaudit.SeverityModerate:
			r.Moderate = append(r.Moderate, entry)
		case npmaudit.SeverityLow:
			r.Low = append(r.Low, entry)
		}
	}

	names := doc.Names()
	for _, name := range blacklist {
		if _, ok := found[strings.ToLower(name)]; ok {
			continue
		}
		r.Stale = append(r.Stale, Stale{
			Name:       name,
			DidYouMean: match.Suggest(name, names),
		})
	}

	r.Total = len(r.Critical) + len(r.High) + len(r.Moderate) + len(r.Low)
	return r
}
