package npmaudit

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityModerate Severity = "moderate"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// ReportedSeverities lists the severities that are surfaced in reports, most
// severe first. Info is intentionally absent.
var ReportedSeverities = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityModerate,
	SeverityLow,
}

func (s Severity) String() string {
	return string(s)
}

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 5
	case SeverityHigh:
		return 4
	case SeverityModerate:
		return 3
	case SeverityLow:
		return 2
	case SeverityInfo:
		return 1
	default:
		return 0
	}
}

// Advisory is an entry of the "via" array that carries a direct advisory.
type Advisory struct {
	Source   int64  `json:"source"`
	Name     string `json:"name"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Severity string `json:"severity"`
	Range    string `json:"range"`
}

// Fix describes the "fixAvailable" field, which npm emits either as a bool or
// as an object naming the upgrade.
type Fix struct {
	Available     bool
	Name          string
	Version       string
	IsSemVerMajor bool
}

type Vulnerability struct {
	Name     string
	Severity Severity
	Range    string
	IsDirect bool

	// Via holds the names of the packages a transitive vulnerability comes from.
	Via        []string
	Advisories []Advisory
	Effects    []string
	Nodes      []string
	Fix        Fix
}

type Counts struct {
	Info     int `json:"info"`
	Low      int `json:"low"`
	Moderate int `json:"moderate"`
	High     int `json:"high"`
	Critical int `json:"critical"`
	Total    int `json:"total"`
}

// Of returns the count recorded for the given severity.
func (c Counts) Of(s Severity) int {
	switch s {
	case SeverityCritical:
		return c.Critical
	case SeverityHigh:
		return c.High
	case SeverityModerate:
		return c.Moderate
	case SeverityLow:
		return c.Low
	case SeverityInfo:
		return c.Info
	default:
		return 0
	}
}

type Dependencies struct {
	Prod         int `json:"prod"`
	Dev          int `json:"dev"`
	Optional     int `json:"optional"`
	Peer         int `json:"peer"`
	PeerOptional int `json:"peerOptional"`
	Total        int `json:"total"`
}

type Metadata struct {
	Vulnerabilities Counts       `json:"vulnerabilities"`
	Dependencies    Dependencies `json:"dependencies"`
}

// Document is a parsed `npm audit --json` report. Vulnerabilities keep the
// order in which npm emitted them.
type Document struct {
	ReportVersion   int
	Vulnerabilities []Vulnerability
	Metadata        Metadata
}

// Names returns the package names in document order.
func (d *Document) Names() []string {
	names := make([]string, 0, len(d.Vulnerabilities))
	for _, v := range d.Vulnerabilities {
		names = append(names, v.Name)
	}
	return names
}

// Lookup finds a vulnerability by its exact package name.
func (d *Document) Lookup(name string) (Vulnerability, bool) {
	for _, v := range d.Vulnerabilities {
		if v.Name == name {
			return v, true
		}
	}
	return Vulnerability{}, false
}

// NpmError is the object npm prints on stdout instead of a report when
// --json is set and the audit itself could not run.
type NpmError struct {
	Code    string
	Summary string
	Detail  string
}

func (e *NpmError) Error() string {
	msg := strings.TrimSpace(e.Summary)
	if e.Code != "" {
		msg = fmt.Sprintf("%s %s", e.Code, msg)
	}
	if d := strings.TrimSpace(e.Detail); d != "" {
		msg = fmt.Sprintf("%s: %s", msg, d)
	}
	return msg
}

// Parse decodes an audit report. Both the npm 7+ format (a "vulnerabilities"
// object keyed by package) and the npm 6 format (an "advisories" object keyed
// by advisory id) are understood. It returns a *NpmError when the payload is
// npm's own error object rather than a report.
func Parse(data []byte) (*Document, error) {
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	report := gjson.ParseBytes(data)
	if !report.IsObject() {
		return nil, errNoReport
	}

	if failure := report.Get("error"); failure.IsObject() && !report.Get("vulnerabilities").Exists() {
		return nil, &NpmError{
			Code:    failure.Get("code").String(),
			Summary: failure.Get("summary").String(),
			Detail:  failure.Get("detail").String(),
		}
	}

	doc := &Document{Metadata: parseMetadata(report.Get("metadata"))}

	switch {
	case report.Get("vulnerabilities").IsObject():
		doc.ReportVersion = int(report.Get("auditReportVersion").Int())

		// encoding/json loses key order on maps, walk the object with gjson instead
		report.Get("vulnerabilities").ForEach(func(key, value gjson.Result) bool {
			doc.Vulnerabilities = append(doc.Vulnerabilities, parseVulnerability(key.String(), value))
			return true
		})
	case report.Get("advisories").IsObject():
		doc.ReportVersion = 1
		doc.Vulnerabilities = parseAdvisories(report.Get("advisories"))
	default:
		return nil, errNoReport
	}

	return doc, nil
}

var errNoReport = errors.New("no vulnerabilities or advisories object in audit output")

func parseMetadata(m gjson.Result) Metadata {
	v := m.Get("vulnerabilities")
	counts := Counts{
		Info:     int(v.Get("info").Int()),
		Low:      int(v.Get("low").Int()),
		Moderate: int(v.Get("moderate").Int()),
		High:     int(v.Get("high").Int()),
		Critical: int(v.Get("critical").Int()),
		Total:    int(v.Get("total").Int()),
	}
	if !v.Get("total").Exists() {
		counts.Total = counts.Info + counts.Low + counts.Moderate + counts.High + counts.Critical
	}

	var deps Dependencies
	if d := m.Get("dependencies"); d.IsObject() {
		deps = Dependencies{
			Prod:         int(d.Get("prod").Int()),
			Dev:          int(d.Get("dev").Int()),
			Optional:     int(d.Get("optional").Int()),
			Peer:         int(d.Get("peer").Int()),
			PeerOptional: int(d.Get("peerOptional").Int()),
			Total:        int(d.Get("total").Int()),
		}
	} else {
		// npm 6 flattens the dependency counts into metadata
		deps = Dependencies{
			Prod:     int(d.Int()),
			Dev:      int(m.Get("devDependencies").Int()),
			Optional: int(m.Get("optionalDependencies").Int()),
			Total:    int(m.Get("totalDependencies").Int()),
		}
	}

	return Metadata{Vulnerabilities: counts, Dependencies: deps}
}

// parseAdvisories folds npm 6 advisories into one vulnerability per module,
// in the order the modules first appear. A module keeps its most severe
// advisory's severity and the union of the vulnerable ranges.
func parseAdvisories(advisories gjson.Result) []Vulnerability {
	var vulns []Vulnerability
	index := map[string]int{}

	advisories.ForEach(func(_, adv gjson.Result) bool {
		name := adv.Get("module_name").String()
		if name == "" {
			return true
		}

		sev := Severity(strings.ToLower(adv.Get("severity").String()))
		rng := adv.Get("vulnerable_versions").String()

		i, ok := index[name]
		if !ok {
			i = len(vulns)
			index[name] = i
			vulns = append(vulns, Vulnerability{Name: name, Severity: sev, Range: rng})
		} else {
			v := &vulns[i]
			if sev.rank() > v.Severity.rank() {
				v.Severity = sev
			}
			if rng != "" && !containsRange(v.Range, rng) {
				v.Range = v.Range + " || " + rng
			}
		}

		v := &vulns[i]
		v.Advisories = append(v.Advisories, Advisory{
			Source:   adv.Get("id").Int(),
			Name:     name,
			Title:    adv.Get("title").String(),
			URL:      adv.Get("url").String(),
			Severity: string(sev),
			Range:    rng,
		})

		for _, finding := range adv.Get("findings").Array() {
			for _, path := range finding.Get("paths").Array() {
				if path.String() == name {
					v.IsDirect = true
				}
			}
		}
		return true
	})

	return vulns
}

func containsRange(ranges, r string) bool {
	for _, existing := range strings.Split(ranges, " || ") {
		if existing == r {
			return true
		}
	}
	return false
}

func parseVulnerability(name string, v gjson.Result) Vulnerability {
	vuln := Vulnerability{
		Name:     name,
		Severity: Severity(strings.ToLower(v.Get("severity").String())),
		Range:    v.Get("range").String(),
		IsDirect: v.Get("isDirect").Bool(),
	}

	for _, via := range v.Get("via").Array() {
		if !via.IsObject() {
			vuln.Via = append(vuln.Via, via.String())
			continue
		}

		vuln.Advisories = append(vuln.Advisories, Advisory{
			Source:   via.Get("source").Int(),
			Name:     via.Get("name").String(),
			Title:    via.Get("title").String(),
			URL:      via.Get("url").String(),
			Severity: via.Get("severity").String(),
			Range:    via.Get("range").String(),
		})
	}

	for _, e := range v.Get("effects").Array() {
		vuln.Effects = append(vuln.Effects, e.String())
	}
	for _, n := range v.Get("nodes").Array() {
		vuln.Nodes = append(vuln.Nodes, n.String())
	}

	fix := v.Get("fixAvailable")
	if fix.IsObject() {
		vuln.Fix = Fix{
			Available:     true,
			Name:          fix.Get("name").String(),
			Version:       fix.Get("version").String(),
			IsSemVerMajor: fix.Get("isSemVerMajor").Bool(),
		}
	} else {
		vuln.Fix = Fix{Available: fix.Bool()}
	}

	return vuln
}
