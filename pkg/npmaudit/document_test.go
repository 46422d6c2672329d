package npmaudit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReport(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "audit_report.json"))
	require.NoError(t, err)

	doc, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 2, doc.ReportVersion)
	assert.Equal(t, []string{"minimist", "mkdirp", "debug", "browserslist"}, doc.Names())

	minimist, ok := doc.Lookup("minimist")
	require.True(t, ok)
	assert.Equal(t, SeverityCritical, minimist.Severity)
	assert.Equal(t, "<0.2.4", minimist.Range)
	assert.Equal(t, []string{"mkdirp"}, minimist.Effects)
	require.Len(t, minimist.Advisories, 1)
	assert.Equal(t, int64(1179), minimist.Advisories[0].Source)
	assert.Equal(t, "Prototype Pollution in minimist", minimist.Advisories[0].Title)
	assert.Equal(t, Fix{Available: true, Name: "mkdirp", Version: "0.5.6"}, minimist.Fix)

	mkdirp, ok := doc.Lookup("mkdirp")
	require.True(t, ok)
	assert.True(t, mkdirp.IsDirect)
	assert.Equal(t, []string{"minimist"}, mkdirp.Via)
	assert.Empty(t, mkdirp.Advisories)
	assert.Equal(t, Fix{Available: true}, mkdirp.Fix)

	debug, _ := doc.Lookup("debug")
	assert.False(t, debug.Fix.Available)

	assert.Equal(t, 2, doc.Metadata.Vulnerabilities.Critical)
	assert.Equal(t, 1, doc.Metadata.Vulnerabilities.Of(SeverityInfo))
	assert.Equal(t, 340, doc.Metadata.Dependencies.Dev)
	assert.Equal(t, 354, doc.Metadata.Dependencies.Total)
}

func TestParseKeepsDocumentOrder(t *testing.T) {
	data := []byte(`{"vulnerabilities":{
		"zeta":{"severity":"high","range":"*"},
		"alpha":{"severity":"HIGH","range":"<1"},
		"mid":{"severity":"low","range":"<2"}}}`)

	doc, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, doc.Names())
	assert.Equal(t, SeverityHigh, doc.Vulnerabilities[1].Severity)
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantVuln int
		wantErr  bool
	}{
		{name: "empty report", data: `{"vulnerabilities":{},"metadata":{}}`},
		{name: "no vulnerabilities key", data: `{"auditReportVersion":2}`, wantErr: true},
		{name: "empty object", data: `{}`, wantErr: true},
		{name: "null", data: `null`, wantErr: true},
		{name: "vulnerabilities not an object", data: `{"vulnerabilities":[]}`, wantErr: true},
		{name: "legacy without advisories", data: `{"metadata":{"dependencies":120}}`, wantErr: true},
		{name: "single", data: `{"vulnerabilities":{"left-pad":{"severity":"critical","range":"<1.3.0"}}}`, wantVuln: 1},
		{name: "garbage", data: `npm ERR! something`, wantErr: true},
		{name: "truncated", data: `{"vulnerabilities":{"a":`, wantErr: true},
		{name: "array", data: `[1,2,3]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, doc)
				return
			}
			require.NoError(t, err)
			assert.Len(t, doc.Vulnerabilities, tt.wantVuln)
		})
	}
}

func TestParseNpmError(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "npm_error.json"))
	require.NoError(t, err)

	doc, err := Parse(data)
	assert.Nil(t, doc)

	var npmErr *NpmError
	require.ErrorAs(t, err, &npmErr)
	assert.Equal(t, "ENOLOCK", npmErr.Code)
	assert.Contains(t, npmErr.Error(), "requires an existing lockfile")
}

func TestParseLegacyReport(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("testdata", "audit_report_v1.json"))
	require.NoError(t, err)

	doc, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 1, doc.ReportVersion)
	assert.Equal(t, []string{"minimist", "debug"}, doc.Names())

	minimist, ok := doc.Lookup("minimist")
	require.True(t, ok)
	assert.Equal(t, SeverityCritical, minimist.Severity)
	assert.Equal(t, "<0.2.1 || >=1.0.0 <1.2.3 || <0.2.4", minimist.Range)
	assert.False(t, minimist.IsDirect)
	require.Len(t, minimist.Advisories, 2)
	assert.Equal(t, int64(1179), minimist.Advisories[0].Source)
	assert.Equal(t, int64(1066), minimist.Advisories[1].Source)

	debug, ok := doc.Lookup("debug")
	require.True(t, ok)
	assert.Equal(t, SeverityModerate, debug.Severity)
	assert.Equal(t, "<2.6.9", debug.Range)
	assert.True(t, debug.IsDirect)

	assert.Equal(t, 1, doc.Metadata.Vulnerabilities.Critical)
	assert.Equal(t, 3, doc.Metadata.Vulnerabilities.Total)
	assert.Equal(t, Dependencies{Prod: 120, Dev: 340, Optional: 2, Total: 462}, doc.Metadata.Dependencies)
}

func TestParseLegacyMergesRepeatedRange(t *testing.T) {
	data := []byte(`{"advisories":{
		"1":{"id":1,"module_name":"lodash","severity":"high","vulnerable_versions":"<4.17.21"},
		"2":{"id":2,"module_name":"lodash","severity":"low","vulnerable_versions":"<4.17.21"}}}`)

	doc, err := Parse(data)
	require.NoError(t, err)

	require.Len(t, doc.Vulnerabilities, 1)
	assert.Equal(t, SeverityHigh, doc.Vulnerabilities[0].Severity)
	assert.Equal(t, "<4.17.21", doc.Vulnerabilities[0].Range)
	assert.Len(t, doc.Vulnerabilities[0].Advisories, 2)
}
