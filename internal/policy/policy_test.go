package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0644))
	return dir
}

func boolPtr(b bool) *bool {
	return &b
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		want    *File
		wantErr bool
	}{
		{
			name: "missing file",
			want: nil,
		},
		{
			name:    "full config",
			content: strPtr(`{"blacklist": ["lodash", "Minimist"], "includeDev": true}`),
			want:    &File{Blacklist: []string{"lodash", "Minimist"}, IncludeDev: true},
		},
		{
			name:    "only blacklist",
			content: strPtr(`{"blacklist": ["left-pad"]}`),
			want:    &File{Blacklist: []string{"left-pad"}},
		},
		{
			name:    "empty object",
			content: strPtr(`{}`),
			want:    &File{},
		},
		{
			name:    "invalid json",
			content: strPtr(`{"blacklist": [`),
			wantErr: true,
		},
		{
			name:    "empty file",
			content: strPtr(``),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.content != nil {
				dir = writeConfig(t, *tt.content)
			}

			got, err := Load(dir)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfigParse)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func strPtr(s string) *string {
	return &s
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name          string
		cliBlacklist  string
		cliIncludeDev *bool
		file          *File
		want          Policy
	}{
		{
			name: "nothing supplied",
			want: Policy{Blacklist: []string{}, IncludeDev: false},
		},
		{
			name: "file only",
			file: &File{Blacklist: []string{"a", "b"}, IncludeDev: true},
			want: Policy{Blacklist: []string{"a", "b"}, IncludeDev: true},
		},
		{
			name:         "cli list replaces file list",
			cliBlacklist: "c",
			file:         &File{Blacklist: []string{"a", "b"}},
			want:         Policy{Blacklist: []string{"c"}},
		},
		{
			name:         "cli list is trimmed",
			cliBlacklist: " lodash ,minimist,  Left-Pad",
			want:         Policy{Blacklist: []string{"lodash", "minimist", "Left-Pad"}},
		},
		{
			name:          "explicit false overrides file",
			cliIncludeDev: boolPtr(false),
			file:          &File{IncludeDev: true},
			want:          Policy{Blacklist: []string{}, IncludeDev: false},
		},
		{
			name:          "explicit true overrides default",
			cliIncludeDev: boolPtr(true),
			want:          Policy{Blacklist: []string{}, IncludeDev: true},
		},
		{
			name: "omitted flag keeps file value",
			file: &File{IncludeDev: true},
			want: Policy{Blacklist: []string{}, IncludeDev: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Merge(tt.cliBlacklist, tt.cliIncludeDev, tt.file))
		})
	}
}

func TestMergeDoesNotAliasFile(t *testing.T) {
	file := &File{Blacklist: []string{"a"}}
	p := Merge("", nil, file)
	p.Blacklist[0] = "changed"

	assert.Equal(t, []string{"a"}, file.Blacklist)
}

func TestWriteDefault(t *testing.T) {
	dir := t.TempDir()

	path, created, err := WriteDefault(dir)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, filepath.Join(dir, FileName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"blacklist": [], "includeDev": false}`, string(data))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Empty(t, loaded.Blacklist)
	assert.False(t, loaded.IncludeDev)
}

func TestWriteDefaultKeepsExisting(t *testing.T) {
	dir := writeConfig(t, `{"blacklist": ["lodash"]}`)

	_, created, err := WriteDefault(dir)
	require.NoError(t, err)
	assert.False(t, created)

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.JSONEq(t, `{"blacklist": ["lodash"]}`, string(data))
}
