// Package policy loads the persisted exception list and merges it with the
// command line.
package policy

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the working directory.
const FileName = ".auditguardrc.json"

var ErrConfigParse = errors.New("error loading config file")

// File is the persisted configuration.
type File struct {
	Blacklist  []string `mapstructure:"blacklist" json:"blacklist"`
	IncludeDev bool     `mapstructure:"includeDev" json:"includeDev"`
}

// Policy is the effective exception policy of a run.
type Policy struct {
	Blacklist  []string
	IncludeDev bool
}

// Load reads FileName from dir. A missing file is not an error and yields nil.
func Load(dir string) (*File, error) {
	path := filepath.Join(dir, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrConfigParse, path)
	}

	v := viper.New()
	v.SetConfigType("json")

	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	log.Debug().Str("path", path).Strs("blacklist", f.Blacklist).Bool("includeDev", f.IncludeDev).
		Msg("loaded config file")
	return &f, nil
}

// Merge builds the effective policy. A non-empty cliBlacklist replaces the
// persisted list, and a non-nil cliIncludeDev replaces the persisted flag.
func Merge(cliBlacklist string, cliIncludeDev *bool, file *File) Policy {
	p := Policy{Blacklist: []string{}}

	if file != nil {
		if file.Blacklist != nil {
			p.Blacklist = append(p.Blacklist, file.Blacklist...)
		}
		p.IncludeDev = file.IncludeDev
	}

	if cliBlacklist != "" {
		p.Blacklist = SplitList(cliBlacklist)
	}

	if cliIncludeDev != nil {
		p.IncludeDev = *cliIncludeDev
	}

	return p
}

// SplitList splits a comma separated package list and trims each entry.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// WriteDefault creates a default config file in dir. An existing file is
// left untouched and created is false.
func WriteDefault(dir string) (path string, created bool, err error) {
	path = filepath.Join(dir, FileName)

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	}

	data, err := json.MarshalIndent(File{Blacklist: []string{}}, "", "  ")
	if err != nil {
		return path, false, err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return path, false, nil
		}
		return path, false, err
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return path, false, err
	}

	return path, true, nil
}
