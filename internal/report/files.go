package report

import (
	"os"
	"path/filepath"

	"github.com/kvesta/audit-guard/config"
)

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// getOutputFile resolves the report path and creates its parent folder.
func getOutputFile(outfile string) (string, error) {
	if outfile == "" {
		outfile = config.DefaultReportPath
	}

	folder := filepath.Dir(outfile)
	if !exists(folder) {
		err := os.MkdirAll(folder, os.FileMode(0755))
		if err != nil {
			return "", err
		}
	}

	return outfile, nil
}
