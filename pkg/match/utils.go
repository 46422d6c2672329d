package match

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	minRatio = 0.70
	maxRatio = 0.99
)

// compare returns the similarity of two names in [0, 1].
func compare(pack1, pack2 string) float64 {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(pack1, pack2, false)
	matches := 0
	for _, diff := range diffs {
		if diff.Type == diffmatchpatch.DiffEqual {
			matches += len(diff.Text)
		}
	}

	sums := len(pack1) + len(pack2)
	if sums > 0 {
		return 2.0 * float64(matches) / float64(sums)
	}

	return 1.0
}

// Suggest returns the candidate that name most likely misspells, or "" when
// none is close enough. Exact (case-insensitive) matches are never suggested.
func Suggest(name string, candidates []string) string {
	name = strings.ToLower(name)

	best := ""
	bestRatio := 0.0
	for _, c := range candidates {
		ratio := compare(name, strings.ToLower(c))
		if ratio < maxRatio && ratio > minRatio && ratio > bestRatio {
			best = c
			bestRatio = ratio
		}
	}

	return best
}
