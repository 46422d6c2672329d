package npmaudit

import (
	"context"
	"strings"

	version2 "github.com/hashicorp/go-version"
)

const (
	omitDevFlag    = "--omit=dev"
	productionFlag = "--production"
)

// npm 7 replaced --production with --omit=dev
var legacyOmit = version2.MustConstraints(version2.NewConstraint("< 7.0.0"))

// DevExclusionFlag returns the flag that drops devDependencies from the
// audit for the given npm version. An unknown version gets the modern flag.
func DevExclusionFlag(v *version2.Version) string {
	if v != nil && legacyOmit.Check(v) {
		return productionFlag
	}
	return omitDevFlag
}

// Version asks npm for its version.
func (i *Invoker) Version(ctx context.Context) (*version2.Version, error) {
	res, err := i.runner().Run(ctx, i.Dir, i.binary(), "--version")
	if err != nil {
		return nil, err
	}
	return version2.NewVersion(strings.TrimSpace(string(res.Stdout)))
}
