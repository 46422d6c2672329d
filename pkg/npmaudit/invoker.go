package npmaudit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

const DefaultBinary = "npm"

// Invoker runs `npm audit` inside a project directory.
type Invoker struct {
	Binary string
	Dir    string
	Runner Runner

	devFlag string
}

func NewInvoker(dir string) *Invoker {
	return &Invoker{
		Binary: DefaultBinary,
		Dir:    dir,
		Runner: ExecRunner{MaxOutput: DefaultMaxOutput},
	}
}

func (i *Invoker) binary() string {
	if i.Binary == "" {
		return DefaultBinary
	}
	return i.Binary
}

func (i *Invoker) runner() Runner {
	if i.Runner == nil {
		return ExecRunner{MaxOutput: DefaultMaxOutput}
	}
	return i.Runner
}

// Args builds the audit arguments. Without includeDev the devDependencies
// are omitted using the flag the installed npm understands.
func (i *Invoker) Args(ctx context.Context, includeDev bool) []string {
	args := []string{"audit", "--json"}
	if includeDev {
		return args
	}

	if i.devFlag == "" {
		v, err := i.Version(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("cannot detect npm version")
		}
		i.devFlag = DevExclusionFlag(v)
	}

	return append(args, i.devFlag)
}

// Run executes the audit and returns the parsed report.
//
// npm exits non-zero whenever vulnerabilities are found, so stdout is parsed
// before the exit status is looked at. Only when no report was produced is
// the failure classified.
func (i *Invoker) Run(ctx context.Context, includeDev bool) (*Document, error) {
	args := i.Args(ctx, includeDev)
	log.Debug().Str("dir", i.Dir).Strs("args", args).Msg("running npm audit")

	res, runErr := i.runner().Run(ctx, i.Dir, i.binary(), args...)
	if runErr != nil && ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuditFailed, ctx.Err())
	}

	if len(bytes.TrimSpace(res.Stdout)) > 0 {
		if res.Truncated {
			return nil, fmt.Errorf("%w: output exceeds %d bytes", ErrUnparseableOutput, len(res.Stdout))
		}

		doc, err := Parse(res.Stdout)
		if err != nil {
			var npmErr *NpmError
			if errors.As(err, &npmErr) {
				return nil, classifyFailure(npmErr)
			}
			return nil, fmt.Errorf("%w: %v", ErrUnparseableOutput, err)
		}

		if runErr != nil {
			log.Debug().Int("exit", res.ExitCode).Int("vulnerabilities", len(doc.Vulnerabilities)).
				Msg("npm audit exited non-zero with a report")
		}
		return doc, nil
	}

	if runErr == nil {
		return nil, fmt.Errorf("%w: no output from npm audit command", ErrAuditFailed)
	}

	return nil, classifyFailure(runErr)
}

// IsValidProject reports whether npm resolves a project prefix for Dir.
// Failures, including a missing npm, yield false.
func (i *Invoker) IsValidProject(ctx context.Context) bool {
	res, err := i.runner().Run(ctx, i.Dir, i.binary(), "prefix")
	if err != nil {
		log.Debug().Err(err).Msg("npm prefix failed")
		return false
	}
	return strings.TrimSpace(string(res.Stdout)) != ""
}
