package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog/log"

	"github.com/kvesta/audit-guard/config"
	"github.com/kvesta/audit-guard/internal/classify"
	"github.com/kvesta/audit-guard/internal/policy"
	"github.com/kvesta/audit-guard/internal/progress"
	"github.com/kvesta/audit-guard/internal/report"
	"github.com/kvesta/audit-guard/pkg/npmaudit"
)

// Auditor runs the external audit. *npmaudit.Invoker implements it.
type Auditor interface {
	IsValidProject(ctx context.Context) bool
	Run(ctx context.Context, includeDev bool) (*npmaudit.Document, error)
}

// Options are the command line values of a run. Dev is nil when --dev was
// not given.
type Options struct {
	Dev       *bool
	Blacklist string
	JUnit     bool
	Output    string
	Timeout   time.Duration
	Progress  bool
}

type App struct {
	Auditor Auditor
	Dir     string
	Stdout  io.Writer
	Stderr  io.Writer
	Theme   config.Theme
	Now     func() time.Time
}

func NewApp(dir string) *App {
	return &App{
		Auditor: npmaudit.NewInvoker(dir),
		Dir:     dir,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Theme:   config.DefaultTheme(),
		Now:     time.Now,
	}
}

// DoAudit runs the audit flow and returns the process exit code.
func (a *App) DoAudit(ctx context.Context, opts Options) int {
	result, err := a.audit(ctx, opts)
	if err != nil {
		log.Debug().Err(err).Msg("audit aborted")
		fmt.Fprintf(a.Stderr, "\n%s\n", color.New(a.Theme.Failure).Sprintf("Error: %v", err))
		return config.ExitError
	}

	if result.Total > 0 {
		return config.ExitVulnerable
	}
	return config.ExitClean
}

func (a *App) audit(ctx context.Context, opts Options) (classify.Result, error) {
	if !a.Auditor.IsValidProject(ctx) {
		return classify.Result{}, npmaudit.ErrNoProject
	}

	file, err := policy.Load(a.Dir)
	if err != nil {
		return classify.Result{}, err
	}
	p := policy.Merge(opts.Blacklist, opts.Dev, file)

	log.Debug().Strs("blacklist", p.Blacklist).Bool("includeDev", p.IncludeDev).Msg("effective policy")

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	doc, err := progress.Track(a.Stderr, opts.Progress, func() (*npmaudit.Document, error) {
		return a.Auditor.Run(ctx, p.IncludeDev)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return classify.Result{}, fmt.Errorf("%w (timeout %s)", err, opts.Timeout)
		}
		return classify.Result{}, err
	}
	if doc == nil {
		doc = &npmaudit.Document{}
	}
	log.Debug().Int("auditReportVersion", doc.ReportVersion).Int("packages", len(doc.Vulnerabilities)).
		Msg("audit finished")

	result := classify.Classify(doc, p.Blacklist)
	report.NewConsole(a.Stdout, a.Theme).ResolveAuditData(result, doc.Metadata)

	if opts.JUnit {
		path, err := report.SaveJUnit(result, opts.Output, a.now())
		if err != nil {
			return classify.Result{}, err
		}
		fmt.Fprintf(a.Stdout, "\n%s\n", color.New(a.Theme.Success).Sprintf("JUnit XML report saved: %s", path))
	}

	return result, nil
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now()
	}
	return a.Now()
}

// DoInit writes a default config file into the working directory.
func (a *App) DoInit() int {
	path, created, err := policy.WriteDefault(a.Dir)
	if err != nil {
		fmt.Fprintf(a.Stderr, "\n%s\n", color.New(a.Theme.Failure).Sprintf("Error: %v", err))
		return config.ExitError
	}

	if !created {
		fmt.Fprintln(a.Stdout, color.New(a.Theme.Warning).Sprintf("%s already exists, leaving it untouched", path))
		return config.ExitClean
	}

	fmt.Fprintln(a.Stdout, color.New(a.Theme.Success).Sprintf("Created %s", path))
	return config.ExitClean
}
