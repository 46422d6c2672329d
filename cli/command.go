package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/kvesta/audit-guard/cmd"
	"github.com/kvesta/audit-guard/config"
	"github.com/kvesta/audit-guard/internal/policy"
	"github.com/kvesta/audit-guard/internal/progress"
)

type flags struct {
	dev        bool
	blacklist  string
	junit      bool
	output     string
	timeout    time.Duration
	verbose    bool
	noProgress bool
}

// NewRootCommand builds the command tree. The exit code of the last run is
// stored in code.
func NewRootCommand(app *cmd.App, code *int) *cobra.Command {
	var f flags

	rootCmd := &cobra.Command{
		Use:   "audit-guard [OPTIONS]",
		Short: "npm security audit with blacklist support",
		Long: `audit-guard runs npm audit, ignores the packages listed in the blacklist
and reports the remaining vulnerabilities on the console and as JUnit XML`,
		Args:          NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(c *cobra.Command, args []string) {
			config.SetupLogger(os.Stderr, f.verbose)
		},
		Run: func(c *cobra.Command, args []string) {
			opts := cmd.Options{
				Blacklist: f.blacklist,
				JUnit:     f.junit,
				Output:    f.output,
				Timeout:   f.timeout,
				Progress:  !f.noProgress && progress.Enabled(os.Stderr),
			}
			if c.Flags().Changed("dev") {
				dev := f.dev
				opts.Dev = &dev
			}

			*code = app.DoAudit(c.Context(), opts)
		},
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default " + policy.FileName,
		Args:  NoArgs,
		Run: func(c *cobra.Command, args []string) {
			*code = app.DoInit()
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information and quit",
		Args:  NoArgs,
		Run: func(c *cobra.Command, args []string) {
			fmt.Fprintln(c.OutOrStdout(), config.Version)
		},
	}

	rootCmd.Flags().BoolVar(&f.dev, "dev", false, "include dev dependencies in scan")
	rootCmd.Flags().StringVar(&f.blacklist, "blacklist", "", "comma-separated list of packages to ignore")
	rootCmd.Flags().BoolVar(&f.junit, "junit", false, "generate JUnit XML report for CI/CD integration")
	rootCmd.Flags().StringVarP(&f.output, "output", "o", "", "path for JUnit XML output (default: "+config.DefaultReportPath+")")
	rootCmd.Flags().DurationVar(&f.timeout, "timeout", 0, "abort the audit after this duration (0 disables)")
	rootCmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "do not draw the progress bar")
	rootCmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.Version = config.Version

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "\n%s\n", config.Red(fmt.Sprintf("Error: %v", err)))
		return config.ExitError
	}

	code := config.ExitClean
	rootCmd := NewRootCommand(cmd.NewApp(dir), &code)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "\n%s\n", config.Red(fmt.Sprintf("Error: %v", err)))
		return config.ExitError
	}

	return code
}
