/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/fulmenhq/plimage/pkg/buildinfo"
	"github.com/fulmenhq/plimage/pkg/exitcode"
	"github.com/fulmenhq/plimage/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newRootCommand creates a fresh root command instance.
// This factory pattern allows tests to create isolated command trees without shared state.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plimage",
		Short: "Update container images referenced by course question metadata",
		Long: `Plimage keeps the container images used by course questions in step.
It scans questions/**/info.json in a course repository, checks each workspace or
autograder image against the requested one and rewrites the image tag in place.

Examples:
   plimage update --pl-repo ./course --language python --image ubcmds/base-python --image-type workspace --tag v2
   plimage update --pl-repo ./course --question-folder week1/q1 --language r --image ubcmds/grader-r --image-type autograder --tag 2024.09
   plimage version`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	cmd.PersistentFlags().Bool("no-op", false, "Report what would change without writing any file")
	cmd.PersistentFlags().String("config", "", "Path to a plimage settings file (default: ./plimage.yaml or ~/.plimage/plimage.yaml)")

	// --pl_repo and friends keep working for existing scripts.
	cmd.SetGlobalNormalizationFunc(underscoreToDash)

	cmd.Version = buildinfo.Version()
	cmd.SetVersionTemplate("plimage {{.Version}}\n")

	return cmd
}

func underscoreToDash(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

// registerSubcommands adds all subcommands to the root command.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(newUpdateCommand())
	cmd.AddCommand(newVersionCommand())
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute runs the root command and exits with the code carried by any
// returned error. This is called by main.main().
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error(err.Error())
		os.Exit(exitcode.Of(err))
	}
}

func init() {
	registerSubcommands(rootCmd)
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	noOp, _ := cmd.Flags().GetBool("no-op")

	config := logger.Config{
		Level:     logger.ParseLevel(logLevelStr),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "plimage",
		NoOp:      noOp,
		Output:    cmd.ErrOrStderr(),
	}

	if err := logger.Initialize(config); err != nil {
		_, _ = os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(exitcode.ConfigError)
	}
}
