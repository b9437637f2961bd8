package cmd

import (
	"fmt"

	"github.com/fulmenhq/plimage/internal/discover"
	"github.com/fulmenhq/plimage/internal/invocation"
	"github.com/fulmenhq/plimage/internal/report"
	"github.com/fulmenhq/plimage/internal/update"
	"github.com/fulmenhq/plimage/pkg/config"
	"github.com/fulmenhq/plimage/pkg/exitcode"
	"github.com/fulmenhq/plimage/pkg/ledger"
	"github.com/fulmenhq/plimage/pkg/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flag names double as viper keys, so PLIMAGE_PL_REPO etc. work too.
var updateFlagKeys = []string{
	"pl-repo",
	"question-folder",
	"language",
	"image",
	"image-type",
	"tag",
	"log-output",
	"report-format",
}

func newUpdateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Rewrite workspace or autograder images in question metadata",
		Long: `Update scans <pl-repo>/questions/**/info.json (or a single question with
--question-folder) and sets the workspaceOptions or externalGradingOptions image
to <image>:<tag> wherever the current image is for the same language.

Nothing is written when any flag is invalid. Problems with individual files are
listed in the report and do not stop the run.`,
		Args: cobra.NoArgs,
		RunE: runUpdate,
	}

	cmd.Flags().String("pl-repo", "", "Course repository root (required)")
	cmd.Flags().String("question-folder", "", "Only update questions/<folder>/info.json")
	cmd.Flags().String("language", "", "Image language: r or python (required)")
	cmd.Flags().String("image", "", "Image name without tag, e.g. ubcmds/base-python (required)")
	cmd.Flags().String("image-type", "", "Which image to update: workspace or autograder (required)")
	cmd.Flags().String("tag", "", "Image tag; must not be 'latest' (required)")
	cmd.Flags().String("log-output", invocation.LogConsole, "Report destination: console, file, both, or a path ending in .txt")
	cmd.Flags().String("report-format", invocation.FormatText, "Console report format: text, json, yaml or toml")
	cmd.Flags().Bool("respect-ignore", false, "Skip questions matched by the repository's .gitignore or .plimageignore")

	return cmd
}

func bindUpdateFlags(cmd *cobra.Command, v *viper.Viper) error {
	for _, key := range updateFlagKeys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(key)); err != nil {
			return err
		}
	}
	return v.BindPFlag("discover.respect_ignore", cmd.Flags().Lookup("respect-ignore"))
}

func runUpdate(cmd *cobra.Command, _ []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	noOp, _ := cmd.Flags().GetBool("no-op")

	v := config.New(configFile)
	if err := bindUpdateFlags(cmd, v); err != nil {
		return exitcode.Wrap(exitcode.GeneralError, err)
	}
	cfg, err := config.Load(v)
	if err != nil {
		return exitcode.Wrap(exitcode.ConfigError, err)
	}

	inv, err := invocation.Resolve(invocation.Params{
		Repo:           v.GetString("pl-repo"),
		QuestionFolder: v.GetString("question-folder"),
		Language:       v.GetString("language"),
		Image:          v.GetString("image"),
		ImageType:      v.GetString("image-type"),
		Tag:            v.GetString("tag"),
		LogOutput:      v.GetString("log-output"),
		ReportFormat:   v.GetString("report-format"),
		DryRun:         noOp,
		Namespace:      cfg.Namespace,
		LogExtension:   cfg.Log.Extension,
	})
	if err != nil {
		return exitcode.Wrap(exitcode.ConfigError, err)
	}

	finder, err := discover.New(discover.Options{
		Root:          inv.Repo(),
		QuestionsDir:  cfg.QuestionsDir,
		MetadataFile:  cfg.MetadataFile,
		Exclude:       cfg.Discover.Exclude,
		RespectIgnore: cfg.Discover.RespectIgnore,
	})
	if err != nil {
		return exitcode.Wrap(exitcode.ConfigError, err)
	}

	logger.Info("Updating question images",
		logger.String("target", inv.Target()),
		logger.String("type", inv.ImageType()),
		logger.String("repo", inv.Repo()))

	l := ledger.New()
	files, err := finder.Find(inv.QuestionFolder(), l)
	if err != nil {
		return exitcode.Wrap(exitcode.FileSystemError, fmt.Errorf("discover metadata files: %w", err))
	}

	proc := update.NewProcessor(inv, update.Options{
		Indent:            cfg.JSON.Indent,
		LegacyImagePrefix: cfg.LegacyImagePrefix,
	}, l)
	if err := proc.Run(cmd.Context(), files); err != nil {
		return err
	}

	rep := report.New(report.Options{
		Destination: inv.Log(),
		Format:      inv.ReportFormat(),
		DefaultFile: cfg.Log.DefaultFile,
		Out:         cmd.OutOrStdout(),
		ErrOut:      cmd.ErrOrStderr(),
	})
	if _, err := rep.Report(l); err != nil {
		return exitcode.Wrap(exitcode.FileSystemError, err)
	}
	return nil
}
