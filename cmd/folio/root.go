package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/config"
	"github.com/jackzampolin/folio/internal/home"
	"github.com/jackzampolin/folio/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
	logLevel     string
)

// Loaded by the root command before any subcommand runs.
var (
	folioHome *home.Dir
	cfgMgr    *config.Manager
	logger    *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "folio",
	Short: "Split long PDFs into chapter-sized documents",
	Long: `Folio splits a long PDF into chapter-sized sub-documents.

Documents with embedded text are split on detected chapter headings
(or at a fixed page interval when none are found). Scanned documents
are rasterised and recognised with tesseract first. Every run writes
a JSON processing report next to the chapters.`,
	Version:      version.GitRelease,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, err := api.ParseFormat(outputFormat)
		if err != nil {
			return err
		}
		api.SetFormat(format)

		folioHome, err = home.New(homeDir)
		if err != nil {
			return err
		}

		cfgMgr, err = config.NewManager(cfgFile, folioHome.Path())
		if err != nil {
			return err
		}

		level := cfgMgr.Get().LogLevel
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		lvl, err := config.ParseLevel(level)
		if err != nil {
			return err
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
		slog.SetDefault(logger)
		if f := cfgMgr.File(); f != "" {
			logger.Debug("loaded config", "file", f)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./folio.yaml or ~/.folio/folio.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "folio home directory (default: ~/.folio)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "info", "log level: debug, info, warn or error",
	)

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(detectTypeCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(ocrStatusCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

// outputDir resolves the output directory: flag, then config, then the
// home directory default.
func outputDir(flag string) string {
	if flag != "" {
		return flag
	}
	if dir := cfgMgr.Get().OutputDir; dir != "" {
		return dir
	}
	return folioHome.OutputPath()
}
