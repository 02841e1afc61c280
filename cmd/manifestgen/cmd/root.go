package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/anya-manifestgen/internal/config"
	"github.com/oshokin/anya-manifestgen/internal/logger"
	"github.com/oshokin/anya-manifestgen/internal/service/generator"
	"github.com/oshokin/anya-manifestgen/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// saveConfigPath receives the effective settings when set.
	saveConfigPath string
	// flagValues holds settings given on the command line.
	flagValues = config.Default()

	// rootCmd represents the base command that generates archives and the manifest.
	rootCmd = &cobra.Command{
		Use:           "manifestgen",
		Short:         "Generate app store archives and manifest.json",
		Long:          "Scan <repo>/apps/<slug>/<version>/, pack every version into a reproducible tar.gz and describe them in <out>/manifest.json.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cfg, err := resolveConfig(cmd)
			if err != nil {
				return err
			}

			if saveConfigPath != "" {
				if err = config.Save(saveConfigPath, cfg); err != nil {
					return fmt.Errorf("save settings: %w", err)
				}
			}

			_, err = generator.Run(ctx, &generator.Options{
				Repo:      cfg.Repo,
				Out:       cfg.Out,
				URLPrefix: cfg.URLPrefix,
				Workers:   cfg.Workers,
			})

			return err
		},
	}
)

// Execute runs the manifestgen CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Errorf(context.Background(), "%v", err)
		os.Exit(1)
	}
}

// resolveConfig layers the configuration file and explicitly set flags over the defaults
// and applies the resulting log level.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)

	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.Default()
	default:
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("repo") {
		cfg.Repo = flagValues.Repo
	}

	if flags.Changed("out") {
		cfg.Out = flagValues.Out
	}

	if flags.Changed("url-prefix") {
		cfg.URLPrefix = flagValues.URLPrefix
	}

	if flags.Changed("workers") {
		cfg.Workers = flagValues.Workers
	}

	if flags.Changed("log-level") {
		cfg.LogLevel = flagValues.LogLevel
	}

	if err = config.Validate(cfg); err != nil {
		return nil, err
	}

	level, _ := logger.ParseLogLevel(cfg.LogLevel)
	logger.SetLevel(level)

	return cfg, nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	flags.StringVar(&saveConfigPath, "save-config", "", "write the effective settings to this path")
	flags.StringVarP(&flagValues.Repo, "repo", "r", config.DefaultRepo, "path to the app store repository root")
	flags.StringVarP(&flagValues.Out, "out", "o", config.DefaultOut, "output directory")
	flags.StringVar(&flagValues.URLPrefix, "url-prefix", "", "prefix for archive URLs (default: relative apps/<appId>/<version>.tar.gz)")
	flags.IntVarP(&flagValues.Workers, "workers", "w", config.DefaultWorkers, "number of archives packed in parallel")
	flags.StringVar(&flagValues.LogLevel, "log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
}
