package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"scamslayer-service/internal/config"
)

type options struct {
	port       string
	configPath string
	verbose    bool
	level      zap.AtomicLevel
	logger     *zap.Logger
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &options{logger: zap.NewNop(), level: zap.NewAtomicLevel()}

	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:           "scamslayer",
		Short:         "Scam-awareness training service: scenarios, progression and anonymous reports",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadDotEnv(); err != nil {
				return err
			}
			zcfg := zap.NewProductionConfig()
			if opts.verbose {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := zcfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			opts.level = zcfg.Level
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.logger.Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.port, "port", "", "port to listen on (overrides config and PORT)")
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.AddCommand(newStartCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newCatalogCmd(opts))
	cmd.AddCommand(newTokenCmd(opts))
	return cmd
}

// loadConfig reads the config and applies its log level unless --verbose was given.
func (o *options) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	if o.port != "" {
		cfg.Server.Port = o.port
	}
	if !o.verbose {
		if lvl, err := zapcore.ParseLevel(cfg.Log.Level); err == nil {
			o.level.SetLevel(lvl)
		} else {
			o.logger.Warn("ignoring unknown log level", zap.String("level", cfg.Log.Level))
		}
	}
	return cfg, nil
}
