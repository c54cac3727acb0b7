// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/webtester/internal/config"
	"github.com/xkilldash9x/webtester/internal/observability"
)

type contextKey string

const (
	configKey   contextKey = "config"
	shutdownKey contextKey = "tracing_shutdown"
)

var (
	cfgFile string
	verbose bool

	// osExit is swapped out by tests.
	osExit = os.Exit
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webtester",
		Short: "Webtester drives HTML form fields in a real browser.",
		Long: `Webtester opens pages in Chrome and reads or fills their form fields through
page objects that survive re-rendering of the page.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(cmd, v); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "webtester"})
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger())
			if verbose {
				observability.SetLevel(zapcore.DebugLevel)
			}
			logger := observability.GetLogger()
			logger.Debug("Starting webtester.", zap.String("version", Version))

			shutdown, err := observability.SetupTracing(cmd.Context(), cfg.Tracing(), logger)
			if err != nil {
				// Tracing is optional; a broken exporter must not stop the run.
				logger.Warn("Failed to set up tracing.", zap.Error(err))
			}

			ctx := context.WithValue(cmd.Context(), configKey, cfg)
			ctx = context.WithValue(ctx, shutdownKey, shutdown)
			cmd.SetContext(ctx)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			defer observability.Sync()
			if shutdown, ok := cmd.Context().Value(shutdownKey).(observability.ShutdownFunc); ok && shutdown != nil {
				if err := shutdown(context.WithoutCancel(cmd.Context())); err != nil {
					observability.GetLogger().Warn("Failed to flush traces.", zap.Error(err))
				}
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().String("events", "", "record every fired event as a JSON line to this file")
	cmd.PersistentFlags().Bool("headless", true, "run the browser without a window")
	cmd.PersistentFlags().String("chrome", "", "path to the Chrome executable")
	cmd.PersistentFlags().Duration("wait-timeout", 0, "how long to wait for a re-rendered element (overrides wait.timeout)")
	cmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	cmd.AddCommand(newVersionCmd(), newFillCmd(), newInspectCmd())
	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if errors.Is(err, context.Canceled) {
			osExit(130)
			return
		}
		osExit(1)
	}
}

// initializeConfig reads in the config file, environment variables and flags.
// Precedence is flags, then environment, then file, then defaults.
func initializeConfig(cmd *cobra.Command, v *viper.Viper) error {
	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to expand config path '%s': %w", cfgFile, err)
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home + "/.webtester")
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("WEBTESTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults/env vars
	}

	flags := map[string]string{
		"events":       "events.record_file",
		"headless":     "browser.headless",
		"chrome":       "browser.exec_path",
		"wait-timeout": "wait.timeout",
	}
	for name, key := range flags {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag --%s: %w", name, err)
			}
		}
	}
	return nil
}

// configFrom returns the configuration stored by the root command's pre-run.
func configFrom(cmd *cobra.Command) (*config.Config, error) {
	cfg, ok := cmd.Context().Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("configuration not initialized")
	}
	return cfg, nil
}
