// -- cmd/root.go --
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/surveypilot/internal/config"
	"github.com/xkilldash9x/surveypilot/internal/observability"
)

// viperKeyAnnotation marks a flag with the configuration key it overrides.
const viperKeyAnnotation = "surveypilot/viper-key"

// app carries the state shared by every command of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
}

// NewRootCommand builds a fresh command tree with its own viper instance, so repeated invocations
// (and tests) never share flag or configuration state.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	config.SetDefaults(a.v)

	rootCmd := &cobra.Command{
		Use:           "surveypilot",
		Short:         "surveypilot fills customer satisfaction questionnaires unattended.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(cmd); err != nil {
				// Config failed before the logger exists; report through a console fallback.
				observability.Initialize(
					config.LoggerConfig{Level: "info", Format: "console", ServiceName: "surveypilot"},
					zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr())),
				)
				return err
			}
			observability.Initialize(a.cfg.Logger, zapcore.Lock(zapcore.AddSync(cmd.ErrOrStderr())))
			observability.GetLogger().Debug("Configuration loaded.",
				zap.String("version", Version), zap.String("config_file", a.v.ConfigFileUsed()))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (console or json)")
	bindFlag(rootCmd.PersistentFlags(), "log-level", "logger.level")
	bindFlag(rootCmd.PersistentFlags(), "log-format", "logger.format")
	rootCmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	rootCmd.AddCommand(newRunCmd(a), newServeCmd(a), newClassifyCmd(a), newConfigCmd(a), newVersionCmd())
	return rootCmd
}

// Execute runs the command line against ctx, which main cancels on SIGINT/SIGTERM.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			observability.GetLogger().Warn("Interrupted.")
		} else {
			fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		}
	}
	observability.Sync()
	return err
}

// bindFlag records that flag overrides key; the binding is applied when the command runs.
func bindFlag(fs *pflag.FlagSet, flag, key string) {
	if err := fs.SetAnnotation(flag, viperKeyAnnotation, []string{key}); err != nil {
		panic(fmt.Sprintf("binding unknown flag %q: %v", flag, err))
	}
}

// load reads the config file and environment, applies the flags the user actually set, and validates.
func (a *app) load(cmd *cobra.Command) error {
	if err := initializeConfig(a.v, a.cfgFile); err != nil {
		return err
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		keys := f.Annotations[viperKeyAnnotation]
		if len(keys) == 0 || bindErr != nil {
			return
		}
		// Only changed flags bind; an untouched flag default must not shadow the config file.
		if f.Changed {
			bindErr = a.v.BindPFlag(keys[0], f)
		}
	})
	if bindErr != nil {
		return bindErr
	}

	cfg, err := config.NewConfigFromViper(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// initializeConfig reads in the config file and SURVEYPILOT_* environment variables.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("SURVEYPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file; defaults and environment apply.
	}
	return nil
}
