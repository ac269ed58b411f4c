package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bootstrapper/internal/adapters"
	"bootstrapper/internal/app"
)

// version is set at build time via ldflags.
var version = "dev"

const envPrefix = "BOOTSTRAPPER"

type RootConfig struct {
	ConfigFile    string
	LogLevel      string
	ProductConfig string
	ProductDir    string
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	root := newRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(exitCodeForError(err))
	}
}

func newRootCommand() *cobra.Command {
	cfg := RootConfig{}
	cmd := &cobra.Command{
		Use:     "bootstrapper",
		Short:   "Component installer for channel manifests",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initConfig(cfg.ConfigFile); err != nil {
				return err
			}
			setupLogging(viper.GetString("log_level"))
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "CLI config file path")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", "info", "Log level")
	cmd.PersistentFlags().StringVar(&cfg.ProductConfig, "product-config", adapters.DefaultConfigFile, "Product configuration (TOML)")
	cmd.PersistentFlags().StringVar(&cfg.ProductDir, "product-dir", "", "Directory name used when the installation path is not empty")
	_ = viper.BindPFlag("log_level", cmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("product_config", cmd.PersistentFlags().Lookup("product-config"))
	_ = viper.BindPFlag("product_dir", cmd.PersistentFlags().Lookup("product-dir"))

	cmd.AddCommand(newInstallCommand())
	cmd.AddCommand(newInspectCommand())
	cmd.AddCommand(newDepsCommand())
	return cmd
}

func initConfig(configFile string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to read .env file").
			WithCause(err)
	}
	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("failed to read config file").
				WithCause(err)
		}
		return nil
	}

	viper.SetConfigName("bootstrapper-cli")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.config/bootstrapper")
	if err := viper.ReadInConfig(); err != nil {
		return nil
	}
	return nil
}

// setupLogging writes logs to stderr so stdout stays free for events.
func setupLogging(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	ctx := context.Background()
	if cmd != nil && cmd.Context() != nil {
		ctx = cmd.Context()
	}
	return log.Logger.WithContext(ctx)
}

func newAppService() app.Service {
	return app.NewServiceWithOptions(app.ServiceOptions{
		HTTP: adapters.HTTPConfig{
			TimeoutSec:   viper.GetInt("http_timeout_sec"),
			Retries:      viper.GetInt("http_retries"),
			RetryDelayMs: viper.GetInt("http_retry_delay_ms"),
			User:         viper.GetString("http_user"),
			APIKey:       viper.GetString("http_api_key"),
		},
		ProgressInterval: time.Duration(viper.GetInt("progress_interval_ms")) * time.Millisecond,
	})
}

func exitCodeForError(err error) int {
	code := errbuilder.CodeOf(err)
	message := errorMessage(err)
	switch code {
	case errbuilder.CodeInvalidArgument, errbuilder.CodeAlreadyExists:
		return 2
	case errbuilder.CodeFailedPrecondition:
		if strings.HasPrefix(message, "Selected platform does not have an installation candidate") {
			return 2
		}
		return 4
	case errbuilder.CodePermissionDenied:
		return 3
	case errbuilder.CodeNotFound:
		if strings.HasPrefix(message, "Selected channel does not exist") {
			return 2
		}
		return 5
	case errbuilder.CodeInternal:
		return 5
	default:
		return 1
	}
}

func errorMessage(err error) string {
	var builder *errbuilder.ErrBuilder
	if errors.As(err, &builder) && strings.TrimSpace(builder.Msg) != "" {
		return builder.Msg
	}
	return err.Error()
}
