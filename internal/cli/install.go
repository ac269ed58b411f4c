package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bootstrapper/internal/adapters"
	"bootstrapper/internal/app"
	"bootstrapper/internal/ports"
)

type installOptions struct {
	channelFlags
	Path     string
	Select   []string
	Unselect []string
	Events   string
}

func newInstallCommand() *cobra.Command {
	opts := installOptions{}
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the selected components of a channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstall(cmd, opts)
		},
	}
	addChannelFlags(cmd, &opts.channelFlags)
	cmd.Flags().StringVar(&opts.Path, "path", "", "Installation path")
	cmd.Flags().StringSliceVar(&opts.Select, "select", nil, "Component or category ids to select")
	cmd.Flags().StringSliceVar(&opts.Unselect, "unselect", nil, "Component or category ids to unselect")
	cmd.Flags().StringVar(&opts.Events, "events", "console", "Event output (console, json, log)")
	_ = viper.BindPFlag("path", cmd.Flags().Lookup("path"))
	_ = viper.BindPFlag("select", cmd.Flags().Lookup("select"))
	_ = viper.BindPFlag("unselect", cmd.Flags().Lookup("unselect"))
	_ = viper.BindPFlag("events", cmd.Flags().Lookup("events"))
	return cmd
}

func runInstall(cmd *cobra.Command, opts installOptions) error {
	ctx := commandContext(cmd)
	sink, err := newEventSink(resolveString(cmd, opts.Events, "events", "events"), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	channel := resolveChannelRequest(cmd, opts.channelFlags)
	service := newAppService()
	result, err := service.Install(ctx, app.InstallRequest{
		Session: app.SessionRequest{
			ConfigPath: channel.ConfigPath,
			ProductDir: viper.GetString("product_dir"),
		},
		Path:     resolveString(cmd, opts.Path, "path", "path"),
		Target:   channel.Target,
		Channel:  channel.Channel,
		Select:   resolveStrings(cmd, opts.Select, "select", "select"),
		Unselect: resolveStrings(cmd, opts.Unselect, "unselect", "unselect"),
	}, sink)
	if err != nil {
		return err
	}
	log.Ctx(ctx).Info().
		Str("session", result.SessionID).
		Str("path", result.Path).
		Str("target", string(result.Target)).
		Str("channel", result.Channel).
		Int("selected", len(result.Selected)).
		Msg("install complete")
	return nil
}

func newEventSink(kind string, out io.Writer) (ports.EventSinkPort, error) {
	logSink := adapters.NewLogEventSink(log.Logger)
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "console":
		return adapters.MultiEventSink{logSink, adapters.NewConsoleEventSink(out)}, nil
	case "json":
		return adapters.MultiEventSink{logSink, adapters.NewJSONEventSink(out)}, nil
	case "log":
		return logSink, nil
	default:
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown event output %q", kind))
	}
}
