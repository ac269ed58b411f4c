package cli

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bootstrapper/internal/app"
	"bootstrapper/internal/shared"
)

// channelFlags are shared by every command that fetches a manifest.
type channelFlags struct {
	Target  string
	Channel string
}

func addChannelFlags(cmd *cobra.Command, flags *channelFlags) {
	cmd.Flags().StringVar(&flags.Target, "target", "", "Installation target (windows, linux, macos)")
	cmd.Flags().StringVar(&flags.Channel, "channel", "", "Channel name")
	_ = viper.BindPFlag("target", cmd.Flags().Lookup("target"))
	_ = viper.BindPFlag("channel", cmd.Flags().Lookup("channel"))
}

func resolveChannelRequest(cmd *cobra.Command, flags channelFlags) app.ChannelRequest {
	return app.ChannelRequest{
		ConfigPath: viper.GetString("product_config"),
		Target:     resolveString(cmd, flags.Target, "target", "target"),
		Channel:    resolveString(cmd, flags.Channel, "channel", "channel"),
	}
}

func resolveString(cmd *cobra.Command, value string, key string, flagName string) string {
	if cmd == nil {
		if value != "" {
			return value
		}
		return viper.GetString(key)
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetString(key)
}

// resolveStrings also splits comma separated values coming from the
// environment.
func resolveStrings(cmd *cobra.Command, values []string, key string, flagName string) []string {
	if cmd == nil {
		if len(values) > 0 {
			return values
		}
		return shared.SplitList(viper.GetStringSlice(key))
	}
	if flagChanged(cmd, flagName) {
		return values
	}
	return shared.SplitList(viper.GetStringSlice(key))
}

func resolveBool(cmd *cobra.Command, value bool, key string, flagName string) bool {
	if cmd == nil {
		return value
	}
	if flagChanged(cmd, flagName) {
		return value
	}
	return viper.GetBool(key)
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil || strings.TrimSpace(name) == "" {
		return false
	}
	if flag := cmd.Flags().Lookup(name); flag != nil {
		return flag.Changed
	}
	if flag := cmd.PersistentFlags().Lookup(name); flag != nil {
		return flag.Changed
	}
	return false
}
