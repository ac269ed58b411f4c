package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bootstrapper/internal/adapters"
	"bootstrapper/internal/app"
	"bootstrapper/internal/types"
)

type inspectOptions struct {
	channelFlags
	Select []string
	Output string
	YAML   bool
}

func newInspectCommand() *cobra.Command {
	opts := inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the component tree of a channel",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInspect(cmd, opts)
		},
	}
	addChannelFlags(cmd, &opts.channelFlags)
	cmd.Flags().StringSliceVar(&opts.Select, "select", nil, "Component or category ids to mark selected")
	cmd.Flags().StringVar(&opts.Output, "output", "", "Write the derived tree as YAML to this file")
	cmd.Flags().BoolVar(&opts.YAML, "yaml", false, "Print the derived tree as YAML")
	_ = viper.BindPFlag("output", cmd.Flags().Lookup("output"))
	return cmd
}

func runInspect(cmd *cobra.Command, opts inspectOptions) error {
	service := newAppService()
	result, err := service.Inspect(commandContext(cmd), app.InspectRequest{
		Channel: resolveChannelRequest(cmd, opts.channelFlags),
		Select:  opts.Select,
		Output:  resolveString(cmd, opts.Output, "output", "output"),
	})
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if opts.YAML {
		return adapters.EncodeManifestYAML(out, result.Components)
	}
	fmt.Fprintf(out, "target: %s\nchannel: %s\nchannels: %s\nmanifest: %s\nbase url: %s\n",
		result.Target, result.Channel, strings.Join(result.Channels, ", "), result.URL, result.Components.URL)
	selected := toSet(result.Components.Selected)
	required := toSet(result.Components.Required)
	for _, category := range result.Components.Categories {
		printCategory(out, category, 0, selected, required)
	}
	if result.Output != "" {
		fmt.Fprintf(out, "written: %s\n", result.Output)
	}
	return nil
}

func printCategory(out io.Writer, category types.Category, depth int, selected, required map[string]bool) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(out, "%s%s %s%s\n", indent, marker(category.ID, selected), category.ID, requiredSuffix(category.ID, required))
	for _, sub := range category.Subcategories {
		printCategory(out, sub, depth+1, selected, required)
	}
	for _, component := range category.Components {
		fmt.Fprintf(out, "%s  %s %s%s%s\n", indent, marker(component.ID, selected), component.ID,
			requiredSuffix(component.ID, required), modifiedSuffix(component.DateModified))
	}
}

func marker(id string, selected map[string]bool) string {
	if selected[id] {
		return "[x]"
	}
	return "[ ]"
}

func requiredSuffix(id string, required map[string]bool) string {
	if required[id] {
		return " (required)"
	}
	return ""
}

func modifiedSuffix(value string) string {
	modified := adapters.ParseDateModified(value)
	if modified.IsZero() {
		return ""
	}
	return " modified " + modified.Format("2006-01-02")
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, value := range values {
		set[value] = true
	}
	return set
}
