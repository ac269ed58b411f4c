package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bootstrapper/internal/app"
)

type depsOptions struct {
	channelFlags
	Reverse bool
}

func newDepsCommand() *cobra.Command {
	opts := depsOptions{}
	cmd := &cobra.Command{
		Use:   "deps <id>",
		Short: "List the dependencies of a component or category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd, args[0], opts)
		},
	}
	addChannelFlags(cmd, &opts.channelFlags)
	cmd.Flags().BoolVar(&opts.Reverse, "reverse", false, "List dependants instead of dependencies")
	_ = viper.BindPFlag("reverse", cmd.Flags().Lookup("reverse"))
	return cmd
}

func runDeps(cmd *cobra.Command, id string, opts depsOptions) error {
	service := newAppService()
	result, err := service.Dependencies(commandContext(cmd), app.DependenciesRequest{
		Channel: resolveChannelRequest(cmd, opts.channelFlags),
		ID:      id,
		Reverse: resolveBool(cmd, opts.Reverse, "reverse", "reverse"),
	})
	if err != nil {
		return err
	}
	for _, dep := range result.IDs {
		fmt.Fprintln(cmd.OutOrStdout(), dep)
	}
	return nil
}
