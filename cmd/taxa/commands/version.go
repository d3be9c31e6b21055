package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/taxa/display"
	"github.com/teranos/taxa/version"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show taxa version information",
		Long:  `Display version, build time, commit hash, cache schema and platform information for the taxa binary.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
				return display.OutputJSON(info)
			}
			fmt.Fprintln(display.Stdout, info.String())
			fmt.Fprintf(display.Stdout, "Platform: %s\n", info.Platform)
			fmt.Fprintf(display.Stdout, "Go: %s\n", info.GoVersion)
			return nil
		},
	}
	cmd.Flags().BoolP("json", "j", false, "Output version info as JSON")
	return cmd
}
