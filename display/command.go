package display

import (
	"flag"

	"github.com/spf13/cobra"
)

// ShouldOutputJSON decides between JSON and a text rendering for commands
// that have both. An explicit --json wins; otherwise JSON is used whenever
// stdout is not a terminal.
func ShouldOutputJSON(cmd *cobra.Command) bool {
	if cmd != nil {
		if f := cmd.Flags().Lookup("json"); f != nil && f.Changed {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			return jsonFlag
		}
		if globalFlag, err := cmd.Root().PersistentFlags().GetBool("json"); err == nil && globalFlag {
			return true
		}
	}
	if flag.Lookup("test.v") != nil {
		return false
	}
	return !isTerminal()
}

// OutputJSON marshals and prints JSON to Stdout using MarshalJSON
func OutputJSON(v interface{}) error {
	return WriteJSON(Stdout, v)
}
