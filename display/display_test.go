package display

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	orig := Stdout
	Stdout = &buf
	defer func() { Stdout = orig }()

	require.NoError(t, OutputJSON(map[string]int{"taxid": 562}))
	assert.Equal(t, "{\n  \"taxid\": 562\n}\n", buf.String())

	err := OutputJSON(func() {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to marshal JSON")
}

func TestShouldOutputJSON(t *testing.T) {
	newCmd := func() *cobra.Command {
		root := &cobra.Command{Use: "taxa"}
		cmd := &cobra.Command{Use: "version", Run: func(*cobra.Command, []string) {}}
		cmd.Flags().Bool("json", false, "")
		root.AddCommand(cmd)
		return cmd
	}

	cmd := newCmd()
	assert.False(t, ShouldOutputJSON(cmd), "text by default under test")

	require.NoError(t, cmd.Flags().Set("json", "true"))
	assert.True(t, ShouldOutputJSON(cmd))

	cmd = newCmd()
	require.NoError(t, cmd.Flags().Set("json", "false"))
	assert.False(t, ShouldOutputJSON(cmd))

	assert.False(t, ShouldOutputJSON(nil))
}
