package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "clipkeep", cmd.Use)
	assert.Contains(t, cmd.Long, "snippets")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{
		"init", "add", "show", "edit", "rm", "snippets",
		"list", "table", "tags", "tag", "untag", "retag",
		"maintain", "info",
	}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	collectionFlag := cmd.PersistentFlags().Lookup("collection")
	require.NotNil(t, collectionFlag)
	assert.Equal(t, "c", collectionFlag.Shorthand)
	assert.Equal(t, "default", collectionFlag.DefValue)
}

func TestAddCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	addCmd, _, err := cmd.Find([]string{"add"})
	require.NoError(t, err)

	kindFlag := addCmd.Flags().Lookup("kind")
	require.NotNil(t, kindFlag)
	assert.Equal(t, "text", kindFlag.DefValue)

	require.NotNil(t, addCmd.Flags().Lookup("sensitive"))
	require.NotNil(t, addCmd.Flags().Lookup("tag"))
}

func TestListSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"create", "rm", "steps", "ls", "step-add", "step-move", "step-rm"} {
		subCmd, _, err := cmd.Find([]string{"list", name})
		require.NoError(t, err, "list %s should exist", name)
		assert.Equal(t, name, subCmd.Name())
	}
}

func TestTableSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"create", "rm", "ls", "set", "cell", "cell-rm", "export"} {
		subCmd, _, err := cmd.Find([]string{"table", name})
		require.NoError(t, err, "table %s should exist", name)
		assert.Equal(t, name, subCmd.Name())
	}
}

func TestMaintainSubcommands(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"prune-tags", "recount-tag", "renumber"} {
		subCmd, _, err := cmd.Find([]string{"maintain", name})
		require.NoError(t, err, "maintain %s should exist", name)
		assert.Equal(t, name, subCmd.Name())
	}
}

func TestIsValidFormat(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))
	assert.False(t, isValidFormat("yaml"))
	assert.False(t, isValidFormat(""))
}
