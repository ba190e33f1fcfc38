package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubCommands(t *testing.T) {
	for _, name := range []string{"start", "seed", "migrate", "config"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.NotEqual(t, rootCmd, cmd, name)
	}

	cmd, _, err := rootCmd.Find([]string{"migrate"})
	require.NoError(t, err)
	assert.Equal(t, seedCmd, cmd)
}
