package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinidoc/actd/internal/build"
)

func TestCommandConstruction(t *testing.T) {
	t.Run("server", func(t *testing.T) {
		c := Server()
		require.NotNil(t, c.Flags().Lookup("host"))
		require.NotNil(t, c.Flags().Lookup("port"))
		assert.NotNil(t, c.Flags().Lookup("config"))
		assert.NotNil(t, c.Flags().Lookup("quiet"))
	})
	t.Run("check", func(t *testing.T) {
		c := Check()
		require.NotNil(t, c.Flags().Lookup("authority"))
	})
	t.Run("status", func(t *testing.T) {
		c := Status()
		require.NotNil(t, c.Flags().Lookup("authority"))
	})
	t.Run("activate", func(t *testing.T) {
		c := Activate()
		require.NotNil(t, c.Flags().Lookup("authority"))
		require.NotNil(t, c.Flags().Lookup("api-key"))
	})
	t.Run("deactivate", func(t *testing.T) {
		c := Deactivate()
		require.NotNil(t, c.Flags().Lookup("api-key"))
	})
	t.Run("set", func(t *testing.T) {
		c := Set()
		require.NotNil(t, c.Flags().Lookup("api-key"))
		require.NotNil(t, c.Flags().Lookup("active"))
		require.NotNil(t, c.Flags().Lookup("message"))
	})
}

func TestVersionCommandPrintsToStdout(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	cmd := Version()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, build.Version+"\n", out.String())
}

func TestAdminCommandRequiresAPIKey(t *testing.T) {
	t.Setenv("ACTD_HOME", t.TempDir())

	cmd := Deactivate()
	cmd.SetArgs([]string{"--quiet"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api-key")
}
