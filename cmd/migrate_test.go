package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateCmd(t *testing.T) {
	useConfigFile(t, filepath.Join(t.TempDir(), "luna.db"))

	out, err := execute(t, newMigrateCmd(), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "pending")
	assert.NotContains(t, out, "applied")

	out, err = execute(t, newMigrateCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Applied")

	out, err = execute(t, newMigrateCmd(), "up")
	require.NoError(t, err)
	assert.Contains(t, out, "Database is up to date")

	out, err = execute(t, newMigrateCmd(), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "applied")
	assert.NotContains(t, out, "pending")
}

func TestMigrateCmd_UnknownAction(t *testing.T) {
	useConfigFile(t, filepath.Join(t.TempDir(), "luna.db"))

	_, err := execute(t, newMigrateCmd(), "down")
	assert.Error(t, err)
}

func TestResyncCmd_WithoutCalendar(t *testing.T) {
	useConfigFile(t, filepath.Join(t.TempDir(), "luna.db"))

	_, err := execute(t, newResyncCmd())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no calendar configured")
}

func TestAuthCmd_NotConfigured(t *testing.T) {
	useConfigFile(t, filepath.Join(t.TempDir(), "luna.db"))

	_, err := execute(t, newAuthCmd(), "--code", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_CLIENT_ID")
}
