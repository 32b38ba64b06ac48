package paths

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvDataDir, "/custom/data")
	t.Setenv(EnvConfigDir, "/custom/config")

	p, err := New()
	require.NoError(t, err)

	assert.Equal(t, "/custom/data", p.DataDir())
	assert.Equal(t, "/custom/config", p.ConfigDir())
}

func TestXDGDefaults(t *testing.T) {
	t.Setenv(EnvDataDir, "")
	t.Setenv(EnvConfigDir, "")

	p, err := New()
	require.NoError(t, err)

	assert.Equal(t, AppDirName, filepath.Base(p.DataDir()))
	assert.Equal(t, AppDirName, filepath.Base(p.ConfigDir()))
}

func TestDatastoreLayout(t *testing.T) {
	t.Setenv(EnvDataDir, "/data")
	p, err := New()
	require.NoError(t, err)

	assert.Equal(t, "/data/archives", p.ArchivesRoot())
	assert.Equal(t, "/data/archives/mod-1", p.ModDir("mod-1"))
	assert.Equal(t, "/data/archives/mod-1/mod.toml", p.ModManifestPath("mod-1"))
	assert.Equal(t, "/data/archives/mod-1/payload", p.ModPayloadDir("mod-1"))

	assert.Equal(t, "/data/installs", p.InstallsRoot())
	assert.Equal(t, "/data/installs/inst-1", p.InstallDir("inst-1"))
	assert.Equal(t, "/data/installs/inst-1/install.toml", p.InstallManifestPath("inst-1"))
	assert.Equal(t, "/data/installs/inst-1/profiles", p.ProfilesRoot("inst-1"))
	assert.Equal(t, "/data/installs/inst-1/profiles/prof-1.toml", p.ProfilePath("inst-1", "prof-1"))

	assert.Equal(t, "/data/installs/inst-1/backups", p.BackupsRoot("inst-1"))
	assert.Equal(t, "/data/installs/inst-1/backups/files/car/livery.dat",
		p.BackupFilePath("inst-1", "car/livery.dat"))
	assert.Equal(t, "/data/installs/inst-1/backups/absent/car/new.dat",
		p.BackupAbsentPath("inst-1", "car/new.dat"))
}

func TestLogFilePath(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/state")

	p, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/state/modlay/modlay.log", p.LogFilePath())
}

func TestExpandHome(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv(EnvDataDir, "~/modlay-data")

	p, err := New()
	require.NoError(t, err)
	assert.Equal(t, "/home/tester/modlay-data", p.DataDir())
}
