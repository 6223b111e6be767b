package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultDataDirMacOS(t *testing.T) {
	dir := defaultDataDirForOS("darwin")
	assert.Equal(t, filepath.Join(homeDir(), "Library", "Application Support", "daybook"), dir)
}

func TestDefaultDataDirLinux(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")
	assert.Equal(t, filepath.Join(homeDir(), ".local", "share", "daybook"), defaultDataDirForOS("linux"))

	t.Setenv("XDG_DATA_HOME", "/custom/data")
	assert.Equal(t, filepath.Join("/custom/data", "daybook"), defaultDataDirForOS("freebsd"))
}

func TestDefaultDataDirWindows(t *testing.T) {
	t.Setenv("LOCALAPPDATA", `C:\Users\test\AppData\Local`)
	assert.Equal(t, filepath.Join(`C:\Users\test\AppData\Local`, "daybook"), defaultDataDirForOS("windows"))

	t.Setenv("LOCALAPPDATA", "")
	t.Setenv("APPDATA", `C:\Users\test\AppData\Roaming`)
	assert.Equal(t, filepath.Join(`C:\Users\test\AppData\Roaming`, "daybook"), defaultDataDirForOS("windows"))

	t.Setenv("APPDATA", "")
	assert.Equal(t, filepath.Join(homeDir(), "daybook"), defaultDataDirForOS("windows"))
}
