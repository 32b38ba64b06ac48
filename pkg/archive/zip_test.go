package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/modlay/modlay/pkg/errors"
	"github.com/modlay/modlay/pkg/filesystem"
	"github.com/modlay/modlay/pkg/paths"
	"github.com/modlay/modlay/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newZipStore uses the real filesystem because zip payloads are read
// from actual files.
func newZipStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv(paths.EnvDataDir, filepath.Join(t.TempDir(), "modlay"))
	p, err := paths.New()
	require.NoError(t, err)
	return New(filesystem.NewOS(), p, nil)
}

func writeZip(t *testing.T, entries map[string]string) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "mod.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range entries {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return zipPath
}

// A sole top-level directory without metadata is game structure, not
// packaging: the manifest paths must keep it so the files overlay the
// right game paths.
func TestRegisterZipPayload(t *testing.T) {
	store := newZipStore(t)
	zipPath := writeZip(t, map[string]string{
		"car/livery.dat":  "livery",
		"car/physics.dat": "physics",
	})

	id, err := store.Register(zipPath)
	require.NoError(t, err)

	mod, err := store.Get(id)
	require.NoError(t, err)
	require.Len(t, mod.Files, 2)
	assert.Equal(t, "car/livery.dat", mod.Files[0].Path)
	assert.Equal(t, HashBytes([]byte("livery")), mod.Files[0].Hash)
	assert.Equal(t, "car/physics.dat", mod.Files[1].Path)

	data, err := os.ReadFile(store.PayloadPath(id, "car/physics.dat"))
	require.NoError(t, err)
	assert.Equal(t, "physics", string(data))
}

// A top-level directory counts as packaging only when modinfo.yaml
// lives inside it; then the whole payload is unwrapped.
func TestRegisterZipUnwrapsWrapperDir(t *testing.T) {
	store := newZipStore(t)
	zipPath := writeZip(t, map[string]string{
		"MyMod-1.0/modinfo.yaml":   "name: My Mod\nversion: 1.0\n",
		"MyMod-1.0/car/livery.dat": "livery",
		"MyMod-1.0/readme.txt":     "docs",
	})

	id, err := store.Register(zipPath)
	require.NoError(t, err)

	mod, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "My Mod", mod.Name)
	require.Len(t, mod.Files, 2)
	assert.Equal(t, "car/livery.dat", mod.Files[0].Path)
	assert.Equal(t, "readme.txt", mod.Files[1].Path)
}

// Same directory layout, no metadata inside the top directory: the
// directory must survive into the manifest paths.
func TestRegisterZipKeepsDirWithoutModInfo(t *testing.T) {
	store := newZipStore(t)
	zipPath := writeZip(t, map[string]string{
		"MyMod-1.0/car/livery.dat": "livery",
		"MyMod-1.0/readme.txt":     "docs",
	})

	id, err := store.Register(zipPath)
	require.NoError(t, err)

	mod, err := store.Get(id)
	require.NoError(t, err)
	require.Len(t, mod.Files, 2)
	assert.Equal(t, "MyMod-1.0/car/livery.dat", mod.Files[0].Path)
	assert.Equal(t, "MyMod-1.0/readme.txt", mod.Files[1].Path)

	_, err = os.Stat(store.PayloadPath(id, "MyMod-1.0/car/livery.dat"))
	assert.NoError(t, err)
}

func TestRegisterZipRejectsTraversal(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{name: "parent escape", entry: "../evil.dll"},
		{name: "nested escape", entry: "data/../../evil.dll"},
		{name: "absolute path", entry: "/etc/passwd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newZipStore(t)
			zipPath := writeZip(t, map[string]string{
				"data/ok.pak": "fine",
				tt.entry:      "evil",
			})

			_, err := store.Register(zipPath)
			assert.True(t, errors.IsErrorCode(err, errors.ErrCorruptArchive),
				"expected CORRUPT_ARCHIVE, got %v", err)
		})
	}
}

func TestRegisterZipReadsModInfo(t *testing.T) {
	store := newZipStore(t)
	zipPath := writeZip(t, map[string]string{
		"wrapped/data/a.pak":   "content",
		"wrapped/modinfo.yaml": "name: Zipped Mod\nversion: 0.3.1\n",
	})

	id, err := store.Register(zipPath)
	require.NoError(t, err)

	mod, err := store.Get(id)
	require.NoError(t, err)
	assert.Equal(t, "Zipped Mod", mod.Name)
	assert.Equal(t, "0.3.1", mod.Version)
	require.Len(t, mod.Files, 1)
	assert.Equal(t, "data/a.pak", mod.Files[0].Path)
}

func TestRegisterDirectoryOnRealFS(t *testing.T) {
	store := newZipStore(t)
	dir := testutil.CreatePayloadDir(t, map[string]string{
		"car/livery.dat": "livery",
		"readme.txt":     "docs",
	})

	id, err := store.Register(dir)
	require.NoError(t, err)
	require.NoError(t, store.Verify(id))

	mod, err := store.Get(id)
	require.NoError(t, err)
	require.Len(t, mod.Files, 2)
	assert.Equal(t, "car/livery.dat", mod.Files[0].Path)
}

func TestRegisterCorruptZip(t *testing.T) {
	store := newZipStore(t)
	zipPath := filepath.Join(t.TempDir(), "broken.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("definitely not a zip"), 0644))

	_, err := store.Register(zipPath)
	assert.True(t, errors.IsErrorCode(err, errors.ErrCorruptArchive))
}
