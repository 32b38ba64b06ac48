package profiles

import (
	"testing"
	"time"

	"github.com/modlay/modlay/pkg/errors"
	"github.com/modlay/modlay/pkg/paths"
	"github.com/modlay/modlay/pkg/testutil"
	"github.com/modlay/modlay/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testInstall = types.InstallID("install-1")

func newTestProfileStore(t *testing.T) *Store {
	t.Helper()
	t.Setenv(paths.EnvDataDir, "/modlay-data")
	p, err := paths.New()
	require.NoError(t, err)
	return NewStore(testutil.NewMemoryFS(), p)
}

func TestCreateAndGet(t *testing.T) {
	store := newTestProfileStore(t)

	profile, err := store.Create(testInstall, "racing setup")
	require.NoError(t, err)
	assert.NotEmpty(t, profile.ID)
	assert.Equal(t, "racing setup", profile.Name)
	assert.Empty(t, profile.Mods)

	got, err := store.Get(testInstall, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, profile.Name, got.Name)
}

func TestCreateRejectsDuplicateName(t *testing.T) {
	store := newTestProfileStore(t)

	_, err := store.Create(testInstall, "main")
	require.NoError(t, err)

	_, err = store.Create(testInstall, "main")
	assert.True(t, errors.IsErrorCode(err, errors.ErrAlreadyExists))
}

func TestCreateRejectsEmptyName(t *testing.T) {
	store := newTestProfileStore(t)

	_, err := store.Create(testInstall, "")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestGetNotFound(t *testing.T) {
	store := newTestProfileStore(t)

	_, err := store.Get(testInstall, "missing")
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestListOrdersByCreation(t *testing.T) {
	store := newTestProfileStore(t)
	base := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)

	store.now = func() time.Time { return base }
	first, err := store.Create(testInstall, "first")
	require.NoError(t, err)

	store.now = func() time.Time { return base.Add(time.Hour) }
	second, err := store.Create(testInstall, "second")
	require.NoError(t, err)

	list, err := store.List(testInstall)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestListScopedPerInstall(t *testing.T) {
	store := newTestProfileStore(t)

	_, err := store.Create(testInstall, "mine")
	require.NoError(t, err)

	other, err := store.List(types.InstallID("other-install"))
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRename(t *testing.T) {
	store := newTestProfileStore(t)

	profile, err := store.Create(testInstall, "old name")
	require.NoError(t, err)

	require.NoError(t, store.Rename(testInstall, profile.ID, "new name"))
	got, err := store.Get(testInstall, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, "new name", got.Name)

	assert.True(t, errors.IsErrorCode(
		store.Rename(testInstall, profile.ID, ""), errors.ErrInvalidInput))
}

func TestDelete(t *testing.T) {
	store := newTestProfileStore(t)

	profile, err := store.Create(testInstall, "doomed")
	require.NoError(t, err)

	require.NoError(t, store.Delete(testInstall, profile.ID))
	_, err = store.Get(testInstall, profile.ID)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))

	assert.True(t, errors.IsErrorCode(
		store.Delete(testInstall, profile.ID), errors.ErrNotFound))
}

func TestSetModsReplacesOrder(t *testing.T) {
	store := newTestProfileStore(t)

	profile, err := store.Create(testInstall, "ordered")
	require.NoError(t, err)

	require.NoError(t, store.SetMods(testInstall, profile.ID, []types.ModID{"m1", "m2", "m3"}))
	require.NoError(t, store.SetMods(testInstall, profile.ID, []types.ModID{"m3", "m1", "m2"}))

	got, err := store.Get(testInstall, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.ModID{"m3", "m1", "m2"}, got.Mods)
}

func TestSetModsRejectsDuplicates(t *testing.T) {
	store := newTestProfileStore(t)

	profile, err := store.Create(testInstall, "dupes")
	require.NoError(t, err)

	err = store.SetMods(testInstall, profile.ID, []types.ModID{"m1", "m2", "m1"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestAddAndRemoveMod(t *testing.T) {
	store := newTestProfileStore(t)

	profile, err := store.Create(testInstall, "editable")
	require.NoError(t, err)

	require.NoError(t, store.AddMod(testInstall, profile.ID, "m1"))
	require.NoError(t, store.AddMod(testInstall, profile.ID, "m2"))
	assert.True(t, errors.IsErrorCode(
		store.AddMod(testInstall, profile.ID, "m1"), errors.ErrAlreadyExists))

	require.NoError(t, store.RemoveMod(testInstall, profile.ID, "m1"))
	got, err := store.Get(testInstall, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.ModID{"m2"}, got.Mods)

	assert.True(t, errors.IsErrorCode(
		store.RemoveMod(testInstall, profile.ID, "m1"), errors.ErrNotFound))
}

func TestExportImportRoundTrip(t *testing.T) {
	store := newTestProfileStore(t)

	profile, err := store.Create(testInstall, "portable")
	require.NoError(t, err)
	require.NoError(t, store.SetMods(testInstall, profile.ID, []types.ModID{"m2", "m1"}))

	data, err := store.Export(testInstall, profile.ID)
	require.NoError(t, err)
	assert.Contains(t, string(data), "portable")

	imported, err := store.Import(types.InstallID("other-install"), data)
	require.NoError(t, err)
	assert.Equal(t, "portable", imported.Name)
	assert.Equal(t, []types.ModID{"m2", "m1"}, imported.Mods)

	got, err := store.Get(types.InstallID("other-install"), imported.ID)
	require.NoError(t, err)
	assert.Equal(t, []types.ModID{"m2", "m1"}, got.Mods)
}

func TestImportRejectsGarbage(t *testing.T) {
	store := newTestProfileStore(t)

	_, err := store.Import(testInstall, []byte("\tnot: [yaml"))
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestImportFailureLeavesNoProfile(t *testing.T) {
	store := newTestProfileStore(t)

	// Valid YAML, invalid mod list: the duplicate fails SetMods after
	// the profile shell was created.
	data := []byte("name: broken\nmods:\n  - m1\n  - m1\n")
	_, err := store.Import(testInstall, data)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	list, err := store.List(testInstall)
	require.NoError(t, err)
	assert.Empty(t, list, "failed import must not leave an empty profile behind")
}
