package overlay

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/modlay/modlay/pkg/backup"
	"github.com/modlay/modlay/pkg/errors"
	"github.com/modlay/modlay/pkg/paths"
	"github.com/modlay/modlay/pkg/testutil"
	"github.com/modlay/modlay/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dirSource serves payloads from /payloads/<modID>/<relPath> in the
// test filesystem, standing in for the archive store.
type dirSource struct{}

func (dirSource) PayloadPath(id types.ModID, relPath string) string {
	return filepath.Join("/payloads", string(id), filepath.FromSlash(relPath))
}

// failingFS fails WriteFile for a fixed set of destination paths.
type failingFS struct {
	types.FS
	failWrites map[string]bool
}

func (f *failingFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	if f.failWrites[name] {
		return errors.New(errors.ErrFileWrite, "injected write failure")
	}
	return f.FS.WriteFile(name, data, perm)
}

func newTestEngine(t *testing.T, inner types.FS) (*Engine, types.GameInstall) {
	t.Helper()
	t.Setenv(paths.EnvDataDir, "/modlay-data")
	p, err := paths.New()
	require.NoError(t, err)
	install := types.GameInstall{ID: "install-1", Game: "racer", Root: "/games/racer"}
	require.NoError(t, inner.MkdirAll(install.Root, 0755))
	return New(inner, backup.New(inner, p), dirSource{}, 4, 0), install
}

func stagePayload(t *testing.T, fsys types.FS, id types.ModID, files map[string]string) {
	t.Helper()
	testutil.WriteTree(t, fsys, filepath.Join("/payloads", string(id)), files)
}

func TestPlanDiff(t *testing.T) {
	e, _ := newTestEngine(t, testutil.NewMemoryFS())

	current := []types.OverlayEntry{
		{Path: "keep.dat", ModID: "m1"},
		{Path: "reown.dat", ModID: "m1"},
		{Path: "drop.dat", ModID: "m1"},
	}
	target := types.ResolvedSet{
		"keep.dat":  "m1",
		"reown.dat": "m2",
		"new.dat":   "m2",
	}

	delta := e.Plan(current, target)

	require.Len(t, delta.Writes, 2)
	assert.Equal(t, Change{Path: "new.dat", To: "m2"}, delta.Writes[0])
	assert.Equal(t, Change{Path: "reown.dat", From: "m1", To: "m2"}, delta.Writes[1])
	require.Len(t, delta.Removes, 1)
	assert.Equal(t, Change{Path: "drop.dat", From: "m1"}, delta.Removes[0])
	assert.Equal(t, 1, delta.Unchanged)
	assert.False(t, delta.Empty())
}

func TestPlanEmptyWhenAlreadyApplied(t *testing.T) {
	e, _ := newTestEngine(t, testutil.NewMemoryFS())

	current := []types.OverlayEntry{{Path: "a.dat", ModID: "m1"}}
	delta := e.Plan(current, types.ResolvedSet{"a.dat": "m1"})
	assert.True(t, delta.Empty())
	assert.Equal(t, 1, delta.Unchanged)
}

func TestApplyWritesWinnersAndBacksUpOriginals(t *testing.T) {
	mem := testutil.NewMemoryFS()
	e, install := newTestEngine(t, mem)
	testutil.WriteTree(t, mem, install.Root, map[string]string{"car/livery.dat": "original"})
	stagePayload(t, mem, "m1", map[string]string{
		"car/livery.dat":  "modded-livery",
		"car/physics.dat": "modded-physics",
	})

	entries, err := e.Apply(install, nil, types.ResolvedSet{
		"car/livery.dat":  "m1",
		"car/physics.dat": "m1",
	})
	require.NoError(t, err)

	assert.Equal(t, []types.OverlayEntry{
		{Path: "car/livery.dat", ModID: "m1"},
		{Path: "car/physics.dat", ModID: "m1"},
	}, entries)
	assert.Equal(t, "modded-livery", testutil.ReadFileString(t, mem, install.Root+"/car/livery.dat"))
	assert.Equal(t, "modded-physics", testutil.ReadFileString(t, mem, install.Root+"/car/physics.dat"))
}

func TestApplyIdempotent(t *testing.T) {
	counting := testutil.NewCountingFS(testutil.NewMemoryFS())
	e, install := newTestEngine(t, counting)
	stagePayload(t, counting, "m1", map[string]string{"car/livery.dat": "modded"})

	target := types.ResolvedSet{"car/livery.dat": "m1"}
	entries, err := e.Apply(install, nil, target)
	require.NoError(t, err)

	counting.ResetCounts()
	again, err := e.Apply(install, entries, target)
	require.NoError(t, err)
	assert.Equal(t, entries, again)
	assert.Zero(t, counting.TotalWrites(), "re-applying an identical target must not touch disk")
}

func TestApplySwitchTouchesOnlyChangedPaths(t *testing.T) {
	counting := testutil.NewCountingFS(testutil.NewMemoryFS())
	e, install := newTestEngine(t, counting)
	stagePayload(t, counting, "m1", map[string]string{"shared.dat": "m1-shared", "only1.dat": "m1-only"})
	stagePayload(t, counting, "m2", map[string]string{"shared.dat": "m1-shared", "only2.dat": "m2-only"})

	entries, err := e.Apply(install, nil, types.ResolvedSet{"shared.dat": "m1", "only1.dat": "m1"})
	require.NoError(t, err)

	counting.ResetCounts()
	entries, err = e.Apply(install, entries, types.ResolvedSet{"shared.dat": "m2", "only2.dat": "m2"})
	require.NoError(t, err)

	assert.Equal(t, []types.OverlayEntry{
		{Path: "only2.dat", ModID: "m2"},
		{Path: "shared.dat", ModID: "m2"},
	}, entries)

	// only1.dat reverts (it never existed, so it is removed), shared.dat
	// and only2.dat are rewritten under their new owners.
	assert.Equal(t, 1, counting.RemovesOf(install.Root+"/only1.dat"))
	assert.Equal(t, 1, counting.WritesTo(install.Root+"/shared.dat"))
	assert.Equal(t, 1, counting.WritesTo(install.Root+"/only2.dat"))
}

func TestApplyRemovalRestoresOriginal(t *testing.T) {
	mem := testutil.NewMemoryFS()
	e, install := newTestEngine(t, mem)
	testutil.WriteTree(t, mem, install.Root, map[string]string{"car/livery.dat": "original"})
	stagePayload(t, mem, "m1", map[string]string{"car/livery.dat": "modded"})

	entries, err := e.Apply(install, nil, types.ResolvedSet{"car/livery.dat": "m1"})
	require.NoError(t, err)

	entries, err = e.Apply(install, entries, types.ResolvedSet{})
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, "original", testutil.ReadFileString(t, mem, install.Root+"/car/livery.dat"))
}

func TestApplyPartialFailureRollsBack(t *testing.T) {
	mem := testutil.NewMemoryFS()
	failing := &failingFS{FS: mem, failWrites: map[string]bool{
		"/games/racer/car/bad.dat": true,
	}}
	e, install := newTestEngine(t, failing)
	testutil.WriteTree(t, mem, install.Root, map[string]string{"car/good.dat": "original-good"})
	stagePayload(t, mem, "m1", map[string]string{
		"car/good.dat": "modded-good",
		"car/bad.dat":  "modded-bad",
	})

	entries, err := e.Apply(install, nil, types.ResolvedSet{
		"car/good.dat": "m1",
		"car/bad.dat":  "m1",
	})

	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPartialApplyFailure))
	assert.Equal(t, []string{"car/bad.dat"}, errors.GetErrorDetails(err)["paths"])
	assert.Empty(t, entries, "no overlay survives a rolled-back apply from scratch")

	// Every touched path is back to pristine: good.dat has its original
	// content, bad.dat never existed and must not exist now.
	assert.Equal(t, "original-good", testutil.ReadFileString(t, mem, install.Root+"/car/good.dat"))
	_, statErr := mem.Stat(install.Root + "/car/bad.dat")
	assert.Error(t, statErr)
}

func TestApplyPartialFailureKeepsUntouchedOverlay(t *testing.T) {
	mem := testutil.NewMemoryFS()
	failing := &failingFS{FS: mem, failWrites: map[string]bool{
		"/games/racer/car/bad.dat": true,
	}}
	e, install := newTestEngine(t, failing)
	stagePayload(t, mem, "m1", map[string]string{"car/stable.dat": "stable"})
	stagePayload(t, mem, "m2", map[string]string{"car/bad.dat": "broken"})

	entries, err := e.Apply(install, nil, types.ResolvedSet{"car/stable.dat": "m1"})
	require.NoError(t, err)

	// Adding m2 fails, but stable.dat is not part of the delta and keeps
	// its overlay entry and content.
	entries, err = e.Apply(install, entries, types.ResolvedSet{
		"car/stable.dat": "m1",
		"car/bad.dat":    "m2",
	})
	assert.True(t, errors.IsErrorCode(err, errors.ErrPartialApplyFailure))
	assert.Equal(t, []types.OverlayEntry{{Path: "car/stable.dat", ModID: "m1"}}, entries)
	assert.Equal(t, "stable", testutil.ReadFileString(t, mem, install.Root+"/car/stable.dat"))
}

func TestApplyUnrecoverableWhenRollbackFails(t *testing.T) {
	mem := testutil.NewMemoryFS()
	failing := &failingFS{FS: mem, failWrites: map[string]bool{
		"/games/racer/car/bad.dat": true,
	}}
	e, install := newTestEngine(t, failing)
	// The original exists, so rolling back means rewriting the same
	// path, which fails again.
	testutil.WriteTree(t, mem, install.Root, map[string]string{"car/bad.dat": "original"})
	stagePayload(t, mem, "m1", map[string]string{"car/bad.dat": "modded"})

	_, err := e.Apply(install, nil, types.ResolvedSet{"car/bad.dat": "m1"})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrUnrecoverableState))
	assert.Equal(t, []string{"car/bad.dat"}, errors.GetErrorDetails(err)["paths"])
}

func TestApplyMissingPayloadFailsWithoutRetry(t *testing.T) {
	mem := testutil.NewMemoryFS()
	e, install := newTestEngine(t, mem)
	// m1 is referenced but its payload was never staged.

	_, err := e.Apply(install, nil, types.ResolvedSet{"car/ghost.dat": "m1"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrPartialApplyFailure))
}
