// Package overlay reconciles a game directory with a resolved file
// set. Each apply is a single logical transaction: pristine content is
// captured before any write, file operations may run in parallel, and
// any failure rolls the touched paths back from backup so no overlay
// is ever left half-applied.
package overlay

import (
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/modlay/modlay/pkg/backup"
	"github.com/modlay/modlay/pkg/errors"
	"github.com/modlay/modlay/pkg/logging"
	"github.com/modlay/modlay/pkg/types"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// PayloadSource locates a mod file's content in the datastore. The
// archive store satisfies this.
type PayloadSource interface {
	PayloadPath(id types.ModID, relPath string) string
}

// Change is a single path the apply will touch and why.
type Change struct {
	Path string
	// From is the previous owner, empty when the path was not overlaid.
	From types.ModID
	// To is the new owner, empty when the path reverts to original.
	To types.ModID
}

// Delta is the planned difference between the current overlay and a
// target resolved set. Paths whose winner is unchanged are untouched.
type Delta struct {
	Writes    []Change
	Removes   []Change
	Unchanged int
}

// Empty reports whether applying the delta would perform zero file
// operations.
func (d *Delta) Empty() bool {
	return len(d.Writes) == 0 && len(d.Removes) == 0
}

// Engine applies resolved file sets onto game directories.
type Engine struct {
	fs          types.FS
	backups     *backup.Manager
	source      PayloadSource
	parallelism int
	retries     int
	logger      zerolog.Logger
}

// New creates an overlay engine. parallelism bounds concurrent file
// copies within one apply; retries bounds per-path retry of transient
// I/O failures.
func New(fs types.FS, backups *backup.Manager, source PayloadSource, parallelism, retries int) *Engine {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Engine{
		fs:          fs,
		backups:     backups,
		source:      source,
		parallelism: parallelism,
		retries:     retries,
		logger:      logging.GetLogger("overlay.engine"),
	}
}

// Plan diffs the current overlay entries against a target resolved set
// without touching disk.
func (e *Engine) Plan(current []types.OverlayEntry, target types.ResolvedSet) *Delta {
	currentOwners := make(map[string]types.ModID, len(current))
	for _, entry := range current {
		currentOwners[entry.Path] = entry.ModID
	}

	delta := &Delta{}
	for path, winner := range target {
		prev, overlaid := currentOwners[path]
		if overlaid && prev == winner {
			delta.Unchanged++
			continue
		}
		delta.Writes = append(delta.Writes, Change{Path: path, From: prev, To: winner})
	}
	for path, owner := range currentOwners {
		if _, kept := target[path]; !kept {
			delta.Removes = append(delta.Removes, Change{Path: path, From: owner})
		}
	}

	sort.Slice(delta.Writes, func(i, j int) bool { return delta.Writes[i].Path < delta.Writes[j].Path })
	sort.Slice(delta.Removes, func(i, j int) bool { return delta.Removes[i].Path < delta.Removes[j].Path })
	return delta
}

// Apply reconciles the game directory with the target resolved set and
// returns the overlay entries describing the resulting state. The
// returned entries are valid even when an error is returned: after a
// rollback they describe the surviving overlay.
//
// Failure modes: PARTIAL_APPLY_FAILURE when one or more paths failed
// and the rollback succeeded, UNRECOVERABLE_STATE when the rollback
// itself failed and only a full restore can recover the install.
func (e *Engine) Apply(install types.GameInstall, current []types.OverlayEntry, target types.ResolvedSet) ([]types.OverlayEntry, error) {
	done := logging.LogOperationStart(e.logger, "apply")
	defer done()

	delta := e.Plan(current, target)
	if delta.Empty() {
		e.logger.Debug().Str("install", string(install.ID)).Msg("Overlay already matches target, nothing to do")
		return current, nil
	}

	e.logger.Info().
		Str("install", string(install.ID)).
		Int("writes", len(delta.Writes)).
		Int("removes", len(delta.Removes)).
		Int("unchanged", delta.Unchanged).
		Msg("Applying overlay delta")

	// Capture pristine content for every path about to be written,
	// strictly before any game-directory mutation. Removed paths were
	// captured when they were first overlaid.
	for _, change := range delta.Writes {
		if err := e.backups.EnsureCaptured(install, change.Path); err != nil {
			return current, err
		}
	}

	touched, failed := e.execute(install, delta)

	if len(failed) == 0 {
		return entriesFromSet(target), nil
	}

	// Roll back every path touched during this apply by restoring it
	// from backup. Paths the apply never reached keep their prior state.
	if rollbackErr := e.rollback(install, touched); rollbackErr != nil {
		return pruneEntries(current, touched), rollbackErr
	}

	sort.Strings(failed)
	return pruneEntries(current, touched), errors.Newf(errors.ErrPartialApplyFailure,
		"apply failed for %d path(s), all changes rolled back", len(failed)).
		WithDetail("paths", failed)
}

// execute runs the delta's file operations, parallelized across
// independent paths. It returns the set of paths that were mutated (or
// possibly mutated) and the paths whose operation failed.
func (e *Engine) execute(install types.GameInstall, delta *Delta) (touched map[string]bool, failed []string) {
	var mu sync.Mutex
	touched = make(map[string]bool)

	markTouched := func(path string) {
		mu.Lock()
		touched[path] = true
		mu.Unlock()
	}
	markFailed := func(path string, err error) {
		e.logger.Error().Err(err).Str("path", path).Msg("Overlay operation failed")
		mu.Lock()
		failed = append(failed, path)
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(e.parallelism)

	for _, change := range delta.Writes {
		change := change
		g.Go(func() error {
			// The write may have started even when it errors, so the
			// path counts as touched before the attempt.
			markTouched(change.Path)
			if err := e.retrying(func() error { return e.writeOverlay(install, change) }); err != nil {
				markFailed(change.Path, err)
			}
			return nil
		})
	}
	for _, change := range delta.Removes {
		change := change
		g.Go(func() error {
			markTouched(change.Path)
			if err := e.retrying(func() error { return e.backups.Restore(install, change.Path) }); err != nil {
				markFailed(change.Path, err)
			}
			return nil
		})
	}

	_ = g.Wait()
	return touched, failed
}

// writeOverlay copies the winning mod's content for one path into the
// game directory.
func (e *Engine) writeOverlay(install types.GameInstall, change Change) error {
	src := e.source.PayloadPath(change.To, change.Path)
	data, err := e.fs.ReadFile(src)
	if err != nil {
		// A missing payload will not appear on retry.
		return backoff.Permanent(errors.Wrapf(err, errors.ErrFileAccess,
			"payload for %s missing from mod %s", change.Path, change.To))
	}

	dest := filepath.Join(install.Root, filepath.FromSlash(change.Path))
	if err := e.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create directory for %s", change.Path)
	}
	if err := e.fs.WriteFile(dest, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", change.Path)
	}
	return nil
}

// rollback restores every touched path from backup. A path that
// cannot be restored leaves the install in a state only a full restore
// can fix, reported as UNRECOVERABLE_STATE.
func (e *Engine) rollback(install types.GameInstall, touched map[string]bool) error {
	paths := make([]string, 0, len(touched))
	for p := range touched {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var unrecovered []string
	for _, p := range paths {
		if err := e.backups.Restore(install, p); err != nil {
			e.logger.Error().Err(err).Str("path", p).Msg("Rollback failed for path")
			unrecovered = append(unrecovered, p)
		}
	}
	if len(unrecovered) > 0 {
		return errors.Newf(errors.ErrUnrecoverableState,
			"rollback left %d path(s) in an unknown state, run a full restore", len(unrecovered)).
			WithDetail("paths", unrecovered)
	}

	e.logger.Warn().Int("paths", len(paths)).Msg("Apply rolled back from backup")
	return nil
}

// retrying runs op with bounded exponential backoff for transient I/O
// errors. Errors marked permanent abort immediately.
func (e *Engine) retrying(op func() error) error {
	ebo := backoff.NewExponentialBackOff()
	ebo.InitialInterval = 50 * time.Millisecond
	ebo.MaxElapsedTime = 5 * time.Second
	return backoff.Retry(op, backoff.WithMaxRetries(ebo, uint64(e.retries)))
}

func entriesFromSet(target types.ResolvedSet) []types.OverlayEntry {
	entries := make([]types.OverlayEntry, 0, len(target))
	for path, id := range target {
		entries = append(entries, types.OverlayEntry{Path: path, ModID: id})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

func pruneEntries(current []types.OverlayEntry, dropped map[string]bool) []types.OverlayEntry {
	out := make([]types.OverlayEntry, 0, len(current))
	for _, entry := range current {
		if !dropped[entry.Path] {
			out = append(out, entry)
		}
	}
	return out
}
