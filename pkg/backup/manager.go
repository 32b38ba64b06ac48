// Package backup snapshots pristine game-directory content before it
// is overlaid and restores it on demand. Captured content mirrors the
// game tree under the install's backup directory; paths that did not
// exist before overlay are recorded with a sentinel in a parallel
// tree. The blob trees on disk are authoritative; anything indexed
// elsewhere is a rebuildable cache.
package backup

import (
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/modlay/modlay/pkg/errors"
	"github.com/modlay/modlay/pkg/logging"
	"github.com/modlay/modlay/pkg/paths"
	"github.com/modlay/modlay/pkg/types"
	"github.com/rs/zerolog"
)

// Manager captures and restores pristine game content per install.
type Manager struct {
	fs     types.FS
	paths  paths.Paths
	logger zerolog.Logger
}

// New creates a backup manager over the given filesystem and layout.
func New(fs types.FS, p paths.Paths) *Manager {
	return &Manager{
		fs:     fs,
		paths:  p,
		logger: logging.GetLogger("backup.manager"),
	}
}

// EnsureCaptured records the current on-disk content of relPath (or a
// "did not exist" sentinel) unless a capture already exists. Existing
// captures are never overwritten; repeated calls are no-ops.
func (m *Manager) EnsureCaptured(install types.GameInstall, relPath string) error {
	captured, err := m.Captured(install.ID, relPath)
	if err != nil {
		return err
	}
	if captured {
		return nil
	}

	gamePath := filepath.Join(install.Root, filepath.FromSlash(relPath))
	data, err := m.fs.ReadFile(gamePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrFileAccess, "failed to read original content of %s", relPath)
		}
		sentinel := m.paths.BackupAbsentPath(install.ID, relPath)
		if err := m.writeBlob(sentinel, nil); err != nil {
			return err
		}
		m.logger.Debug().Str("path", relPath).Msg("Captured absent-path sentinel")
		return nil
	}

	blob := m.paths.BackupFilePath(install.ID, relPath)
	if err := m.writeBlob(blob, data); err != nil {
		return err
	}
	m.logger.Debug().Str("path", relPath).Int("bytes", len(data)).Msg("Captured pristine content")
	return nil
}

// Captured reports whether a backup entry exists for the path.
func (m *Manager) Captured(installID types.InstallID, relPath string) (bool, error) {
	if _, err := m.fs.Stat(m.paths.BackupFilePath(installID, relPath)); err == nil {
		return true, nil
	} else if !os.IsNotExist(err) {
		return false, errors.Wrapf(err, errors.ErrFileAccess, "failed to check backup for %s", relPath)
	}
	if _, err := m.fs.Stat(m.paths.BackupAbsentPath(installID, relPath)); err == nil {
		return true, nil
	} else if !os.IsNotExist(err) {
		return false, errors.Wrapf(err, errors.ErrFileAccess, "failed to check backup sentinel for %s", relPath)
	}
	return false, nil
}

// Restore writes the backed-up content back into the game directory,
// or deletes the path if the sentinel says it did not originally
// exist. Calling Restore for a never-captured path is an invariant
// violation and fails with BACKUP_MISSING.
func (m *Manager) Restore(install types.GameInstall, relPath string) error {
	gamePath := filepath.Join(install.Root, filepath.FromSlash(relPath))

	blob := m.paths.BackupFilePath(install.ID, relPath)
	if data, err := m.fs.ReadFile(blob); err == nil {
		if err := m.fs.MkdirAll(filepath.Dir(gamePath), 0755); err != nil {
			return errors.Wrapf(err, errors.ErrDirCreate, "failed to create directory for %s", relPath)
		}
		if err := m.fs.WriteFile(gamePath, data, 0644); err != nil {
			return errors.Wrapf(err, errors.ErrFileWrite, "failed to restore %s", relPath)
		}
		return nil
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to read backup of %s", relPath)
	}

	if _, err := m.fs.Stat(m.paths.BackupAbsentPath(install.ID, relPath)); err == nil {
		if err := m.fs.Remove(gamePath); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, errors.ErrFileWrite, "failed to remove overlaid file %s", relPath)
		}
		return nil
	}

	return errors.Newf(errors.ErrBackupMissing, "no backup captured for %s", relPath)
}

// FullRestore restores every captured path for the install. Failures
// are collected and surfaced as UNRECOVERABLE_STATE naming the paths
// that could not be restored.
func (m *Manager) FullRestore(install types.GameInstall) error {
	captured, err := m.List(install.ID)
	if err != nil {
		return err
	}

	var failed []string
	for _, relPath := range captured {
		if err := m.Restore(install, relPath); err != nil {
			m.logger.Error().Err(err).Str("path", relPath).Msg("Full restore failed for path")
			failed = append(failed, relPath)
		}
	}
	if len(failed) > 0 {
		return errors.Newf(errors.ErrUnrecoverableState,
			"full restore left %d path(s) unrestored", len(failed)).
			WithDetail("paths", failed)
	}

	m.logger.Info().
		Str("install", string(install.ID)).
		Int("paths", len(captured)).
		Msg("Restored install to vanilla state")
	return nil
}

// List returns every captured relative path for the install, sorted.
// It derives the listing from the blob trees on disk, not from any
// index, so it remains correct after a crash.
func (m *Manager) List(installID types.InstallID) ([]string, error) {
	var out []string
	for _, root := range []string{
		filepath.Join(m.paths.BackupsRoot(installID), paths.BackupFilesDir),
		filepath.Join(m.paths.BackupsRoot(installID), paths.BackupAbsentDir),
	} {
		rels, err := m.walk(root)
		if err != nil {
			return nil, err
		}
		out = append(out, rels...)
	}
	sort.Strings(out)
	return out, nil
}

func (m *Manager) walk(root string) ([]string, error) {
	var out []string
	var walk func(dir, rel string) error
	walk = func(dir, rel string) error {
		entries, err := m.fs.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return errors.Wrapf(err, errors.ErrFileAccess, "failed to read backup directory %s", dir)
		}
		for _, entry := range entries {
			childRel := entry.Name()
			if rel != "" {
				childRel = path.Join(rel, entry.Name())
			}
			if entry.IsDir() {
				if err := walk(filepath.Join(dir, entry.Name()), childRel); err != nil {
					return err
				}
				continue
			}
			out = append(out, childRel)
		}
		return nil
	}
	if err := walk(root, ""); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Manager) writeBlob(dest string, data []byte) error {
	if err := m.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create backup directory for %s", dest)
	}
	if err := m.fs.WriteFile(dest, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to write backup %s", dest)
	}
	return nil
}
