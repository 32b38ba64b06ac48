// Package state persists per-install manifests: the install identity,
// the active profile, the applied overlay entries, and a cached index
// of captured backups. The manifest is a cache (the backup blob trees
// on disk stay authoritative) and Rebuild re-derives it from disk
// inspection after a crash.
package state

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/modlay/modlay/pkg/archive"
	"github.com/modlay/modlay/pkg/backup"
	"github.com/modlay/modlay/pkg/errors"
	"github.com/modlay/modlay/pkg/logging"
	"github.com/modlay/modlay/pkg/paths"
	"github.com/modlay/modlay/pkg/types"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
)

// InstallState is everything modlay tracks for one game install.
type InstallState struct {
	Install       types.GameInstall    `toml:"install"`
	ActiveProfile types.ProfileID      `toml:"active_profile,omitempty"`
	Overlay       []types.OverlayEntry `toml:"overlay,omitempty"`
	// BackupIndex caches the captured paths; backup.Manager.List is
	// the authoritative source.
	BackupIndex []string `toml:"backup_index,omitempty"`
}

// Store loads and saves install manifests.
type Store struct {
	fs     types.FS
	paths  paths.Paths
	logger zerolog.Logger
}

// New creates an install state store.
func New(fs types.FS, p paths.Paths) *Store {
	return &Store{
		fs:     fs,
		paths:  p,
		logger: logging.GetLogger("state.store"),
	}
}

// Create registers a new managed game install. The root must be an
// existing directory.
func (s *Store) Create(game, root string) (*InstallState, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "invalid install root: %s", root)
	}
	info, err := s.fs.Stat(absRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput, "install root does not exist: %s", absRoot)
	}
	if !info.IsDir() {
		return nil, errors.Newf(errors.ErrInvalidInput, "install root is not a directory: %s", absRoot)
	}

	st := &InstallState{
		Install: types.GameInstall{
			ID:   types.InstallID(uuid.NewString()),
			Game: game,
			Root: absRoot,
		},
	}
	if err := s.Save(st); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("install", string(st.Install.ID)).
		Str("game", game).
		Str("root", absRoot).
		Msg("Registered game install")
	return st, nil
}

// Load reads an install manifest, or NOT_FOUND.
func (s *Store) Load(id types.InstallID) (*InstallState, error) {
	data, err := s.fs.ReadFile(s.paths.InstallManifestPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrNotFound, "install not found: %s", id)
		}
		return nil, errors.Wrapf(err, errors.ErrManifestLoad, "failed to read install manifest %s", id)
	}
	var st InstallState
	if err := toml.Unmarshal(data, &st); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestLoad, "install manifest %s is corrupt", id)
	}
	return &st, nil
}

// Save writes an install manifest.
func (s *Store) Save(st *InstallState) error {
	data, err := toml.Marshal(st)
	if err != nil {
		return errors.Wrapf(err, errors.ErrManifestWrite, "failed to encode install manifest %s", st.Install.ID)
	}
	manifestPath := s.paths.InstallManifestPath(st.Install.ID)
	if err := s.fs.MkdirAll(filepath.Dir(manifestPath), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create install directory %s", st.Install.ID)
	}
	if err := s.fs.WriteFile(manifestPath, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrManifestWrite, "failed to write install manifest %s", st.Install.ID)
	}
	return nil
}

// List returns all managed installs.
func (s *Store) List() ([]types.GameInstall, error) {
	entries, err := s.fs.ReadDir(s.paths.InstallsRoot())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrFileAccess, "failed to read installs directory")
	}
	var installs []types.GameInstall
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		st, err := s.Load(types.InstallID(entry.Name()))
		if err != nil {
			s.logger.Warn().Err(err).Str("install", entry.Name()).Msg("Skipping unreadable install manifest")
			continue
		}
		installs = append(installs, st.Install)
	}
	return installs, nil
}

// Rebuild re-derives the manifest's cached fields from disk: the
// backup index from the blob trees, and overlay ownership by hashing
// current game files against the given mods (the active profile's
// manifests, highest priority last). Used for crash recovery.
func (s *Store) Rebuild(st *InstallState, backups *backup.Manager, mods []types.Mod) error {
	captured, err := backups.List(st.Install.ID)
	if err != nil {
		return err
	}
	st.BackupIndex = captured

	var overlay []types.OverlayEntry
	for _, relPath := range captured {
		gamePath := filepath.Join(st.Install.Root, filepath.FromSlash(relPath))
		hash, err := archive.HashFile(s.fs, gamePath)
		if err != nil {
			// Path currently absent: an overlay removal completed but
			// the original did not exist. Not overlaid.
			continue
		}
		// Later mods win, so search from the end.
		for i := len(mods) - 1; i >= 0; i-- {
			if declared, ok := mods[i].HashFor(relPath); ok && declared == hash {
				overlay = append(overlay, types.OverlayEntry{Path: relPath, ModID: mods[i].ID})
				break
			}
		}
	}
	st.Overlay = overlay

	s.logger.Info().
		Str("install", string(st.Install.ID)).
		Int("backups", len(captured)).
		Int("overlay", len(overlay)).
		Msg("Rebuilt install manifest from disk")
	return s.Save(st)
}
