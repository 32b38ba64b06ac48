// Package archive implements the mod archive store: registering mod
// payloads, computing their file manifests, and serving them back to
// the conflict and overlay layers. Registered mods are immutable; an
// update means registering a replacement.
package archive

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modlay/modlay/pkg/errors"
	"github.com/modlay/modlay/pkg/logging"
	"github.com/modlay/modlay/pkg/paths"
	"github.com/modlay/modlay/pkg/types"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ModInfoFile is the optional metadata file inside a mod payload.
const ModInfoFile = "modinfo.yaml"

// modInfo is the payload-supplied metadata, all fields optional.
type modInfo struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Author  string `yaml:"author"`
}

// Store registers mod payloads and serves their manifests.
type Store struct {
	fs          types.FS
	paths       paths.Paths
	ignoreGlobs []string
	logger      zerolog.Logger
	now         func() time.Time
}

// New creates an archive store over the given filesystem and layout.
func New(fs types.FS, p paths.Paths, ignoreGlobs []string) *Store {
	return &Store{
		fs:          fs,
		paths:       p,
		ignoreGlobs: ignoreGlobs,
		logger:      logging.GetLogger("archive.store"),
		now:         time.Now,
	}
}

// Register computes content hashes for every file in the payload,
// copies the payload into the datastore, and stores the manifest.
// The payload may be a directory or a .zip archive. It fails with
// CORRUPT_ARCHIVE if the payload is unreadable or contains entries
// that would escape the install root.
func (s *Store) Register(payloadPath string) (types.ModID, error) {
	done := logging.LogOperationStart(s.logger, "register")
	defer done()

	info, err := s.fs.Stat(payloadPath)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrCorruptArchive, "payload is unreadable: %s", payloadPath)
	}

	id := types.ModID(uuid.NewString())
	mod := types.Mod{
		ID:          id,
		Name:        defaultModName(payloadPath),
		InstalledAt: s.now(),
	}

	payloadDir := s.paths.ModPayloadDir(id)
	if info.IsDir() {
		mod.Files, err = s.importDir(payloadPath, payloadDir)
	} else if strings.EqualFold(filepath.Ext(payloadPath), ".zip") {
		mod.Files, err = s.importZip(payloadPath, payloadDir)
	} else {
		err = errors.Newf(errors.ErrCorruptArchive, "payload is neither a directory nor a zip archive: %s", payloadPath)
	}
	if err != nil {
		// Registration failed validation; drop whatever was staged.
		_ = s.fs.RemoveAll(s.paths.ModDir(id))
		return "", err
	}

	if meta := s.readModInfo(payloadPath, info.IsDir()); meta != nil {
		if meta.Name != "" {
			mod.Name = meta.Name
		}
		mod.Version = meta.Version
		mod.Author = meta.Author
	}

	if err := s.writeManifest(&mod); err != nil {
		_ = s.fs.RemoveAll(s.paths.ModDir(id))
		return "", err
	}

	s.logger.Info().
		Str("mod", string(id)).
		Str("name", mod.Name).
		Int("files", len(mod.Files)).
		Msg("Registered mod")
	return id, nil
}

// Get returns a registered mod's manifest, or NOT_FOUND.
func (s *Store) Get(id types.ModID) (types.Mod, error) {
	data, err := s.fs.ReadFile(s.paths.ModManifestPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return types.Mod{}, errors.Newf(errors.ErrNotFound, "mod not found: %s", id)
		}
		return types.Mod{}, errors.Wrapf(err, errors.ErrManifestLoad, "failed to read manifest for mod %s", id)
	}
	var mod types.Mod
	if err := toml.Unmarshal(data, &mod); err != nil {
		return types.Mod{}, errors.Wrapf(err, errors.ErrManifestLoad, "manifest for mod %s is corrupt", id)
	}
	return mod, nil
}

// List returns all registered mods ordered by installation time.
func (s *Store) List() ([]types.Mod, error) {
	entries, err := s.fs.ReadDir(s.paths.ArchivesRoot())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrFileAccess, "failed to read archives directory")
	}

	var mods []types.Mod
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		mod, err := s.Get(types.ModID(entry.Name()))
		if err != nil {
			s.logger.Warn().Err(err).Str("mod", entry.Name()).Msg("Skipping unreadable mod archive")
			continue
		}
		mods = append(mods, mod)
	}

	sort.Slice(mods, func(i, j int) bool {
		if mods[i].InstalledAt.Equal(mods[j].InstalledAt) {
			return mods[i].ID < mods[j].ID
		}
		return mods[i].InstalledAt.Before(mods[j].InstalledAt)
	})
	return mods, nil
}

// Remove deletes a registered mod and its payload. Callers are
// responsible for the in-use check against active profiles; the core
// facade performs it before calling here.
func (s *Store) Remove(id types.ModID) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if err := s.fs.RemoveAll(s.paths.ModDir(id)); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to remove mod %s", id)
	}
	s.logger.Info().Str("mod", string(id)).Msg("Removed mod")
	return nil
}

// Verify re-hashes a mod's stored payload against its manifest and
// fails with CORRUPT_ARCHIVE on any mismatch or missing file.
func (s *Store) Verify(id types.ModID) error {
	mod, err := s.Get(id)
	if err != nil {
		return err
	}
	payloadDir := s.paths.ModPayloadDir(id)
	for _, f := range mod.Files {
		hash, err := HashFile(s.fs, filepath.Join(payloadDir, filepath.FromSlash(f.Path)))
		if err != nil {
			return errors.Wrapf(err, errors.ErrCorruptArchive, "mod %s payload file missing: %s", id, f.Path)
		}
		if hash != f.Hash {
			return errors.Newf(errors.ErrCorruptArchive, "mod %s payload file modified: %s", id, f.Path)
		}
	}
	return nil
}

// PayloadPath returns the absolute datastore location of one of the
// mod's files. The overlay engine copies from here into the game root.
func (s *Store) PayloadPath(id types.ModID, relPath string) string {
	return filepath.Join(s.paths.ModPayloadDir(id), filepath.FromSlash(relPath))
}

func (s *Store) importDir(payloadPath, payloadDir string) ([]types.FileEntry, error) {
	scanned, err := scanDir(s.fs, payloadPath, s.ignoreGlobs)
	if err != nil {
		return nil, err
	}
	if len(scanned) == 0 {
		return nil, errors.Newf(errors.ErrCorruptArchive, "payload contains no files: %s", payloadPath)
	}

	files := make([]types.FileEntry, 0, len(scanned))
	for _, sf := range scanned {
		data, err := s.fs.ReadFile(sf.source)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrCorruptArchive, "payload file unreadable: %s", sf.relPath)
		}
		if err := s.stagePayloadFile(payloadDir, sf.relPath, data); err != nil {
			return nil, err
		}
		files = append(files, types.FileEntry{Path: sf.relPath, Hash: HashBytes(data)})
	}
	return files, nil
}

func (s *Store) importZip(zipPath, payloadDir string) ([]types.FileEntry, error) {
	rc, entries, err := readZip(zipPath, s.ignoreGlobs)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	if len(entries) == 0 {
		return nil, errors.Newf(errors.ErrCorruptArchive, "payload archive contains no files: %s", zipPath)
	}

	files := make([]types.FileEntry, 0, len(entries))
	for _, ze := range entries {
		data, err := readZipEntry(ze.file)
		if err != nil {
			return nil, err
		}
		if err := s.stagePayloadFile(payloadDir, ze.relPath, data); err != nil {
			return nil, err
		}
		files = append(files, types.FileEntry{Path: ze.relPath, Hash: HashBytes(data)})
	}
	return files, nil
}

func (s *Store) stagePayloadFile(payloadDir, relPath string, data []byte) error {
	dest := filepath.Join(payloadDir, filepath.FromSlash(relPath))
	if err := s.fs.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create payload directory for %s", relPath)
	}
	if err := s.fs.WriteFile(dest, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrFileWrite, "failed to stage payload file %s", relPath)
	}
	return nil
}

func (s *Store) writeManifest(mod *types.Mod) error {
	data, err := toml.Marshal(mod)
	if err != nil {
		return errors.Wrapf(err, errors.ErrManifestWrite, "failed to encode manifest for mod %s", mod.ID)
	}
	manifestPath := s.paths.ModManifestPath(mod.ID)
	if err := s.fs.MkdirAll(filepath.Dir(manifestPath), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create archive directory for mod %s", mod.ID)
	}
	if err := s.fs.WriteFile(manifestPath, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrManifestWrite, "failed to write manifest for mod %s", mod.ID)
	}
	return nil
}

// readModInfo loads the optional modinfo.yaml from a directory payload
// or from inside a zip payload. Malformed metadata is ignored; it only
// affects display fields.
func (s *Store) readModInfo(payloadPath string, isDir bool) *modInfo {
	var data []byte
	if isDir {
		var err error
		data, err = s.fs.ReadFile(filepath.Join(payloadPath, ModInfoFile))
		if err != nil {
			return nil
		}
	} else {
		rc, err := zipOpenModInfo(payloadPath)
		if err != nil {
			return nil
		}
		data = rc
	}

	var meta modInfo
	if err := yaml.Unmarshal(data, &meta); err != nil {
		s.logger.Warn().Err(err).Str("payload", payloadPath).Msg("Ignoring malformed modinfo.yaml")
		return nil
	}
	return &meta
}

func defaultModName(payloadPath string) string {
	base := filepath.Base(filepath.Clean(payloadPath))
	return strings.TrimSuffix(base, filepath.Ext(base))
}
