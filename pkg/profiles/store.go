// Package profiles manages named, ordered mod selections per game
// install and drives the overlay engine when one is activated.
package profiles

import (
	"os"
	"path/filepath"
	"sort"
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

// Store persists profiles per install.
type Store struct {
	fs     types.FS
	paths  paths.Paths
	logger zerolog.Logger
	now    func() time.Time
}

// NewStore creates a profile store.
func NewStore(fs types.FS, p paths.Paths) *Store {
	return &Store{
		fs:     fs,
		paths:  p,
		logger: logging.GetLogger("profiles.store"),
		now:    time.Now,
	}
}

// Create adds a new empty profile. Names are unique per install.
func (s *Store) Create(install types.InstallID, name string) (*types.Profile, error) {
	if name == "" {
		return nil, errors.New(errors.ErrInvalidInput, "profile name must not be empty")
	}
	existing, err := s.List(install)
	if err != nil {
		return nil, err
	}
	for _, p := range existing {
		if p.Name == name {
			return nil, errors.Newf(errors.ErrAlreadyExists, "profile %q already exists", name)
		}
	}

	profile := &types.Profile{
		ID:        types.ProfileID(uuid.NewString()),
		Name:      name,
		CreatedAt: s.now(),
	}
	if err := s.save(install, profile); err != nil {
		return nil, err
	}
	s.logger.Info().Str("profile", string(profile.ID)).Str("name", name).Msg("Created profile")
	return profile, nil
}

// Get reads one profile, or NOT_FOUND.
func (s *Store) Get(install types.InstallID, id types.ProfileID) (*types.Profile, error) {
	data, err := s.fs.ReadFile(s.paths.ProfilePath(install, id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrNotFound, "profile not found: %s", id)
		}
		return nil, errors.Wrapf(err, errors.ErrManifestLoad, "failed to read profile %s", id)
	}
	var profile types.Profile
	if err := toml.Unmarshal(data, &profile); err != nil {
		return nil, errors.Wrapf(err, errors.ErrManifestLoad, "profile %s is corrupt", id)
	}
	return &profile, nil
}

// List returns the install's profiles ordered by creation time.
func (s *Store) List(install types.InstallID) ([]types.Profile, error) {
	entries, err := s.fs.ReadDir(s.paths.ProfilesRoot(install))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrFileAccess, "failed to read profiles directory")
	}

	var profiles []types.Profile
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".toml" {
			continue
		}
		id := types.ProfileID(entry.Name()[:len(entry.Name())-len(".toml")])
		profile, err := s.Get(install, id)
		if err != nil {
			s.logger.Warn().Err(err).Str("profile", string(id)).Msg("Skipping unreadable profile")
			continue
		}
		profiles = append(profiles, *profile)
	}

	sort.Slice(profiles, func(i, j int) bool {
		if profiles[i].CreatedAt.Equal(profiles[j].CreatedAt) {
			return profiles[i].ID < profiles[j].ID
		}
		return profiles[i].CreatedAt.Before(profiles[j].CreatedAt)
	})
	return profiles, nil
}

// Rename changes a profile's display name.
func (s *Store) Rename(install types.InstallID, id types.ProfileID, newName string) error {
	if newName == "" {
		return errors.New(errors.ErrInvalidInput, "profile name must not be empty")
	}
	profile, err := s.Get(install, id)
	if err != nil {
		return err
	}
	profile.Name = newName
	return s.save(install, profile)
}

// Delete removes a profile. The caller must ensure it is not active.
func (s *Store) Delete(install types.InstallID, id types.ProfileID) error {
	if _, err := s.Get(install, id); err != nil {
		return err
	}
	if err := s.fs.Remove(s.paths.ProfilePath(install, id)); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "failed to delete profile %s", id)
	}
	s.logger.Info().Str("profile", string(id)).Msg("Deleted profile")
	return nil
}

// SetMods replaces the profile's ordered mod list. This is the single
// mutation backing reorder, enable, and disable: order is priority,
// later entries win conflicts.
func (s *Store) SetMods(install types.InstallID, id types.ProfileID, mods []types.ModID) error {
	profile, err := s.Get(install, id)
	if err != nil {
		return err
	}
	seen := make(map[types.ModID]bool, len(mods))
	for _, m := range mods {
		if seen[m] {
			return errors.Newf(errors.ErrInvalidInput, "mod %s listed twice", m)
		}
		seen[m] = true
	}
	profile.Mods = append([]types.ModID(nil), mods...)
	return s.save(install, profile)
}

// AddMod appends a mod at the end of the order (highest priority).
func (s *Store) AddMod(install types.InstallID, id types.ProfileID, mod types.ModID) error {
	profile, err := s.Get(install, id)
	if err != nil {
		return err
	}
	if profile.HasMod(mod) {
		return errors.Newf(errors.ErrAlreadyExists, "profile already contains mod %s", mod)
	}
	profile.Mods = append(profile.Mods, mod)
	return s.save(install, profile)
}

// RemoveMod drops a mod from the profile's order.
func (s *Store) RemoveMod(install types.InstallID, id types.ProfileID, mod types.ModID) error {
	profile, err := s.Get(install, id)
	if err != nil {
		return err
	}
	kept := profile.Mods[:0]
	found := false
	for _, m := range profile.Mods {
		if m == mod {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if !found {
		return errors.Newf(errors.ErrNotFound, "profile does not contain mod %s", mod)
	}
	profile.Mods = kept
	return s.save(install, profile)
}

// profileExport is the portable YAML form of a profile.
type profileExport struct {
	Name string   `yaml:"name"`
	Mods []string `yaml:"mods"`
}

// Export serializes a profile to portable YAML.
func (s *Store) Export(install types.InstallID, id types.ProfileID) ([]byte, error) {
	profile, err := s.Get(install, id)
	if err != nil {
		return nil, err
	}
	out := profileExport{Name: profile.Name}
	for _, m := range profile.Mods {
		out.Mods = append(out.Mods, string(m))
	}
	data, err := yaml.Marshal(&out)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInternal, "failed to encode profile %s", id)
	}
	return data, nil
}

// Import creates a new profile from exported YAML. Mod references are
// carried as-is; activation validates that they resolve.
func (s *Store) Import(install types.InstallID, data []byte) (*types.Profile, error) {
	var in profileExport
	if err := yaml.Unmarshal(data, &in); err != nil {
		return nil, errors.Wrap(err, errors.ErrInvalidInput, "profile import data is not valid YAML")
	}
	profile, err := s.Create(install, in.Name)
	if err != nil {
		return nil, err
	}
	mods := make([]types.ModID, len(in.Mods))
	for i, m := range in.Mods {
		mods[i] = types.ModID(m)
	}
	if err := s.SetMods(install, profile.ID, mods); err != nil {
		// Import is all-or-nothing; do not leave the empty shell behind.
		_ = s.Delete(install, profile.ID)
		return nil, err
	}
	profile.Mods = mods
	return profile, nil
}

func (s *Store) save(install types.InstallID, profile *types.Profile) error {
	data, err := toml.Marshal(profile)
	if err != nil {
		return errors.Wrapf(err, errors.ErrManifestWrite, "failed to encode profile %s", profile.ID)
	}
	path := s.paths.ProfilePath(install, profile.ID)
	if err := s.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create profiles directory")
	}
	if err := s.fs.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, errors.ErrManifestWrite, "failed to write profile %s", profile.ID)
	}
	return nil
}
