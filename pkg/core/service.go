// Package core wires the modlay subsystems together and exposes the
// boundary calls the CLI (or any other front end) drives: registering
// mods, managing profiles, activating them against game installs, and
// restoring installs to vanilla.
package core

import (
	"github.com/modlay/modlay/pkg/archive"
	"github.com/modlay/modlay/pkg/backup"
	"github.com/modlay/modlay/pkg/config"
	"github.com/modlay/modlay/pkg/errors"
	"github.com/modlay/modlay/pkg/logging"
	"github.com/modlay/modlay/pkg/overlay"
	"github.com/modlay/modlay/pkg/paths"
	"github.com/modlay/modlay/pkg/profiles"
	"github.com/modlay/modlay/pkg/state"
	"github.com/modlay/modlay/pkg/types"
	"github.com/rs/zerolog"
)

// Service is the core facade. Every call takes explicit identifiers;
// there is no process-wide current install.
type Service struct {
	archives *archive.Store
	profiles *profiles.Store
	states   *state.Store
	backups  *backup.Manager
	engine   *overlay.Engine
	manager  *profiles.Manager
	logger   zerolog.Logger
}

// NewService builds the full core stack over a filesystem, datastore
// layout, and configuration.
func NewService(fs types.FS, p paths.Paths, cfg *config.Config) *Service {
	archives := archive.New(fs, p, cfg.Scan.Ignore)
	profileStore := profiles.NewStore(fs, p)
	states := state.New(fs, p)
	backups := backup.New(fs, p)
	engine := overlay.New(fs, backups, archives, cfg.Apply.Parallelism, cfg.Apply.Retries)
	manager := profiles.NewManager(archives, profileStore, states, backups, engine)

	return &Service{
		archives: archives,
		profiles: profileStore,
		states:   states,
		backups:  backups,
		engine:   engine,
		manager:  manager,
		logger:   logging.GetLogger("core.service"),
	}
}

// --- Mods ---

// RegisterMod registers a mod payload (directory or zip archive).
func (s *Service) RegisterMod(payloadPath string) (types.ModID, error) {
	return s.archives.Register(payloadPath)
}

// ListMods returns all registered mods.
func (s *Service) ListMods() ([]types.Mod, error) {
	return s.archives.List()
}

// GetMod returns one registered mod.
func (s *Service) GetMod(id types.ModID) (types.Mod, error) {
	return s.archives.Get(id)
}

// RemoveMod deletes a registered mod, failing with IN_USE while any
// install's active profile references it.
func (s *Service) RemoveMod(id types.ModID) error {
	inUse, err := s.manager.ModInUse(id)
	if err != nil {
		return err
	}
	if inUse {
		return errors.Newf(errors.ErrInUse, "mod %s is referenced by an active profile", id)
	}
	return s.archives.Remove(id)
}

// VerifyMod re-hashes a mod's stored payload against its manifest.
func (s *Service) VerifyMod(id types.ModID) error {
	return s.archives.Verify(id)
}

// --- Installs ---

// AddInstall registers a game installation to manage.
func (s *Service) AddInstall(game, root string) (types.GameInstall, error) {
	st, err := s.states.Create(game, root)
	if err != nil {
		return types.GameInstall{}, err
	}
	return st.Install, nil
}

// ListInstalls returns all managed installs.
func (s *Service) ListInstalls() ([]types.GameInstall, error) {
	return s.states.List()
}

// ActiveProfile returns the install's active profile id, empty when
// no profile is active.
func (s *Service) ActiveProfile(install types.InstallID) (types.ProfileID, error) {
	return s.manager.ActiveProfile(install)
}

// RebuildState re-derives an install's manifest from disk inspection,
// used for recovery after a crash. Overlay ownership is re-attributed
// against the active profile's mods when one is recorded, otherwise
// against every registered mod.
func (s *Service) RebuildState(install types.InstallID) error {
	st, err := s.states.Load(install)
	if err != nil {
		return err
	}

	var mods []types.Mod
	if st.ActiveProfile != "" {
		profile, err := s.profiles.Get(install, st.ActiveProfile)
		if err == nil {
			for _, id := range profile.Mods {
				if mod, err := s.archives.Get(id); err == nil {
					mods = append(mods, mod)
				}
			}
		}
	}
	if mods == nil {
		mods, err = s.archives.List()
		if err != nil {
			return err
		}
	}
	return s.states.Rebuild(st, s.backups, mods)
}

// --- Profiles ---

// CreateProfile creates a new empty profile for an install.
func (s *Service) CreateProfile(install types.InstallID, name string) (*types.Profile, error) {
	return s.profiles.Create(install, name)
}

// RenameProfile changes a profile's display name.
func (s *Service) RenameProfile(install types.InstallID, id types.ProfileID, name string) error {
	return s.profiles.Rename(install, id, name)
}

// DeleteProfile removes a profile, failing with IN_USE while it is the
// install's active profile.
func (s *Service) DeleteProfile(install types.InstallID, id types.ProfileID) error {
	active, err := s.manager.ActiveProfile(install)
	if err != nil {
		return err
	}
	if active == id {
		return errors.Newf(errors.ErrInUse, "profile %s is active; deactivate it first", id)
	}
	return s.profiles.Delete(install, id)
}

// ReorderProfile replaces the profile's ordered mod list.
func (s *Service) ReorderProfile(install types.InstallID, id types.ProfileID, mods []types.ModID) error {
	return s.profiles.SetMods(install, id, mods)
}

// AddModToProfile appends a mod at the highest-priority position.
func (s *Service) AddModToProfile(install types.InstallID, id types.ProfileID, mod types.ModID) error {
	if _, err := s.archives.Get(mod); err != nil {
		return err
	}
	return s.profiles.AddMod(install, id, mod)
}

// RemoveModFromProfile drops a mod from the profile's order.
func (s *Service) RemoveModFromProfile(install types.InstallID, id types.ProfileID, mod types.ModID) error {
	return s.profiles.RemoveMod(install, id, mod)
}

// ListProfiles returns the install's profiles.
func (s *Service) ListProfiles(install types.InstallID) ([]types.Profile, error) {
	return s.profiles.List(install)
}

// GetProfile returns one profile.
func (s *Service) GetProfile(install types.InstallID, id types.ProfileID) (*types.Profile, error) {
	return s.profiles.Get(install, id)
}

// ExportProfile serializes a profile to portable YAML.
func (s *Service) ExportProfile(install types.InstallID, id types.ProfileID) ([]byte, error) {
	return s.profiles.Export(install, id)
}

// ImportProfile creates a profile from exported YAML.
func (s *Service) ImportProfile(install types.InstallID, data []byte) (*types.Profile, error) {
	return s.profiles.Import(install, data)
}

// --- Activation ---

// ActivateProfile applies a profile's resolved file set to the game
// directory. Re-activating the active profile performs zero writes.
func (s *Service) ActivateProfile(install types.InstallID, id types.ProfileID) error {
	return s.manager.Activate(install, id)
}

// SwitchProfile activates a different profile. The delta is computed
// directly against the currently applied overlay, so only paths whose
// winner changed are touched.
func (s *Service) SwitchProfile(install types.InstallID, id types.ProfileID) error {
	return s.manager.Activate(install, id)
}

// DeactivateProfile restores every overlaid path and leaves no profile
// active.
func (s *Service) DeactivateProfile(install types.InstallID) error {
	return s.manager.Deactivate(install)
}

// PlanActivation returns the path delta activating a profile would
// touch, without writing.
func (s *Service) PlanActivation(install types.InstallID, id types.ProfileID) (*overlay.Delta, error) {
	return s.manager.Plan(install, id)
}

// GetConflicts lists the profile's contested paths with their winners
// and losers. Read-only.
func (s *Service) GetConflicts(install types.InstallID, id types.ProfileID) ([]types.Conflict, error) {
	return s.manager.Conflicts(install, id)
}

// RestoreVanilla restores the install to its pristine pre-mod state.
func (s *Service) RestoreVanilla(install types.InstallID) error {
	return s.manager.RestoreVanilla(install)
}
