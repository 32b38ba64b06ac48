package profiles

import (
	"sync"

	"github.com/modlay/modlay/pkg/archive"
	"github.com/modlay/modlay/pkg/backup"
	"github.com/modlay/modlay/pkg/conflict"
	"github.com/modlay/modlay/pkg/errors"
	"github.com/modlay/modlay/pkg/logging"
	"github.com/modlay/modlay/pkg/overlay"
	"github.com/modlay/modlay/pkg/state"
	"github.com/modlay/modlay/pkg/types"
	"github.com/rs/zerolog"
)

// Manager owns the per-install activation state machine:
// NoProfileActive → ProfileActive(p). All mutating transitions hold an
// exclusive lock scoped to the install, so a reader can never observe
// a half-applied overlay and two mutations can never interleave.
type Manager struct {
	archives *archive.Store
	store    *Store
	states   *state.Store
	backups  *backup.Manager
	engine   *overlay.Engine
	logger   zerolog.Logger

	mu    sync.Mutex
	locks map[types.InstallID]*sync.Mutex
}

// NewManager wires the profile manager over its collaborators.
func NewManager(archives *archive.Store, store *Store, states *state.Store, backups *backup.Manager, engine *overlay.Engine) *Manager {
	return &Manager{
		archives: archives,
		store:    store,
		states:   states,
		backups:  backups,
		engine:   engine,
		logger:   logging.GetLogger("profiles.manager"),
		locks:    make(map[types.InstallID]*sync.Mutex),
	}
}

// lockFor returns the exclusive mutation lock for an install.
func (m *Manager) lockFor(id types.InstallID) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	lock, ok := m.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		m.locks[id] = lock
	}
	return lock
}

// Activate resolves the profile and reconciles the game directory with
// its resolved file set. On engine failure the install keeps its prior
// active profile (the engine has already rolled the disk back).
// Switching between profiles is the same call: the apply is computed
// directly against the currently applied overlay, so only paths whose
// winner changed are touched.
func (m *Manager) Activate(installID types.InstallID, profileID types.ProfileID) error {
	lock := m.lockFor(installID)
	lock.Lock()
	defer lock.Unlock()

	st, err := m.states.Load(installID)
	if err != nil {
		return err
	}
	profile, err := m.store.Get(installID, profileID)
	if err != nil {
		return err
	}
	mods, err := m.resolveMods(profile)
	if err != nil {
		return err
	}

	resolution := conflict.Resolve(mods)
	m.logger.Info().
		Str("install", string(installID)).
		Str("profile", profile.Name).
		Int("mods", len(mods)).
		Int("paths", resolution.Len()).
		Msg("Activating profile")

	return m.apply(st, resolution.Winners(), profile.ID)
}

// Deactivate applies an empty resolved set, restoring every overlaid
// path, and transitions to NoProfileActive.
func (m *Manager) Deactivate(installID types.InstallID) error {
	lock := m.lockFor(installID)
	lock.Lock()
	defer lock.Unlock()

	st, err := m.states.Load(installID)
	if err != nil {
		return err
	}
	m.logger.Info().Str("install", string(installID)).Msg("Deactivating profile")
	return m.apply(st, types.ResolvedSet{}, "")
}

// apply runs the engine and persists the resulting overlay state. The
// active profile only advances when the apply fully succeeds.
func (m *Manager) apply(st *state.InstallState, target types.ResolvedSet, next types.ProfileID) error {
	entries, applyErr := m.engine.Apply(st.Install, st.Overlay, target)
	st.Overlay = entries
	if applyErr == nil {
		st.ActiveProfile = next
	}

	if captured, err := m.backups.List(st.Install.ID); err == nil {
		st.BackupIndex = captured
	} else {
		// The index is a rebuildable cache; keep the stale copy but
		// leave a trace for recovery investigations.
		m.logger.Warn().Err(err).Str("install", string(st.Install.ID)).Msg("Failed to refresh backup index")
	}

	if saveErr := m.states.Save(st); saveErr != nil {
		if applyErr != nil {
			m.logger.Error().Err(saveErr).Msg("Failed to persist install state after apply failure")
			return applyErr
		}
		return saveErr
	}
	return applyErr
}

// Plan computes the path delta that activating a profile would touch,
// without writing anything. Used by dry-run.
func (m *Manager) Plan(installID types.InstallID, profileID types.ProfileID) (*overlay.Delta, error) {
	st, err := m.states.Load(installID)
	if err != nil {
		return nil, err
	}
	profile, err := m.store.Get(installID, profileID)
	if err != nil {
		return nil, err
	}
	mods, err := m.resolveMods(profile)
	if err != nil {
		return nil, err
	}
	return m.engine.Plan(st.Overlay, conflict.Resolve(mods).Winners()), nil
}

// Conflicts resolves a profile's mod order and returns its contested
// paths. Read-only: no lock, no disk effect.
func (m *Manager) Conflicts(installID types.InstallID, profileID types.ProfileID) ([]types.Conflict, error) {
	profile, err := m.store.Get(installID, profileID)
	if err != nil {
		return nil, err
	}
	mods, err := m.resolveMods(profile)
	if err != nil {
		return nil, err
	}
	return conflict.Resolve(mods).Conflicts(), nil
}

// RestoreVanilla restores every backed-up path and clears the overlay
// state, returning the install to NoProfileActive. This is also the
// documented recovery path after UNRECOVERABLE_STATE.
func (m *Manager) RestoreVanilla(installID types.InstallID) error {
	lock := m.lockFor(installID)
	lock.Lock()
	defer lock.Unlock()

	st, err := m.states.Load(installID)
	if err != nil {
		return err
	}
	if err := m.backups.FullRestore(st.Install); err != nil {
		return err
	}

	st.Overlay = nil
	st.ActiveProfile = ""
	if captured, err := m.backups.List(installID); err == nil {
		st.BackupIndex = captured
	} else {
		m.logger.Warn().Err(err).Str("install", string(installID)).Msg("Failed to refresh backup index")
	}
	return m.states.Save(st)
}

// ModInUse reports whether any install's active profile references the
// mod. The archive store consults this before removal.
func (m *Manager) ModInUse(id types.ModID) (bool, error) {
	installs, err := m.states.List()
	if err != nil {
		return false, err
	}
	for _, install := range installs {
		st, err := m.states.Load(install.ID)
		if err != nil {
			return false, err
		}
		if st.ActiveProfile == "" {
			continue
		}
		profile, err := m.store.Get(install.ID, st.ActiveProfile)
		if err != nil {
			if errors.IsErrorCode(err, errors.ErrNotFound) {
				continue
			}
			return false, err
		}
		if profile.HasMod(id) {
			return true, nil
		}
	}
	return false, nil
}

// ActiveProfile returns the install's active profile id, empty when
// none is active.
func (m *Manager) ActiveProfile(installID types.InstallID) (types.ProfileID, error) {
	st, err := m.states.Load(installID)
	if err != nil {
		return "", err
	}
	return st.ActiveProfile, nil
}

// resolveMods maps the profile's ordered mod ids onto manifests,
// failing with DANGLING_MOD_REFERENCE when any id does not resolve.
// Validation completes before any disk mutation begins.
func (m *Manager) resolveMods(profile *types.Profile) ([]types.Mod, error) {
	mods := make([]types.Mod, 0, len(profile.Mods))
	var missing []string
	for _, id := range profile.Mods {
		mod, err := m.archives.Get(id)
		if err != nil {
			if errors.IsErrorCode(err, errors.ErrNotFound) {
				missing = append(missing, string(id))
				continue
			}
			return nil, err
		}
		mods = append(mods, mod)
	}
	if len(missing) > 0 {
		return nil, errors.Newf(errors.ErrDanglingModReference,
			"profile %q references %d unregistered mod(s)", profile.Name, len(missing)).
			WithDetail("mods", missing)
	}
	return mods, nil
}
