// Package paths provides centralized path handling for modlay.
// It implements XDG Base Directory specification compliance and
// provides a consistent API for the datastore layout: registered mod
// archives, per-install state, profiles, and backup trees.
package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/modlay/modlay/pkg/errors"
	"github.com/modlay/modlay/pkg/types"
)

// Environment variable names
const (
	// EnvDataDir overrides the XDG data directory for modlay
	EnvDataDir = "MODLAY_DATA_DIR"

	// EnvConfigDir overrides the XDG config directory for modlay
	EnvConfigDir = "MODLAY_CONFIG_DIR"
)

// Default directories and files.
// IMPORTANT: These constants define modlay's internal datastore
// structure and are NOT user-configurable. They must remain consistent
// across installations so that state written by one version can be
// read by another.
const (
	// AppDirName is the directory name for modlay-specific files
	AppDirName = "modlay"

	// ArchivesDir is the subdirectory holding registered mod archives
	ArchivesDir = "archives"

	// InstallsDir is the subdirectory holding per-install state
	InstallsDir = "installs"

	// PayloadDir is the subdirectory of a mod archive holding its file tree
	PayloadDir = "payload"

	// ProfilesDir is the subdirectory of an install holding profile files
	ProfilesDir = "profiles"

	// BackupsDir is the subdirectory of an install holding pristine content
	BackupsDir = "backups"

	// BackupFilesDir holds backed-up file content, mirroring the game tree
	BackupFilesDir = "files"

	// BackupAbsentDir holds "did not exist" sentinels, mirroring the game tree
	BackupAbsentDir = "absent"

	// ModManifestFile is the manifest file name inside a mod archive
	ModManifestFile = "mod.toml"

	// InstallManifestFile is the state file name inside an install directory
	InstallManifestFile = "install.toml"

	// LogFileName is the name of the log file
	LogFileName = "modlay.log"
)

// Paths provides centralized path management for modlay
type Paths interface {
	DataDir() string
	ConfigDir() string
	ArchivesRoot() string
	ModDir(id types.ModID) string
	ModManifestPath(id types.ModID) string
	ModPayloadDir(id types.ModID) string
	InstallsRoot() string
	InstallDir(id types.InstallID) string
	InstallManifestPath(id types.InstallID) string
	ProfilesRoot(id types.InstallID) string
	ProfilePath(install types.InstallID, profile types.ProfileID) string
	BackupsRoot(id types.InstallID) string
	BackupFilePath(id types.InstallID, relPath string) string
	BackupAbsentPath(id types.InstallID, relPath string) string
	LogFilePath() string
}

type paths struct {
	xdgData   string
	xdgConfig string
	xdgState  string
}

// New creates a new Paths instance. Directories are determined from
// environment overrides first, XDG defaults otherwise.
func New() (Paths, error) {
	p := &paths{}

	if dataDir := os.Getenv(EnvDataDir); dataDir != "" {
		p.xdgData = expandHome(dataDir)
	} else {
		p.xdgData = filepath.Join(xdg.DataHome, AppDirName)
	}

	if configDir := os.Getenv(EnvConfigDir); configDir != "" {
		p.xdgConfig = expandHome(configDir)
	} else {
		p.xdgConfig = filepath.Join(xdg.ConfigHome, AppDirName)
	}

	if stateDir := os.Getenv("XDG_STATE_HOME"); stateDir != "" {
		p.xdgState = filepath.Join(stateDir, AppDirName)
	} else {
		homeDir, _ := os.UserHomeDir()
		p.xdgState = filepath.Join(homeDir, ".local", "state", AppDirName)
	}

	absData, err := filepath.Abs(p.xdgData)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to resolve data directory")
	}
	p.xdgData = absData

	return p, nil
}

func (p *paths) DataDir() string {
	return p.xdgData
}

func (p *paths) ConfigDir() string {
	return p.xdgConfig
}

func (p *paths) ArchivesRoot() string {
	return filepath.Join(p.xdgData, ArchivesDir)
}

func (p *paths) ModDir(id types.ModID) string {
	return filepath.Join(p.ArchivesRoot(), string(id))
}

func (p *paths) ModManifestPath(id types.ModID) string {
	return filepath.Join(p.ModDir(id), ModManifestFile)
}

func (p *paths) ModPayloadDir(id types.ModID) string {
	return filepath.Join(p.ModDir(id), PayloadDir)
}

func (p *paths) InstallsRoot() string {
	return filepath.Join(p.xdgData, InstallsDir)
}

func (p *paths) InstallDir(id types.InstallID) string {
	return filepath.Join(p.InstallsRoot(), string(id))
}

func (p *paths) InstallManifestPath(id types.InstallID) string {
	return filepath.Join(p.InstallDir(id), InstallManifestFile)
}

func (p *paths) ProfilesRoot(id types.InstallID) string {
	return filepath.Join(p.InstallDir(id), ProfilesDir)
}

func (p *paths) ProfilePath(install types.InstallID, profile types.ProfileID) string {
	return filepath.Join(p.ProfilesRoot(install), string(profile)+".toml")
}

func (p *paths) BackupsRoot(id types.InstallID) string {
	return filepath.Join(p.InstallDir(id), BackupsDir)
}

func (p *paths) BackupFilePath(id types.InstallID, relPath string) string {
	return filepath.Join(p.BackupsRoot(id), BackupFilesDir, filepath.FromSlash(relPath))
}

func (p *paths) BackupAbsentPath(id types.InstallID, relPath string) string {
	return filepath.Join(p.BackupsRoot(id), BackupAbsentDir, filepath.FromSlash(relPath))
}

func (p *paths) LogFilePath() string {
	return filepath.Join(p.xdgState, LogFileName)
}

// expandHome expands a leading ~/ to the user's home directory
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
