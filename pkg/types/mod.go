package types

import "time"

// ModID uniquely identifies a registered mod.
type ModID string

// FileEntry is a single file declared by a mod: the path relative to
// the game root it overrides, and the xxhash64 of its content.
type FileEntry struct {
	Path string `toml:"path"`
	Hash string `toml:"hash"`
}

// Mod is a registered mod's manifest. Mods are immutable once
// registered; updating a mod means registering a replacement.
type Mod struct {
	ID          ModID       `toml:"id"`
	Name        string      `toml:"name"`
	Version     string      `toml:"version,omitempty"`
	Author      string      `toml:"author,omitempty"`
	InstalledAt time.Time   `toml:"installed_at"`
	Files       []FileEntry `toml:"files"`
}

// Paths returns the relative paths this mod declares, in manifest order.
func (m *Mod) Paths() []string {
	paths := make([]string, len(m.Files))
	for i, f := range m.Files {
		paths[i] = f.Path
	}
	return paths
}

// HashFor returns the content hash the mod declares for a path.
func (m *Mod) HashFor(path string) (string, bool) {
	for _, f := range m.Files {
		if f.Path == path {
			return f.Hash, true
		}
	}
	return "", false
}

// Declares reports whether the mod declares the given relative path.
func (m *Mod) Declares(path string) bool {
	_, ok := m.HashFor(path)
	return ok
}
