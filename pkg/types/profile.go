package types

import "time"

// ProfileID uniquely identifies a profile within a game install.
type ProfileID string

// Profile is a named, ordered selection of mods. Order is priority:
// later entries win conflicts.
type Profile struct {
	ID        ProfileID `toml:"id"`
	Name      string    `toml:"name"`
	Mods      []ModID   `toml:"mods"`
	CreatedAt time.Time `toml:"created_at"`
}

// HasMod reports whether the profile references the given mod.
func (p *Profile) HasMod(id ModID) bool {
	for _, m := range p.Mods {
		if m == id {
			return true
		}
	}
	return false
}
