package types

// InstallID uniquely identifies a managed game install.
type InstallID string

// GameInstall is a managed game installation. All core calls take an
// explicit install handle; there is no process-wide current install.
type GameInstall struct {
	ID   InstallID `toml:"id"`
	Game string    `toml:"game"`
	Root string    `toml:"root"`
}

// OverlayEntry records a single file currently overridden in the game
// directory and the mod that owns it. The pristine original lives in
// the install's backup tree under the same relative path.
type OverlayEntry struct {
	Path  string `toml:"path"`
	ModID ModID  `toml:"mod_id"`
}

// ResolvedSet maps each contested-or-not relative path to the mod that
// wins it under the current profile order.
type ResolvedSet map[string]ModID

// Conflict describes a path declared by more than one mod: the winning
// mod under profile order and every shadowed declarer.
type Conflict struct {
	Path   string
	Winner ModID
	Losers []ModID
}
