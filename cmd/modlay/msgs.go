package main

// User-facing message strings for the CLI commands.
const (
	MsgRegisterShort = "Register a mod payload"
	MsgRegisterLong  = `Register a mod payload (a directory or a .zip archive) so profiles can
reference it. The payload is hashed file-by-file and copied into the
modlay datastore; the original path is no longer needed afterwards.`

	MsgModsShort = "List registered mods"

	MsgInstallShort = "Manage game installations"

	MsgProfileShort = "Manage mod profiles"
	MsgProfileLong  = `Manage mod profiles for an install. A profile is an ordered list of
mods: order is load priority, and later entries win file conflicts.`

	MsgActivateShort = "Activate a profile against a game install"
	MsgActivateLong  = `Resolve the profile's load order and overlay its files onto the game
directory. Pristine content is backed up before any file is first
overwritten, so the original game state can always be restored.`

	MsgDeactivateShort = "Deactivate the active profile, restoring all overlaid files"

	MsgSwitchShort = "Switch to a different profile"
	MsgSwitchLong  = `Switch the install to a different profile. The change is computed
directly against the currently applied overlay, so only files whose
winning mod differs between the two profiles are touched.`

	MsgConflictsShort = "List file conflicts for a profile"

	MsgRestoreShort = "Restore a game install to its vanilla state"
	MsgRestoreLong  = `Restore every backed-up file to its pristine pre-mod content and clear
the overlay state. This is also the recovery path when an apply ends in
an unrecoverable state.`
)
