// Package types defines the shared data model for modlay: registered
// mods, profiles, game installs, overlay entries, and the filesystem
// abstraction used throughout the codebase.
package types
