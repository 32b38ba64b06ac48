package archive

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/modlay/modlay/pkg/errors"
	"github.com/modlay/modlay/pkg/types"
)

// scannedFile is a payload entry found during registration: the
// slash-normalized relative path and the absolute source location.
type scannedFile struct {
	relPath string
	source  string
}

// validateRelPath rejects payload entries that would escape the game
// root when overlaid: absolute paths, drive-letter paths, and any
// path containing a ".." component.
func validateRelPath(relPath string) error {
	if relPath == "" {
		return errors.New(errors.ErrCorruptArchive, "payload contains an entry with an empty path")
	}
	if strings.HasPrefix(relPath, "/") || filepath.IsAbs(filepath.FromSlash(relPath)) {
		return errors.Newf(errors.ErrCorruptArchive, "payload entry is an absolute path: %s", relPath)
	}
	for _, part := range strings.Split(relPath, "/") {
		if part == ".." {
			return errors.Newf(errors.ErrCorruptArchive, "payload entry escapes the install root: %s", relPath)
		}
	}
	return nil
}

// ignored reports whether a relative path matches any configured
// ignore glob. Invalid globs never match.
func ignored(relPath string, globs []string) bool {
	for _, g := range globs {
		if ok, err := doublestar.Match(g, relPath); err == nil && ok {
			return true
		}
	}
	return false
}

// scanDir walks a payload directory and collects every regular file,
// skipping ignored entries and the mod metadata file.
func scanDir(fs types.FS, root string, globs []string) ([]scannedFile, error) {
	var files []scannedFile

	var walk func(dir, rel string) error
	walk = func(dir, rel string) error {
		entries, err := fs.ReadDir(dir)
		if err != nil {
			return errors.Wrapf(err, errors.ErrCorruptArchive, "payload is unreadable: %s", dir)
		}
		for _, entry := range entries {
			childRel := entry.Name()
			if rel != "" {
				childRel = path.Join(rel, entry.Name())
			}
			childAbs := filepath.Join(dir, entry.Name())
			if entry.IsDir() {
				if err := walk(childAbs, childRel); err != nil {
					return err
				}
				continue
			}
			if childRel == ModInfoFile || ignored(childRel, globs) {
				continue
			}
			if err := validateRelPath(childRel); err != nil {
				return err
			}
			files = append(files, scannedFile{relPath: childRel, source: childAbs})
		}
		return nil
	}

	if err := walk(root, ""); err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].relPath < files[j].relPath })
	return files, nil
}
