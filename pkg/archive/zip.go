package archive

import (
	"archive/zip"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/modlay/modlay/pkg/errors"
)

// zipEntry is a validated file inside a zip payload.
type zipEntry struct {
	relPath string
	file    *zip.File
}

// readZip opens a zip payload and validates its entries. Zip archives
// packaged as a single wrapping directory (detected by the metadata
// file living inside it, see wrapperPrefix) are unwrapped
// transparently.
func readZip(zipPath string, globs []string) (*zip.ReadCloser, []zipEntry, error) {
	rc, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, nil, errors.Wrapf(err, errors.ErrCorruptArchive, "payload archive is unreadable: %s", zipPath)
	}

	prefix := wrapperPrefix(rc.File)

	var entries []zipEntry
	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rel := path.Clean(strings.TrimPrefix(f.Name, prefix))
		if rel == "." {
			rc.Close()
			return nil, nil, errors.Newf(errors.ErrCorruptArchive, "payload archive contains an invalid entry: %s", f.Name)
		}
		if rel == ModInfoFile || ignored(rel, globs) {
			continue
		}
		if err := validateRelPath(rel); err != nil {
			rc.Close()
			return nil, nil, err
		}
		entries = append(entries, zipEntry{relPath: rel, file: f})
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].relPath < entries[j].relPath })
	return rc, entries, nil
}

// wrapperPrefix returns the packaging directory wrapping the whole
// payload as a "name/" prefix, or "" when the archive is used as-is.
// A sole top-level directory counts as a wrapper only when it carries
// the metadata file at its root: payload paths are relative to the
// game root, so a top-level directory without metadata is game
// structure (car/, data/, ...) and must be preserved.
func wrapperPrefix(files []*zip.File) string {
	root := ""
	hasModInfo := false
	for _, f := range files {
		name := strings.TrimSuffix(f.Name, "/")
		top, rest, found := strings.Cut(name, "/")
		if !found && !f.FileInfo().IsDir() {
			return ""
		}
		if !found || rest == "" {
			continue
		}
		if root == "" {
			root = top
		} else if root != top {
			return ""
		}
		if rest == ModInfoFile && !f.FileInfo().IsDir() {
			hasModInfo = true
		}
	}
	if root == "" || !hasModInfo {
		return ""
	}
	return root + "/"
}

// zipOpenModInfo pulls the optional metadata file out of a zip
// payload, honoring a single wrapping directory the same way readZip
// does.
func zipOpenModInfo(zipPath string) ([]byte, error) {
	rc, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	prefix := wrapperPrefix(rc.File)
	for _, f := range rc.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if path.Clean(strings.TrimPrefix(f.Name, prefix)) == ModInfoFile {
			return readZipEntry(f)
		}
	}
	return nil, errors.New(errors.ErrNotFound, "no modinfo.yaml in archive")
}

// readZipEntry extracts one entry's content.
func readZipEntry(f *zip.File) ([]byte, error) {
	r, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCorruptArchive, "failed to open archive entry: %s", f.Name)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCorruptArchive, "failed to read archive entry: %s", f.Name)
	}
	return data, nil
}
