package archive

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/modlay/modlay/pkg/types"
)

// HashBytes returns the canonical content hash used in mod manifests.
func HashBytes(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

// HashFile hashes a file's content through the filesystem abstraction.
func HashFile(fs types.FS, path string) (string, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}
