package archive

import (
	"crypto"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	// Register MD5 for DefaultChecksumFunction.
	_ "crypto/md5"
)

const (
	// DefaultChecksumFunction identifies archive content. It is an integrity
	// check for downloads, not a security boundary.
	DefaultChecksumFunction crypto.Hash = crypto.MD5

	// chunkSize bounds memory use while hashing large archives.
	chunkSize = 1 << 20
)

// errHashUnavailable is returned when the checksum function is not linked into the binary.
var errHashUnavailable = errors.New("hash function unavailable")

// Digest is the identity of an archive file.
type Digest struct {
	// Checksum is the lowercase hex digest of the file content.
	Checksum string
	// Bytes is the exact file length.
	Bytes int64
}

// Sum streams the file at path in fixed-size chunks and returns its digest and length.
func Sum(path string) (Digest, error) {
	if !DefaultChecksumFunction.Available() {
		return Digest{}, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return Digest{}, err
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := DefaultChecksumFunction.New()

	size, err := io.CopyBuffer(hasher, file, make([]byte, chunkSize))
	if err != nil {
		return Digest{}, fmt.Errorf("calculate checksum: %w", err)
	}

	return Digest{
		Checksum: hex.EncodeToString(hasher.Sum(nil)),
		Bytes:    size,
	}, nil
}
