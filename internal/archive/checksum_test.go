package archive

import (
	"context"
	"crypto/md5" //nolint:gosec // Matches the digest recorded in manifests.
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSum_MatchesContent compares the streamed digest with a one-shot digest.
func TestSum_MatchesContent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "blob")
	content := make([]byte, 3*chunkSize+17)

	for i := range content {
		content[i] = byte(i % 251)
	}

	require.NoError(t, os.WriteFile(path, content, 0o600))

	digest, err := Sum(path)
	require.NoError(t, err)

	expected := md5.Sum(content) //nolint:gosec // Test oracle.
	require.Equal(t, hex.EncodeToString(expected[:]), digest.Checksum)
	require.Equal(t, int64(len(content)), digest.Bytes)
}

// TestSum_EmptyFile returns the digest of no input.
func TestSum_EmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	digest, err := Sum(path)
	require.NoError(t, err)
	require.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", digest.Checksum)
	require.Zero(t, digest.Bytes)
}

// TestSum_Missing reports a missing file.
func TestSum_Missing(t *testing.T) {
	t.Parallel()

	_, err := Sum(filepath.Join(t.TempDir(), "absent"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestSum_PackedArchive digests a freshly packed archive by its on-disk size.
func TestSum_PackedArchive(t *testing.T) {
	t.Parallel()

	root := newTestApp(t)
	dest := filepath.Join(t.TempDir(), "1.0.0.tar.gz")

	_, err := Pack(context.Background(), &PackRequest{AppRoot: root, AppID: "bitcoin", Version: "1.0.0", Destination: dest})
	require.NoError(t, err)

	digest, err := Sum(dest)
	require.NoError(t, err)

	info, err := os.Stat(dest)
	require.NoError(t, err)
	require.Equal(t, info.Size(), digest.Bytes)
	require.Len(t, digest.Checksum, 32)
}

// TestList_NotGzip rejects a file that is not a gzip stream.
func TestList_NotGzip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "plain.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o600))

	_, err := List(path)
	require.Error(t, err)
}
