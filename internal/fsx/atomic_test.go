package fsx

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

var errTestInterrupted = errors.New("interrupted")

// TestWriteFileAtomic_ReplacesContent checks creation, replacement and mode of the destination.
func TestWriteFileAtomic_ReplacesContent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "manifest.json")

	require.NoError(t, WriteFileAtomic(context.Background(), path, []byte("first"), DefaultFileMode))
	require.NoError(t, WriteFileAtomic(context.Background(), path, []byte("second"), DefaultFileMode))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "second", string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, DefaultFileMode, info.Mode().Perm())

	requireNoStaging(t, filepath.Dir(path))
}

// TestWriteAtomic_FailureLeavesNothing simulates an interrupted write and checks no file appears.
func TestWriteAtomic_FailureLeavesNothing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "1.0.0.tar.gz")

	err := WriteAtomic(context.Background(), path, DefaultFileMode, func(_ context.Context, w io.Writer) error {
		_, _ = w.Write([]byte("partial"))

		return errTestInterrupted
	})
	require.ErrorIs(t, err, errTestInterrupted)

	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
	requireNoStaging(t, dir)
}

// TestWriteAtomic_FailureKeepsPrevious ensures a failed rewrite does not touch the published file.
func TestWriteAtomic_FailureKeepsPrevious(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "manifest.json")
	require.NoError(t, WriteFileAtomic(context.Background(), path, []byte("stable"), DefaultFileMode))

	err := WriteAtomic(context.Background(), path, DefaultFileMode, func(_ context.Context, w io.Writer) error {
		_, _ = w.Write([]byte("broken"))

		return errTestInterrupted
	})
	require.Error(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "stable", string(got))
}

// TestWriteAtomic_Canceled refuses to publish once the context is canceled.
func TestWriteAtomic_Canceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WriteFileAtomic(ctx, path, []byte("late"), DefaultFileMode)
	require.ErrorIs(t, err, context.Canceled)

	_, err = os.Stat(path)
	require.ErrorIs(t, err, os.ErrNotExist)
	requireNoStaging(t, dir)
}

// requireNoStaging asserts that no staging directories were left behind in dir.
func requireNoStaging(t *testing.T, dir string) {
	t.Helper()

	leftovers, err := filepath.Glob(filepath.Join(dir, stagingPattern))
	require.NoError(t, err)
	require.Empty(t, leftovers)
}
