package fsx

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
)

const (
	// DefaultDirMode is used for directories created on the way to a destination.
	DefaultDirMode os.FileMode = 0o755
	// DefaultFileMode is used for published artifacts.
	DefaultFileMode os.FileMode = 0o644

	// stagingPattern names scoped staging directories; the leading dot hides them from listings.
	stagingPattern = ".manifestgen-stage-*"
)

// WriteFunc fills a staged file.
type WriteFunc func(ctx context.Context, w io.Writer) error

// WriteAtomic stages the output of fill next to path and renames it into place.
// The staging directory is removed on every exit path.
func WriteAtomic(ctx context.Context, path string, mode os.FileMode, fill WriteFunc) (err error) {
	parent := filepath.Dir(path)
	if err = os.MkdirAll(parent, DefaultDirMode); err != nil {
		return fmt.Errorf("create destination directory: %w", err)
	}

	stage, err := os.MkdirTemp(parent, stagingPattern)
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}

	defer func() {
		// Best-effort cleanup, the rename already moved the file out on success.
		_ = os.RemoveAll(stage)
	}()

	tempPath := filepath.Join(stage, filepath.Base(path)+".tmp")

	// #nosec G304 -- staging path is derived from the caller-provided destination.
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("create staged file: %w", err)
	}

	if err = fill(ctx, tempFile); err != nil {
		_ = tempFile.Close()

		return err
	}

	if err = tempFile.Sync(); err != nil {
		_ = tempFile.Close()

		return fmt.Errorf("sync staged file: %w", err)
	}

	if err = tempFile.Chmod(mode); err != nil {
		_ = tempFile.Close()

		return fmt.Errorf("chmod staged file: %w", err)
	}

	if err = tempFile.Close(); err != nil {
		return fmt.Errorf("close staged file: %w", err)
	}

	if err = ctx.Err(); err != nil {
		return err
	}

	if err = replace(tempPath, path); err != nil {
		return err
	}

	syncDir(parent)

	return nil
}

// WriteFileAtomic writes content to path through WriteAtomic.
func WriteFileAtomic(ctx context.Context, path string, content []byte, mode os.FileMode) error {
	return WriteAtomic(ctx, path, mode, func(_ context.Context, w io.Writer) error {
		if _, err := w.Write(content); err != nil {
			return fmt.Errorf("write staged file: %w", err)
		}

		return nil
	})
}

// replace renames src over dst. Windows refuses to rename over an existing file,
// so the destination is removed first there.
func replace(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}

	if runtime.GOOS != "windows" {
		return fmt.Errorf("rename staged file: %w", err)
	}

	if removeErr := os.Remove(dst); removeErr != nil && !os.IsNotExist(removeErr) {
		return fmt.Errorf("remove destination before rename: %w", removeErr)
	}

	if renameErr := os.Rename(src, dst); renameErr != nil {
		return fmt.Errorf("rename staged file after remove: %w", renameErr)
	}

	return nil
}

// syncDir flushes directory metadata so the rename survives a crash.
func syncDir(dir string) {
	// #nosec G304 -- directory path is derived from the caller-provided destination.
	handle, err := os.Open(dir)
	if err != nil {
		return
	}

	_ = handle.Sync()
	_ = handle.Close()
}
