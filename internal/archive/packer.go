package archive

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/mholt/archiver"

	"github.com/oshokin/anya-manifestgen/internal/fsx"
	"github.com/oshokin/anya-manifestgen/internal/logger"
)

const (
	// regularMode and executableMode are the only permissions recorded in archives.
	regularMode    os.FileMode = 0o644
	executableMode os.FileMode = 0o755
)

var (
	// ErrVersionNotFound is returned when the version directory is missing.
	ErrVersionNotFound = fmt.Errorf("version directory %w", fs.ErrNotExist)

	// errNotDirectory is returned when the version path is not a directory.
	errNotDirectory = errors.New("not a directory")

	// epoch is the modification time stamped on every member and on the gzip header.
	//nolint:gochecknoglobals // Immutable value shared by all archives.
	epoch = time.Unix(0, 0).UTC()

	// appFiles are the application-level files packed next to the version tree.
	//nolint:gochecknoglobals // Fixed allow-list.
	appFiles = []string{"data.yml", "README.md", "logo.png"}
)

// AppFiles returns the allow-list of application-level files packed into every archive.
func AppFiles() []string {
	return append([]string(nil), appFiles...)
}

// PackRequest describes one application version to pack.
type PackRequest struct {
	// AppRoot is the application directory inside the catalog.
	AppRoot string
	// AppID prefixes every member name.
	AppID string
	// Version is the version label, which is also the subdirectory name.
	Version string
	// Destination is the final archive path.
	Destination string
}

// Artifact describes a packed archive.
type Artifact struct {
	// Path is where the archive was published.
	Path string
	// Members lists member names in archive order.
	Members []string
}

// member is one file scheduled for packing.
type member struct {
	// source is the file on disk.
	source string
	// name is the member name inside the archive.
	name string
	// info is the dereferenced file information.
	info os.FileInfo
}

// Pack writes a deterministic tar.gz for the requested version and publishes it atomically.
func Pack(ctx context.Context, req *PackRequest) (*Artifact, error) {
	versionDir := filepath.Join(req.AppRoot, req.Version)

	info, err := os.Stat(versionDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, versionDir)
	case err != nil:
		return nil, fmt.Errorf("stat version directory: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("%s: %w", versionDir, errNotDirectory)
	}

	members, err := collectMembers(ctx, req.AppRoot, req.AppID, versionDir)
	if err != nil {
		return nil, err
	}

	err = fsx.WriteAtomic(ctx, req.Destination, fsx.DefaultFileMode, func(ctx context.Context, w io.Writer) error {
		return writeTarGz(ctx, w, members)
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.name)
	}

	logger.DebugKV(ctx, "Archive packed", "path", req.Destination, "members", len(names))

	return &Artifact{
		Path:    req.Destination,
		Members: names,
	}, nil
}

// collectMembers lists the allow-listed app files followed by the version tree in lexical order.
func collectMembers(ctx context.Context, appRoot, appID, versionDir string) ([]member, error) {
	members := make([]member, 0, len(appFiles))

	for _, name := range appFiles {
		source := filepath.Join(appRoot, name)

		info, err := os.Stat(source)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		members = append(members, member{
			source: source,
			name:   path.Join(appID, name),
			info:   info,
		})
	}

	// WalkDir visits entries in lexical order, independent of the directory's on-disk order.
	err := filepath.WalkDir(versionDir, func(source string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if entry.IsDir() {
			return nil
		}

		// Stat follows symlinks, so linked files are packed by content.
		info, err := os.Stat(source)
		if err != nil {
			return fmt.Errorf("stat %s: %w", source, err)
		}

		if !info.Mode().IsRegular() {
			logger.DebugKV(ctx, "Skipping non-regular file", "path", source)

			return nil
		}

		rel, err := filepath.Rel(appRoot, source)
		if err != nil {
			return fmt.Errorf("relative path of %s: %w", source, err)
		}

		members = append(members, member{
			source: source,
			name:   path.Join(appID, filepath.ToSlash(rel)),
			info:   info,
		})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", versionDir, err)
	}

	return members, nil
}

// writeTarGz streams members through tar and gzip writers with fixed metadata.
func writeTarGz(ctx context.Context, w io.Writer, members []member) error {
	compressor, err := gzip.NewWriterLevel(w, gzip.DefaultCompression)
	if err != nil {
		return fmt.Errorf("create gzip writer: %w", err)
	}

	compressor.Name = ""
	compressor.Comment = ""
	compressor.ModTime = epoch

	tarball := archiver.NewTar()
	if err = tarball.Create(compressor); err != nil {
		return fmt.Errorf("create tar writer: %w", err)
	}

	for _, m := range members {
		if err = ctx.Err(); err != nil {
			return err
		}

		if err = writeMember(tarball, m); err != nil {
			return err
		}
	}

	if err = tarball.Close(); err != nil {
		return fmt.Errorf("finish tar stream: %w", err)
	}

	if err = compressor.Close(); err != nil {
		return fmt.Errorf("finish gzip stream: %w", err)
	}

	return nil
}

// writeMember copies one file into the archive.
func writeMember(tarball *archiver.Tar, m member) error {
	// #nosec G304 -- sources come from walking the catalog directory.
	file, err := os.Open(m.source)
	if err != nil {
		return fmt.Errorf("open %s: %w", m.source, err)
	}

	defer func() {
		_ = file.Close()
	}()

	err = tarball.Write(archiver.File{
		FileInfo:   newMemberInfo(m),
		ReadCloser: file,
	})
	if err != nil {
		return fmt.Errorf("add %s: %w", m.name, err)
	}

	return nil
}

// memberInfo presents a file to the tar writer with every machine-local attribute cleared.
type memberInfo struct {
	// name is the full member name.
	name string
	// size is the content length.
	size int64
	// mode is the normalized permission set.
	mode os.FileMode
}

// newMemberInfo normalizes the file information of m.
func newMemberInfo(m member) memberInfo {
	mode := regularMode
	if m.info.Mode().Perm()&0o111 != 0 {
		mode = executableMode
	}

	return memberInfo{
		name: m.name,
		size: m.info.Size(),
		mode: mode,
	}
}

// Name returns the full member name, which tar records verbatim.
func (i memberInfo) Name() string { return i.name }

// Size returns the content length.
func (i memberInfo) Size() int64 { return i.size }

// Mode returns the normalized mode of a regular file.
func (i memberInfo) Mode() os.FileMode { return i.mode }

// ModTime returns the fixed epoch.
func (i memberInfo) ModTime() time.Time { return epoch }

// IsDir is always false, directories are implied by member names.
func (i memberInfo) IsDir() bool { return false }

// Sys returns a header with zero ownership so tar does not look up the file's owner.
func (i memberInfo) Sys() any {
	return &tar.Header{
		Uid:   0,
		Gid:   0,
		Uname: "",
		Gname: "",
	}
}
