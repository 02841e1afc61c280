package archive

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/mholt/archiver"
)

// Entry describes one archive member as recorded in its header.
type Entry struct {
	// Name is the member path.
	Name string
	// Size is the content length.
	Size int64
	// Mode is the recorded permission set.
	Mode int64
	// UID and GID are the recorded numeric owners.
	UID, GID int
	// Uname and Gname are the recorded owner names.
	Uname, Gname string
	// ModTime is the recorded modification time.
	ModTime time.Time
}

// errUnexpectedHeader is returned when the tar reader yields an unknown header type.
var errUnexpectedHeader = errors.New("unexpected archive header type")

// List returns the members of a tar.gz archive in stored order.
func List(path string) ([]Entry, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = file.Close()
	}()

	decompressor, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("open gzip stream: %w", err)
	}

	defer func() {
		_ = decompressor.Close()
	}()

	tarball := archiver.NewTar()
	if err = tarball.Open(decompressor, 0); err != nil {
		return nil, fmt.Errorf("open tar stream: %w", err)
	}

	defer func() {
		_ = tarball.Close()
	}()

	var entries []Entry

	for {
		f, err := tarball.Read()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}

		if err != nil {
			return nil, fmt.Errorf("read member: %w", err)
		}

		entry, err := entryOf(f)

		_ = f.Close()

		if err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}
}

// entryOf converts the header carried by a read member.
func entryOf(f archiver.File) (Entry, error) {
	var hdr *tar.Header

	switch h := f.Header.(type) {
	case tar.Header:
		hdr = &h
	case *tar.Header:
		hdr = h
	default:
		return Entry{}, fmt.Errorf("%w: %T", errUnexpectedHeader, f.Header)
	}

	return Entry{
		Name:    hdr.Name,
		Size:    hdr.Size,
		Mode:    hdr.Mode,
		UID:     hdr.Uid,
		GID:     hdr.Gid,
		Uname:   hdr.Uname,
		Gname:   hdr.Gname,
		ModTime: hdr.ModTime,
	}, nil
}
