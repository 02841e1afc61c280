package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/oshokin/anya-manifestgen/internal/domain/catalog"
)

const (
	// StoreFile holds store-level metadata at the repository root.
	StoreFile = "data.yaml"
	// DataFile holds metadata of an application or of one of its versions.
	DataFile = "data.yml"
)

var (
	// ErrInvalidRepo is returned when the repository has no apps directory.
	ErrInvalidRepo = errors.New("invalid repo")
	// ErrNotFound is returned when a metadata document does not exist.
	ErrNotFound = errors.New("document not found")
)

// Repository is a read-only view over a catalog checkout.
type Repository struct {
	// root is the absolute repository root.
	root string
	// appsDir is the directory holding one subdirectory per application.
	appsDir string
}

// New opens the catalog rooted at root and checks that it has an apps directory.
func New(root string) (*Repository, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve repo path: %w", err)
	}

	appsDir := filepath.Join(abs, catalog.AppsDir)

	info, err := os.Stat(appsDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: missing apps dir at %s", ErrInvalidRepo, appsDir)
	}

	return &Repository{
		root:    abs,
		appsDir: appsDir,
	}, nil
}

// Root returns the absolute repository root.
func (r *Repository) Root() string {
	return r.root
}

// AppRoot returns the directory of the application with the given slug.
func (r *Repository) AppRoot(slug string) string {
	return filepath.Join(r.appsDir, slug)
}

// Store decodes the store-level metadata document.
func (r *Repository) Store(_ context.Context) (catalog.Document, error) {
	return readDocument(filepath.Join(r.root, StoreFile))
}

// Apps returns application slugs in name order.
func (r *Repository) Apps(_ context.Context) ([]string, error) {
	return subdirectories(r.appsDir, nil)
}

// App decodes the metadata document of an application.
func (r *Repository) App(_ context.Context, slug string) (catalog.Document, error) {
	return readDocument(filepath.Join(r.AppRoot(slug), DataFile))
}

// Versions returns the version labels of an application in directory name order.
// Subdirectories whose names are not version labels are ignored.
func (r *Repository) Versions(_ context.Context, slug string) ([]string, error) {
	return subdirectories(r.AppRoot(slug), catalog.IsVersionLabel)
}

// Version decodes the metadata document of one application version.
func (r *Repository) Version(_ context.Context, slug, label string) (catalog.Document, error) {
	return readDocument(filepath.Join(r.AppRoot(slug), label, DataFile))
}

// subdirectories lists directory names under dir accepted by keep, following symlinks.
func subdirectories(dir string, keep func(string) bool) ([]string, error) {
	// ReadDir returns entries sorted by file name.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		if keep != nil && !keep(entry.Name()) {
			continue
		}

		info, err := os.Stat(filepath.Join(dir, entry.Name()))
		if err != nil || !info.IsDir() {
			continue
		}

		names = append(names, entry.Name())
	}

	return names, nil
}

// readDocument reads and decodes a YAML document.
// A missing file yields ErrNotFound; read and decode failures are returned as is.
func readDocument(path string) (catalog.Document, error) {
	// #nosec G304 -- paths are built from the catalog layout.
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return catalog.Document{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return catalog.Document{}, err
	}

	return catalog.DecodeYAML(data)
}
