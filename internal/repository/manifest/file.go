package manifest

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kaptinlin/jsonschema"

	"github.com/oshokin/anya-manifestgen/internal/domain/catalog"
	"github.com/oshokin/anya-manifestgen/internal/fsx"
)

// Filename is the manifest name inside the output directory.
const Filename = "manifest.json"

var (
	// ErrNotFound is returned when the manifest file does not exist yet.
	ErrNotFound = errors.New("manifest not found")
	// ErrInvalid is returned when a manifest does not match the schema.
	ErrInvalid = errors.New("manifest does not match schema")
)

// schemaDocument is the JSON schema every written or loaded manifest must satisfy.
//
//go:embed manifest.schema.json
var schemaDocument []byte

// Repository defines persistence operations for the manifest.
type Repository interface {
	Load(ctx context.Context) (*catalog.Manifest, error)
	Save(ctx context.Context, manifest *catalog.Manifest) error
}

// FileRepository persists the manifest as a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the manifest.
	path string
	// schema validates documents before they are written and after they are read.
	schema *jsonschema.Schema
	// mu serializes access to the manifest file.
	mu sync.Mutex
}

// NewFileRepository creates a repository for the manifest at path.
func NewFileRepository(path string) (*FileRepository, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	schema, err := compiler.Compile(schemaDocument)
	if err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}

	return &FileRepository{
		path:   filepath.Clean(path),
		schema: schema,
	}, nil
}

// Path returns the manifest location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load reads and validates the manifest from disk.
func (r *FileRepository) Load(_ context.Context) (*catalog.Manifest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read manifest file: %w", err)
	}

	if err = r.validate(contents); err != nil {
		return nil, err
	}

	var manifest catalog.Manifest
	if err = json.Unmarshal(contents, &manifest); err != nil {
		return nil, fmt.Errorf("decode manifest file: %w", err)
	}

	return &manifest, nil
}

// Save validates the manifest and atomically replaces the file on disk.
func (r *FileRepository) Save(ctx context.Context, manifest *catalog.Manifest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := Encode(manifest)
	if err != nil {
		return err
	}

	if err = r.validate(data); err != nil {
		return err
	}

	if err = fsx.WriteFileAtomic(ctx, r.path, data, fsx.DefaultFileMode); err != nil {
		return fmt.Errorf("write manifest file: %w", err)
	}

	return nil
}

// validate checks a rendered document against the schema.
func (r *FileRepository) validate(data []byte) error {
	result := r.schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}

	return fmt.Errorf("%w: %v", ErrInvalid, result.Errors)
}

// Encode renders the manifest as two-space indented JSON with a trailing newline.
// Characters such as '<' and '&' are written literally.
func Encode(manifest *catalog.Manifest) ([]byte, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(manifest); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	return buf.Bytes(), nil
}
