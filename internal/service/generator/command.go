package generator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/oshokin/anya-manifestgen/internal/domain/catalog"
	"github.com/oshokin/anya-manifestgen/internal/logger"
	"github.com/oshokin/anya-manifestgen/internal/repository/manifest"
	"github.com/oshokin/anya-manifestgen/internal/repository/source"
	"github.com/oshokin/anya-manifestgen/internal/service/common"
	"github.com/oshokin/anya-manifestgen/internal/version"
)

// Options contains inputs for the generator entry point.
type Options struct {
	// Repo is the catalog repository root containing the apps directory.
	Repo string
	// Out is the output directory for archives and manifest.json.
	Out string
	// URLPrefix is prepended to archive URLs; empty keeps URLs relative.
	URLPrefix string
	// Workers bounds concurrent packing; values below one mean sequential.
	Workers int
	// Now supplies the generation time; defaults to time.Now.
	Now func() time.Time
}

// Result summarizes a completed run.
type Result struct {
	// Manifest is the document written to ManifestPath.
	Manifest *catalog.Manifest
	// ManifestPath is the location of manifest.json.
	ManifestPath string
	// Fingerprint identifies the app list independently of the generation time.
	Fingerprint string
}

// errNoOptions is returned when Run is called without options.
var errNoOptions = errors.New("generator options are required")

// Run generates archives and the manifest.
// It fails only when the catalog root is invalid, the output cannot be written
// or the context is canceled; no manifest is written in those cases.
func Run(ctx context.Context, opts *Options) (*Result, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "manifestgen")

	if opts == nil {
		return nil, errNoOptions
	}

	common.WarnOtherInstances(ctx)

	gen, err := newGenerator(opts)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Generating manifest", append(version.Current().KV(),
		"repo", gen.source.Root(),
		"out", gen.out,
		"workers", gen.workers)...)

	result, err := gen.run(ctx)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	logger.InfoKV(ctx, "Manifest written",
		"path", result.ManifestPath,
		"apps", len(result.Manifest.Apps),
		"versions", countVersions(result.Manifest.Apps),
		"errors", len(result.Manifest.Errors),
		"fingerprint", result.Fingerprint)

	return result, nil
}

// newGenerator resolves paths and opens the catalog and the manifest repository.
func newGenerator(opts *Options) (*generator, error) {
	catalogSource, err := source.New(opts.Repo)
	if err != nil {
		return nil, err
	}

	out, err := filepath.Abs(opts.Out)
	if err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}

	manifests, err := manifest.NewFileRepository(filepath.Join(out, manifest.Filename))
	if err != nil {
		return nil, err
	}

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &generator{
		source:    catalogSource,
		manifests: manifests,
		out:       out,
		urlPrefix: strings.TrimSpace(opts.URLPrefix),
		workers:   workers,
		now:       now,
	}, nil
}

// countVersions sums version records across apps.
func countVersions(apps []catalog.App) int {
	total := 0
	for _, app := range apps {
		total += len(app.Versions)
	}

	return total
}
