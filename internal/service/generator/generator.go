package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/anya-manifestgen/internal/archive"
	"github.com/oshokin/anya-manifestgen/internal/domain/catalog"
	"github.com/oshokin/anya-manifestgen/internal/fsx"
	"github.com/oshokin/anya-manifestgen/internal/logger"
	"github.com/oshokin/anya-manifestgen/internal/repository/manifest"
	"github.com/oshokin/anya-manifestgen/internal/repository/source"
)

// generator performs one run. It is unexported, callers should use Run.
type generator struct {
	// source reads the catalog.
	source *source.Repository
	// manifests persists manifest.json.
	manifests *manifest.FileRepository
	// out is the absolute output directory.
	out string
	// urlPrefix is prepended to archive URLs.
	urlPrefix string
	// workers bounds concurrent packing.
	workers int
	// now supplies the generation time.
	now func() time.Time
}

// step is one position in the catalog walk: an issue, an app or a version to pack.
// Steps are folded in walk order, which fixes the order of apps, versions and errors.
type step struct {
	// issue is a problem found while reading the catalog.
	issue string
	// app is the descriptor that opens a new application.
	app *catalog.App
	// job is a version to pack for the most recently opened application.
	job *packJob
}

// packJob is a version scheduled for packing together with its outcome.
type packJob struct {
	// request describes the archive to produce.
	request archive.PackRequest
	// data is the version metadata passed through to the manifest.
	data catalog.Document
	// version is set when packing succeeded.
	version *catalog.Version
	// err is set when packing failed.
	err error
}

// run executes the plan, pack and fold phases and writes the manifest.
func (g *generator) run(ctx context.Context) (*Result, error) {
	if err := os.MkdirAll(g.out, fsx.DefaultDirMode); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	store, steps, err := g.plan(ctx)
	if err != nil {
		return nil, err
	}

	if err = g.pack(ctx, steps); err != nil {
		return nil, err
	}

	doc := catalog.NewManifest(g.now())
	doc.Store = store
	doc.Apps, doc.Errors = g.fold(ctx, steps)

	if err = g.manifests.Save(ctx, doc); err != nil {
		return nil, err
	}

	fingerprint, err := catalog.Fingerprint(doc.Apps)
	if err != nil {
		return nil, err
	}

	return &Result{
		Manifest:     doc,
		ManifestPath: g.manifests.Path(),
		Fingerprint:  fingerprint,
	}, nil
}

// plan walks the catalog in name order and reads every metadata document.
func (g *generator) plan(ctx context.Context) (catalog.Document, []step, error) {
	var steps []step

	store, err := g.source.Store(ctx)
	if err != nil {
		store = catalog.Document{}

		if !errors.Is(err, source.ErrNotFound) {
			steps = append(steps, step{issue: fmt.Sprintf("read/parse data.yaml failed: %v", err)})
		}
	}

	slugs, err := g.source.Apps(ctx)
	if err != nil {
		return catalog.Document{}, nil, fmt.Errorf("list applications: %w", err)
	}

	// seen maps claimed app ids to their slugs; ids name output directories.
	seen := make(map[string]string, len(slugs))

	for _, slug := range slugs {
		if err = ctx.Err(); err != nil {
			return catalog.Document{}, nil, err
		}

		steps = append(steps, g.planApp(ctx, slug, seen)...)
	}

	return store, steps, nil
}

// planApp builds the descriptor of one application and schedules its versions.
// An app whose id was already claimed by an earlier slug is skipped.
func (g *generator) planApp(ctx context.Context, slug string, seen map[string]string) []step {
	doc, err := g.source.App(ctx, slug)

	switch {
	case errors.Is(err, source.ErrNotFound):
		return []step{{issue: fmt.Sprintf("skip %s: missing data.yml", slug)}}
	case err != nil:
		return []step{{issue: fmt.Sprintf("skip %s: parse data.yml failed: %v", slug, err)}}
	}

	app := catalog.BuildApp(slug, doc)
	if err = catalog.ValidateAppID(app.AppID); err != nil {
		return []step{{issue: fmt.Sprintf("skip %s: %v", slug, err)}}
	}

	if owner, taken := seen[app.AppID]; taken {
		logger.DebugKV(ctx, "App id already claimed", "slug", slug, "appId", app.AppID, "owner", owner)

		return []step{{issue: fmt.Sprintf("skip %s: duplicate app id %q", slug, app.AppID)}}
	}

	labels, err := g.source.Versions(ctx, slug)
	if err != nil {
		return []step{{issue: fmt.Sprintf("skip %s: list versions failed: %v", slug, err)}}
	}

	seen[app.AppID] = slug

	logger.DebugKV(ctx, "Application found", "slug", slug, "appId", app.AppID, "versions", len(labels))

	steps := make([]step, 0, len(labels)+1)
	steps = append(steps, step{app: &app})

	for _, label := range labels {
		data, err := g.source.Version(ctx, slug, label)

		switch {
		case errors.Is(err, source.ErrNotFound):
			steps = append(steps, step{issue: fmt.Sprintf("skip %s/%s: missing version data.yml", app.AppID, label)})

			continue
		case err != nil:
			steps = append(steps, step{issue: fmt.Sprintf("skip %s/%s: parse version data.yml failed: %v", app.AppID, label, err)})

			continue
		}

		steps = append(steps, step{job: &packJob{
			request: archive.PackRequest{
				AppRoot:     g.source.AppRoot(slug),
				AppID:       app.AppID,
				Version:     label,
				Destination: filepath.Join(g.out, filepath.FromSlash(catalog.ArchivePath(app.AppID, label))),
			},
			data: data,
		}})
	}

	return steps
}

// pack runs every job on at most g.workers goroutines.
// Each job stores its own outcome, so no result is shared between goroutines.
func (g *generator) pack(ctx context.Context, steps []step) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.workers)

	for _, s := range steps {
		if s.job == nil {
			continue
		}

		job := s.job

		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			job.version, job.err = g.packVersion(groupCtx, job)

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	// Per-version failures are recorded, cancellation aborts the run.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("packing interrupted: %w", err)
	}

	return nil
}

// packVersion produces one archive and describes it.
func (g *generator) packVersion(ctx context.Context, job *packJob) (*catalog.Version, error) {
	req := job.request

	artifact, err := archive.Pack(ctx, &req)
	if err != nil {
		return nil, err
	}

	digest, err := archive.Sum(artifact.Path)
	if err != nil {
		return nil, err
	}

	return &catalog.Version{
		Version: req.Version,
		URL:     catalog.ArchiveURL(g.urlPrefix, req.AppID, req.Version),
		MD5:     digest.Checksum,
		Bytes:   digest.Bytes,
		Data:    job.data,
	}, nil
}

// fold assembles app records and the error list in walk order.
func (g *generator) fold(ctx context.Context, steps []step) ([]catalog.App, []string) {
	var (
		apps   = make([]catalog.App, 0)
		issues = newIssues()
	)

	for _, s := range steps {
		switch {
		case s.issue != "":
			issues.add(ctx, s.issue)
		case s.app != nil:
			apps = append(apps, *s.app)
		case s.job != nil:
			req := s.job.request

			if s.job.err != nil {
				issues.add(ctx, fmt.Sprintf("pack %s/%s: %v", req.AppID, req.Version, s.job.err))

				continue
			}

			current := &apps[len(apps)-1]
			current.Versions = append(current.Versions, *s.job.version)
		}
	}

	for i := range apps {
		catalog.SortVersions(apps[i].Versions)
	}

	return apps, issues.list()
}
