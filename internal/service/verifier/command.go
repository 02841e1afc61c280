package verifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/oshokin/anya-manifestgen/internal/archive"
	"github.com/oshokin/anya-manifestgen/internal/domain/catalog"
	"github.com/oshokin/anya-manifestgen/internal/logger"
	"github.com/oshokin/anya-manifestgen/internal/repository/manifest"
)

// Options contains inputs for the verifier entry point.
type Options struct {
	// Out is the output directory holding manifest.json and the archives.
	Out string
	// Report receives one line per archive and a summary; defaults to os.Stdout.
	Report io.Writer
}

// Report is the outcome of a verification.
type Report struct {
	// Checked is the number of version records examined.
	Checked int
	// Problems describes every mismatch found.
	Problems []string
	// Fingerprint identifies the verified app list.
	Fingerprint string
}

var (
	// ErrMismatch is returned when at least one archive does not match its record.
	ErrMismatch = errors.New("output does not match manifest")

	// errNoOptions is returned when Run is called without options.
	errNoOptions = errors.New("verifier options are required")
)

// Run loads the manifest and checks every archive it lists.
func Run(ctx context.Context, opts *Options) (*Report, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "manifestgen-verify")

	if opts == nil {
		return nil, errNoOptions
	}

	out := opts.Report
	if out == nil {
		out = os.Stdout
	}

	root, err := filepath.Abs(opts.Out)
	if err != nil {
		return nil, fmt.Errorf("resolve output path: %w", err)
	}

	manifests, err := manifest.NewFileRepository(filepath.Join(root, manifest.Filename))
	if err != nil {
		return nil, err
	}

	doc, err := manifests.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	fingerprint, err := catalog.Fingerprint(doc.Apps)
	if err != nil {
		return nil, err
	}

	logger.InfoKV(ctx, "Verifying manifest",
		"path", manifests.Path(),
		"generatedAt", doc.GeneratedAt,
		"fingerprint", fingerprint)

	report := &Report{Fingerprint: fingerprint}

	for _, app := range doc.Apps {
		for _, version := range app.Versions {
			if err = ctx.Err(); err != nil {
				return nil, err
			}

			rel := catalog.ArchivePath(app.AppID, version.Version)

			report.Checked++

			problem := checkVersion(filepath.Join(root, filepath.FromSlash(rel)), app.AppID, version)
			if problem != "" {
				report.Problems = append(report.Problems, rel+": "+problem)
				logger.WarnKV(ctx, "Archive mismatch", "archive", rel, "problem", problem)

				_, _ = fmt.Fprintf(out, "FAIL %s: %s\n", rel, problem)

				continue
			}

			_, _ = fmt.Fprintf(out, "ok   %s\n", rel)
		}
	}

	_, _ = fmt.Fprintf(out, "%d archives checked, %d problems, fingerprint %s\n",
		report.Checked, len(report.Problems), report.Fingerprint)

	if len(report.Problems) > 0 {
		return report, fmt.Errorf("%w: %d problems", ErrMismatch, len(report.Problems))
	}

	return report, nil
}

// checkVersion compares an archive with its record and returns a description of the first mismatch.
func checkVersion(archivePath, appID string, version catalog.Version) string {
	digest, err := archive.Sum(archivePath)
	if err != nil {
		return fmt.Sprintf("read archive: %v", err)
	}

	if digest.Bytes != version.Bytes {
		return fmt.Sprintf("size %d, manifest says %d", digest.Bytes, version.Bytes)
	}

	if digest.Checksum != version.MD5 {
		return fmt.Sprintf("md5 %s, manifest says %s", digest.Checksum, version.MD5)
	}

	entries, err := archive.List(archivePath)
	if err != nil {
		return fmt.Sprintf("list archive: %v", err)
	}

	for _, entry := range entries {
		if !containedIn(entry.Name, appID) {
			return fmt.Sprintf("member %q is outside %s/", entry.Name, appID)
		}
	}

	return ""
}

// containedIn reports whether a member name stays below the application directory.
func containedIn(name, appID string) bool {
	cleaned := path.Clean(name)

	return cleaned == name && strings.HasPrefix(cleaned, appID+"/")
}
