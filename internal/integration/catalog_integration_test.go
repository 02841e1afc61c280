package integration

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/anya-manifestgen/internal/archive"
	"github.com/oshokin/anya-manifestgen/internal/config"
	"github.com/oshokin/anya-manifestgen/internal/repository/manifest"
	"github.com/oshokin/anya-manifestgen/internal/service/generator"
	"github.com/oshokin/anya-manifestgen/internal/service/verifier"
)

// writeFile creates a file and its parents.
func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
}

// buildCatalog lays out a catalog resembling a real app store checkout.
func buildCatalog(t *testing.T) string {
	t.Helper()

	repo := t.TempDir()

	writeFile(t, filepath.Join(repo, "data.yaml"), "name: Anya Store\nurl: https://anya.example.com\n", 0o644)

	bitcoin := filepath.Join(repo, "apps", "bitcoin-core")
	writeFile(t, filepath.Join(bitcoin, "data.yml"), strings.Join([]string{
		"name: Bitcoin Core",
		"title: Bitcoin Core full node",
		"description: Validates every block.",
		"tags: [bitcoin, node]",
		"additionalProperties:",
		"  key: bitcoin",
		"  type: docker",
		"  defaultPort: 8332",
		"  website: https://bitcoincore.org",
		"  github: https://github.com/bitcoin/bitcoin",
		"  anya:",
		"    installType: docker-compose",
		"    cliBinary: bitcoin-cli",
		"    baseURL: /bitcoin",
		"    removable: true",
		"",
	}, "\n"), 0o644)
	writeFile(t, filepath.Join(bitcoin, "README.md"), "# Bitcoin Core\n", 0o644)
	writeFile(t, filepath.Join(bitcoin, "logo.png"), "\x89PNG\r\n\x1a\n", 0o644)

	for _, label := range []string{"27.0", "26.1", "v28.0-rc1"} {
		writeFile(t, filepath.Join(bitcoin, label, "data.yml"), "image: bitcoin/bitcoin:"+label+"\nports: [8332, 8333]\n", 0o644)
		writeFile(t, filepath.Join(bitcoin, label, "docker-compose.yml"), "services:\n  bitcoind: {}\n", 0o644)
		writeFile(t, filepath.Join(bitcoin, label, "hooks", "post-install.sh"), "#!/bin/sh\nexit 0\n", 0o755)
	}

	writeFile(t, filepath.Join(repo, "apps", "lightning", "0.18", "data.yml"), "image: lnd\n", 0o644)

	writeFile(t, filepath.Join(repo, "apps", "mempool", "data.yml"), "name: Mempool\ntags: explorer\n", 0o644)
	writeFile(t, filepath.Join(repo, "apps", "mempool", "3.0.0", "data.yml"), "image: mempool\n", 0o644)

	return repo
}

// TestGenerateAndVerify runs a full generation from a config file and verifies the output.
func TestGenerateAndVerify(t *testing.T) {
	t.Parallel()

	repo := buildCatalog(t)
	out := filepath.Join(t.TempDir(), "dist")
	configPath := filepath.Join(t.TempDir(), config.DefaultConfigFilename)

	require.NoError(t, config.Save(configPath, &config.Config{
		Repo:      repo,
		Out:       out,
		URLPrefix: "https://cdn.example.com/store/",
		Workers:   3,
	}))

	cfg, err := config.Load(configPath)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := generator.Run(ctx, &generator.Options{
		Repo:      cfg.Repo,
		Out:       cfg.Out,
		URLPrefix: cfg.URLPrefix,
		Workers:   cfg.Workers,
		Now:       func() time.Time { return time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	doc := result.Manifest
	require.Equal(t, []string{"skip lightning: missing data.yml"}, doc.Errors)
	require.Len(t, doc.Apps, 2)
	require.Equal(t, "bitcoin", doc.Apps[0].AppID)
	require.Equal(t, "mempool", doc.Apps[1].AppID)
	require.Empty(t, doc.Apps[1].Tags)

	labels := make([]string, 0, 3)
	for _, v := range doc.Apps[0].Versions {
		labels = append(labels, v.Version)
	}

	require.Equal(t, []string{"26.1", "27.0", "v28.0-rc1"}, labels)
	require.Equal(t, "https://cdn.example.com/store/apps/bitcoin/27.0.tar.gz", doc.Apps[0].Versions[1].URL)

	entries, err := archive.List(filepath.Join(out, "apps", "bitcoin", "27.0.tar.gz"))
	require.NoError(t, err)
	require.Len(t, entries, 6)
	require.Equal(t, "bitcoin/logo.png", entries[2].Name)
	require.Equal(t, "bitcoin/27.0/hooks/post-install.sh", entries[5].Name)
	require.Equal(t, int64(0o755), entries[5].Mode)

	report, err := verifier.Run(ctx, &verifier.Options{Out: out, Report: &strings.Builder{}})
	require.NoError(t, err)
	require.Equal(t, 4, report.Checked)
	require.Equal(t, result.Fingerprint, report.Fingerprint)

	repo2, err := manifest.NewFileRepository(filepath.Join(out, manifest.Filename))
	require.NoError(t, err)

	loaded, err := repo2.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, []any{8332.0, 8333.0}, loaded.Apps[0].Versions[0].Data.AsMap()["ports"])
}

// TestRegenerateAfterTamper restores archives that were modified after a run.
func TestRegenerateAfterTamper(t *testing.T) {
	t.Parallel()

	repo := buildCatalog(t)
	out := filepath.Join(t.TempDir(), "dist")
	opts := &generator.Options{Repo: repo, Out: out, Workers: 2}

	_, err := generator.Run(context.Background(), opts)
	require.NoError(t, err)

	archivePath := filepath.Join(out, "apps", "mempool", "3.0.0.tar.gz")
	require.NoError(t, os.WriteFile(archivePath, []byte("corrupted"), 0o644))

	_, err = verifier.Run(context.Background(), &verifier.Options{Out: out, Report: &strings.Builder{}})
	require.ErrorIs(t, err, verifier.ErrMismatch)

	_, err = generator.Run(context.Background(), opts)
	require.NoError(t, err)

	_, err = verifier.Run(context.Background(), &verifier.Options{Out: out, Report: &strings.Builder{}})
	require.NoError(t, err)

	leftovers, err := filepath.Glob(filepath.Join(out, "apps", "*", ".manifestgen-stage-*"))
	require.NoError(t, err)
	require.Empty(t, leftovers)
}
