package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestArchiveURL joins prefixes with and without trailing slashes.
func TestArchiveURL(t *testing.T) {
	t.Parallel()

	require.Equal(t, "apps/nginx/1.0.0.tar.gz", ArchiveURL("", "nginx", "1.0.0"))
	require.Equal(t, "apps/nginx/1.0.0.tar.gz", ArchiveURL("   ", "nginx", "1.0.0"))
	require.Equal(t, "https://cdn.example.com/apps/nginx/v2.tar.gz",
		ArchiveURL("https://cdn.example.com/", "nginx", "v2"))
	require.Equal(t, "/store/apps/nginx/v2.tar.gz", ArchiveURL("/store", "nginx", "v2"))
}

// TestNewManifest stamps the schema version and a UTC timestamp.
func TestNewManifest(t *testing.T) {
	t.Parallel()

	local := time.Date(2025, 3, 4, 15, 6, 7, 999, time.FixedZone("UTC+3", 3*60*60))
	m := NewManifest(local)

	require.Equal(t, SchemaVersion, m.SchemaVersion)
	require.Equal(t, "2025-03-04T12:06:07Z", m.GeneratedAt)
	require.NotNil(t, m.Apps)
	require.Empty(t, m.Errors)
}
