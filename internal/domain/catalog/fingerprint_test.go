package catalog

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFingerprint_StableAcrossKeyOrder ignores the key order of pass-through documents.
func TestFingerprint_StableAcrossKeyOrder(t *testing.T) {
	t.Parallel()

	first, err := DecodeYAML([]byte("b: 1\na: {y: 2, x: 1}\n"))
	require.NoError(t, err)

	second, err := DecodeYAML([]byte("a: {x: 1, y: 2}\nb: 1\n"))
	require.NoError(t, err)

	appsWith := func(data Document) []App {
		app := BuildApp("demo", Document{})
		app.Versions = []Version{{Version: "1.0", URL: "apps/demo/1.0.tar.gz", Data: data}}

		return []App{app}
	}

	a, err := Fingerprint(appsWith(first))
	require.NoError(t, err)

	b, err := Fingerprint(appsWith(second))
	require.NoError(t, err)

	require.Equal(t, a, b)
	require.Len(t, a, 64)
}

// TestFingerprint_DetectsChange differs when a digest changes.
func TestFingerprint_DetectsChange(t *testing.T) {
	t.Parallel()

	app := BuildApp("demo", Document{})
	app.Versions = []Version{{Version: "1.0", MD5: "00"}}

	before, err := Fingerprint([]App{app})
	require.NoError(t, err)

	app.Versions[0].MD5 = "01"

	after, err := Fingerprint([]App{app})
	require.NoError(t, err)

	require.NotEqual(t, before, after)
}

// TestFingerprint_NilEqualsEmpty treats a missing app list as empty.
func TestFingerprint_NilEqualsEmpty(t *testing.T) {
	t.Parallel()

	a, err := Fingerprint(nil)
	require.NoError(t, err)

	b, err := Fingerprint([]App{})
	require.NoError(t, err)

	require.Equal(t, a, b)
}
