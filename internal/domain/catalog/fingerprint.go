package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"
)

// Fingerprint returns the SHA-256 of the canonical JSON form of apps.
// Manifests generated from the same catalog share a fingerprint even though
// their generation times differ.
func Fingerprint(apps []App) (string, error) {
	if apps == nil {
		apps = []App{}
	}

	raw, err := json.Marshal(apps)
	if err != nil {
		return "", fmt.Errorf("encode apps: %w", err)
	}

	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize apps: %w", err)
	}

	sum := sha256.Sum256(canonical)

	return hex.EncodeToString(sum[:]), nil
}
