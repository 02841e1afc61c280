package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAppID is returned for identifiers unusable as a directory name.
var ErrInvalidAppID = errors.New("invalid app id")

// Metadata document keys understood by BuildApp.
const (
	keyAdditional  = "additionalProperties"
	keyAnya        = "anya"
	keyID          = "key"
	keyName        = "name"
	keyTitle       = "title"
	keyDescription = "description"
	keyTags        = "tags"
	keyType        = "type"
	keyDefaultPort = "defaultPort"
	keyWebsite     = "website"
	keyGitHub      = "github"
	keyInstallType = "installType"
	keyCLIBinary   = "cliBinary"
	keyBaseURL     = "baseURL"
	keyRemovable   = "removable"
	keyHidden      = "hidden"
)

// BuildApp normalizes an application's data.yml into an App record.
// The identifier comes from additionalProperties.key and falls back to slug.
// Name and tags prefer the top level over additionalProperties. Every field is
// set, missing ones to their type's zero value, and Versions is an empty slice.
func BuildApp(slug string, doc Document) App {
	var (
		extra = doc.Child(keyAdditional)
		anya  = extra.Child(keyAnya)
	)

	appID := strings.TrimSpace(extra.String(keyID))
	if appID == "" {
		appID = slug
	}

	appType := DefaultAppType
	if extra.Has(keyType) {
		appType = extra.String(keyType)
	}

	return App{
		AppID:       appID,
		Name:        preferred(doc, extra, keyName).String(keyName),
		Title:       doc.String(keyTitle),
		Description: doc.String(keyDescription),
		Tags:        preferred(doc, extra, keyTags).Strings(keyTags),
		Type:        appType,
		DefaultPort: extra.Int(keyDefaultPort),
		Website:     extra.String(keyWebsite),
		GitHub:      extra.String(keyGitHub),
		Anya: Anya{
			InstallType: anya.String(keyInstallType),
			CLIBinary:   anya.String(keyCLIBinary),
			BaseURL:     anya.String(keyBaseURL),
			Removable:   anya.Bool(keyRemovable),
			Hidden:      anya.Bool(keyHidden),
		},
		Versions: make([]Version, 0),
	}
}

// preferred returns primary when it holds a truthy value under key, otherwise fallback.
func preferred(primary, fallback Document, key string) Document {
	if primary.Has(key) {
		return primary
	}

	return fallback
}

// ValidateAppID rejects identifiers that cannot name a single output directory.
func ValidateAppID(appID string) error {
	if appID == "" || appID == "." || appID == ".." || strings.ContainsAny(appID, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidAppID, appID)
	}

	return nil
}
