package catalog

import (
	"path"
	"strings"
	"time"
)

const (
	// SchemaVersion is the manifest layout version understood by clients.
	SchemaVersion = 1

	// TimestampLayout renders generatedAt as RFC 3339 UTC with second precision.
	TimestampLayout = "2006-01-02T15:04:05Z"

	// ArchiveExtension is appended to a version label to name its archive.
	ArchiveExtension = ".tar.gz"

	// AppsDir is the directory holding applications in the catalog and archives in the output.
	AppsDir = "apps"

	// DefaultAppType is used when an application does not declare its type.
	DefaultAppType = "unknown"
)

// Manifest is the aggregated catalog document written to manifest.json.
type Manifest struct {
	// SchemaVersion is always SchemaVersion for documents produced by this generator.
	SchemaVersion int `json:"schemaVersion"`
	// GeneratedAt is the generation time formatted with TimestampLayout.
	GeneratedAt string `json:"generatedAt"`
	// Store is the store-level metadata passed through from data.yaml.
	Store Document `json:"store"`
	// Apps lists applications ordered by their directory name.
	Apps []App `json:"apps"`
	// Errors holds human-readable descriptions of skipped apps and versions.
	Errors []string `json:"errors,omitempty"`
}

// NewManifest creates an empty manifest stamped with the provided time.
func NewManifest(generatedAt time.Time) *Manifest {
	return &Manifest{
		SchemaVersion: SchemaVersion,
		GeneratedAt:   generatedAt.UTC().Format(TimestampLayout),
		Apps:          make([]App, 0),
	}
}

// App is the normalized description of one application.
type App struct {
	// AppID is the stable identifier, independent of the directory slug.
	AppID string `json:"appId"`
	// Name is the short display name.
	Name string `json:"name"`
	// Title is the long display name.
	Title string `json:"title"`
	// Description is the free-form application description.
	Description string `json:"description"`
	// Tags are the catalog tags of the application.
	Tags []string `json:"tags"`
	// Type is the application kind, DefaultAppType when not declared.
	Type string `json:"type"`
	// DefaultPort is the port the application listens on by default.
	DefaultPort int64 `json:"defaultPort"`
	// Website is the project homepage.
	Website string `json:"website"`
	// GitHub is the source repository link.
	GitHub string `json:"github"`
	// Anya holds installer and runtime settings.
	Anya Anya `json:"anya"`
	// Versions lists packed versions in label order.
	Versions []Version `json:"versions"`
}

// Anya is the installer/runtime sub-record of an application.
type Anya struct {
	// InstallType is the installer kind.
	InstallType string `json:"installType"`
	// CLIBinary is the name of the command-line binary shipped by the app.
	CLIBinary string `json:"cliBinary"`
	// BaseURL is the base URL the application is served under.
	BaseURL string `json:"baseURL"`
	// Removable reports whether users may uninstall the application.
	Removable bool `json:"removable"`
	// Hidden reports whether the application is hidden from listings.
	Hidden bool `json:"hidden"`
}

// Version describes one packed application version.
type Version struct {
	// Version is the label taken verbatim from the version directory name.
	Version string `json:"version"`
	// URL is the archive location, relative unless a prefix was configured.
	URL string `json:"url"`
	// MD5 is the hex digest of the archive bytes.
	MD5 string `json:"md5"`
	// Bytes is the archive size.
	Bytes int64 `json:"bytes"`
	// Data is the version metadata passed through from the version's data.yml.
	Data Document `json:"data"`
}

// ArchivePath returns the slash-separated archive location relative to the output root.
func ArchivePath(appID, label string) string {
	return path.Join(AppsDir, appID, label+ArchiveExtension)
}

// ArchiveURL joins the optional prefix with the archive location.
func ArchiveURL(prefix, appID, label string) string {
	rel := ArchivePath(appID, label)

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return rel
	}

	return strings.TrimRight(prefix, "/") + "/" + rel
}
