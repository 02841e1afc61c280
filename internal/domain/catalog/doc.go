// Package catalog contains the domain types of the app store manifest.
//
// It defines the manifest document, application and version records, the
// dynamic Document type used for loosely-typed YAML metadata, the version
// label grammar with its ordering, and the normalization of an application's
// data.yml into an App record.
package catalog
