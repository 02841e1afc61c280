// Package manifest persists the catalog manifest.
//
// The FileRepository renders manifest.json as indented JSON, checks it against
// the embedded JSON schema on both write and read, and publishes it with an
// atomic rename so readers never observe a partial document.
package manifest
