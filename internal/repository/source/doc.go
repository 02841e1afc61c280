// Package source reads the application catalog from a repository checkout.
//
// The Repository lists applications and their version directories in name
// order and decodes the YAML metadata documents found along the way.
package source
