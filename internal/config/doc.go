// Package config defines the generator settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the catalog root, the output directory, the URL prefix
// for archive links, the packing parallelism and the log level. Command-line
// flags override values read from a file.
package config
