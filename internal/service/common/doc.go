// Package common holds helpers shared by several services.
//
// It detects other running copies of the generator so that a run can warn
// before two processes write the same output directory.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
