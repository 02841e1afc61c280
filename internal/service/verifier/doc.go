// Package verifier re-checks a generated output directory against its manifest.
package verifier
