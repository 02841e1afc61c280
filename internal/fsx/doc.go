// Package fsx holds filesystem helpers that never expose partially written files.
//
// Content is staged inside a unique scoped directory next to the destination
// and renamed into place, so the final path either holds the previous file or
// the complete new one.
package fsx
