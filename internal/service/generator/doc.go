// Package generator builds the catalog manifest and the version archives.
//
// A run reads the catalog in name order, packs every version into a
// reproducible archive, measures it and writes manifest.json. Problems with a
// single application or version are recorded in the manifest and do not stop
// the run. Packing may run on several workers; the manifest content does not
// depend on the worker count.
package generator
