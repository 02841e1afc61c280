// Package archive packs application versions into reproducible tar.gz files
// and measures the produced archives.
//
// Archive bytes depend only on file content and paths: members are written in
// sorted order with ownership cleared, a fixed epoch modification time and a
// normalized mode, and the gzip header carries no name or timestamp. Archives
// are staged next to their destination and renamed into place.
package archive
