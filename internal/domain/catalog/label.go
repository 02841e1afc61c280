package catalog

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// labelPattern accepts an optional "v" followed by a digit and word characters, dots or hyphens.
var labelPattern = regexp.MustCompile(`^v?\d[\w.\-]*$`)

// IsVersionLabel reports whether a directory name denotes a version.
func IsVersionLabel(name string) bool {
	return labelPattern.MatchString(name)
}

// labelKey parses the numeric prefix of a label: leading "v" characters are
// dropped and dot-separated integers are read until the first non-integer part.
func labelKey(label string) []int {
	parts := strings.Split(strings.TrimLeft(label, "v"), ".")
	key := make([]int, 0, len(parts))

	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			break
		}

		key = append(key, n)
	}

	return key
}

// CompareLabels orders labels by their numeric prefix, then by the raw string.
// Suffixes such as "-beta" stop numeric parsing, so "1.2.0-beta" sorts before "1.2.0".
func CompareLabels(a, b string) int {
	if c := slices.Compare(labelKey(a), labelKey(b)); c != 0 {
		return c
	}

	return strings.Compare(a, b)
}

// SortLabels sorts labels in place using CompareLabels.
func SortLabels(labels []string) {
	slices.SortFunc(labels, CompareLabels)
}

// SortVersions sorts version records in place by their labels.
func SortVersions(versions []Version) {
	slices.SortStableFunc(versions, func(a, b Version) int {
		return CompareLabels(a.Version, b.Version)
	})
}
