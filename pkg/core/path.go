package core

import "strings"

// pathJoin is a fast alternative to path.Join for root-relative snapshot
// paths. It avoids the cleaning overhead of path.Join, which snapshot paths
// never need since they're built incrementally from validated components.
func pathJoin(base, leaf string) string {
	if leaf == "" {
		panic("empty leaf name")
	}
	if base == "" {
		return leaf
	}
	return base + "/" + leaf
}

// isUnder reports whether path is equal to prefix or lies strictly beneath
// it, treating both as slash-separated relative paths. The root path ("")
// is considered a prefix of everything.
func isUnder(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}

// pathLess performs a lexicographic comparison between two root-relative
// paths, comparing path component by path component so that, e.g., "a/b"
// sorts before "a-b" would not incorrectly be implied by byte comparison
// alone is avoided: component-wise comparison keeps parents ordered before
// their children regardless of what punctuation follows a shared prefix.
func pathLess(first, second string) bool {
	if first == second {
		return false
	}
	firstComponents := strings.Split(first, "/")
	secondComponents := strings.Split(second, "/")
	for i := 0; i < len(firstComponents) && i < len(secondComponents); i++ {
		if firstComponents[i] != secondComponents[i] {
			return firstComponents[i] < secondComponents[i]
		}
	}
	return len(firstComponents) < len(secondComponents)
}
