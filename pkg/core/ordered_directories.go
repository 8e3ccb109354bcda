package core

import "sort"

// orderedDirectories is a path-keyed container of PathInfo that maintains
// its keys in ascending lexicographic order by path component: ascending
// order is used for directory creation (parents before children) and the
// reverse (descending) order is used for directory removal (children
// before parents).
type orderedDirectories struct {
	values map[string]PathInfo
	order  []string
}

// newOrderedDirectories creates an empty orderedDirectories.
func newOrderedDirectories() *orderedDirectories {
	return &orderedDirectories{values: make(map[string]PathInfo)}
}

// set inserts or updates the entry for path, keeping order sorted.
func (o *orderedDirectories) set(path string, info PathInfo) {
	if _, exists := o.values[path]; !exists {
		index := sort.Search(len(o.order), func(i int) bool {
			return !pathLess(o.order[i], path)
		})
		o.order = append(o.order, "")
		copy(o.order[index+1:], o.order[index:])
		o.order[index] = path
	}
	o.values[path] = info
}

// delete removes the entry for path, if present.
func (o *orderedDirectories) delete(path string) {
	if _, exists := o.values[path]; !exists {
		return
	}
	delete(o.values, path)
	for i, p := range o.order {
		if p == path {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
}

// get returns the entry for path, if present.
func (o *orderedDirectories) get(path string) (PathInfo, bool) {
	info, ok := o.values[path]
	return info, ok
}

// len returns the number of entries.
func (o *orderedDirectories) len() int {
	return len(o.values)
}

// ascending returns paths in ascending lexicographic order (parents before
// children). The returned slice is owned by the caller.
func (o *orderedDirectories) ascending() []string {
	result := make([]string, len(o.order))
	copy(result, o.order)
	return result
}

// descending returns paths in descending lexicographic order (children
// before parents).
func (o *orderedDirectories) descending() []string {
	result := make([]string, len(o.order))
	for i, p := range o.order {
		result[len(o.order)-1-i] = p
	}
	return result
}

// clone returns a deep copy of the receiver.
func (o *orderedDirectories) clone() *orderedDirectories {
	result := newOrderedDirectories()
	for _, path := range o.order {
		result.set(path, o.values[path])
	}
	return result
}
