package store

import (
	"encoding/json"
	"errors"
	"strings"
)

var errEmptyPath = errors.New("empty document path")

// splitPath breaks "home/devices/led1" into its segments, ignoring leading,
// trailing and repeated slashes.
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// splitRoot separates the document name (first segment) from the path within
// the document.
func splitRoot(path string) (string, []string, error) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return "", nil, errEmptyPath
	}
	return segs[0], segs[1:], nil
}

// valueAt walks the tree along segs. Missing branches and non-object
// intermediate values read as nil.
func valueAt(root any, segs []string) any {
	cur := root
	for _, s := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur, ok = m[s]
		if !ok {
			return nil
		}
	}
	return cur
}

// setAt returns the tree with the subtree at segs replaced by v. A nil v
// deletes the target key. Intermediate objects are created as needed;
// non-object intermediates are overwritten.
func setAt(root any, segs []string, v any) any {
	if len(segs) == 0 {
		return v
	}
	m, ok := root.(map[string]any)
	if !ok {
		if v == nil {
			return root // nothing to delete below a non-object
		}
		m = make(map[string]any)
	}
	head, rest := segs[0], segs[1:]
	if len(rest) == 0 {
		if v == nil {
			delete(m, head)
		} else {
			m[head] = v
		}
		return m
	}
	child, exists := m[head]
	if !exists && v == nil {
		return m
	}
	m[head] = setAt(child, rest, v)
	return m
}

// pathsOverlap reports whether a write at wrote must be delivered to a
// subscription at sub: identical paths, a write below the subscription, or
// an ancestor write that replaces the subscribed subtree.
func pathsOverlap(wrote, sub []string) bool {
	n := len(wrote)
	if len(sub) < n {
		n = len(sub)
	}
	for i := 0; i < n; i++ {
		if wrote[i] != sub[i] {
			return false
		}
	}
	return true
}

// normalize converts an arbitrary Go value into the plain JSON tree form the
// store keeps (maps, slices, float64, string, bool, nil).
func normalize(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
