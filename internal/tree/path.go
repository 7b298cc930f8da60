package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPath is returned for an empty path or a path with an empty segment.
	ErrInvalidPath = errors.New("invalid path")
	// ErrInvalidTarget is returned when Set meets a non-Mapping node before the last segment.
	ErrInvalidTarget = errors.New("invalid target")
)

// PathSeparator separates segments in a dotted path.
const PathSeparator = "."

// Path addresses a location inside a tree as a sequence of mapping keys.
type Path struct {
	segments []string
}

// ParsePath splits s on "." into a Path.
// Supports: "field", "nested.field", "a.b.c". Index and wildcard syntax is not recognised.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return Path{}, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}

	parts := strings.Split(s, PathSeparator)
	for _, part := range parts {
		if part == "" {
			return Path{}, fmt.Errorf("%w %q: empty segment", ErrInvalidPath, s)
		}
	}

	return Path{segments: parts}, nil
}

// MustParsePath is like ParsePath but panics on error.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Segments returns a copy of the path segments.
func (p Path) Segments() []string {
	out := make([]string, len(p.segments))
	copy(out, p.segments)
	return out
}

// IsZero reports whether p was never parsed.
func (p Path) IsZero() bool { return len(p.segments) == 0 }

func (p Path) String() string { return strings.Join(p.segments, PathSeparator) }

// MarshalJSON encodes the path as its dotted string.
func (p Path) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// UnmarshalJSON decodes and validates a dotted path string.
func (p *Path) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPath, err)
	}
	parsed, err := ParsePath(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Get resolves path against root. It never fails: a missing key, or any node that is not a
// Mapping along the way, yields (nil, false).
func Get(root *Value, path Path) (*Value, bool) {
	if path.IsZero() {
		return nil, false
	}
	cur := root
	for _, seg := range path.segments {
		if cur.Kind() != KindMapping {
			return nil, false
		}
		next, ok := cur.m.Get(seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Set writes value at path inside root, creating empty Mappings for missing intermediate keys.
// Whatever was stored at the final key is replaced. root is mutated and must not be shared.
func Set(root *Value, path Path, value *Value) error {
	if path.IsZero() {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if root.Kind() != KindMapping {
		return fmt.Errorf("%w: root is %s, not a mapping", ErrInvalidTarget, root.Kind())
	}

	cur := root
	last := len(path.segments) - 1
	for i, seg := range path.segments[:last] {
		next, ok := cur.m.Get(seg)
		if !ok {
			next = NewMapping()
			cur.m.Set(seg, next)
		}
		if next.Kind() != KindMapping {
			return fmt.Errorf("%w: %q is %s, not a mapping",
				ErrInvalidTarget, strings.Join(path.segments[:i+1], PathSeparator), next.Kind())
		}
		cur = next
	}

	cur.m.Set(path.segments[last], value)
	return nil
}
