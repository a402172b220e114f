package settings

import "strings"

// Path is a parsed dot path. Segments are kept verbatim; empty segments are
// dropped so "a..b" and "a.b" address the same node.
type Path struct {
	raw      string
	segments []string
}

// ParsePath splits raw on "." into ordered segments.
func ParsePath(raw string) Path {
	raw = strings.TrimSpace(raw)
	parts := strings.Split(raw, ".")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		segments = append(segments, part)
	}
	return Path{raw: strings.Join(segments, "."), segments: segments}
}

// String returns the canonical dotted form.
func (p Path) String() string {
	return p.raw
}

// Segments returns a copy of the ordered segment keys.
func (p Path) Segments() []string {
	return append([]string(nil), p.segments...)
}

// IsZero reports whether the path addresses nothing.
func (p Path) IsZero() bool {
	return len(p.segments) == 0
}

// Leaf returns the final segment.
func (p Path) Leaf() string {
	if p.IsZero() {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// Parent returns the path without its final segment.
func (p Path) Parent() Path {
	if len(p.segments) <= 1 {
		return Path{}
	}
	segments := p.segments[:len(p.segments)-1]
	return Path{raw: strings.Join(segments, "."), segments: append([]string(nil), segments...)}
}

// Ancestors returns every proper prefix of p, nearest first.
func (p Path) Ancestors() []Path {
	out := make([]Path, 0, len(p.segments))
	for parent := p.Parent(); !parent.IsZero(); parent = parent.Parent() {
		out = append(out, parent)
	}
	return out
}

// Resolve walks tree read-only. It fails when any segment is missing or a
// non-mapping is reached before the path is exhausted.
func (p Path) Resolve(tree map[string]any) (any, bool) {
	if p.IsZero() || tree == nil {
		return nil, false
	}
	var current any = tree
	for _, segment := range p.segments {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// ResolveParent walks to the mapping holding the leaf without creating
// anything. ok is false when the chain is broken.
func (p Path) ResolveParent(tree map[string]any) (map[string]any, bool) {
	if p.IsZero() || tree == nil {
		return nil, false
	}
	node := tree
	for _, segment := range p.segments[:len(p.segments)-1] {
		next, ok := node[segment].(map[string]any)
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

// ResolveOrCreate walks to the mapping holding the leaf, creating missing
// intermediate mappings. Non-mapping intermediates are replaced by mappings.
func (p Path) ResolveOrCreate(tree map[string]any) map[string]any {
	node := tree
	for _, segment := range p.segments[:len(p.segments)-1] {
		next, ok := node[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			node[segment] = next
		}
		node = next
	}
	return node
}
