package expr

import "github.com/cuemby/tablemapper/pkg/schema"

// PathElement is one segment of an attribute path: either a property/member
// name (Document access, or a Map key, which normalization leaves alone)
// or a list index.
type PathElement struct {
	Name    string
	Index   int
	IsIndex bool
}

// Prop returns a single-element property-name path.
func Prop(name string) Path { return Path{{Name: name}} }

// Path is a sequence of path elements, e.g. property "address" then member
// "zip" is Path{{Name:"address"}, {Name:"zip"}}.
type Path []PathElement

// Member appends a nested member-name element, returning a new Path.
func (p Path) Member(name string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, PathElement{Name: name})
}

// At appends a list-index element, returning a new Path.
func (p Path) At(index int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, PathElement{Index: index, IsIndex: true})
}

// Normalize rewrites a top-level property-name path element to its physical
// attribute name per s, then walks any nested Document members recursively
// using the corresponding nested Schema. List indices and non-Document
// member accesses (Map keys) pass through unchanged, since those are not
// schema properties.
func Normalize(s schema.Schema, p Path) Path {
	if len(p) == 0 {
		return p
	}
	out := make(Path, len(p))
	first := p[0]
	t, ok := s[first.Name]
	if !ok {
		// Not a known schema property (e.g. synthesized path); pass through.
		copy(out, p)
		return out
	}
	out[0] = PathElement{Name: schema.AttributeName(first.Name, t)}

	cur := t
	for i := 1; i < len(p); i++ {
		elem := p[i]
		if elem.IsIndex || cur.Tag != schema.Document {
			out[i] = elem
			continue
		}
		memberType, ok := cur.Members[elem.Name]
		if !ok {
			out[i] = elem
			continue
		}
		out[i] = PathElement{Name: schema.AttributeName(elem.Name, memberType)}
		cur = memberType
	}
	return out
}
