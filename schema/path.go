package schema

import (
	"context"
	"fmt"
	"strings"
)

// Path locates a field in the response tree. Elements are response keys
// (string) and list indexes (int).
type Path []PathElement

type PathElement any

func (p Path) String() string {
	var b strings.Builder
	for i, elem := range p {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(v)
		case int:
			fmt.Fprintf(&b, "[%d]", v)
		}
	}
	return b.String()
}

// Append returns a new Path with elem added; the receiver is not modified.
func (p Path) Append(elem PathElement) Path {
	next := make(Path, len(p)+1)
	copy(next, p)
	next[len(p)] = elem
	return next
}

type pathKey struct{}

// WithPath stores the response path of the field currently being resolved.
// Execution engines set it just before invoking a field's resolver.
func WithPath(parent context.Context, p Path) context.Context {
	return context.WithValue(parent, pathKey{}, p)
}

// PathFromContext extracts the current field path from ctx.
// It returns the path and whether one was present.
func PathFromContext(ctx context.Context) (Path, bool) {
	p, ok := ctx.Value(pathKey{}).(Path)
	return p, ok
}
