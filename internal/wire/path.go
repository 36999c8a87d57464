package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/solatis/aepbridge/internal/types"
)

/*
 * Path lookup into host dictionaries.
 *
 * A path is a chain of segments: a map key, an array index or a wildcard.
 * The text form is dot-separated keys with bracketed indices:
 *
 *   xdm.commerce.order.items[0].sku
 *   identities.*[0].id
 *   payload[*].type
 *
 * Wildcards have ANY semantics: the first element whose remaining path
 * resolves wins. Maps are walked in sorted key order and arrays in index
 * order, so a lookup over the same dictionary always picks the same match.
 *
 * Limits: MaxPathDepth (16) segments and MaxNestedWildcards (2) wildcards,
 * checked before traversal.
 */

// PathSegment is one step of a path.
type PathSegment struct {
	Key      string
	Index    int
	IsIndex  bool
	Wildcard bool
}

func (s PathSegment) String() string {
	switch {
	case s.Wildcard:
		return "*"
	case s.IsIndex:
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Key
}

// Path is a parsed path.
type Path []PathSegment

func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p {
		if i > 0 && !seg.IsIndex {
			b.WriteByte('.')
		}
		b.WriteString(seg.String())
	}
	return b.String()
}

// ParsePath parses the dotted text form of a path.
// Returns ErrInvalidPath for empty segments, unterminated or non-numeric
// brackets and negative indices, and the limit errors of Validate.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: empty path", types.ErrInvalidPath)
	}

	var path Path
	for _, part := range strings.Split(s, ".") {
		key, rest, _ := strings.Cut(part, "[")
		if key == "" && rest == "" && !strings.Contains(part, "[") {
			return nil, fmt.Errorf("%w: empty segment in %q", types.ErrInvalidPath, s)
		}
		switch key {
		case "":
			if !strings.HasPrefix(part, "[") || len(path) == 0 {
				return nil, fmt.Errorf("%w: index without parent in %q", types.ErrInvalidPath, s)
			}
		case "*":
			path = append(path, PathSegment{Wildcard: true})
		default:
			path = append(path, PathSegment{Key: key})
		}

		if !strings.Contains(part, "[") {
			continue
		}
		brackets := part[len(key):]
		for brackets != "" {
			if brackets[0] != '[' {
				return nil, fmt.Errorf("%w: unexpected %q in %q", types.ErrInvalidPath, brackets, s)
			}
			end := strings.IndexByte(brackets, ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated bracket in %q", types.ErrInvalidPath, s)
			}
			inner := brackets[1:end]
			if inner == "*" {
				path = append(path, PathSegment{Wildcard: true})
			} else {
				idx, err := strconv.Atoi(inner)
				if err != nil || idx < 0 {
					return nil, fmt.Errorf("%w: bad index %q in %q", types.ErrInvalidPath, inner, s)
				}
				path = append(path, PathSegment{Index: idx, IsIndex: true})
			}
			brackets = brackets[end+1:]
		}
	}

	if err := path.Validate(); err != nil {
		return nil, err
	}
	return path, nil
}

// Validate checks the depth and wildcard limits.
func (p Path) Validate() error {
	if len(p) > types.MaxPathDepth {
		return types.ErrPathTooDeep
	}
	wildcards := 0
	for _, seg := range p {
		if seg.Wildcard {
			wildcards++
		}
	}
	if wildcards > types.MaxNestedWildcards {
		return types.ErrTooManyWildcards
	}
	return nil
}

// LookupResult is the value found by Lookup and the concrete path to it.
type LookupResult struct {
	Value        Value
	ResolvedPath Path // wildcards replaced by the matched key or index
	Found        bool
}

// Lookup resolves path inside d.
// Returns ErrPathTooDeep or ErrTooManyWildcards for paths over the limits
// and ErrFieldNotFound when nothing matches.
func Lookup(d Dict, path Path) (LookupResult, error) {
	if err := path.Validate(); err != nil {
		return LookupResult{}, err
	}
	return lookup(path, Value{kind: KindMap, m: d}, nil)
}

// LookupString parses path and resolves it inside d.
func LookupString(d Dict, path string) (LookupResult, error) {
	p, err := ParsePath(path)
	if err != nil {
		return LookupResult{}, err
	}
	return Lookup(d, p)
}

func lookup(path Path, current Value, resolved Path) (LookupResult, error) {
	if len(path) == 0 {
		return LookupResult{Value: current, ResolvedPath: resolved, Found: true}, nil
	}

	seg := path[0]
	remaining := path[1:]

	switch current.kind {
	case KindMap:
		if seg.Wildcard {
			for _, key := range current.m.Keys() {
				step := append(resolved[:len(resolved):len(resolved)], PathSegment{Key: key})
				result, err := lookup(remaining, current.m[key], step)
				if err == nil && result.Found {
					return result, nil
				}
			}
			return LookupResult{}, types.ErrFieldNotFound
		}
		if seg.IsIndex {
			return LookupResult{}, types.ErrFieldNotFound
		}
		next, ok := current.m[seg.Key]
		if !ok {
			return LookupResult{}, types.ErrFieldNotFound
		}
		return lookup(remaining, next, append(resolved[:len(resolved):len(resolved)], seg))

	case KindArray:
		if seg.Wildcard {
			for i, elem := range current.arr {
				step := append(resolved[:len(resolved):len(resolved)], PathSegment{Index: i, IsIndex: true})
				result, err := lookup(remaining, elem, step)
				if err == nil && result.Found {
					return result, nil
				}
			}
			return LookupResult{}, types.ErrFieldNotFound
		}
		if !seg.IsIndex || seg.Index < 0 || seg.Index >= len(current.arr) {
			return LookupResult{}, types.ErrFieldNotFound
		}
		return lookup(remaining, current.arr[seg.Index], append(resolved[:len(resolved):len(resolved)], seg))
	}

	// Scalar or null with path remaining.
	return LookupResult{}, types.ErrFieldNotFound
}
