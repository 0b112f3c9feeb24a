package types

import (
	"github.com/hashicorp/go-set/v2"
	"golang.org/x/exp/slices"
)

// Alias wrappers are transparent to every structural query. The
// helpers here are the one sanctioned way to look through them: a
// direct kind match wins, otherwise the wrapper is peeled and the
// check repeats on the inner type.

// As returns t viewed as a T, looking through alias wrappers. When t
// is an alias over a T, the returned value is the unwrapped inner
// type, not the alias.
func As[T Type](t Type) (T, bool) {
	if v, ok := t.(T); ok {
		return v, true
	}
	if a, ok := t.(*Alias); ok {
		return As[T](a.inner)
	}
	var zero T
	return zero, false
}

// Is reports whether t is a T, looking through alias wrappers.
func Is[T Type](t Type) bool {
	_, ok := As[T](t)
	return ok
}

// MustAs is As for callers that have already established the kind.
// It panics when t is not a T.
func MustAs[T Type](t Type) T {
	v, ok := As[T](t)
	if !ok {
		panic("types: type is not of the required kind")
	}
	return v
}

// Under returns t with any top-level alias wrapper removed. Aliases
// nested below further structure are preserved.
func Under(t Type) Type {
	for {
		a, ok := t.(*Alias)
		if !ok {
			return t
		}
		t = a.inner
	}
}

// AliasNames returns every alias name appearing anywhere in t, sorted
// and deduplicated.
func AliasNames(t Type) []string {
	names := set.New[string](0)
	collectAliasNames(t, names)
	out := names.Slice()
	slices.Sort(out)
	return out
}

func collectAliasNames(t Type, names *set.Set[string]) {
	if !t.Props().ContainsTypeAlias {
		return
	}
	switch t := t.(type) {
	case *Alias:
		for _, name := range t.names {
			names.Insert(name)
		}
		collectAliasNames(t.inner, names)
	case *Bundle:
		for _, elt := range t.elements {
			collectAliasNames(elt.Type, names)
		}
	case *Vector:
		collectAliasNames(t.elem, names)
	case *Enum:
		for _, elt := range t.elements {
			collectAliasNames(elt.Type, names)
		}
	case *OpenBundle:
		for _, elt := range t.elements {
			collectAliasNames(elt.Type, names)
		}
	case *OpenVector:
		collectAliasNames(t.elem, names)
	case *Ref:
		collectAliasNames(t.target, names)
	default:
		// Grounds and property types cannot contain aliases, so a
		// positive ContainsTypeAlias here means an unhandled kind.
		panic(unknownKind(t))
	}
}
