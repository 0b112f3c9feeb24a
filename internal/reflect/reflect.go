// Package reflect describes types as plain data for JSON consumers.
// It turns an interned type into a tree of kind, width, orientation,
// and field ID facts, and computes packed bit layouts for sized types.
package reflect

import (
	"github.com/elhewaty/circt/internal/parser"
	"github.com/elhewaty/circt/internal/types"
)

// Reflect parses one type expression and describes it. Parse failures
// are reported inside the result so callers can marshal it either way.
func Reflect(source string, s *types.Store) Result {
	p := parser.New(source, s)
	t, errs := p.Parse()
	if len(errs) > 0 {
		messages := make([]string, len(errs))
		for i, e := range errs {
			messages[i] = e.Error()
		}
		return Result{Errors: messages}
	}

	result := Result{Info: Describe(t)}
	if base, ok := t.(types.BaseType); ok {
		if layout, err := ComputeLayout(base); err == nil {
			result.Layout = layout
		}
	}
	return result
}

// Describe builds the description tree for a type. Aliases report the
// kind of their underlying type, with the name stack in Alias.
func Describe(t types.Type) *TypeInfo {
	return describe(t, "", false, 0)
}

func describe(t types.Type, name string, flip bool, fieldID uint64) *TypeInfo {
	props := t.Props()
	info := &TypeInfo{
		Kind:    kindName(t),
		Type:    t.String(),
		Name:    name,
		Flip:    flip,
		FieldID: fieldID,
		Bits:    -1,

		Passive:            props.IsPassive,
		ContainsAnalog:     props.ContainsAnalog,
		ContainsReference:  props.ContainsReference,
		ContainsConst:      props.ContainsConst,
		ContainsTypeAlias:  props.ContainsTypeAlias,
		HasUninferredWidth: props.HasUninferredWidth,
		HasUninferredReset: props.HasUninferredReset,
	}

	if a, ok := t.(*types.Alias); ok {
		info.Alias = a.Names()
	}
	if base, ok := t.(types.BaseType); ok {
		info.Const = base.IsConst()
		if bits, known := types.BitWidth(base, true); known {
			info.Bits = bits
		}
	}

	switch u := types.Under(t).(type) {
	case *types.Clock, *types.Reset, *types.AsyncReset:

	case *types.SInt:
		w := u.Width()
		info.Width = &w
	case *types.UInt:
		w := u.Width()
		info.Width = &w
	case *types.Analog:
		w := u.Width()
		info.Width = &w

	case *types.Bundle:
		for i, elt := range u.Elements() {
			info.Elements = append(info.Elements, describe(elt.Type, elt.Name, elt.Flip, fieldID+u.FieldID(i)))
		}
	case *types.Vector:
		n := u.Len()
		info.Length = &n
		info.Elements = append(info.Elements, describe(u.ElementType(), "", false, fieldID+u.FieldID(0)))
	case *types.Enum:
		for i, elt := range u.Elements() {
			info.Elements = append(info.Elements, describe(elt.Type, elt.Name, false, fieldID+u.FieldID(i)))
		}

	case *types.OpenBundle:
		info.Const = u.IsConst()
		for i, elt := range u.Elements() {
			info.Elements = append(info.Elements, describe(elt.Type, elt.Name, elt.Flip, fieldID+u.FieldID(i)))
		}
	case *types.OpenVector:
		info.Const = u.IsConst()
		n := u.Len()
		info.Length = &n
		info.Elements = append(info.Elements, describe(u.ElementType(), "", false, fieldID+u.FieldID(0)))

	case *types.Ref:
		info.Forceable = u.Forceable()
		info.Elements = append(info.Elements, describe(u.TargetType(), "", false, 0))

	case *types.String, *types.BigInt:

	case *types.List:
		info.Elements = append(info.Elements, describe(u.ElementType(), "", false, 0))
	case *types.Map:
		info.Elements = append(info.Elements,
			describe(u.KeyType(), "key", false, 0),
			describe(u.ValueType(), "value", false, 0))

	default:
		panic("reflect: unrecognized type kind")
	}

	return info
}

// kindName names the underlying kind, looking through aliases.
func kindName(t types.Type) string {
	switch u := types.Under(t).(type) {
	case *types.Clock:
		return "clock"
	case *types.Reset:
		return "reset"
	case *types.AsyncReset:
		return "asyncreset"
	case *types.SInt:
		return "sint"
	case *types.UInt:
		return "uint"
	case *types.Analog:
		return "analog"
	case *types.Bundle:
		return "bundle"
	case *types.Vector:
		return "vector"
	case *types.Enum:
		return "enum"
	case *types.OpenBundle:
		return "openbundle"
	case *types.OpenVector:
		return "openvector"
	case *types.Ref:
		if u.Forceable() {
			return "rwprobe"
		}
		return "probe"
	case *types.String:
		return "string"
	case *types.BigInt:
		return "bigint"
	case *types.List:
		return "list"
	case *types.Map:
		return "map"
	}
	panic("reflect: unrecognized type kind")
}
