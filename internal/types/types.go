// Package types implements the FIRRTL structural type system.
//
// Types are immutable values interned through a Store: two structurally
// identical types built from the same store are always the same pointer,
// so equality is pointer comparison and maps may key on Type directly.
// The set of type kinds is closed. Every algorithm in this package
// dispatches with an exhaustive type switch and panics on a kind it does
// not know, so extending the kind set without updating every switch is
// caught immediately.
package types

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// WidthUnknown is the width sentinel for integer and analog types whose
// width has not been inferred yet.
const WidthUnknown int32 = -1

// Type is implemented by every FIRRTL type.
type Type interface {
	// String returns the textual syntax for this type.
	String() string
	// Props returns the recursive properties computed at construction.
	Props() RecursiveProperties
	// base returns the interned identity. It also closes the interface:
	// only the Store can build values that implement it.
	base() *typeBase
}

// FieldIDType is implemented by types that assign stable integer IDs to
// their nested fields. The root is ID 0 and descendants are numbered by
// depth-first preorder traversal. Hardware base types, open aggregates,
// and references all support field IDs; property types do not.
type FieldIDType interface {
	Type
	// MaxFieldID returns the largest valid field ID within this type.
	MaxFieldID() uint64
	// SubTypeByFieldID resolves fieldID to the child containing it and
	// the remaining ID relative to that child. ID 0 is the type itself.
	SubTypeByFieldID(fieldID uint64) (FieldIDType, uint64)
	// RootChildFieldID converts fieldID from this type's numbering to
	// the numbering rooted at child index. The bool reports whether the
	// ID lies inside that child's range at all.
	RootChildFieldID(fieldID uint64, index int) (uint64, bool)
}

// BaseType is implemented by the hardware ground and aggregate types:
// Clock, Reset, AsyncReset, SInt, UInt, Analog, Bundle, Vector, Enum,
// and Alias. References, open aggregates, and property types are not
// base types.
type BaseType interface {
	Type
	// IsConst returns true if this type carries the const qualifier.
	IsConst() bool
	MaxFieldID() uint64
	SubTypeByFieldID(fieldID uint64) (FieldIDType, uint64)
	RootChildFieldID(fieldID uint64, index int) (uint64, bool)
	// isBaseType is a marker method.
	isBaseType()
}

// PropertyType is implemented by the non-hardware elaboration-time
// types: String, BigInt, List, and Map.
type PropertyType interface {
	Type
	// isPropertyType is a marker method.
	isPropertyType()
}

// RecursiveProperties is the set of boolean facts about a type and all
// of its children, computed once at construction and stored on the
// instance. Queries that would otherwise walk the whole type tree read
// these bits instead.
type RecursiveProperties struct {
	// IsPassive is true if no flip appears anywhere in the type.
	IsPassive bool
	// ContainsAnalog is true if an analog leaf appears anywhere.
	ContainsAnalog bool
	// ContainsReference is true if a reference appears anywhere.
	ContainsReference bool
	// ContainsConst is true if any node carries the const qualifier.
	ContainsConst bool
	// ContainsTypeAlias is true if an alias wrapper appears anywhere.
	ContainsTypeAlias bool
	// HasUninferredWidth is true if some leaf width is still unknown.
	HasUninferredWidth bool
	// HasUninferredReset is true if an abstract reset appears anywhere.
	HasUninferredReset bool
}

// mergeProps folds one child's properties into an aggregate's
// accumulator: passivity is conjunctive, everything else disjunctive.
func mergeProps(acc, child RecursiveProperties) RecursiveProperties {
	return RecursiveProperties{
		IsPassive:          acc.IsPassive && child.IsPassive,
		ContainsAnalog:     acc.ContainsAnalog || child.ContainsAnalog,
		ContainsReference:  acc.ContainsReference || child.ContainsReference,
		ContainsConst:      acc.ContainsConst || child.ContainsConst,
		ContainsTypeAlias:  acc.ContainsTypeAlias || child.ContainsTypeAlias,
		HasUninferredWidth: acc.HasUninferredWidth || child.HasUninferredWidth,
		HasUninferredReset: acc.HasUninferredReset || child.HasUninferredReset,
	}
}

// typeBase is the identity every interned type shares. The store
// back-pointer makes types self-describing: transformers can intern
// derived types without threading a *Store through every call.
type typeBase struct {
	store *Store
	id    uint32
	props RecursiveProperties
}

func (b *typeBase) Props() RecursiveProperties { return b.props }
func (b *typeBase) base() *typeBase            { return b }

// storeOf returns the store a type was interned in.
func storeOf(t Type) *Store { return t.base().store }

// ----------------------------------------------------------------------------
// Ground Types
// ----------------------------------------------------------------------------

// Clock is the clock ground type.
type Clock struct {
	typeBase
	isConst bool
}

func (t *Clock) IsConst() bool  { return t.isConst }
func (t *Clock) String() string { return constPrefix(t.isConst) + "clock" }
func (t *Clock) isBaseType()    {}

// Reset is the abstract reset ground type. It stands for a reset whose
// concrete kind (synchronous or asynchronous) has not been inferred.
type Reset struct {
	typeBase
	isConst bool
}

func (t *Reset) IsConst() bool  { return t.isConst }
func (t *Reset) String() string { return constPrefix(t.isConst) + "reset" }
func (t *Reset) isBaseType()    {}

// AsyncReset is the asynchronous reset ground type.
type AsyncReset struct {
	typeBase
	isConst bool
}

func (t *AsyncReset) IsConst() bool  { return t.isConst }
func (t *AsyncReset) String() string { return constPrefix(t.isConst) + "asyncreset" }
func (t *AsyncReset) isBaseType()    {}

// SInt is the signed integer ground type. A width of WidthUnknown means
// the width is still subject to inference.
type SInt struct {
	typeBase
	width   int32
	isConst bool
}

func (t *SInt) IsConst() bool  { return t.isConst }
func (t *SInt) Width() int32   { return t.width }
func (t *SInt) HasWidth() bool { return t.width >= 0 }
func (t *SInt) String() string { return intString("sint", t.width, t.isConst) }
func (t *SInt) isBaseType()    {}

// UInt is the unsigned integer ground type.
type UInt struct {
	typeBase
	width   int32
	isConst bool
}

func (t *UInt) IsConst() bool  { return t.isConst }
func (t *UInt) Width() int32   { return t.width }
func (t *UInt) HasWidth() bool { return t.width >= 0 }
func (t *UInt) String() string { return intString("uint", t.width, t.isConst) }
func (t *UInt) isBaseType()    {}

// Analog is the bidirectional analog wire type. Analog carries a width
// like the integer types but no drive direction.
type Analog struct {
	typeBase
	width   int32
	isConst bool
}

func (t *Analog) IsConst() bool  { return t.isConst }
func (t *Analog) Width() int32   { return t.width }
func (t *Analog) HasWidth() bool { return t.width >= 0 }
func (t *Analog) String() string { return intString("analog", t.width, t.isConst) }
func (t *Analog) isBaseType()    {}

// ----------------------------------------------------------------------------
// Aggregate Types
// ----------------------------------------------------------------------------

// BundleElement is one named field of a Bundle. Flip reverses the
// field's direction relative to its container.
type BundleElement struct {
	Name string
	Flip bool
	Type BaseType
}

// Bundle is a record of named, optionally flipped fields.
type Bundle struct {
	typeBase
	elements []BundleElement
	fieldIDs []uint64
	maxID    uint64
	isConst  bool

	// Derived forms are computed on first use. A racing recompute is
	// harmless: interning makes every computed value identical.
	passive   atomic.Pointer[Bundle]
	anonymous atomic.Pointer[Bundle]
}

func (t *Bundle) IsConst() bool { return t.isConst }

// NumElements returns the number of fields.
func (t *Bundle) NumElements() int { return len(t.elements) }

// Elements returns the fields in declaration order. Callers must not
// modify the returned slice.
func (t *Bundle) Elements() []BundleElement { return t.elements }

// Element returns the field at index.
func (t *Bundle) Element(index int) BundleElement { return t.elements[index] }

// ElementIndex returns the index of the field with the given name.
func (t *Bundle) ElementIndex(name string) (int, bool) {
	for i, elt := range t.elements {
		if elt.Name == name {
			return i, true
		}
	}
	return 0, false
}

// ElementByName returns the field with the given name.
func (t *Bundle) ElementByName(name string) (BundleElement, bool) {
	if i, ok := t.ElementIndex(name); ok {
		return t.elements[i], true
	}
	return BundleElement{}, false
}

func (t *Bundle) String() string {
	var b strings.Builder
	b.WriteString(constPrefix(t.isConst))
	b.WriteString("bundle<")
	for i, elt := range t.elements {
		if i > 0 {
			b.WriteString(", ")
		}
		writeElementName(&b, elt.Name)
		if elt.Flip {
			b.WriteString(" flip")
		}
		b.WriteString(": ")
		b.WriteString(elt.Type.String())
	}
	b.WriteString(">")
	return b.String()
}

func (t *Bundle) isBaseType() {}

// Vector is a homogeneous fixed-length sequence.
type Vector struct {
	typeBase
	elem    BaseType
	length  int
	isConst bool

	passive   atomic.Pointer[Vector]
	anonymous atomic.Pointer[Vector]
}

func (t *Vector) IsConst() bool { return t.isConst }

// ElementType returns the element type shared by every slot.
func (t *Vector) ElementType() BaseType { return t.elem }

// Len returns the number of elements.
func (t *Vector) Len() int { return t.length }

func (t *Vector) String() string {
	return constPrefix(t.isConst) + "vector<" + t.elem.String() + ", " + strconv.Itoa(t.length) + ">"
}

func (t *Vector) isBaseType() {}

// EnumElement is one variant of an Enum.
type EnumElement struct {
	Name string
	Type BaseType
}

// Enum is a tagged union of named variants. Variants are always
// passive, so an Enum is passive by construction.
type Enum struct {
	typeBase
	elements []EnumElement
	fieldIDs []uint64
	maxID    uint64
	isConst  bool

	anonymous atomic.Pointer[Enum]
}

func (t *Enum) IsConst() bool { return t.isConst }

// NumElements returns the number of variants.
func (t *Enum) NumElements() int { return len(t.elements) }

// Elements returns the variants in declaration order. Callers must not
// modify the returned slice.
func (t *Enum) Elements() []EnumElement { return t.elements }

// Element returns the variant at index.
func (t *Enum) Element(index int) EnumElement { return t.elements[index] }

// ElementIndex returns the index of the variant with the given name.
func (t *Enum) ElementIndex(name string) (int, bool) {
	for i, elt := range t.elements {
		if elt.Name == name {
			return i, true
		}
	}
	return 0, false
}

// ElementByName returns the variant with the given name.
func (t *Enum) ElementByName(name string) (EnumElement, bool) {
	if i, ok := t.ElementIndex(name); ok {
		return t.elements[i], true
	}
	return EnumElement{}, false
}

func (t *Enum) String() string {
	var b strings.Builder
	b.WriteString(constPrefix(t.isConst))
	b.WriteString("enum<")
	for i, elt := range t.elements {
		if i > 0 {
			b.WriteString(", ")
		}
		writeElementName(&b, elt.Name)
		b.WriteString(": ")
		b.WriteString(elt.Type.String())
	}
	b.WriteString(">")
	return b.String()
}

func (t *Enum) isBaseType() {}

// ----------------------------------------------------------------------------
// Open Aggregate Types
// ----------------------------------------------------------------------------

// OpenBundleElement is one field of an OpenBundle. Unlike a closed
// bundle field its type may be any field-ID-bearing type, references
// included.
type OpenBundleElement struct {
	Name string
	Flip bool
	Type Type
}

// OpenBundle is a bundle that may carry non-hardware fields such as
// references. It is not a BaseType: it cannot appear under vectors,
// enums, or references.
type OpenBundle struct {
	typeBase
	elements []OpenBundleElement
	fieldIDs []uint64
	maxID    uint64
	isConst  bool
}

func (t *OpenBundle) IsConst() bool { return t.isConst }

// NumElements returns the number of fields.
func (t *OpenBundle) NumElements() int { return len(t.elements) }

// Elements returns the fields in declaration order. Callers must not
// modify the returned slice.
func (t *OpenBundle) Elements() []OpenBundleElement { return t.elements }

// Element returns the field at index.
func (t *OpenBundle) Element(index int) OpenBundleElement { return t.elements[index] }

// ElementIndex returns the index of the field with the given name.
func (t *OpenBundle) ElementIndex(name string) (int, bool) {
	for i, elt := range t.elements {
		if elt.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (t *OpenBundle) String() string {
	var b strings.Builder
	b.WriteString(constPrefix(t.isConst))
	b.WriteString("openbundle<")
	for i, elt := range t.elements {
		if i > 0 {
			b.WriteString(", ")
		}
		writeElementName(&b, elt.Name)
		if elt.Flip {
			b.WriteString(" flip")
		}
		b.WriteString(": ")
		b.WriteString(elt.Type.String())
	}
	b.WriteString(">")
	return b.String()
}

// OpenVector is a homogeneous sequence whose element may be any
// field-ID-bearing type.
type OpenVector struct {
	typeBase
	elem    Type
	length  int
	isConst bool
}

func (t *OpenVector) IsConst() bool { return t.isConst }

// ElementType returns the element type shared by every slot.
func (t *OpenVector) ElementType() Type { return t.elem }

// Len returns the number of elements.
func (t *OpenVector) Len() int { return t.length }

func (t *OpenVector) String() string {
	return constPrefix(t.isConst) + "openvector<" + t.elem.String() + ", " + strconv.Itoa(t.length) + ">"
}

// ----------------------------------------------------------------------------
// Reference Types
// ----------------------------------------------------------------------------

// Ref is a probe into a remote hardware value. A forceable probe
// additionally allows overriding the probed value. The target is
// always a passive base type.
type Ref struct {
	typeBase
	target    BaseType
	forceable bool
}

// TargetType returns the probed type.
func (t *Ref) TargetType() BaseType { return t.target }

// Forceable returns true if the probe allows forcing.
func (t *Ref) Forceable() bool { return t.forceable }

func (t *Ref) String() string {
	if t.forceable {
		return "rwprobe<" + t.target.String() + ">"
	}
	return "probe<" + t.target.String() + ">"
}

// ----------------------------------------------------------------------------
// Property Types
// ----------------------------------------------------------------------------

// String is the elaboration-time string property type.
type String struct {
	typeBase
}

func (t *String) String() string  { return "string" }
func (t *String) isPropertyType() {}

// BigInt is the elaboration-time arbitrary-precision integer property
// type.
type BigInt struct {
	typeBase
}

func (t *BigInt) String() string  { return "bigint" }
func (t *BigInt) isPropertyType() {}

// List is the elaboration-time homogeneous list property type.
type List struct {
	typeBase
	elem PropertyType
}

// ElementType returns the element type.
func (t *List) ElementType() PropertyType { return t.elem }

func (t *List) String() string  { return "list<" + t.elem.String() + ">" }
func (t *List) isPropertyType() {}

// Map is the elaboration-time map property type.
type Map struct {
	typeBase
	key   PropertyType
	value PropertyType
}

// KeyType returns the key type.
func (t *Map) KeyType() PropertyType { return t.key }

// ValueType returns the value type.
func (t *Map) ValueType() PropertyType { return t.value }

func (t *Map) String() string  { return "map<" + t.key.String() + ", " + t.value.String() + ">" }
func (t *Map) isPropertyType() {}

// ----------------------------------------------------------------------------
// Type Aliases
// ----------------------------------------------------------------------------

// Alias is a named wrapper around a base type. It is transparent to
// every structural algorithm; only printing and identity see the
// names. Nesting an alias in an alias folds into one wrapper with a
// name stack, outermost first.
type Alias struct {
	typeBase
	names []string
	inner BaseType
}

// Name returns the outermost alias name.
func (t *Alias) Name() string { return t.names[0] }

// Names returns the name stack, outermost first. Callers must not
// modify the returned slice.
func (t *Alias) Names() []string { return t.names }

// InnerType returns the wrapped type. The result may itself contain
// nested aliases below further structure, but never directly at the
// top: alias-of-alias folds at construction.
func (t *Alias) InnerType() BaseType { return t.inner }

func (t *Alias) IsConst() bool { return t.inner.IsConst() }

func (t *Alias) String() string {
	var b strings.Builder
	b.WriteString("alias<")
	if len(t.names) == 1 {
		b.WriteString(t.names[0])
	} else {
		b.WriteString("[")
		b.WriteString(strings.Join(t.names, ", "))
		b.WriteString("]")
	}
	b.WriteString(", ")
	b.WriteString(t.inner.String())
	b.WriteString(">")
	return b.String()
}

func (t *Alias) isBaseType() {}

// ----------------------------------------------------------------------------
// Printing Helpers
// ----------------------------------------------------------------------------

func constPrefix(isConst bool) string {
	if isConst {
		return "const."
	}
	return ""
}

func intString(keyword string, width int32, isConst bool) string {
	s := constPrefix(isConst) + keyword
	if width >= 0 {
		s += "<" + strconv.Itoa(int(width)) + ">"
	}
	return s
}

// IsValidIdentifier reports whether name can be printed as a bare
// element name: a letter or underscore followed by letters, digits,
// underscores, or dollar signs.
func IsValidIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '$'):
		default:
			return false
		}
	}
	return true
}

func writeElementName(b *strings.Builder, name string) {
	if IsValidIdentifier(name) {
		b.WriteString(name)
		return
	}
	b.WriteString(strconv.Quote(name))
}

// unknownKind builds the panic message for a type kind reaching a
// switch that should have handled it. The kind set is closed, so this
// firing means a new kind was added without updating every algorithm.
func unknownKind(t Type) string {
	return "types: unknown type kind " + t.String()
}

// ----------------------------------------------------------------------------
// Interface Conformance
// ----------------------------------------------------------------------------

var (
	_ BaseType = (*Clock)(nil)
	_ BaseType = (*Reset)(nil)
	_ BaseType = (*AsyncReset)(nil)
	_ BaseType = (*SInt)(nil)
	_ BaseType = (*UInt)(nil)
	_ BaseType = (*Analog)(nil)
	_ BaseType = (*Bundle)(nil)
	_ BaseType = (*Vector)(nil)
	_ BaseType = (*Enum)(nil)
	_ BaseType = (*Alias)(nil)

	_ FieldIDType = (*OpenBundle)(nil)
	_ FieldIDType = (*OpenVector)(nil)
	_ FieldIDType = (*Ref)(nil)

	_ PropertyType = (*String)(nil)
	_ PropertyType = (*BigInt)(nil)
	_ PropertyType = (*List)(nil)
	_ PropertyType = (*Map)(nil)
)
