package types

// The transformers below are total over base types and structural:
// they rebuild the smallest set of nodes needed and reuse interned
// children everywhere else. An alias wrapper survives a transform only
// if the wrapped type comes back unchanged; a changed inner type drops
// the name, since the result no longer is the named type.

// aliasModified applies that rule: t keeps its identity when inner is
// untouched, otherwise the bare transformed type wins.
func aliasModified(t *Alias, inner BaseType) BaseType {
	if inner == t.inner {
		return t
	}
	return inner
}

// ----------------------------------------------------------------------------
// Passive
// ----------------------------------------------------------------------------

// Passive returns t with every flip removed, recursively. Passive
// inputs come back unchanged.
func Passive(t BaseType) BaseType {
	if t.Props().IsPassive {
		return t
	}
	switch t := t.(type) {
	case *Bundle:
		return t.passiveType()
	case *Vector:
		return t.passiveType()
	case *Alias:
		return aliasModified(t, Passive(t.inner))
	default:
		// Grounds and enums are passive by construction and took the
		// fast path above.
		panic(unknownKind(t))
	}
}

func (t *Bundle) passiveType() *Bundle {
	if p := t.passive.Load(); p != nil {
		return p
	}
	elements := make([]BundleElement, len(t.elements))
	for i, elt := range t.elements {
		elements[i] = BundleElement{Name: elt.Name, Flip: false, Type: Passive(elt.Type)}
	}
	p := storeOf(t).Bundle(elements, t.isConst)
	t.passive.Store(p)
	return p
}

func (t *Vector) passiveType() *Vector {
	if p := t.passive.Load(); p != nil {
		return p
	}
	p := Must(storeOf(t).Vector(Passive(t.elem), t.length, t.isConst))
	t.passive.Store(p)
	return p
}

// ----------------------------------------------------------------------------
// Anonymous
// ----------------------------------------------------------------------------

// Anonymous returns t with every alias wrapper removed, recursively.
// Flips, widths, and const flags are untouched.
func Anonymous(t BaseType) BaseType {
	if !t.Props().ContainsTypeAlias {
		return t
	}
	switch t := t.(type) {
	case *Alias:
		return Anonymous(t.inner)
	case *Bundle:
		return t.anonymousType()
	case *Vector:
		return t.anonymousType()
	case *Enum:
		return t.anonymousType()
	default:
		panic(unknownKind(t))
	}
}

func (t *Bundle) anonymousType() *Bundle {
	if a := t.anonymous.Load(); a != nil {
		return a
	}
	elements := make([]BundleElement, len(t.elements))
	for i, elt := range t.elements {
		elements[i] = BundleElement{Name: elt.Name, Flip: elt.Flip, Type: Anonymous(elt.Type)}
	}
	a := storeOf(t).Bundle(elements, t.isConst)
	t.anonymous.Store(a)
	return a
}

func (t *Vector) anonymousType() *Vector {
	if a := t.anonymous.Load(); a != nil {
		return a
	}
	a := Must(storeOf(t).Vector(Anonymous(t.elem), t.length, t.isConst))
	t.anonymous.Store(a)
	return a
}

func (t *Enum) anonymousType() *Enum {
	if a := t.anonymous.Load(); a != nil {
		return a
	}
	elements := make([]EnumElement, len(t.elements))
	for i, elt := range t.elements {
		elements[i] = EnumElement{Name: elt.Name, Type: Anonymous(elt.Type)}
	}
	a := Must(storeOf(t).Enum(elements, t.isConst))
	t.anonymous.Store(a)
	return a
}

// ----------------------------------------------------------------------------
// Const
// ----------------------------------------------------------------------------

// WithConst returns t with its outermost const flag set to isConst.
// Children keep their own flags. Clearing the flag on an enum whose
// variants are const panics: that combination cannot be represented.
func WithConst(t BaseType, isConst bool) BaseType {
	if t.IsConst() == isConst {
		return t
	}
	switch t := t.(type) {
	case *Clock:
		return storeOf(t).Clock(isConst)
	case *Reset:
		return storeOf(t).Reset(isConst)
	case *AsyncReset:
		return storeOf(t).AsyncReset(isConst)
	case *SInt:
		return Must(storeOf(t).SInt(t.width, isConst))
	case *UInt:
		return Must(storeOf(t).UInt(t.width, isConst))
	case *Analog:
		return Must(storeOf(t).Analog(t.width, isConst))
	case *Bundle:
		return storeOf(t).Bundle(t.elements, isConst)
	case *Vector:
		return Must(storeOf(t).Vector(t.elem, t.length, isConst))
	case *Enum:
		return Must(storeOf(t).Enum(t.elements, isConst))
	case *Alias:
		return aliasModified(t, WithConst(t.inner, isConst))
	default:
		panic(unknownKind(t))
	}
}

// ElementTypePreservingConst returns the field type at index with the
// bundle's own const propagated onto it, the type a subfield access
// produces.
func (t *Bundle) ElementTypePreservingConst(index int) BaseType {
	elt := t.elements[index].Type
	return WithConst(elt, elt.IsConst() || t.isConst)
}

// ElementTypePreservingConst returns the element type with the
// vector's own const propagated onto it.
func (t *Vector) ElementTypePreservingConst() BaseType {
	return WithConst(t.elem, t.elem.IsConst() || t.isConst)
}

// ElementTypePreservingConst returns the variant type at index with
// the enum's own const propagated onto it.
func (t *Enum) ElementTypePreservingConst(index int) BaseType {
	elt := t.elements[index].Type
	return WithConst(elt, elt.IsConst() || t.isConst)
}

// ElementTypePreservingConst returns the field type at index with the
// open bundle's own const propagated onto it. References pass through
// unchanged: they have no const flag of their own.
func (t *OpenBundle) ElementTypePreservingConst(index int) Type {
	return openConst(t.elements[index].Type, t.isConst)
}

// ElementTypePreservingConst returns the element type with the open
// vector's own const propagated onto it.
func (t *OpenVector) ElementTypePreservingConst() Type {
	return openConst(t.elem, t.isConst)
}

func openConst(elt Type, parentConst bool) Type {
	switch e := elt.(type) {
	case BaseType:
		return WithConst(e, e.IsConst() || parentConst)
	case *OpenBundle:
		return e.withConst(e.isConst || parentConst)
	case *OpenVector:
		return e.withConst(e.isConst || parentConst)
	default:
		return elt
	}
}

func (t *OpenBundle) withConst(isConst bool) *OpenBundle {
	if isConst == t.isConst {
		return t
	}
	return Must(storeOf(t).OpenBundle(t.elements, isConst))
}

func (t *OpenVector) withConst(isConst bool) *OpenVector {
	if isConst == t.isConst {
		return t
	}
	return Must(storeOf(t).OpenVector(t.elem, t.length, isConst))
}

// DropConst returns t with every const qualifier removed, recursively.
func DropConst(t BaseType) BaseType {
	if !t.Props().ContainsConst {
		return t
	}
	switch t := t.(type) {
	case *Clock, *Reset, *AsyncReset, *SInt, *UInt, *Analog:
		return WithConst(t, false)
	case *Bundle:
		elements := make([]BundleElement, len(t.elements))
		for i, elt := range t.elements {
			elements[i] = BundleElement{Name: elt.Name, Flip: elt.Flip, Type: DropConst(elt.Type)}
		}
		return storeOf(t).Bundle(elements, false)
	case *Vector:
		return Must(storeOf(t).Vector(DropConst(t.elem), t.length, false))
	case *Enum:
		elements := make([]EnumElement, len(t.elements))
		for i, elt := range t.elements {
			elements[i] = EnumElement{Name: elt.Name, Type: DropConst(elt.Type)}
		}
		return Must(storeOf(t).Enum(elements, false))
	case *Alias:
		return aliasModified(t, DropConst(t.inner))
	default:
		panic(unknownKind(t))
	}
}

// ----------------------------------------------------------------------------
// Widthless
// ----------------------------------------------------------------------------

// Widthless returns t with every integer and analog width reset to
// WidthUnknown. Shape, flips, and const flags are preserved.
func Widthless(t BaseType) BaseType {
	switch t := t.(type) {
	case *Clock, *Reset, *AsyncReset:
		return t
	case *SInt:
		return Must(storeOf(t).SInt(WidthUnknown, t.isConst))
	case *UInt:
		return Must(storeOf(t).UInt(WidthUnknown, t.isConst))
	case *Analog:
		return Must(storeOf(t).Analog(WidthUnknown, t.isConst))
	case *Bundle:
		elements := make([]BundleElement, len(t.elements))
		for i, elt := range t.elements {
			elements[i] = BundleElement{Name: elt.Name, Flip: elt.Flip, Type: Widthless(elt.Type)}
		}
		return storeOf(t).Bundle(elements, t.isConst)
	case *Vector:
		return Must(storeOf(t).Vector(Widthless(t.elem), t.length, t.isConst))
	case *Enum:
		elements := make([]EnumElement, len(t.elements))
		for i, elt := range t.elements {
			elements[i] = EnumElement{Name: elt.Name, Type: Widthless(elt.Type)}
		}
		return Must(storeOf(t).Enum(elements, t.isConst))
	case *Alias:
		return aliasModified(t, Widthless(t.inner))
	default:
		panic(unknownKind(t))
	}
}

// ----------------------------------------------------------------------------
// Mask
// ----------------------------------------------------------------------------

// Mask returns the write-mask shape of t: the same structure with
// every leaf replaced by a one-bit unsigned integer. Memory lowering
// types per-field write enables with it. Enums mask as a single leaf
// since their variants overlay the same bits.
func Mask(t BaseType) BaseType {
	switch t := t.(type) {
	case *Clock, *Reset, *AsyncReset, *SInt, *UInt, *Analog:
		return Must(storeOf(t).UInt(1, t.IsConst()))
	case *Bundle:
		elements := make([]BundleElement, len(t.elements))
		for i, elt := range t.elements {
			elements[i] = BundleElement{Name: elt.Name, Flip: elt.Flip, Type: Mask(elt.Type)}
		}
		return storeOf(t).Bundle(elements, t.isConst)
	case *Vector:
		return Must(storeOf(t).Vector(Mask(t.elem), t.length, t.isConst))
	case *Enum:
		return Must(storeOf(t).UInt(1, t.isConst))
	case *Alias:
		return aliasModified(t, Mask(t.inner))
	default:
		panic(unknownKind(t))
	}
}
