package types

// The connection-legality relations below are directional: dest is the
// driven side and src the driving side. All of them look through alias
// wrappers and none of them allocates except through the store, so
// they are safe to run concurrently over an already-built type
// universe.

// ----------------------------------------------------------------------------
// Equivalence
// ----------------------------------------------------------------------------

// Equivalent reports whether a value of type src may legally drive a
// value of type dest. Bundles must match field-for-field with flipped
// fields checked in the reverse direction, const destinations demand
// const sources, abstract resets accept any reset type, and integer
// widths are not required to match. The relation is reflexive but not
// symmetric.
func Equivalent(dest, src Type) bool {
	return typesEquivalent(dest, src, false, false, false)
}

// EquivalentStrict is Equivalent with width laxness turned off: known
// widths must agree exactly. Widths that are still unknown on one side
// remain compatible with anything.
func EquivalentStrict(dest, src Type) bool {
	return typesEquivalent(dest, src, false, false, true)
}

func typesEquivalent(dest, src Type, destConst, srcConst, sameWidths bool) bool {
	db, dok := dest.(BaseType)
	sb, sok := src.(BaseType)

	// Non-base types are equivalent only to themselves.
	if !dok || !sok {
		return dest == src
	}

	destConst = destConst || db.IsConst()
	srcConst = srcConst || sb.IsConst()

	dv, dvok := As[*Vector](db)
	sv, svok := As[*Vector](sb)
	if dvok && svok {
		return dv.length == sv.length &&
			typesEquivalent(dv.elem, sv.elem, destConst, srcConst, sameWidths)
	}

	dbu, dbok := As[*Bundle](db)
	sbu, sbok := As[*Bundle](sb)
	if dbok && sbok {
		if len(dbu.elements) != len(sbu.elements) {
			return false
		}
		for i := range dbu.elements {
			if !bundleElementsEquivalent(dbu.elements[i], sbu.elements[i], destConst, srcConst, sameWidths) {
				return false
			}
		}
		return true
	}

	// Enum variants must match exactly, width included: a narrower
	// variant would change the position of the tag bits.
	de, deok := As[*Enum](db)
	se, seok := As[*Enum](sb)
	if deok && seok {
		if len(de.elements) != len(se.elements) {
			return false
		}
		for i := range de.elements {
			if de.elements[i].Name != se.elements[i].Name {
				return false
			}
			if !typesEquivalent(de.elements[i].Type, se.elements[i].Type, destConst, srcConst, true) {
				return false
			}
		}
		return true
	}

	// A const destination cannot be driven by a non-const source.
	if destConst && !srcConst {
		return false
	}

	// Abstract reset accepts and drives any reset type.
	if Is[*Reset](db) {
		return IsReset(sb)
	}
	if Is[*Reset](sb) {
		return IsReset(db)
	}

	// Unless exact widths are demanded, or one side has no width to
	// compare, drop widths before the identity check.
	if !sameWidths || BitWidthOrSentinel(db) == -1 {
		sb = Widthless(sb)
	}
	if !sameWidths || BitWidthOrSentinel(sb) == -1 {
		db = Widthless(db)
	}

	return WithConst(Anonymous(db), false) == WithConst(Anonymous(sb), false)
}

// bundleElementsEquivalent checks one field pair. A flipped field
// reverses the connection direction, so dest and src swap, const
// context included.
func bundleElementsEquivalent(destElt, srcElt BundleElement, destConst, srcConst, sameWidths bool) bool {
	if destElt.Name != srcElt.Name {
		return false
	}
	if destElt.Flip != srcElt.Flip {
		return false
	}

	if destElt.Flip {
		destElt, srcElt = srcElt, destElt
		destConst, srcConst = srcConst, destConst
	}

	return typesEquivalent(destElt.Type, srcElt.Type, destConst, srcConst, sameWidths)
}

// ----------------------------------------------------------------------------
// Weak Equivalence
// ----------------------------------------------------------------------------

// WeaklyEquivalent reports whether dest and src are compatible under
// the legacy partial-connect rules: vector lengths are ignored, bundle
// fields present on only one side are ignored, and orientation
// accumulates across nesting by XOR of the flip flags.
func WeaklyEquivalent(dest, src Type) bool {
	return weaklyEquivalent(dest, src, false, false, false, false)
}

func weaklyEquivalent(dest, src Type, destFlip, srcFlip, destConst, srcConst bool) bool {
	db, dok := dest.(BaseType)
	sb, sok := src.(BaseType)
	if !dok || !sok {
		return dest == src
	}

	foldedDestConst := destConst || db.IsConst()
	foldedSrcConst := srcConst || sb.IsConst()

	// Vector sizes do not matter, only the elements.
	dv, dvok := As[*Vector](db)
	sv, svok := As[*Vector](sb)
	if dvok && svok {
		return weaklyEquivalent(dv.elem, sv.elem, destFlip, srcFlip, foldedDestConst, foldedSrcConst)
	}

	// Every field shared by both bundles must be weakly equivalent; a
	// field missing on the source side is fine.
	dbu, dbok := As[*Bundle](db)
	sbu, sbok := As[*Bundle](sb)
	if dbok && sbok {
		for _, destElt := range dbu.elements {
			srcElt, ok := sbu.ElementByName(destElt.Name)
			if !ok {
				continue
			}
			if !weaklyEquivalent(destElt.Type, srcElt.Type,
				destFlip != destElt.Flip, srcFlip != srcElt.Flip,
				destConst, srcConst) {
				return false
			}
		}
		return true
	}

	// Leaves must agree on accumulated orientation. A flipped leaf
	// carries data the other way, so the const requirement reverses
	// with it.
	if destFlip != srcFlip {
		return false
	}
	if destFlip && foldedSrcConst && !foldedDestConst {
		return false
	}
	if srcFlip && foldedDestConst && !foldedSrcConst {
		return false
	}

	if Is[*Reset](db) {
		return IsReset(sb)
	}
	if Is[*Reset](sb) {
		return IsReset(db)
	}

	return Anonymous(WithConst(Widthless(db), false)) == Anonymous(WithConst(Widthless(sb), false))
}

// ----------------------------------------------------------------------------
// Const Casting
// ----------------------------------------------------------------------------

// ConstCastable reports whether a value of type src may be implicitly
// cast to type dest: identical passive structure where every dest node
// is at most as const as the corresponding src node. Dropping const is
// free, adding it is not.
func ConstCastable(dest, src Type) bool {
	return constCastable(dest, src, false)
}

func constCastable(dest, src Type, srcOuterConst bool) bool {
	// Identical types always cast.
	if dest == src {
		return true
	}

	db, dok := dest.(BaseType)
	sb, sok := src.(BaseType)
	if !dok || !sok {
		return false
	}

	if !db.Props().IsPassive || !sb.Props().IsPassive {
		return false
	}

	srcConst := sb.IsConst() || srcOuterConst

	// Cannot cast a non-const source to a const destination.
	if db.IsConst() && !srcConst {
		return false
	}

	dv, dvok := As[*Vector](db)
	sv, svok := As[*Vector](sb)
	if dvok && svok {
		return dv.length == sv.length && constCastable(dv.elem, sv.elem, srcConst)
	}
	if dvok != svok {
		return false
	}

	dbu, dbok := As[*Bundle](db)
	sbu, sbok := As[*Bundle](sb)
	if dbok && sbok {
		if len(dbu.elements) != len(sbu.elements) {
			return false
		}
		for i := range dbu.elements {
			if dbu.elements[i].Name != sbu.elements[i].Name {
				return false
			}
			if !constCastable(dbu.elements[i].Type, sbu.elements[i].Type, srcConst) {
				return false
			}
		}
		return true
	}
	if dbok != sbok {
		return false
	}

	// Ground leaves: src must be exactly dest up to the const flag.
	return Anonymous(db) == WithConst(Anonymous(sb), db.IsConst())
}

// ----------------------------------------------------------------------------
// Reference Casting
// ----------------------------------------------------------------------------

// RefCastable reports whether a probe of type src may be cast to a
// probe of type dest: same target structure forgiving const and
// unknown widths, never adding forceability.
func RefCastable(dest, src Type) bool {
	dr, dok := dest.(*Ref)
	sr, sok := src.(*Ref)
	if !dok || !sok {
		return false
	}
	if dr == sr {
		return true
	}
	if dr.forceable && !sr.forceable {
		return false
	}
	return refCastable(dr.target, sr.target, false)
}

func refCastable(dest, src BaseType, srcOuterConst bool) bool {
	if dest == src {
		return true
	}

	// Probe targets are passive by construction, so only const needs
	// folding on the way down.
	srcConst := src.IsConst() || srcOuterConst
	if dest.IsConst() && !srcConst {
		return false
	}

	if dv, ok := As[*Vector](dest); ok {
		sv, ok := As[*Vector](src)
		return ok && dv.length == sv.length && refCastable(dv.elem, sv.elem, srcConst)
	}
	if dbu, ok := As[*Bundle](dest); ok {
		sbu, ok := As[*Bundle](src)
		if !ok {
			return false
		}
		if len(dbu.elements) != len(sbu.elements) {
			return false
		}
		for i := range dbu.elements {
			if dbu.elements[i].Name != sbu.elements[i].Name {
				return false
			}
			if !refCastable(dbu.elements[i].Type, sbu.elements[i].Type, srcConst) {
				return false
			}
		}
		return true
	}
	if de, ok := As[*Enum](dest); ok {
		se, ok := As[*Enum](src)
		if !ok {
			return false
		}
		if len(de.elements) != len(se.elements) {
			return false
		}
		for i := range de.elements {
			if de.elements[i].Name != se.elements[i].Name {
				return false
			}
			if !refCastable(de.elements[i].Type, se.elements[i].Type, srcConst) {
				return false
			}
		}
		return true
	}

	// A probe of an abstract reset accepts any reset type. The reverse
	// does not hold: forcing through the wider probe could write an
	// illegal value.
	if Is[*Reset](dest) {
		return IsReset(src)
	}

	src = WithConst(src, dest.IsConst())
	if BitWidthOrSentinel(dest) == -1 {
		src = Widthless(src)
	}
	return Anonymous(dest) == Anonymous(src)
}

// ----------------------------------------------------------------------------
// Width Ordering
// ----------------------------------------------------------------------------

// IsLarger reports whether every leaf of dest is at least as wide as
// the corresponding leaf of src, with flipped fields checked in the
// reverse direction. The two types must already be equivalent
// non-analog types; unknown widths fit into and hold anything.
func IsLarger(dest, src BaseType) bool {
	if dbu, ok := As[*Bundle](dest); ok {
		sbu := MustAs[*Bundle](src)
		for i := range dbu.elements {
			destElt := dbu.elements[i]
			srcElt := sbu.elements[i]
			if destElt.Flip {
				if !IsLarger(srcElt.Type, destElt.Type) {
					return false
				}
			} else if !IsLarger(destElt.Type, srcElt.Type) {
				return false
			}
		}
		return true
	}
	if dv, ok := As[*Vector](dest); ok {
		return IsLarger(dv.elem, MustAs[*Vector](src).elem)
	}
	destWidth := BitWidthOrSentinel(Passive(dest))
	srcWidth := BitWidthOrSentinel(Passive(src))
	return destWidth <= -1 || srcWidth <= -1 || destWidth >= srcWidth
}
