package types

import "math/bits"

// BitWidthOrSentinel returns the bit width of a ground type: 1 for
// clock and the reset types, the declared width for integers and
// analog. It returns -1 for a ground type whose width is unknown and
// -2 for aggregates.
func BitWidthOrSentinel(t BaseType) int32 {
	switch t := t.(type) {
	case *Clock, *Reset, *AsyncReset:
		return 1
	case *SInt:
		return t.width
	case *UInt:
		return t.width
	case *Analog:
		return t.width
	case *Bundle, *Vector, *Enum:
		return -2
	case *Alias:
		return BitWidthOrSentinel(t.inner)
	default:
		panic(unknownKind(t))
	}
}

// BitWidth returns the total bit count of t, recursing through
// aggregates: bundles sum their fields, vectors multiply by length,
// enums take the widest variant plus tag bits. The bool is false when
// any reachable leaf width is unknown, when an analog leaf is hit, or
// when a flipped bundle field is hit. ignoreFlip tolerates flips in
// the outermost bundle only; nested flips always fail.
func BitWidth(t BaseType, ignoreFlip bool) (int64, bool) {
	switch t := t.(type) {
	case *Clock, *Reset, *AsyncReset:
		return 1, true
	case *SInt:
		if t.width < 0 {
			return 0, false
		}
		return int64(t.width), true
	case *UInt:
		if t.width < 0 {
			return 0, false
		}
		return int64(t.width), true
	case *Analog:
		return 0, false
	case *Bundle:
		var width int64
		for _, elt := range t.elements {
			if elt.Flip && !ignoreFlip {
				return 0, false
			}
			w, ok := BitWidth(elt.Type, false)
			if !ok {
				return 0, false
			}
			width += w
		}
		return width, true
	case *Vector:
		w, ok := BitWidth(t.elem, false)
		if !ok {
			return 0, false
		}
		return w * int64(t.length), true
	case *Enum:
		var width int64
		for _, elt := range t.elements {
			w, ok := BitWidth(elt.Type, false)
			if !ok {
				return 0, false
			}
			width = max(width, w)
		}
		return width + int64(tagBits(len(t.elements))), true
	case *Alias:
		return BitWidth(t.inner, ignoreFlip)
	default:
		panic(unknownKind(t))
	}
}

// tagBits is the number of discriminant bits for an enum of n
// variants.
func tagBits(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len32(uint32(n - 1))
}

// ----------------------------------------------------------------------------
// Predicates
// ----------------------------------------------------------------------------

// IsGround reports whether t is a ground type, looking through
// aliases.
func IsGround(t Type) bool {
	switch t := t.(type) {
	case *Clock, *Reset, *AsyncReset, *SInt, *UInt, *Analog:
		return true
	case *Alias:
		return IsGround(t.inner)
	default:
		return false
	}
}

// IsReset reports whether t can drive a reset: the reset types
// themselves, or an unsigned integer that is one bit wide or still
// uninferred.
func IsReset(t Type) bool {
	switch t := t.(type) {
	case *Reset, *AsyncReset:
		return true
	case *UInt:
		return !t.HasWidth() || t.width == 1
	case *Alias:
		return IsReset(t.inner)
	default:
		return false
	}
}

// IsRegister reports whether t can type a register: passive with no
// analog and no const anywhere.
func IsRegister(t BaseType) bool {
	p := t.Props()
	return p.IsPassive && !p.ContainsAnalog && !p.ContainsConst
}
