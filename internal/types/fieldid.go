package types

import "golang.org/x/exp/slices"

// Field IDs address nodes inside a type: the root is 0 and every
// descendant gets the next preorder number, so each element owns a
// contiguous ID range. For bundle<a: uint<8>, b: vector<uint<8>, 2>>
// the IDs are a=1, b=2, b[0]=3, b[1]=4 and MaxFieldID is 4. External
// consumers rely on this exact numbering as a stable cross-pass
// address, so it must never change.

// ----------------------------------------------------------------------------
// Ground Types and References
// ----------------------------------------------------------------------------

func groundSubType(t FieldIDType, fieldID uint64) (FieldIDType, uint64) {
	if fieldID != 0 {
		panic("types: field ID out of range for ground type")
	}
	return t, 0
}

func groundRootChild(fieldID uint64) (uint64, bool) {
	return fieldID, fieldID == 0
}

func (t *Clock) MaxFieldID() uint64 { return 0 }
func (t *Clock) SubTypeByFieldID(fieldID uint64) (FieldIDType, uint64) {
	return groundSubType(t, fieldID)
}
func (t *Clock) RootChildFieldID(fieldID uint64, index int) (uint64, bool) {
	return groundRootChild(fieldID)
}

func (t *Reset) MaxFieldID() uint64 { return 0 }
func (t *Reset) SubTypeByFieldID(fieldID uint64) (FieldIDType, uint64) {
	return groundSubType(t, fieldID)
}
func (t *Reset) RootChildFieldID(fieldID uint64, index int) (uint64, bool) {
	return groundRootChild(fieldID)
}

func (t *AsyncReset) MaxFieldID() uint64 { return 0 }
func (t *AsyncReset) SubTypeByFieldID(fieldID uint64) (FieldIDType, uint64) {
	return groundSubType(t, fieldID)
}
func (t *AsyncReset) RootChildFieldID(fieldID uint64, index int) (uint64, bool) {
	return groundRootChild(fieldID)
}

func (t *SInt) MaxFieldID() uint64 { return 0 }
func (t *SInt) SubTypeByFieldID(fieldID uint64) (FieldIDType, uint64) {
	return groundSubType(t, fieldID)
}
func (t *SInt) RootChildFieldID(fieldID uint64, index int) (uint64, bool) {
	return groundRootChild(fieldID)
}

func (t *UInt) MaxFieldID() uint64 { return 0 }
func (t *UInt) SubTypeByFieldID(fieldID uint64) (FieldIDType, uint64) {
	return groundSubType(t, fieldID)
}
func (t *UInt) RootChildFieldID(fieldID uint64, index int) (uint64, bool) {
	return groundRootChild(fieldID)
}

func (t *Analog) MaxFieldID() uint64 { return 0 }
func (t *Analog) SubTypeByFieldID(fieldID uint64) (FieldIDType, uint64) {
	return groundSubType(t, fieldID)
}
func (t *Analog) RootChildFieldID(fieldID uint64, index int) (uint64, bool) {
	return groundRootChild(fieldID)
}

// References are leaves: the probed structure is not addressable
// through the probe's field IDs.

func (t *Ref) MaxFieldID() uint64 { return 0 }
func (t *Ref) SubTypeByFieldID(fieldID uint64) (FieldIDType, uint64) {
	return groundSubType(t, fieldID)
}
func (t *Ref) RootChildFieldID(fieldID uint64, index int) (uint64, bool) {
	return groundRootChild(fieldID)
}

// ----------------------------------------------------------------------------
// Bundle
// ----------------------------------------------------------------------------

func (t *Bundle) MaxFieldID() uint64 { return t.maxID }

// FieldID returns the field ID of the element at index.
func (t *Bundle) FieldID(index int) uint64 { return t.fieldIDs[index] }

// IndexForFieldID returns the index of the element whose ID range
// contains fieldID. The ID must be in [1, MaxFieldID].
func (t *Bundle) IndexForFieldID(fieldID uint64) int {
	if fieldID == 0 || fieldID > t.maxID {
		panic("types: field ID out of range")
	}
	pos, found := slices.BinarySearch(t.fieldIDs, fieldID)
	if found {
		return pos
	}
	return pos - 1
}

// IndexAndSubfieldID splits fieldID into the containing element's index
// and the ID relative to that element.
func (t *Bundle) IndexAndSubfieldID(fieldID uint64) (int, uint64) {
	index := t.IndexForFieldID(fieldID)
	return index, fieldID - t.fieldIDs[index]
}

func (t *Bundle) SubTypeByFieldID(fieldID uint64) (FieldIDType, uint64) {
	if fieldID == 0 {
		return t, 0
	}
	index := t.IndexForFieldID(fieldID)
	return t.elements[index].Type, fieldID - t.fieldIDs[index]
}

func (t *Bundle) RootChildFieldID(fieldID uint64, index int) (uint64, bool) {
	childRoot := t.fieldIDs[index]
	rangeEnd := childRoot + t.elements[index].Type.MaxFieldID()
	return fieldID - childRoot, fieldID >= childRoot && fieldID <= rangeEnd
}

// ----------------------------------------------------------------------------
// Vector
// ----------------------------------------------------------------------------

func (t *Vector) MaxFieldID() uint64 {
	return uint64(t.length) * (t.elem.MaxFieldID() + 1)
}

// FieldID returns the field ID of the element at index.
func (t *Vector) FieldID(index int) uint64 {
	if index < 0 || index >= t.length {
		panic("types: vector index out of range")
	}
	return 1 + uint64(index)*(t.elem.MaxFieldID()+1)
}

// IndexForFieldID returns the index of the element whose ID range
// contains fieldID. The ID must be in [1, MaxFieldID].
func (t *Vector) IndexForFieldID(fieldID uint64) int {
	if fieldID == 0 || fieldID > t.MaxFieldID() {
		panic("types: field ID out of range")
	}
	return int((fieldID - 1) / (t.elem.MaxFieldID() + 1))
}

// IndexAndSubfieldID splits fieldID into the containing element's index
// and the ID relative to that element.
func (t *Vector) IndexAndSubfieldID(fieldID uint64) (int, uint64) {
	index := t.IndexForFieldID(fieldID)
	return index, fieldID - t.FieldID(index)
}

func (t *Vector) SubTypeByFieldID(fieldID uint64) (FieldIDType, uint64) {
	if fieldID == 0 {
		return t, 0
	}
	return t.elem, fieldID - t.FieldID(t.IndexForFieldID(fieldID))
}

func (t *Vector) RootChildFieldID(fieldID uint64, index int) (uint64, bool) {
	childRoot := t.FieldID(index)
	rangeEnd := childRoot + t.elem.MaxFieldID()
	return fieldID - childRoot, fieldID >= childRoot && fieldID <= rangeEnd
}

// ----------------------------------------------------------------------------
// Enum
// ----------------------------------------------------------------------------

func (t *Enum) MaxFieldID() uint64 { return t.maxID }

// FieldID returns the field ID of the variant at index.
func (t *Enum) FieldID(index int) uint64 { return t.fieldIDs[index] }

// IndexForFieldID returns the index of the variant whose ID range
// contains fieldID. The ID must be in [1, MaxFieldID].
func (t *Enum) IndexForFieldID(fieldID uint64) int {
	if fieldID == 0 || fieldID > t.maxID {
		panic("types: field ID out of range")
	}
	pos, found := slices.BinarySearch(t.fieldIDs, fieldID)
	if found {
		return pos
	}
	return pos - 1
}

// IndexAndSubfieldID splits fieldID into the containing variant's index
// and the ID relative to that variant.
func (t *Enum) IndexAndSubfieldID(fieldID uint64) (int, uint64) {
	index := t.IndexForFieldID(fieldID)
	return index, fieldID - t.fieldIDs[index]
}

func (t *Enum) SubTypeByFieldID(fieldID uint64) (FieldIDType, uint64) {
	if fieldID == 0 {
		return t, 0
	}
	index := t.IndexForFieldID(fieldID)
	return t.elements[index].Type, fieldID - t.fieldIDs[index]
}

func (t *Enum) RootChildFieldID(fieldID uint64, index int) (uint64, bool) {
	childRoot := t.fieldIDs[index]
	rangeEnd := childRoot + t.elements[index].Type.MaxFieldID()
	return fieldID - childRoot, fieldID >= childRoot && fieldID <= rangeEnd
}

// ----------------------------------------------------------------------------
// Open Aggregates
// ----------------------------------------------------------------------------

func (t *OpenBundle) MaxFieldID() uint64 { return t.maxID }

// FieldID returns the field ID of the element at index.
func (t *OpenBundle) FieldID(index int) uint64 { return t.fieldIDs[index] }

// IndexForFieldID returns the index of the element whose ID range
// contains fieldID. The ID must be in [1, MaxFieldID].
func (t *OpenBundle) IndexForFieldID(fieldID uint64) int {
	if fieldID == 0 || fieldID > t.maxID {
		panic("types: field ID out of range")
	}
	pos, found := slices.BinarySearch(t.fieldIDs, fieldID)
	if found {
		return pos
	}
	return pos - 1
}

// IndexAndSubfieldID splits fieldID into the containing element's index
// and the ID relative to that element.
func (t *OpenBundle) IndexAndSubfieldID(fieldID uint64) (int, uint64) {
	index := t.IndexForFieldID(fieldID)
	return index, fieldID - t.fieldIDs[index]
}

func (t *OpenBundle) SubTypeByFieldID(fieldID uint64) (FieldIDType, uint64) {
	if fieldID == 0 {
		return t, 0
	}
	index := t.IndexForFieldID(fieldID)
	return t.elements[index].Type.(FieldIDType), fieldID - t.fieldIDs[index]
}

func (t *OpenBundle) RootChildFieldID(fieldID uint64, index int) (uint64, bool) {
	childRoot := t.fieldIDs[index]
	rangeEnd := childRoot + t.elements[index].Type.(FieldIDType).MaxFieldID()
	return fieldID - childRoot, fieldID >= childRoot && fieldID <= rangeEnd
}

func (t *OpenVector) elemFieldID() FieldIDType { return t.elem.(FieldIDType) }

func (t *OpenVector) MaxFieldID() uint64 {
	return uint64(t.length) * (t.elemFieldID().MaxFieldID() + 1)
}

// FieldID returns the field ID of the element at index.
func (t *OpenVector) FieldID(index int) uint64 {
	if index < 0 || index >= t.length {
		panic("types: vector index out of range")
	}
	return 1 + uint64(index)*(t.elemFieldID().MaxFieldID()+1)
}

// IndexForFieldID returns the index of the element whose ID range
// contains fieldID. The ID must be in [1, MaxFieldID].
func (t *OpenVector) IndexForFieldID(fieldID uint64) int {
	if fieldID == 0 || fieldID > t.MaxFieldID() {
		panic("types: field ID out of range")
	}
	return int((fieldID - 1) / (t.elemFieldID().MaxFieldID() + 1))
}

// IndexAndSubfieldID splits fieldID into the containing element's index
// and the ID relative to that element.
func (t *OpenVector) IndexAndSubfieldID(fieldID uint64) (int, uint64) {
	index := t.IndexForFieldID(fieldID)
	return index, fieldID - t.FieldID(index)
}

func (t *OpenVector) SubTypeByFieldID(fieldID uint64) (FieldIDType, uint64) {
	if fieldID == 0 {
		return t, 0
	}
	return t.elemFieldID(), fieldID - t.FieldID(t.IndexForFieldID(fieldID))
}

func (t *OpenVector) RootChildFieldID(fieldID uint64, index int) (uint64, bool) {
	childRoot := t.FieldID(index)
	rangeEnd := childRoot + t.elemFieldID().MaxFieldID()
	return fieldID - childRoot, fieldID >= childRoot && fieldID <= rangeEnd
}

// ----------------------------------------------------------------------------
// Alias
// ----------------------------------------------------------------------------

// Aliases are invisible to field IDs: the wrapper shares the inner
// type's numbering.

func (t *Alias) MaxFieldID() uint64 { return t.inner.MaxFieldID() }

func (t *Alias) SubTypeByFieldID(fieldID uint64) (FieldIDType, uint64) {
	return t.inner.SubTypeByFieldID(fieldID)
}

func (t *Alias) RootChildFieldID(fieldID uint64, index int) (uint64, bool) {
	return t.inner.RootChildFieldID(fieldID, index)
}

// ----------------------------------------------------------------------------
// Traversal
// ----------------------------------------------------------------------------

// FinalTypeByFieldID resolves fieldID to the type it names, walking
// through as many aggregate levels as needed. ID 0 returns t itself.
func FinalTypeByFieldID(t FieldIDType, fieldID uint64) FieldIDType {
	for fieldID != 0 {
		t, fieldID = t.SubTypeByFieldID(fieldID)
	}
	return t
}
