package types

import (
	"strconv"
	"strings"
	"sync"

	"fortio.org/safecast"
	"github.com/pkg/errors"
)

// Store interns types. Structurally identical types built through the
// same store share one instance, so pointer comparison is structural
// equality. A store is safe for concurrent use; construction serializes
// on an internal lock while reads of already-built types are lock-free.
type Store struct {
	mu    sync.Mutex
	index map[string]Type
	all   []Type
}

// NewStore returns an empty store pre-seeded with the handful of types
// nearly every client touches.
func NewStore() *Store {
	s := &Store{index: make(map[string]Type)}
	s.Clock(false)
	s.Reset(false)
	s.AsyncReset(false)
	Must(s.UInt(WidthUnknown, false))
	Must(s.UInt(1, false))
	Must(s.SInt(WidthUnknown, false))
	return s
}

// Must unwraps a constructor result, panicking on error. Use it for
// types known to be well formed.
func Must[T Type](t T, err error) T {
	if err != nil {
		panic(err)
	}
	return t
}

// Len returns the number of distinct types interned so far.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.all)
}

// Types returns a snapshot of every interned type in creation order.
func (s *Store) Types() []Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Type(nil), s.all...)
}

// intern returns the registered type for key, building and registering
// it first if absent. Children referenced by key must already be
// interned: build must not touch the store.
func (s *Store) intern(key string, props RecursiveProperties, build func(tb typeBase) Type) Type {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.index[key]; ok {
		return t
	}
	id, err := safecast.Conv[uint32](len(s.all))
	if err != nil {
		panic("types: store is full")
	}
	t := build(typeBase{store: s, id: id, props: props})
	s.index[key] = t
	s.all = append(s.all, t)
	return t
}

// ----------------------------------------------------------------------------
// Ground Type Constructors
// ----------------------------------------------------------------------------

// Clock returns the clock type.
func (s *Store) Clock(isConst bool) *Clock {
	props := RecursiveProperties{IsPassive: true, ContainsConst: isConst}
	t := s.intern("clock:"+boolKey(isConst), props, func(tb typeBase) Type {
		return &Clock{typeBase: tb, isConst: isConst}
	})
	return t.(*Clock)
}

// Reset returns the abstract reset type.
func (s *Store) Reset(isConst bool) *Reset {
	props := RecursiveProperties{IsPassive: true, ContainsConst: isConst, HasUninferredReset: true}
	t := s.intern("reset:"+boolKey(isConst), props, func(tb typeBase) Type {
		return &Reset{typeBase: tb, isConst: isConst}
	})
	return t.(*Reset)
}

// AsyncReset returns the asynchronous reset type.
func (s *Store) AsyncReset(isConst bool) *AsyncReset {
	props := RecursiveProperties{IsPassive: true, ContainsConst: isConst}
	t := s.intern("asyncreset:"+boolKey(isConst), props, func(tb typeBase) Type {
		return &AsyncReset{typeBase: tb, isConst: isConst}
	})
	return t.(*AsyncReset)
}

// SInt returns the signed integer type of the given width. Pass
// WidthUnknown for an uninferred width.
func (s *Store) SInt(width int32, isConst bool) (*SInt, error) {
	if width < WidthUnknown {
		return nil, errors.Errorf("invalid width %d", width)
	}
	props := groundIntProps(width, isConst)
	t := s.intern("sint:"+boolKey(isConst)+":"+widthKey(width), props, func(tb typeBase) Type {
		return &SInt{typeBase: tb, width: width, isConst: isConst}
	})
	return t.(*SInt), nil
}

// UInt returns the unsigned integer type of the given width.
func (s *Store) UInt(width int32, isConst bool) (*UInt, error) {
	if width < WidthUnknown {
		return nil, errors.Errorf("invalid width %d", width)
	}
	props := groundIntProps(width, isConst)
	t := s.intern("uint:"+boolKey(isConst)+":"+widthKey(width), props, func(tb typeBase) Type {
		return &UInt{typeBase: tb, width: width, isConst: isConst}
	})
	return t.(*UInt), nil
}

// Analog returns the analog type of the given width.
func (s *Store) Analog(width int32, isConst bool) (*Analog, error) {
	if width < WidthUnknown {
		return nil, errors.Errorf("invalid width %d", width)
	}
	props := groundIntProps(width, isConst)
	props.ContainsAnalog = true
	t := s.intern("analog:"+boolKey(isConst)+":"+widthKey(width), props, func(tb typeBase) Type {
		return &Analog{typeBase: tb, width: width, isConst: isConst}
	})
	return t.(*Analog), nil
}

func groundIntProps(width int32, isConst bool) RecursiveProperties {
	return RecursiveProperties{
		IsPassive:          true,
		ContainsConst:      isConst,
		HasUninferredWidth: width < 0,
	}
}

// ----------------------------------------------------------------------------
// Aggregate Constructors
// ----------------------------------------------------------------------------

// Bundle returns the bundle with the given fields. The elements slice
// is copied.
func (s *Store) Bundle(elements []BundleElement, isConst bool) *Bundle {
	elements = append([]BundleElement(nil), elements...)
	props := RecursiveProperties{IsPassive: true, ContainsConst: isConst}
	fieldIDs := make([]uint64, len(elements))
	id := uint64(0)
	var key strings.Builder
	key.WriteString("bundle:")
	key.WriteString(boolKey(isConst))
	for i, elt := range elements {
		props = mergeProps(props, elt.Type.Props())
		if elt.Flip {
			props.IsPassive = false
		}
		id++
		fieldIDs[i] = id
		id += elt.Type.MaxFieldID()
		writeElementKey(&key, elt.Name, elt.Flip, elt.Type)
	}
	t := s.intern(key.String(), props, func(tb typeBase) Type {
		return &Bundle{typeBase: tb, elements: elements, fieldIDs: fieldIDs, maxID: id, isConst: isConst}
	})
	return t.(*Bundle)
}

// Vector returns the vector of length elements of type elem.
func (s *Store) Vector(elem BaseType, length int, isConst bool) (*Vector, error) {
	if length < 0 {
		return nil, errors.Errorf("invalid vector length %d", length)
	}
	props := elem.Props()
	props.ContainsConst = props.ContainsConst || isConst
	key := "vector:" + boolKey(isConst) + ":" + idKey(elem) + ":" + strconv.Itoa(length)
	t := s.intern(key, props, func(tb typeBase) Type {
		return &Vector{typeBase: tb, elem: elem, length: length, isConst: isConst}
	})
	return t.(*Vector), nil
}

// Enum returns the enumeration with the given variants. Variants must
// be passive, must not contain analog, and may be const only if the
// enum itself is const. The elements slice is copied.
func (s *Store) Enum(elements []EnumElement, isConst bool) (*Enum, error) {
	elements = append([]EnumElement(nil), elements...)
	props := RecursiveProperties{IsPassive: true, ContainsConst: isConst}
	fieldIDs := make([]uint64, len(elements))
	id := uint64(0)
	var key strings.Builder
	key.WriteString("enum:")
	key.WriteString(boolKey(isConst))
	for i, elt := range elements {
		r := elt.Type.Props()
		if !r.IsPassive {
			return nil, errors.Errorf("enum field %q not passive", elt.Name)
		}
		if r.ContainsAnalog {
			return nil, errors.Errorf("enum field %q contains analog", elt.Name)
		}
		if r.ContainsConst && !isConst {
			return nil, errors.New("enum with 'const' elements must be 'const'")
		}
		props = mergeProps(props, r)
		id++
		fieldIDs[i] = id
		id += elt.Type.MaxFieldID()
		writeElementKey(&key, elt.Name, false, elt.Type)
	}
	t := s.intern(key.String(), props, func(tb typeBase) Type {
		return &Enum{typeBase: tb, elements: elements, fieldIDs: fieldIDs, maxID: id, isConst: isConst}
	})
	return t.(*Enum), nil
}

// ----------------------------------------------------------------------------
// Open Aggregate Constructors
// ----------------------------------------------------------------------------

// OpenBundle returns the open bundle with the given fields. Every
// element type must support field IDs, and a const open bundle must
// not contain references. The elements slice is copied.
func (s *Store) OpenBundle(elements []OpenBundleElement, isConst bool) (*OpenBundle, error) {
	elements = append([]OpenBundleElement(nil), elements...)
	props := RecursiveProperties{IsPassive: true, ContainsConst: isConst}
	fieldIDs := make([]uint64, len(elements))
	id := uint64(0)
	var key strings.Builder
	key.WriteString("openbundle:")
	key.WriteString(boolKey(isConst))
	for i, elt := range elements {
		ft, ok := elt.Type.(FieldIDType)
		if !ok {
			return nil, errors.Errorf("bundle element %s has unsupported type that does not support fieldID's: %s", elt.Name, elt.Type)
		}
		r := elt.Type.Props()
		if r.ContainsReference && isConst {
			return nil, errors.Errorf("'const' bundle cannot have references, but element %s has type %s", elt.Name, elt.Type)
		}
		props = mergeProps(props, r)
		if elt.Flip {
			props.IsPassive = false
		}
		id++
		fieldIDs[i] = id
		id += ft.MaxFieldID()
		writeElementKey(&key, elt.Name, elt.Flip, elt.Type)
	}
	t := s.intern(key.String(), props, func(tb typeBase) Type {
		return &OpenBundle{typeBase: tb, elements: elements, fieldIDs: fieldIDs, maxID: id, isConst: isConst}
	})
	return t.(*OpenBundle), nil
}

// OpenVector returns the open vector of length elements of type elem.
func (s *Store) OpenVector(elem Type, length int, isConst bool) (*OpenVector, error) {
	if length < 0 {
		return nil, errors.Errorf("invalid vector length %d", length)
	}
	if _, ok := elem.(FieldIDType); !ok {
		return nil, errors.Errorf("vector element type does not support fieldID's, type: %s", elem)
	}
	props := elem.Props()
	if props.ContainsReference && isConst {
		return nil, errors.New("vector cannot be const with references")
	}
	props.ContainsConst = props.ContainsConst || isConst
	key := "openvector:" + boolKey(isConst) + ":" + idKey(elem) + ":" + strconv.Itoa(length)
	t := s.intern(key, props, func(tb typeBase) Type {
		return &OpenVector{typeBase: tb, elem: elem, length: length, isConst: isConst}
	})
	return t.(*OpenVector), nil
}

// ----------------------------------------------------------------------------
// Reference Constructor
// ----------------------------------------------------------------------------

// Ref returns the probe of target. The target must be passive, and a
// forceable probe must not contain const anywhere.
func (s *Store) Ref(target BaseType, forceable bool) (*Ref, error) {
	r := target.Props()
	if !r.IsPassive {
		return nil, errors.New("reference base type must be passive")
	}
	if forceable && r.ContainsConst {
		return nil, errors.New("forceable reference base type cannot contain const")
	}
	r.IsPassive = false
	r.ContainsReference = true
	key := "ref:" + boolKey(forceable) + ":" + idKey(target)
	t := s.intern(key, r, func(tb typeBase) Type {
		return &Ref{typeBase: tb, target: target, forceable: forceable}
	})
	return t.(*Ref), nil
}

// ----------------------------------------------------------------------------
// Property Constructors
// ----------------------------------------------------------------------------

var propertyProps = RecursiveProperties{IsPassive: true}

// PropertyString returns the string property type.
func (s *Store) PropertyString() *String {
	t := s.intern("string", propertyProps, func(tb typeBase) Type {
		return &String{typeBase: tb}
	})
	return t.(*String)
}

// PropertyBigInt returns the arbitrary-precision integer property type.
func (s *Store) PropertyBigInt() *BigInt {
	t := s.intern("bigint", propertyProps, func(tb typeBase) Type {
		return &BigInt{typeBase: tb}
	})
	return t.(*BigInt)
}

// List returns the list property type over elem.
func (s *Store) List(elem PropertyType) *List {
	t := s.intern("list:"+idKey(elem), propertyProps, func(tb typeBase) Type {
		return &List{typeBase: tb, elem: elem}
	})
	return t.(*List)
}

// Map returns the map property type from key to value.
func (s *Store) Map(key, value PropertyType) *Map {
	t := s.intern("map:"+idKey(key)+":"+idKey(value), propertyProps, func(tb typeBase) Type {
		return &Map{typeBase: tb, key: key, value: value}
	})
	return t.(*Map)
}

// ----------------------------------------------------------------------------
// Alias Constructor
// ----------------------------------------------------------------------------

// Alias returns inner wrapped under the given names, outermost first.
// Aliasing an alias folds the name stacks into a single wrapper. The
// names slice is copied.
func (s *Store) Alias(names []string, inner BaseType) (*Alias, error) {
	if len(names) == 0 {
		return nil, errors.New("alias requires at least one name")
	}
	for _, name := range names {
		if !IsValidIdentifier(name) {
			return nil, errors.Errorf("invalid alias name %q", name)
		}
	}
	names = append([]string(nil), names...)
	if a, ok := inner.(*Alias); ok {
		names = append(names, a.names...)
		inner = a.inner
	}
	props := inner.Props()
	props.ContainsTypeAlias = true
	var key strings.Builder
	key.WriteString("alias:")
	for _, name := range names {
		key.WriteString(strconv.Itoa(len(name)))
		key.WriteString(":")
		key.WriteString(name)
		key.WriteString(":")
	}
	key.WriteString(idKey(inner))
	t := s.intern(key.String(), props, func(tb typeBase) Type {
		return &Alias{typeBase: tb, names: names, inner: inner}
	})
	return t.(*Alias), nil
}

// ----------------------------------------------------------------------------
// Key Helpers
// ----------------------------------------------------------------------------

// Keys name a type's kind and parameters; children appear as their
// interned IDs, so hashing is O(children) rather than O(subtree).

func boolKey(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func widthKey(width int32) string {
	return strconv.FormatInt(int64(width), 10)
}

func idKey(t Type) string {
	return strconv.FormatUint(uint64(t.base().id), 10)
}

func writeElementKey(b *strings.Builder, name string, flip bool, t Type) {
	b.WriteString(":")
	b.WriteString(strconv.Itoa(len(name)))
	b.WriteString(":")
	b.WriteString(name)
	b.WriteString(":")
	b.WriteString(boolKey(flip))
	b.WriteString(":")
	b.WriteString(idKey(t))
}
