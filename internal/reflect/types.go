package reflect

// Result carries the description of one parsed type expression.
type Result struct {
	Info   *TypeInfo `json:"info,omitempty"`
	Layout *Layout   `json:"layout,omitempty"` // null for non-base and unsized types
	Errors []string  `json:"errors,omitempty"`
}

// TypeInfo describes one node of a type tree.
type TypeInfo struct {
	Kind string `json:"kind"`
	Type string `json:"type"`

	// Name is the field or variant name when this node is a bundle
	// field or an enum variant. Flip is set on flipped bundle fields.
	Name string `json:"name,omitempty"`
	Flip bool   `json:"flip,omitempty"`

	// FieldID is the root-relative field ID of this node. Children of
	// references and property types are not addressable and report 0.
	FieldID uint64 `json:"fieldID"`

	Const     bool     `json:"const,omitempty"`
	Forceable bool     `json:"forceable,omitempty"`
	Alias     []string `json:"alias,omitempty"`

	// Width is the declared width of sized ground kinds. -1 means the
	// width has not been inferred.
	Width *int32 `json:"width,omitempty"`

	// Length is the element count of vector kinds.
	Length *int `json:"length,omitempty"`

	// Bits is the total packed width. -1 when unknown or when the node
	// has no hardware representation.
	Bits int64 `json:"bits"`

	// Recursive facts about this node and everything below it.
	Passive            bool `json:"passive"`
	ContainsAnalog     bool `json:"containsAnalog,omitempty"`
	ContainsReference  bool `json:"containsReference,omitempty"`
	ContainsConst      bool `json:"containsConst,omitempty"`
	ContainsTypeAlias  bool `json:"containsTypeAlias,omitempty"`
	HasUninferredWidth bool `json:"hasUninferredWidth,omitempty"`
	HasUninferredReset bool `json:"hasUninferredReset,omitempty"`

	// Elements holds one entry per bundle field, enum variant, or open
	// aggregate element. Vector kinds describe the element type once,
	// at the field ID of element zero. References hold their target and
	// maps hold their key and value types.
	Elements []*TypeInfo `json:"elements,omitempty"`
}

// Layout assigns a bit position to every ground leaf of a type.
type Layout struct {
	Bits   int64       `json:"bits"`
	Fields []FieldBits `json:"fields"`
}

// FieldBits is one row of a layout: the bit range [Offset, Offset+Bits)
// holding the leaf at Path.
type FieldBits struct {
	Path    string `json:"path,omitempty"` // empty for the root
	FieldID uint64 `json:"fieldID"`
	Offset  int64  `json:"offset"`
	Bits    int64  `json:"bits"`
	Type    string `json:"type"`
}
