// Package printer renders types for humans.
//
// The printer can operate in two modes:
// - Compact: the canonical single-line form, identical to String()
// - Pretty: indented multi-line output for nested aggregates
//
// Following the esbuild pattern, layout decisions are made during
// printing rather than as a separate pass: an aggregate breaks across
// lines only when its compact form does not fit the column budget.
package printer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/elhewaty/circt/internal/types"
)

// Options controls printer output.
type Options struct {
	// Pretty breaks oversized aggregates across indented lines
	Pretty bool

	// Indent is the indentation unit in pretty mode (default two spaces)
	Indent string

	// Width is the column budget that triggers a line break in pretty
	// mode (default 80)
	Width int
}

// Printer renders types.
type Printer struct {
	options Options

	buf    strings.Builder
	indent int
}

// New creates a new printer.
func New(options Options) *Printer {
	if options.Indent == "" {
		options.Indent = "  "
	}
	if options.Width <= 0 {
		options.Width = 80
	}
	return &Printer{options: options}
}

// Print renders the type as a string.
func (p *Printer) Print(t types.Type) string {
	p.buf.Reset()
	p.indent = 0
	if !p.options.Pretty {
		return t.String()
	}
	p.printType(t)
	return p.buf.String()
}

// ----------------------------------------------------------------------------
// Output Helpers
// ----------------------------------------------------------------------------

func (p *Printer) print(s string) {
	p.buf.WriteString(s)
}

func (p *Printer) printNewline() {
	p.buf.WriteByte('\n')
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString(p.options.Indent)
	}
}

// column returns the length of the line being built.
func (p *Printer) column() int {
	s := p.buf.String()
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return len(s) - i - 1
	}
	return len(s)
}

// fits reports whether s can finish on the current line.
func (p *Printer) fits(s string) bool {
	return p.column()+len(s) <= p.options.Width
}

func (p *Printer) printElementName(name string) {
	if types.IsValidIdentifier(name) {
		p.print(name)
	} else {
		p.print(strconv.Quote(name))
	}
}

// ----------------------------------------------------------------------------
// Type Printing
// ----------------------------------------------------------------------------

func (p *Printer) printType(t types.Type) {
	compact := t.String()
	if p.fits(compact) {
		p.print(compact)
		return
	}

	switch t := t.(type) {
	case *types.Bundle:
		p.printBundle(t)
	case *types.Enum:
		p.printEnum(t)
	case *types.OpenBundle:
		p.printOpenBundle(t)
	case *types.Vector:
		p.printVector(t)
	case *types.OpenVector:
		p.printOpenVector(t)
	case *types.Alias:
		p.printAlias(t)
	case *types.Ref:
		p.printRef(t)
	case *types.List:
		p.print("list<")
		p.printType(t.ElementType())
		p.print(">")
	case *types.Map:
		p.print("map<")
		p.printType(t.KeyType())
		p.print(", ")
		p.printType(t.ValueType())
		p.print(">")
	default:
		// Grounds and property leaves are always short; if even they
		// blow the budget the line is already too deep to save.
		p.print(compact)
	}
}

func (p *Printer) printBundle(t *types.Bundle) {
	if t.IsConst() {
		p.print("const.")
	}
	p.print("bundle<")
	p.indent++
	for i, elt := range t.Elements() {
		if i > 0 {
			p.print(",")
		}
		p.printNewline()
		p.printElementName(elt.Name)
		if elt.Flip {
			p.print(" flip")
		}
		p.print(": ")
		p.printType(elt.Type)
	}
	p.indent--
	p.printNewline()
	p.print(">")
}

func (p *Printer) printEnum(t *types.Enum) {
	if t.IsConst() {
		p.print("const.")
	}
	p.print("enum<")
	p.indent++
	for i, elt := range t.Elements() {
		if i > 0 {
			p.print(",")
		}
		p.printNewline()
		p.printElementName(elt.Name)
		p.print(": ")
		p.printType(elt.Type)
	}
	p.indent--
	p.printNewline()
	p.print(">")
}

func (p *Printer) printOpenBundle(t *types.OpenBundle) {
	if t.IsConst() {
		p.print("const.")
	}
	p.print("openbundle<")
	p.indent++
	for i, elt := range t.Elements() {
		if i > 0 {
			p.print(",")
		}
		p.printNewline()
		p.printElementName(elt.Name)
		if elt.Flip {
			p.print(" flip")
		}
		p.print(": ")
		p.printType(elt.Type)
	}
	p.indent--
	p.printNewline()
	p.print(">")
}

func (p *Printer) printVector(t *types.Vector) {
	if t.IsConst() {
		p.print("const.")
	}
	p.print("vector<")
	p.indent++
	p.printNewline()
	p.printType(t.ElementType())
	p.print(",")
	p.printNewline()
	p.print(strconv.Itoa(t.Len()))
	p.indent--
	p.printNewline()
	p.print(">")
}

func (p *Printer) printOpenVector(t *types.OpenVector) {
	if t.IsConst() {
		p.print("const.")
	}
	p.print("openvector<")
	p.indent++
	p.printNewline()
	p.printType(t.ElementType())
	p.print(",")
	p.printNewline()
	p.print(strconv.Itoa(t.Len()))
	p.indent--
	p.printNewline()
	p.print(">")
}

func (p *Printer) printAlias(t *types.Alias) {
	p.print("alias<")
	names := t.Names()
	if len(names) == 1 {
		p.print(names[0])
	} else {
		p.print("[")
		p.print(strings.Join(names, ", "))
		p.print("]")
	}
	p.print(", ")
	p.printType(t.InnerType())
	p.print(">")
}

func (p *Printer) printRef(t *types.Ref) {
	if t.Forceable() {
		p.print("rwprobe<")
	} else {
		p.print("probe<")
	}
	p.printType(t.TargetType())
	p.print(">")
}

// ----------------------------------------------------------------------------
// Field Tables
// ----------------------------------------------------------------------------

// FieldPath returns the textual path of fieldID inside t, like
// "a.b[2]". The root's path is the empty string. Panics when fieldID
// is outside [0, MaxFieldID], like the underlying ID queries.
func FieldPath(t types.FieldIDType, fieldID uint64) string {
	var b strings.Builder
	for fieldID != 0 {
		switch cur := t.(type) {
		case *types.Bundle:
			index, rest := cur.IndexAndSubfieldID(fieldID)
			writePathName(&b, cur.Element(index).Name)
			t, fieldID = cur.Element(index).Type, rest
		case *types.Enum:
			index, rest := cur.IndexAndSubfieldID(fieldID)
			writePathName(&b, cur.Element(index).Name)
			t, fieldID = cur.Element(index).Type, rest
		case *types.OpenBundle:
			index, rest := cur.IndexAndSubfieldID(fieldID)
			writePathName(&b, cur.Element(index).Name)
			t, fieldID = cur.Element(index).Type.(types.FieldIDType), rest
		case *types.Vector:
			index, rest := cur.IndexAndSubfieldID(fieldID)
			fmt.Fprintf(&b, "[%d]", index)
			t, fieldID = cur.ElementType(), rest
		case *types.OpenVector:
			index, rest := cur.IndexAndSubfieldID(fieldID)
			fmt.Fprintf(&b, "[%d]", index)
			t, fieldID = cur.ElementType().(types.FieldIDType), rest
		case *types.Alias:
			t = cur.InnerType()
		default:
			panic("types: field ID out of range")
		}
	}
	return b.String()
}

func writePathName(b *strings.Builder, name string) {
	if b.Len() > 0 {
		b.WriteByte('.')
	}
	if types.IsValidIdentifier(name) {
		b.WriteString(name)
	} else {
		b.WriteString(strconv.Quote(name))
	}
}

// typeAtFieldID descends to the node addressed by fieldID.
func typeAtFieldID(t types.FieldIDType, fieldID uint64) types.FieldIDType {
	for fieldID != 0 {
		t, fieldID = t.SubTypeByFieldID(fieldID)
	}
	return t
}

// FieldTable renders one aligned "ID | path | type" row per field ID,
// covering every addressable node of t including the root.
func FieldTable(t types.FieldIDType) string {
	max := t.MaxFieldID()
	paths := make([]string, max+1)
	typs := make([]string, max+1)
	pathWidth := 0
	for id := uint64(0); id <= max; id++ {
		paths[id] = FieldPath(t, id)
		typs[id] = typeAtFieldID(t, id).String()
		if len(paths[id]) > pathWidth {
			pathWidth = len(paths[id])
		}
	}
	idWidth := len(strconv.FormatUint(max, 10))

	var b strings.Builder
	for id := uint64(0); id <= max; id++ {
		fmt.Fprintf(&b, "%*d | %-*s | %s\n", idWidth, id, pathWidth, paths[id], typs[id])
	}
	return b.String()
}
