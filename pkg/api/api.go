// Package api provides the public API for the type system.
//
// This package is intended for programmatic use. For CLI usage, see
// cmd/firtype.
//
// All types are interned through a Context: two structurally identical
// types parsed through the same context are the same pointer, so
// equality is pointer comparison. Types from different contexts must
// never be mixed.
package api

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/elhewaty/circt/internal/config"
	"github.com/elhewaty/circt/internal/diagnostic"
	"github.com/elhewaty/circt/internal/lexer"
	"github.com/elhewaty/circt/internal/parser"
	"github.com/elhewaty/circt/internal/printer"
	"github.com/elhewaty/circt/internal/reflect"
	"github.com/elhewaty/circt/internal/types"
	"github.com/elhewaty/circt/internal/validator"
)

// Type is any FIRRTL type: hardware base types, references, open
// aggregates, and property types.
type Type = types.Type

// BaseType is a hardware ground or aggregate type.
type BaseType = types.BaseType

// FieldIDType is a type whose nested fields carry stable integer IDs.
type FieldIDType = types.FieldIDType

// PropertyType is a non-hardware elaboration-time type.
type PropertyType = types.PropertyType

// Store is the interning arena behind a Context, for callers that
// construct types programmatically instead of parsing them.
type Store = types.Store

// Concrete kinds, for type switches and As-style queries.
type (
	Clock      = types.Clock
	Reset      = types.Reset
	AsyncReset = types.AsyncReset
	SInt       = types.SInt
	UInt       = types.UInt
	Analog     = types.Analog
	Bundle     = types.Bundle
	Vector     = types.Vector
	Enum       = types.Enum
	OpenBundle = types.OpenBundle
	OpenVector = types.OpenVector
	Ref        = types.Ref
	String     = types.String
	BigInt     = types.BigInt
	List       = types.List
	Map        = types.Map
	Alias      = types.Alias
)

// ParseError describes one syntax or construction error in a type
// expression, with a 1-based line and column.
type ParseError = parser.ParseError

// RecursiveProperties summarizes a type and everything beneath it.
// Every Type carries them, precomputed at construction.
type RecursiveProperties = types.RecursiveProperties

// WidthUnknown is the width of integer and analog types whose width
// has not been inferred yet.
const WidthUnknown = types.WidthUnknown

// ----------------------------------------------------------------------------
// Context
// ----------------------------------------------------------------------------

// Context owns an interned type universe and a table of named types.
type Context struct {
	store *types.Store
	named map[string]types.Type
}

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{
		store: types.NewStore(),
		named: make(map[string]types.Type),
	}
}

// Store returns the context's interning store.
func (c *Context) Store() *Store { return c.store }

// Parse parses one type expression. Named types defined on the context
// are resolvable by bare identifier.
func (c *Context) Parse(source string) (Type, []ParseError) {
	p := parser.New(source, c.store)
	p.DefineAll(c.named)
	return p.Parse()
}

// MustParse is Parse for expressions known to be valid. It panics on
// any error.
func (c *Context) MustParse(source string) Type {
	t, errs := c.Parse(source)
	if len(errs) > 0 {
		panic("api: " + errs[0].Error())
	}
	return t
}

// ParseConnect parses a connection of the form "dest <= src".
func (c *Context) ParseConnect(source string) (dest, src Type, errs []ParseError) {
	p := parser.New(source, c.store)
	p.DefineAll(c.named)
	return p.ParseConnect()
}

// Define parses a type expression and makes it resolvable by name. The
// definition may reference previously defined names. Base types are
// registered as aliases so they print with their name.
func (c *Context) Define(name, source string) error {
	if _, reserved := lexer.Keywords[name]; reserved {
		return errors.Errorf("type name %q is reserved", name)
	}

	t, errs := c.Parse(source)
	if len(errs) > 0 {
		return errors.Errorf("type %q: %s", name, errs[0].Message)
	}

	base, ok := t.(types.BaseType)
	if !ok {
		c.named[name] = t
		return nil
	}
	if a, aok := t.(*types.Alias); aok && a.Name() == name {
		c.named[name] = a
		return nil
	}
	alias, err := c.store.Alias([]string{name}, base)
	if err != nil {
		return errors.Errorf("type %q: %v", name, err)
	}
	c.named[name] = alias
	return nil
}

// Lookup returns the type bound to a name.
func (c *Context) Lookup(name string) (Type, bool) {
	t, ok := c.named[name]
	return t, ok
}

// NamedTypes returns the defined names in sorted order.
func (c *Context) NamedTypes() []string {
	return sortedNames(c.named)
}

// ApplyConfig resolves a configuration's type table into the context
// and returns any definition errors.
func (c *Context) ApplyConfig(cfg *Config) []error {
	resolved, errs := cfg.ResolveTypes(c.store)
	for name, t := range resolved {
		c.named[name] = t
	}
	return errs
}

// ----------------------------------------------------------------------------
// Printing
// ----------------------------------------------------------------------------

// PrintOptions controls type rendering.
type PrintOptions struct {
	// Pretty enables multi-line layout for aggregate types.
	Pretty bool

	// Indent is the indentation unit for pretty layout.
	// Two spaces when empty.
	Indent string

	// Width is the column budget for pretty layout. 80 when zero.
	Width int
}

// Print renders a type. With zero options this is the canonical
// compact form, identical to t.String().
func (c *Context) Print(t Type, opts PrintOptions) string {
	return printer.New(printer.Options{
		Pretty: opts.Pretty,
		Indent: opts.Indent,
		Width:  opts.Width,
	}).Print(t)
}

// FieldTable renders the field ID table of a type: one row per
// addressable field with its ID, path, and type.
func (c *Context) FieldTable(t Type) (string, error) {
	ft, ok := t.(types.FieldIDType)
	if !ok {
		return "", errors.Errorf("%s does not support field IDs", t)
	}
	return printer.FieldTable(ft), nil
}

// FieldAt resolves a root-relative field ID to the sub-type it names
// and the dotted path leading to it.
func (c *Context) FieldAt(t Type, fieldID uint64) (Type, string, error) {
	ft, ok := t.(types.FieldIDType)
	if !ok {
		return nil, "", errors.Errorf("%s does not support field IDs", t)
	}
	if fieldID > ft.MaxFieldID() {
		return nil, "", errors.Errorf("field ID %d out of range, max is %d", fieldID, ft.MaxFieldID())
	}
	return types.FinalTypeByFieldID(ft, fieldID), printer.FieldPath(ft, fieldID), nil
}

// ----------------------------------------------------------------------------
// Connection Checking
// ----------------------------------------------------------------------------

// CheckOptions controls connection checking.
type CheckOptions struct {
	// StrictWidths requires exact width matches instead of the lax
	// rules used by Equivalent.
	StrictWidths bool

	// StrictMode escalates warnings to errors.
	StrictMode bool

	// Rules overrides severities for optional rules by name, e.g.
	// {"implicit_truncation": "warning"}. The severity "off" disables
	// a rule. Valid severities are "error", "warning", "info", "note".
	Rules map[string]string
}

// Diagnostic is one finding from a connection check.
type Diagnostic struct {
	// Severity is "error", "warning", "info", or "note".
	Severity string `json:"severity"`

	// Code is the stable diagnostic code, e.g. "E0200".
	Code string `json:"code"`

	// Path locates the finding within the destination type. Empty for
	// the root.
	Path string `json:"path,omitempty"`

	// Message is the human-readable description.
	Message string `json:"message"`
}

// CheckResult contains the outcome of a connection check.
type CheckResult struct {
	// Valid is true when the connection is legal: no errors were
	// found. Warnings do not affect it.
	Valid bool `json:"valid"`

	// Diagnostics lists every finding in source order.
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// CheckConnect checks whether src may legally drive dest and explains
// every violation found. With zero options, Valid matches what
// Equivalent reports for the pair.
func (c *Context) CheckConnect(dest, src Type, opts CheckOptions) (CheckResult, error) {
	vopts := validator.Options{
		StrictWidths: opts.StrictWidths,
		StrictMode:   opts.StrictMode,
	}
	if len(opts.Rules) > 0 {
		f := diagnostic.NewDiagnosticFilter()
		for _, rule := range sortedNames(opts.Rules) {
			severity := opts.Rules[rule]
			if severity == "off" {
				f.DisableRule(rule)
				continue
			}
			sev, err := config.ParseSeverity(severity)
			if err != nil {
				return CheckResult{}, errors.Errorf("rule %q: %v", rule, err)
			}
			f.SetRule(rule, sev)
		}
		vopts.DiagnosticFilters = f
	}

	result := validator.CheckConnect(dest, src, vopts)
	out := CheckResult{Valid: result.Valid}
	for _, d := range result.Diagnostics.Diagnostics() {
		out.Diagnostics = append(out.Diagnostics, Diagnostic{
			Severity: d.Severity.String(),
			Code:     string(d.Code),
			Path:     d.Path,
			Message:  d.Message,
		})
	}
	return out, nil
}

// ----------------------------------------------------------------------------
// Reflection
// ----------------------------------------------------------------------------

// ReflectResult carries the description of one parsed type expression.
type ReflectResult = reflect.Result

// TypeInfo describes one node of a type tree.
type TypeInfo = reflect.TypeInfo

// Layout assigns a bit position to every ground leaf of a type.
type Layout = reflect.Layout

// FieldBits is one row of a layout.
type FieldBits = reflect.FieldBits

// Reflect parses a type expression and describes it as plain data,
// honoring the context's named types. Parse failures are reported
// inside the result.
func (c *Context) Reflect(source string) ReflectResult {
	t, errs := c.Parse(source)
	if len(errs) > 0 {
		messages := make([]string, len(errs))
		for i, e := range errs {
			messages[i] = e.Error()
		}
		return ReflectResult{Errors: messages}
	}

	result := ReflectResult{Info: reflect.Describe(t)}
	if base, ok := t.(types.BaseType); ok {
		if layout, err := reflect.ComputeLayout(base); err == nil {
			result.Layout = layout
		}
	}
	return result
}

// Describe builds the description tree for a type.
func (c *Context) Describe(t Type) *TypeInfo {
	return reflect.Describe(t)
}

// ComputeLayout assigns bit positions to every ground leaf of a sized
// base type.
func (c *Context) ComputeLayout(t BaseType) (*Layout, error) {
	return reflect.ComputeLayout(t)
}

// ----------------------------------------------------------------------------
// Configuration
// ----------------------------------------------------------------------------

// Config is the configuration file structure.
type Config = config.Config

// LoadConfig searches for a config file starting from the given
// directory and walking up. Returns nil if none is found.
func LoadConfig(startDir string) (*Config, string, error) {
	return config.Load(startDir)
}

// LoadConfigFile loads configuration from a specific file path.
func LoadConfigFile(path string) (*Config, error) {
	return config.LoadFile(path)
}

// ----------------------------------------------------------------------------
// Comparisons
// ----------------------------------------------------------------------------

// Equivalent reports whether src may legally drive dest under the lax
// width rules: known widths may differ on integer leaves, and abstract
// resets match any reset type. Both arguments must come from the same
// context.
func Equivalent(dest, src Type) bool { return types.Equivalent(dest, src) }

// EquivalentStrict is Equivalent with exact width matching.
func EquivalentStrict(dest, src Type) bool { return types.EquivalentStrict(dest, src) }

// WeaklyEquivalent reports whether the pair is connectable under the
// legacy partial-connect rules, which ignore orientation.
func WeaklyEquivalent(dest, src Type) bool { return types.WeaklyEquivalent(dest, src) }

// ConstCastable reports whether src may drive dest when const casting
// is permitted: dropping const is free, adding it is not.
func ConstCastable(dest, src Type) bool { return types.ConstCastable(dest, src) }

// RefCastable reports whether a reference to src may be used where a
// reference to dest is expected.
func RefCastable(dest, src Type) bool { return types.RefCastable(dest, src) }

// IsLarger reports whether every integer leaf of dest is at least as
// wide as the corresponding leaf of src.
func IsLarger(dest, src BaseType) bool { return types.IsLarger(dest, src) }

// ----------------------------------------------------------------------------
// Transformations
// ----------------------------------------------------------------------------

// Passive strips every flip from a base type.
func Passive(t BaseType) BaseType { return types.Passive(t) }

// Anonymous strips every alias wrapper from a base type.
func Anonymous(t BaseType) BaseType { return types.Anonymous(t) }

// WithConst returns t with the outer const qualifier set or cleared.
func WithConst(t BaseType, isConst bool) BaseType { return types.WithConst(t, isConst) }

// DropConst strips the const qualifier from t and everything below it.
func DropConst(t BaseType) BaseType { return types.DropConst(t) }

// Widthless strips every declared width, yielding the type that width
// inference starts from.
func Widthless(t BaseType) BaseType { return types.Widthless(t) }

// Mask returns the mask type of t: the same shape with every integer
// leaf replaced by a 1-bit unsigned integer.
func Mask(t BaseType) BaseType { return types.Mask(t) }

// ----------------------------------------------------------------------------
// Queries
// ----------------------------------------------------------------------------

// As returns t viewed as a T, looking through alias wrappers.
func As[T Type](t Type) (T, bool) { return types.As[T](t) }

// Is reports whether t is a T, looking through alias wrappers.
func Is[T Type](t Type) bool { return types.Is[T](t) }

// Under returns t with any top-level alias wrapper removed.
func Under(t Type) Type { return types.Under(t) }

// AliasNames returns every alias name appearing anywhere in t, sorted
// and deduplicated.
func AliasNames(t Type) []string { return types.AliasNames(t) }

// BitWidth returns the total bit count of a base type, recursing
// through aggregates. The bool is false when any leaf width is still
// unknown. Orientation is ignored when ignoreFlip is set.
func BitWidth(t BaseType, ignoreFlip bool) (int64, bool) { return types.BitWidth(t, ignoreFlip) }

// BitWidthOrSentinel returns the width of a ground type, -1 when the
// width is unknown, and -2 for aggregates.
func BitWidthOrSentinel(t BaseType) int32 { return types.BitWidthOrSentinel(t) }

// IsGround reports whether t is a ground type.
func IsGround(t Type) bool { return types.IsGround(t) }

// IsReset reports whether t can drive a reset.
func IsReset(t Type) bool { return types.IsReset(t) }

// IsRegister reports whether t can type a register: passive with no
// analog leaves.
func IsRegister(t BaseType) bool { return types.IsRegister(t) }

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

func sortedNames[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
