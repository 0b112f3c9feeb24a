// Package parser builds interned hardware types from their textual
// form.
//
// The parser is a recursive descent over the token stream that
// constructs types directly through a types.Store - the interned type
// graph is the tree, so there is no intermediate AST. Parsing the
// printed form of any type yields the identical interned instance.
//
// A parser can carry a table of named types: a bare identifier in type
// position resolves through the table, so inputs may refer to types
// defined earlier (by configuration or by the REPL).
package parser

import (
	"fmt"
	"strconv"

	"github.com/elhewaty/circt/internal/diagnostic"
	"github.com/elhewaty/circt/internal/lexer"
	"github.com/elhewaty/circt/internal/types"
)

// Parser parses type expressions into interned types.
type Parser struct {
	source    string
	tokens    []lexer.Token
	pos       int
	lineIndex *diagnostic.LineIndex

	store *types.Store
	named map[string]types.Type

	errors []ParseError
}

// ParseError represents a parsing error.
type ParseError struct {
	Message string
	Pos     int
	Line    int
	Column  int
}

func (e ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// New creates a new parser for the given source, interning through
// the given store.
func New(source string, store *types.Store) *Parser {
	lex := lexer.New(source)
	tokens := lex.Tokenize()

	return &Parser{
		source:    source,
		tokens:    tokens,
		lineIndex: diagnostic.NewLineIndex(source),
		store:     store,
		named:     make(map[string]types.Type),
	}
}

// Define makes a named type resolvable by bare identifier.
func (p *Parser) Define(name string, t types.Type) {
	p.named[name] = t
}

// DefineAll makes every entry of the table resolvable.
func (p *Parser) DefineAll(named map[string]types.Type) {
	for name, t := range named {
		p.named[name] = t
	}
}

// Parse parses the source as a single type expression. On failure the
// returned type is nil and the error list is non-empty; no partial
// type is returned.
func (p *Parser) Parse() (types.Type, []ParseError) {
	t := p.parseType()
	if t != nil {
		p.expectEnd()
	}
	if len(p.errors) > 0 {
		return nil, p.errors
	}
	return t, nil
}

// ParseConnect parses a connect form "dest <= src" and returns both
// sides.
func (p *Parser) ParseConnect() (dest, src types.Type, errs []ParseError) {
	dest = p.parseType()
	if dest == nil {
		return nil, nil, p.errors
	}
	if _, ok := p.expect(lexer.TokConnect); !ok {
		return nil, nil, p.errors
	}
	src = p.parseType()
	if src == nil {
		return nil, nil, p.errors
	}
	p.expectEnd()
	if len(p.errors) > 0 {
		return nil, nil, p.errors
	}
	return dest, src, nil
}

// ----------------------------------------------------------------------------
// Token Helpers
// ----------------------------------------------------------------------------

func (p *Parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return lexer.Token{Kind: lexer.TokEOF, Start: len(p.source), End: len(p.source)}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) expect(kind lexer.TokenKind) (lexer.Token, bool) {
	tok := p.current()
	if tok.Kind != kind {
		if tok.Kind == lexer.TokError {
			p.errorAt(tok, tok.Value)
		} else {
			p.error(fmt.Sprintf("expected %s, got %s", kind, tok.Kind))
		}
		// Don't advance here - let caller decide how to recover
		return tok, false
	}
	p.advance()
	return tok, true
}

func (p *Parser) match(kind lexer.TokenKind) bool {
	if p.current().Kind == kind {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectEnd() {
	tok := p.current()
	switch tok.Kind {
	case lexer.TokEOF:
	case lexer.TokError:
		p.errorAt(tok, tok.Value)
	default:
		p.errorAt(tok, fmt.Sprintf("unexpected %s after type", tok.Kind))
	}
}

func (p *Parser) error(msg string) {
	p.errorAt(p.current(), msg)
}

func (p *Parser) errorAt(tok lexer.Token, msg string) {
	line, col := p.lineIndex.ByteOffsetToLineColumn(tok.Start)
	p.errors = append(p.errors, ParseError{
		Message: msg,
		Pos:     tok.Start,
		Line:    line + 1, // Convert to 1-based
		Column:  col + 1,  // Convert to 1-based
	})
}

// ----------------------------------------------------------------------------
// Type Grammar
// ----------------------------------------------------------------------------

// parseType parses an optional const qualifier followed by a type
// head. Returns nil after recording an error.
func (p *Parser) parseType() types.Type {
	isConst := false
	if p.current().Kind == lexer.TokConst {
		p.advance()
		if _, ok := p.expect(lexer.TokDot); !ok {
			return nil
		}
		isConst = true
	}
	return p.parseHead(isConst)
}

func (p *Parser) parseHead(isConst bool) types.Type {
	head := p.advance()

	switch head.Kind {
	case lexer.TokClock:
		return p.store.Clock(isConst)
	case lexer.TokReset:
		return p.store.Reset(isConst)
	case lexer.TokAsyncReset:
		return p.store.AsyncReset(isConst)

	case lexer.TokUInt, lexer.TokSInt, lexer.TokAnalog:
		return p.parseIntType(head, isConst)

	case lexer.TokBundle:
		return p.parseBundle(head, isConst)
	case lexer.TokVector:
		return p.parseVector(head, isConst)
	case lexer.TokEnum:
		return p.parseEnum(head, isConst)
	case lexer.TokOpenBundle:
		return p.parseOpenBundle(head, isConst)
	case lexer.TokOpenVector:
		return p.parseOpenVector(head, isConst)

	case lexer.TokProbe, lexer.TokRef:
		return p.parseRef(head, isConst, false)
	case lexer.TokRWProbe:
		return p.parseRef(head, isConst, true)

	case lexer.TokPropString:
		if isConst {
			p.errorAt(head, "strings cannot be const")
			return nil
		}
		return p.store.PropertyString()
	case lexer.TokPropBigInt:
		if isConst {
			p.errorAt(head, "bigints cannot be const")
			return nil
		}
		return p.store.PropertyBigInt()
	case lexer.TokList:
		return p.parseList(head, isConst)
	case lexer.TokMap:
		return p.parseMap(head, isConst)

	case lexer.TokAlias:
		return p.parseAlias(head, isConst)

	case lexer.TokIdent:
		return p.parseNamed(head, isConst)

	case lexer.TokError:
		p.errorAt(head, head.Value)
		return nil
	}

	p.errorAt(head, fmt.Sprintf("expected a type, got %s", head.Kind))
	return nil
}

// parseIntType parses the optional width argument of uint, sint, and
// analog heads.
func (p *Parser) parseIntType(head lexer.Token, isConst bool) types.Type {
	width := int32(types.WidthUnknown)
	if p.match(lexer.TokLess) {
		tok, ok := p.expect(lexer.TokInt)
		if !ok {
			return nil
		}
		w, err := strconv.ParseInt(tok.Value, 10, 32)
		if err != nil {
			p.errorAt(tok, fmt.Sprintf("invalid width %q", tok.Value))
			return nil
		}
		width = int32(w)
		if _, ok := p.expect(lexer.TokGreater); !ok {
			return nil
		}
	}

	var t types.BaseType
	var err error
	switch head.Kind {
	case lexer.TokUInt:
		t, err = p.store.UInt(width, isConst)
	case lexer.TokSInt:
		t, err = p.store.SInt(width, isConst)
	default:
		t, err = p.store.Analog(width, isConst)
	}
	if err != nil {
		p.errorAt(head, err.Error())
		return nil
	}
	return t
}

func (p *Parser) parseBundle(head lexer.Token, isConst bool) types.Type {
	if _, ok := p.expect(lexer.TokLess); !ok {
		return nil
	}
	var elements []types.BundleElement
	if p.current().Kind != lexer.TokGreater {
		for {
			name, ok := p.parseElementName()
			if !ok {
				return nil
			}
			flip := p.match(lexer.TokFlip)
			if _, ok := p.expect(lexer.TokColon); !ok {
				return nil
			}
			elt := p.parseBaseType()
			if elt == nil {
				return nil
			}
			elements = append(elements, types.BundleElement{Name: name, Flip: flip, Type: elt})
			if !p.match(lexer.TokComma) {
				break
			}
		}
	}
	if _, ok := p.expect(lexer.TokGreater); !ok {
		return nil
	}
	return p.store.Bundle(elements, isConst)
}

func (p *Parser) parseVector(head lexer.Token, isConst bool) types.Type {
	if _, ok := p.expect(lexer.TokLess); !ok {
		return nil
	}
	elem := p.parseBaseType()
	if elem == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokComma); !ok {
		return nil
	}
	length, ok := p.parseLength()
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokGreater); !ok {
		return nil
	}
	t, err := p.store.Vector(elem, length, isConst)
	if err != nil {
		p.errorAt(head, err.Error())
		return nil
	}
	return t
}

func (p *Parser) parseEnum(head lexer.Token, isConst bool) types.Type {
	if _, ok := p.expect(lexer.TokLess); !ok {
		return nil
	}
	var elements []types.EnumElement
	if p.current().Kind != lexer.TokGreater {
		for {
			name, ok := p.parseElementName()
			if !ok {
				return nil
			}
			if _, ok := p.expect(lexer.TokColon); !ok {
				return nil
			}
			elt := p.parseBaseType()
			if elt == nil {
				return nil
			}
			elements = append(elements, types.EnumElement{Name: name, Type: elt})
			if !p.match(lexer.TokComma) {
				break
			}
		}
	}
	if _, ok := p.expect(lexer.TokGreater); !ok {
		return nil
	}
	t, err := p.store.Enum(elements, isConst)
	if err != nil {
		p.errorAt(head, err.Error())
		return nil
	}
	return t
}

func (p *Parser) parseOpenBundle(head lexer.Token, isConst bool) types.Type {
	if _, ok := p.expect(lexer.TokLess); !ok {
		return nil
	}
	var elements []types.OpenBundleElement
	if p.current().Kind != lexer.TokGreater {
		for {
			name, ok := p.parseElementName()
			if !ok {
				return nil
			}
			flip := p.match(lexer.TokFlip)
			if _, ok := p.expect(lexer.TokColon); !ok {
				return nil
			}
			elt := p.parseType()
			if elt == nil {
				return nil
			}
			elements = append(elements, types.OpenBundleElement{Name: name, Flip: flip, Type: elt})
			if !p.match(lexer.TokComma) {
				break
			}
		}
	}
	if _, ok := p.expect(lexer.TokGreater); !ok {
		return nil
	}
	t, err := p.store.OpenBundle(elements, isConst)
	if err != nil {
		p.errorAt(head, err.Error())
		return nil
	}
	return t
}

func (p *Parser) parseOpenVector(head lexer.Token, isConst bool) types.Type {
	if _, ok := p.expect(lexer.TokLess); !ok {
		return nil
	}
	elem := p.parseType()
	if elem == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokComma); !ok {
		return nil
	}
	length, ok := p.parseLength()
	if !ok {
		return nil
	}
	if _, ok := p.expect(lexer.TokGreater); !ok {
		return nil
	}
	t, err := p.store.OpenVector(elem, length, isConst)
	if err != nil {
		p.errorAt(head, err.Error())
		return nil
	}
	return t
}

// parseRef parses probe, rwprobe, and the legacy ref spelling. The
// const qualifier never applies to a reference; the target carries its
// own qualifiers.
func (p *Parser) parseRef(head lexer.Token, isConst, forceable bool) types.Type {
	if isConst {
		p.errorAt(head, "references cannot be const")
		return nil
	}
	if _, ok := p.expect(lexer.TokLess); !ok {
		return nil
	}
	target := p.parseBaseType()
	if target == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokGreater); !ok {
		return nil
	}
	t, err := p.store.Ref(target, forceable)
	if err != nil {
		p.errorAt(head, err.Error())
		return nil
	}
	return t
}

func (p *Parser) parseList(head lexer.Token, isConst bool) types.Type {
	if isConst {
		p.errorAt(head, "lists cannot be const")
		return nil
	}
	if _, ok := p.expect(lexer.TokLess); !ok {
		return nil
	}
	elem := p.parsePropertyType()
	if elem == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokGreater); !ok {
		return nil
	}
	return p.store.List(elem)
}

func (p *Parser) parseMap(head lexer.Token, isConst bool) types.Type {
	if isConst {
		p.errorAt(head, "maps cannot be const")
		return nil
	}
	if _, ok := p.expect(lexer.TokLess); !ok {
		return nil
	}
	key := p.parsePropertyType()
	if key == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokComma); !ok {
		return nil
	}
	value := p.parsePropertyType()
	if value == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokGreater); !ok {
		return nil
	}
	return p.store.Map(key, value)
}

// parseAlias parses alias<name, T> and the folded multi-name form
// alias<[a, b], T>.
func (p *Parser) parseAlias(head lexer.Token, isConst bool) types.Type {
	if _, ok := p.expect(lexer.TokLess); !ok {
		return nil
	}

	var names []string
	if p.match(lexer.TokLBracket) {
		for {
			name, ok := p.parseAliasName()
			if !ok {
				return nil
			}
			names = append(names, name)
			if !p.match(lexer.TokComma) {
				break
			}
		}
		if _, ok := p.expect(lexer.TokRBracket); !ok {
			return nil
		}
	} else {
		name, ok := p.parseAliasName()
		if !ok {
			return nil
		}
		names = append(names, name)
	}

	if _, ok := p.expect(lexer.TokComma); !ok {
		return nil
	}
	inner := p.parseBaseType()
	if inner == nil {
		return nil
	}
	if _, ok := p.expect(lexer.TokGreater); !ok {
		return nil
	}

	t, err := p.store.Alias(names, inner)
	if err != nil {
		p.errorAt(head, err.Error())
		return nil
	}
	if isConst {
		return types.WithConst(t, true)
	}
	return t
}

// parseNamed resolves a bare identifier through the named-type table.
func (p *Parser) parseNamed(head lexer.Token, isConst bool) types.Type {
	t, ok := p.named[head.Value]
	if !ok {
		p.errorAt(head, fmt.Sprintf("unknown type %q", head.Value))
		return nil
	}
	if isConst {
		base, ok := t.(types.BaseType)
		if !ok {
			p.errorAt(head, fmt.Sprintf("type %q cannot be const", head.Value))
			return nil
		}
		return types.WithConst(base, true)
	}
	return t
}

// ----------------------------------------------------------------------------
// Component Helpers
// ----------------------------------------------------------------------------

// parseBaseType parses a type and requires it to be a base type.
func (p *Parser) parseBaseType() types.BaseType {
	start := p.current()
	t := p.parseType()
	if t == nil {
		return nil
	}
	base, ok := t.(types.BaseType)
	if !ok {
		p.errorAt(start, fmt.Sprintf("expected a base type, got %s", t))
		return nil
	}
	return base
}

// parsePropertyType parses a type and requires it to be a property
// type.
func (p *Parser) parsePropertyType() types.PropertyType {
	start := p.current()
	t := p.parseType()
	if t == nil {
		return nil
	}
	prop, ok := t.(types.PropertyType)
	if !ok {
		p.errorAt(start, fmt.Sprintf("expected a property type, got %s", t))
		return nil
	}
	return prop
}

// parseElementName accepts an identifier, a quoted string, or a
// keyword. Keywords double as element names so that printed forms
// like bundle<flip flip: ...> round-trip.
func (p *Parser) parseElementName() (string, bool) {
	tok := p.current()
	if tok.Kind == lexer.TokIdent || tok.Kind == lexer.TokString || tok.IsKeyword() {
		p.advance()
		return tok.Value, true
	}
	if tok.Kind == lexer.TokError {
		p.errorAt(tok, tok.Value)
	} else {
		p.error(fmt.Sprintf("expected an element name, got %s", tok.Kind))
	}
	return "", false
}

// parseAliasName accepts an identifier or a keyword. Alias names must
// be plain identifiers, so quoted strings are not allowed here.
func (p *Parser) parseAliasName() (string, bool) {
	tok := p.current()
	if tok.Kind == lexer.TokIdent || tok.IsKeyword() {
		p.advance()
		return tok.Value, true
	}
	if tok.Kind == lexer.TokError {
		p.errorAt(tok, tok.Value)
	} else {
		p.error(fmt.Sprintf("expected an alias name, got %s", tok.Kind))
	}
	return "", false
}

func (p *Parser) parseLength() (int, bool) {
	tok, ok := p.expect(lexer.TokInt)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(tok.Value)
	if err != nil {
		p.errorAt(tok, fmt.Sprintf("invalid length %q", tok.Value))
		return 0, false
	}
	return n, true
}
