// Package lexer provides tokenization for the textual form of hardware
// types.
//
// The lexer converts a type expression string into a sequence of
// tokens, handling:
// - Keywords (type heads and the const/flip qualifiers)
// - Identifiers (field, variant, and alias names)
// - Quoted names (for fields whose name is not a plain identifier)
// - Unsigned integer literals (widths, lengths)
// - Punctuation, including the <= connect operator
// - Comments (line and block, with nesting)
package lexer

import "strconv"

// ----------------------------------------------------------------------------
// Token Types
// ----------------------------------------------------------------------------

// TokenKind represents the type of a token.
type TokenKind uint8

const (
	TokError TokenKind = iota
	TokEOF

	// Literals
	TokInt
	TokString

	// Identifiers
	TokIdent

	// Keywords: type heads
	TokClock
	TokReset
	TokAsyncReset
	TokSInt
	TokUInt
	TokAnalog
	TokBundle
	TokVector
	TokOpenBundle
	TokOpenVector
	TokEnum
	TokProbe
	TokRWProbe
	TokRef
	TokPropString
	TokPropBigInt
	TokList
	TokMap
	TokAlias

	// Keywords: qualifiers
	TokConst
	TokFlip

	// Punctuation
	TokLess     // <
	TokGreater  // >
	TokComma    // ,
	TokColon    // :
	TokDot      // .
	TokLBracket // [
	TokRBracket // ]
	TokConnect  // <=
)

// String returns the string representation of a token kind.
func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return "unknown"
}

var tokenNames = [...]string{
	TokError:  "error",
	TokEOF:    "EOF",
	TokInt:    "integer",
	TokString: "string",
	TokIdent:  "identifier",
	// Keywords
	TokClock:      "clock",
	TokReset:      "reset",
	TokAsyncReset: "asyncreset",
	TokSInt:       "sint",
	TokUInt:       "uint",
	TokAnalog:     "analog",
	TokBundle:     "bundle",
	TokVector:     "vector",
	TokOpenBundle: "openbundle",
	TokOpenVector: "openvector",
	TokEnum:       "enum",
	TokProbe:      "probe",
	TokRWProbe:    "rwprobe",
	TokRef:        "ref",
	TokPropString: "string",
	TokPropBigInt: "bigint",
	TokList:       "list",
	TokMap:        "map",
	TokAlias:      "alias",
	TokConst:      "const",
	TokFlip:       "flip",
	// Punctuation
	TokLess:     "<",
	TokGreater:  ">",
	TokComma:    ",",
	TokColon:    ":",
	TokDot:      ".",
	TokLBracket: "[",
	TokRBracket: "]",
	TokConnect:  "<=",
}

// ----------------------------------------------------------------------------
// Token
// ----------------------------------------------------------------------------

// Token represents a lexical token.
type Token struct {
	Kind  TokenKind
	Start int    // Byte offset in source
	End   int    // Byte offset of end (exclusive)
	Value string // For identifiers, strings, integers, and errors
}

// Text returns the source text of the token.
func (t Token) Text(source string) string {
	if t.Start >= 0 && t.End <= len(source) {
		return source[t.Start:t.End]
	}
	return ""
}

// IsKeyword reports whether the token is one of the grammar's
// keywords. Keywords double as element names, so the parser accepts
// them wherever a name is expected.
func (t Token) IsKeyword() bool {
	return t.Kind >= TokClock && t.Kind <= TokFlip
}

// ----------------------------------------------------------------------------
// Keywords
// ----------------------------------------------------------------------------

// Keywords maps keyword strings to their token kinds.
var Keywords = map[string]TokenKind{
	"clock":      TokClock,
	"reset":      TokReset,
	"asyncreset": TokAsyncReset,
	"sint":       TokSInt,
	"uint":       TokUInt,
	"analog":     TokAnalog,
	"bundle":     TokBundle,
	"vector":     TokVector,
	"openbundle": TokOpenBundle,
	"openvector": TokOpenVector,
	"enum":       TokEnum,
	"probe":      TokProbe,
	"rwprobe":    TokRWProbe,
	"ref":        TokRef,
	"string":     TokPropString,
	"bigint":     TokPropBigInt,
	"list":       TokList,
	"map":        TokMap,
	"alias":      TokAlias,
	"const":      TokConst,
	"flip":       TokFlip,
}

// ----------------------------------------------------------------------------
// Lexer
// ----------------------------------------------------------------------------

// Lexer tokenizes a type expression.
type Lexer struct {
	source string
	pos    int
}

// New creates a new lexer for the given source.
func New(source string) *Lexer {
	return &Lexer{source: source}
}

// Tokenize returns all tokens in the source.
func (l *Lexer) Tokenize() []Token {
	tokens := make([]Token, 0, len(l.source)/4)
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Kind == TokEOF || tok.Kind == TokError {
			break
		}
	}
	return tokens
}

// Next returns the next token.
func (l *Lexer) Next() Token {
	l.skipWhitespaceAndComments()

	if l.pos >= len(l.source) {
		return Token{Kind: TokEOF, Start: l.pos, End: l.pos}
	}

	ch := l.source[l.pos]

	if isIdentStart(ch) {
		return l.scanIdentOrKeyword()
	}
	if isDigit(ch) {
		return l.scanInt()
	}
	if ch == '"' {
		return l.scanString()
	}
	return l.scanPunct()
}

// ----------------------------------------------------------------------------
// Scanning Helpers
// ----------------------------------------------------------------------------

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.source) {
		ch := l.source[l.pos]

		if ch == ' ' || ch == '\n' || ch == '\t' || ch == '\r' {
			l.pos++
			continue
		}

		// Line comment
		if ch == '/' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '/' {
			l.pos += 2
			for l.pos < len(l.source) && l.source[l.pos] != '\n' {
				l.pos++
			}
			continue
		}

		// Block comment (with nesting)
		if ch == '/' && l.pos+1 < len(l.source) && l.source[l.pos+1] == '*' {
			l.pos += 2
			depth := 1
			for l.pos+1 < len(l.source) && depth > 0 {
				c := l.source[l.pos]
				if c == '/' && l.source[l.pos+1] == '*' {
					depth++
					l.pos += 2
				} else if c == '*' && l.source[l.pos+1] == '/' {
					depth--
					l.pos += 2
				} else {
					l.pos++
				}
			}
			continue
		}

		break
	}
}

func (l *Lexer) scanIdentOrKeyword() Token {
	start := l.pos
	for l.pos < len(l.source) && isIdentContinue(l.source[l.pos]) {
		l.pos++
	}
	text := l.source[start:l.pos]

	if kind, ok := Keywords[text]; ok {
		return Token{Kind: kind, Start: start, End: l.pos, Value: text}
	}
	return Token{Kind: TokIdent, Start: start, End: l.pos, Value: text}
}

func (l *Lexer) scanInt() Token {
	start := l.pos
	for l.pos < len(l.source) && isDigit(l.source[l.pos]) {
		l.pos++
	}
	return Token{Kind: TokInt, Start: start, End: l.pos, Value: l.source[start:l.pos]}
}

// scanString scans a double-quoted name with Go escape syntax.
func (l *Lexer) scanString() Token {
	start := l.pos
	l.pos++ // opening quote
	for l.pos < len(l.source) {
		ch := l.source[l.pos]
		if ch == '\\' && l.pos+1 < len(l.source) {
			l.pos += 2
			continue
		}
		if ch == '"' {
			l.pos++
			value, err := strconv.Unquote(l.source[start:l.pos])
			if err != nil {
				return Token{Kind: TokError, Start: start, End: l.pos, Value: "invalid string literal"}
			}
			return Token{Kind: TokString, Start: start, End: l.pos, Value: value}
		}
		if ch == '\n' {
			break
		}
		l.pos++
	}
	return Token{Kind: TokError, Start: start, End: l.pos, Value: "unterminated string literal"}
}

func (l *Lexer) scanPunct() Token {
	start := l.pos
	ch := l.source[l.pos]
	l.pos++

	switch ch {
	case '<':
		// Only the connect operator pairs < with =; a type argument
		// list never does.
		if l.pos < len(l.source) && l.source[l.pos] == '=' {
			l.pos++
			return Token{Kind: TokConnect, Start: start, End: l.pos}
		}
		return Token{Kind: TokLess, Start: start, End: l.pos}
	case '>':
		return Token{Kind: TokGreater, Start: start, End: l.pos}
	case ',':
		return Token{Kind: TokComma, Start: start, End: l.pos}
	case ':':
		return Token{Kind: TokColon, Start: start, End: l.pos}
	case '.':
		return Token{Kind: TokDot, Start: start, End: l.pos}
	case '[':
		return Token{Kind: TokLBracket, Start: start, End: l.pos}
	case ']':
		return Token{Kind: TokRBracket, Start: start, End: l.pos}
	}

	return Token{Kind: TokError, Start: start, End: l.pos, Value: "unexpected character " + strconv.QuoteRune(rune(ch))}
}

// ----------------------------------------------------------------------------
// Character Classification
// ----------------------------------------------------------------------------

// ASCII lookup tables for fast character classification.
var (
	asciiIdentStart    [128]bool
	asciiIdentContinue [128]bool
)

func init() {
	for c := 'a'; c <= 'z'; c++ {
		asciiIdentStart[c] = true
		asciiIdentContinue[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		asciiIdentStart[c] = true
		asciiIdentContinue[c] = true
	}
	asciiIdentStart['_'] = true
	asciiIdentContinue['_'] = true
	for c := '0'; c <= '9'; c++ {
		asciiIdentContinue[c] = true
	}
	asciiIdentContinue['$'] = true
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentStart(ch byte) bool {
	return ch < 128 && asciiIdentStart[ch]
}

func isIdentContinue(ch byte) bool {
	return ch < 128 && asciiIdentContinue[ch]
}
