package lexer

import (
	"testing"
)

// ----------------------------------------------------------------------------
// Test Helpers (esbuild-style)
// ----------------------------------------------------------------------------

func expectToken(t *testing.T, input string, expected TokenKind) {
	t.Helper()
	l := New(input)
	tok := l.Next()
	if tok.Kind != expected {
		t.Errorf("input %q: expected %v, got %v", input, expected, tok.Kind)
	}
}

func expectTokenValue(t *testing.T, input string, expectedKind TokenKind, expectedValue string) {
	t.Helper()
	l := New(input)
	tok := l.Next()
	if tok.Kind != expectedKind {
		t.Errorf("input %q: expected kind %v, got %v", input, expectedKind, tok.Kind)
	}
	if tok.Value != expectedValue {
		t.Errorf("input %q: expected value %q, got %q", input, expectedValue, tok.Value)
	}
}

func expectTokens(t *testing.T, input string, expected []TokenKind) {
	t.Helper()
	l := New(input)
	for i, exp := range expected {
		tok := l.Next()
		if tok.Kind != exp {
			t.Errorf("input %q token %d: expected %v, got %v", input, i, exp, tok.Kind)
		}
	}
}

func expectError(t *testing.T, input string, message string) {
	t.Helper()
	l := New(input)
	tok := l.Next()
	if tok.Kind != TokError {
		t.Errorf("input %q: expected error, got %v", input, tok.Kind)
		return
	}
	if tok.Value != message {
		t.Errorf("input %q: expected error %q, got %q", input, message, tok.Value)
	}
}

// ----------------------------------------------------------------------------
// Keyword Tests
// ----------------------------------------------------------------------------

func TestKeywords(t *testing.T) {
	cases := []struct {
		input string
		kind  TokenKind
	}{
		{"clock", TokClock},
		{"reset", TokReset},
		{"asyncreset", TokAsyncReset},
		{"sint", TokSInt},
		{"uint", TokUInt},
		{"analog", TokAnalog},
		{"bundle", TokBundle},
		{"vector", TokVector},
		{"openbundle", TokOpenBundle},
		{"openvector", TokOpenVector},
		{"enum", TokEnum},
		{"probe", TokProbe},
		{"rwprobe", TokRWProbe},
		{"ref", TokRef},
		{"string", TokPropString},
		{"bigint", TokPropBigInt},
		{"list", TokList},
		{"map", TokMap},
		{"alias", TokAlias},
		{"const", TokConst},
		{"flip", TokFlip},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			expectToken(t, tc.input, tc.kind)
		})
	}
}

func TestKeywordsAreCaseSensitive(t *testing.T) {
	// Upper- or mixed-case forms are ordinary identifiers.
	expectTokenValue(t, "Clock", TokIdent, "Clock")
	expectTokenValue(t, "UINT", TokIdent, "UINT")
	expectTokenValue(t, "Bundle", TokIdent, "Bundle")
}

func TestIsKeyword(t *testing.T) {
	keywords := []TokenKind{TokClock, TokUInt, TokBundle, TokProbe, TokAlias, TokConst, TokFlip}
	for _, k := range keywords {
		if !(Token{Kind: k}).IsKeyword() {
			t.Errorf("IsKeyword() = false for %v, want true", k)
		}
	}

	others := []TokenKind{TokError, TokEOF, TokInt, TokString, TokIdent, TokLess, TokConnect}
	for _, k := range others {
		if (Token{Kind: k}).IsKeyword() {
			t.Errorf("IsKeyword() = true for %v, want false", k)
		}
	}
}

// ----------------------------------------------------------------------------
// Identifier Tests
// ----------------------------------------------------------------------------

func TestIdentifiers(t *testing.T) {
	cases := []struct {
		input string
		value string
	}{
		{"foo", "foo"},
		{"_bar", "_bar"},
		{"camelCase", "camelCase"},
		{"snake_case", "snake_case"},
		{"UPPER_CASE", "UPPER_CASE"},
		{"a1", "a1"},
		{"io_0", "io_0"},
		{"Queue", "Queue"},
		{"_", "_"},
		{"value$1", "value$1"},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			expectTokenValue(t, tc.input, TokIdent, tc.value)
		})
	}
}

func TestDollarSignCannotStartIdentifier(t *testing.T) {
	// $ is only valid after the first character.
	expectError(t, "$io", `unexpected character '$'`)
}

// ----------------------------------------------------------------------------
// Integer Literal Tests
// ----------------------------------------------------------------------------

func TestIntegers(t *testing.T) {
	cases := []struct {
		input string
		value string
	}{
		{"0", "0"},
		{"1", "1"},
		{"8", "8"},
		{"42", "42"},
		{"1024", "1024"},
		{"007", "007"},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			expectTokenValue(t, tc.input, TokInt, tc.value)
		})
	}
}

// ----------------------------------------------------------------------------
// Quoted Name Tests
// ----------------------------------------------------------------------------

func TestQuotedNames(t *testing.T) {
	cases := []struct {
		input string
		value string
	}{
		{`"simple"`, "simple"},
		{`"with space"`, "with space"},
		{`"a.b"`, "a.b"},
		{`"0leading"`, "0leading"},
		{`"esc\"aped"`, `esc"aped`},
		{`"tab\there"`, "tab\there"},
		{`""`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			expectTokenValue(t, tc.input, TokString, tc.value)
		})
	}
}

func TestQuotedNameErrors(t *testing.T) {
	expectError(t, `"unterminated`, "unterminated string literal")
	expectError(t, "\"broken\nacross lines\"", "unterminated string literal")
	expectError(t, `"bad \q escape"`, "invalid string literal")
}

// ----------------------------------------------------------------------------
// Punctuation Tests
// ----------------------------------------------------------------------------

func TestPunctuation(t *testing.T) {
	cases := []struct {
		input string
		kind  TokenKind
	}{
		{"<", TokLess},
		{">", TokGreater},
		{",", TokComma},
		{":", TokColon},
		{".", TokDot},
		{"[", TokLBracket},
		{"]", TokRBracket},
		{"<=", TokConnect},
	}

	for _, tc := range cases {
		t.Run(tc.input, func(t *testing.T) {
			expectToken(t, tc.input, tc.kind)
		})
	}
}

func TestConnectOperator(t *testing.T) {
	// < followed by = fuses into a single connect token.
	expectTokens(t, "a<=b", []TokenKind{TokIdent, TokConnect, TokIdent, TokEOF})

	// < followed by anything else stays a plain angle bracket.
	expectTokens(t, "a<b", []TokenKind{TokIdent, TokLess, TokIdent, TokEOF})
	expectTokens(t, "uint<8>", []TokenKind{TokUInt, TokLess, TokInt, TokGreater, TokEOF})

	// < at end of input.
	expectTokens(t, "a<", []TokenKind{TokIdent, TokLess, TokEOF})
}

func TestUnexpectedCharacter(t *testing.T) {
	invalid := []struct {
		input   string
		message string
	}{
		{"{", `unexpected character '{'`},
		{"(", `unexpected character '('`},
		{";", `unexpected character ';'`},
		{"=", `unexpected character '='`},
		{"!", `unexpected character '!'`},
		{"@", `unexpected character '@'`},
	}
	for _, tc := range invalid {
		t.Run(tc.input, func(t *testing.T) {
			expectError(t, tc.input, tc.message)
		})
	}
}

// ----------------------------------------------------------------------------
// Comment Tests
// ----------------------------------------------------------------------------

func TestLineComments(t *testing.T) {
	// Comments should be skipped
	expectToken(t, "// comment\nclock", TokClock)
	expectTokenValue(t, "// comment\nbar", TokIdent, "bar")

	// Comment at end of file
	l := New("reset // trailing")
	tok := l.Next()
	if tok.Kind != TokReset {
		t.Errorf("expected reset keyword, got %v", tok.Kind)
	}
	tok = l.Next()
	if tok.Kind != TokEOF {
		t.Errorf("expected EOF after comment, got %v", tok.Kind)
	}
}

func TestBlockComments(t *testing.T) {
	// Block comments should be skipped
	expectToken(t, "/* comment */ clock", TokClock)
	expectTokenValue(t, "/* comment */ bar", TokIdent, "bar")

	// Multi-line block comment
	expectTokenValue(t, "/* line1\nline2\nline3 */ baz", TokIdent, "baz")
}

func TestNestedBlockComments(t *testing.T) {
	expectTokenValue(t, "/* outer /* inner */ still outer */ foo", TokIdent, "foo")

	// Deeply nested
	expectTokenValue(t, "/* a /* b /* c */ b */ a */ x", TokIdent, "x")
}

func TestCommentBetweenTokens(t *testing.T) {
	input := "uint/*width*/<8>"
	expected := []TokenKind{TokUInt, TokLess, TokInt, TokGreater, TokEOF}
	expectTokens(t, input, expected)
}

// ----------------------------------------------------------------------------
// Whitespace Tests
// ----------------------------------------------------------------------------

func TestWhitespace(t *testing.T) {
	expectTokenValue(t, "  \t\n\r  foo", TokIdent, "foo")
	expectTokenValue(t, "\n\n\nbar", TokIdent, "bar")
}

// ----------------------------------------------------------------------------
// Token Sequence Tests
// ----------------------------------------------------------------------------

func TestGroundSequence(t *testing.T) {
	input := "const.uint<8>"
	expected := []TokenKind{
		TokConst,
		TokDot,
		TokUInt,
		TokLess,
		TokInt,
		TokGreater,
		TokEOF,
	}
	expectTokens(t, input, expected)
}

func TestBundleSequence(t *testing.T) {
	input := "const.bundle<a: uint<8>, b flip: sint<4>>"
	expected := []TokenKind{
		TokConst,
		TokDot,
		TokBundle,
		TokLess,
		TokIdent, // a
		TokColon,
		TokUInt,
		TokLess,
		TokInt, // 8
		TokGreater,
		TokComma,
		TokIdent, // b
		TokFlip,
		TokColon,
		TokSInt,
		TokLess,
		TokInt, // 4
		TokGreater,
		TokGreater,
		TokEOF,
	}
	expectTokens(t, input, expected)
}

func TestVectorSequence(t *testing.T) {
	input := "vector<uint<1>, 3>"
	expected := []TokenKind{
		TokVector,
		TokLess,
		TokUInt,
		TokLess,
		TokInt, // 1
		TokGreater,
		TokComma,
		TokInt, // 3
		TokGreater,
		TokEOF,
	}
	expectTokens(t, input, expected)
}

func TestProbeSequence(t *testing.T) {
	input := "rwprobe<bundle<x: uint<8>>>"
	expected := []TokenKind{
		TokRWProbe,
		TokLess,
		TokBundle,
		TokLess,
		TokIdent, // x
		TokColon,
		TokUInt,
		TokLess,
		TokInt, // 8
		TokGreater,
		TokGreater,
		TokGreater,
		TokEOF,
	}
	expectTokens(t, input, expected)
}

func TestAliasSequence(t *testing.T) {
	// A folded alias stack prints its names in a bracketed list.
	input := "alias<[Word, Payload], uint<32>>"
	expected := []TokenKind{
		TokAlias,
		TokLess,
		TokLBracket,
		TokIdent, // Word
		TokComma,
		TokIdent, // Payload
		TokRBracket,
		TokComma,
		TokUInt,
		TokLess,
		TokInt, // 32
		TokGreater,
		TokGreater,
		TokEOF,
	}
	expectTokens(t, input, expected)
}

func TestPropertySequence(t *testing.T) {
	input := "map<string, list<bigint>>"
	expected := []TokenKind{
		TokMap,
		TokLess,
		TokPropString,
		TokComma,
		TokList,
		TokLess,
		TokPropBigInt,
		TokGreater,
		TokGreater,
		TokEOF,
	}
	expectTokens(t, input, expected)
}

func TestKeywordsAsElementNames(t *testing.T) {
	// A keyword in name position is a legal element name; the parser
	// relies on IsKeyword to accept these.
	input := "bundle<flip flip: clock, probe: reset>"
	expected := []TokenKind{
		TokBundle,
		TokLess,
		TokFlip, // element named "flip"
		TokFlip, // orientation qualifier
		TokColon,
		TokClock,
		TokComma,
		TokProbe, // element named "probe"
		TokColon,
		TokReset,
		TokGreater,
		TokEOF,
	}
	expectTokens(t, input, expected)
}

func TestQuotedNameInBundle(t *testing.T) {
	input := `bundle<"odd name": uint<1>>`
	l := New(input)

	expected := []TokenKind{TokBundle, TokLess, TokString, TokColon, TokUInt, TokLess, TokInt, TokGreater, TokGreater, TokEOF}
	for i, exp := range expected {
		tok := l.Next()
		if tok.Kind != exp {
			t.Fatalf("token %d: expected %v, got %v", i, exp, tok.Kind)
		}
		if tok.Kind == TokString && tok.Value != "odd name" {
			t.Errorf("quoted name value = %q, want %q", tok.Value, "odd name")
		}
	}
}

func TestFieldPathSequence(t *testing.T) {
	input := "io.data[2]"
	expected := []TokenKind{
		TokIdent, // io
		TokDot,
		TokIdent, // data
		TokLBracket,
		TokInt, // 2
		TokRBracket,
		TokEOF,
	}
	expectTokens(t, input, expected)
}

func TestConnectSequence(t *testing.T) {
	input := "sink.data[0] <= source.data[1]"
	expected := []TokenKind{
		TokIdent,
		TokDot,
		TokIdent,
		TokLBracket,
		TokInt,
		TokRBracket,
		TokConnect,
		TokIdent,
		TokDot,
		TokIdent,
		TokLBracket,
		TokInt,
		TokRBracket,
		TokEOF,
	}
	expectTokens(t, input, expected)
}

// ----------------------------------------------------------------------------
// Edge Cases
// ----------------------------------------------------------------------------

func TestEmptyInput(t *testing.T) {
	l := New("")
	tok := l.Next()
	if tok.Kind != TokEOF {
		t.Errorf("expected EOF for empty input, got %v", tok.Kind)
	}
}

func TestOnlyWhitespace(t *testing.T) {
	l := New("   \t\n\r\n   ")
	tok := l.Next()
	if tok.Kind != TokEOF {
		t.Errorf("expected EOF for whitespace-only input, got %v", tok.Kind)
	}
}

func TestOnlyComment(t *testing.T) {
	l := New("// just a comment")
	tok := l.Next()
	if tok.Kind != TokEOF {
		t.Errorf("expected EOF for comment-only input, got %v", tok.Kind)
	}
}

func TestEOFIsSticky(t *testing.T) {
	l := New("clock")
	l.Next()
	for i := 0; i < 3; i++ {
		tok := l.Next()
		if tok.Kind != TokEOF {
			t.Errorf("call %d after end: expected EOF, got %v", i, tok.Kind)
		}
	}
}

// ----------------------------------------------------------------------------
// TokenKind.String() Tests
// ----------------------------------------------------------------------------

func TestTokenKindString(t *testing.T) {
	cases := []struct {
		kind     TokenKind
		expected string
	}{
		{TokError, "error"},
		{TokEOF, "EOF"},
		{TokInt, "integer"},
		{TokString, "string"},
		{TokIdent, "identifier"},
		{TokClock, "clock"},
		{TokAsyncReset, "asyncreset"},
		{TokUInt, "uint"},
		{TokOpenBundle, "openbundle"},
		{TokRWProbe, "rwprobe"},
		{TokPropBigInt, "bigint"},
		{TokConst, "const"},
		{TokFlip, "flip"},
		{TokLess, "<"},
		{TokGreater, ">"},
		{TokConnect, "<="},
	}

	for _, tc := range cases {
		t.Run(tc.expected, func(t *testing.T) {
			got := tc.kind.String()
			if got != tc.expected {
				t.Errorf("TokenKind(%d).String() = %q, want %q", tc.kind, got, tc.expected)
			}
		})
	}
}

func TestTokenKindStringUnknown(t *testing.T) {
	unknownKind := TokenKind(255)
	got := unknownKind.String()
	if got != "unknown" {
		t.Errorf("TokenKind(255).String() = %q, want %q", got, "unknown")
	}
}

// ----------------------------------------------------------------------------
// Token.Text() Tests
// ----------------------------------------------------------------------------

func TestTokenText(t *testing.T) {
	source := `vector<bundle<"q n": uint<8>>, 4>`
	l := New(source)

	want := []string{"vector", "<", "bundle", "<", `"q n"`, ":", "uint", "<", "8", ">", ">", ",", "4", ">", ""}
	for i, w := range want {
		tok := l.Next()
		if text := tok.Text(source); text != w {
			t.Errorf("token %d: Text() = %q, want %q", i, text, w)
		}
	}
}

func TestTokenTextInvalidBounds(t *testing.T) {
	source := "test"
	tok := Token{Kind: TokIdent, Start: -1, End: 10, Value: "test"}
	if text := tok.Text(source); text != "" {
		t.Errorf("Token.Text() with invalid start should return empty, got %q", text)
	}

	tok = Token{Kind: TokIdent, Start: 0, End: 100, Value: "test"}
	if text := tok.Text(source); text != "" {
		t.Errorf("Token.Text() with end > len should return empty, got %q", text)
	}
}

// ----------------------------------------------------------------------------
// Tokenize() Tests
// ----------------------------------------------------------------------------

func TestTokenize(t *testing.T) {
	source := "sint<16>"
	l := New(source)
	tokens := l.Tokenize()

	expected := []TokenKind{
		TokSInt,
		TokLess,
		TokInt,
		TokGreater,
		TokEOF,
	}

	if len(tokens) != len(expected) {
		t.Fatalf("Tokenize() returned %d tokens, want %d", len(tokens), len(expected))
	}

	for i, tok := range tokens {
		if tok.Kind != expected[i] {
			t.Errorf("tokens[%d].Kind = %v, want %v", i, tok.Kind, expected[i])
		}
	}
}

func TestTokenizeWithError(t *testing.T) {
	source := "uint<8> ; clock"
	l := New(source)
	tokens := l.Tokenize()

	// Should stop at the error, never reaching the clock keyword.
	if len(tokens) == 0 {
		t.Fatal("Tokenize() returned empty slice")
	}
	lastTok := tokens[len(tokens)-1]
	if lastTok.Kind != TokError {
		t.Errorf("last token should be TokError, got %v", lastTok.Kind)
	}
	for _, tok := range tokens {
		if tok.Kind == TokClock {
			t.Error("Tokenize() continued past the error")
		}
	}
}

// ----------------------------------------------------------------------------
// Helper Function Tests
// ----------------------------------------------------------------------------

func TestIsDigit(t *testing.T) {
	for ch := byte('0'); ch <= '9'; ch++ {
		if !isDigit(ch) {
			t.Errorf("isDigit(%q) = false, want true", ch)
		}
	}
	nonDigits := []byte{'a', 'Z', '_', ' ', '<'}
	for _, ch := range nonDigits {
		if isDigit(ch) {
			t.Errorf("isDigit(%q) = true, want false", ch)
		}
	}
}

func TestIsIdentStart(t *testing.T) {
	validStarts := []byte{'a', 'z', 'A', 'Z', '_'}
	for _, ch := range validStarts {
		if !isIdentStart(ch) {
			t.Errorf("isIdentStart(%q) = false, want true", ch)
		}
	}

	invalidStarts := []byte{'0', '9', '$', '<', ' ', '"'}
	for _, ch := range invalidStarts {
		if isIdentStart(ch) {
			t.Errorf("isIdentStart(%q) = true, want false", ch)
		}
	}

	// Non-ASCII byte should return false
	if isIdentStart(0x80) {
		t.Error("isIdentStart(0x80) = true, want false")
	}
}

func TestIsIdentContinue(t *testing.T) {
	validContinues := []byte{'a', 'z', 'A', 'Z', '0', '9', '_', '$'}
	for _, ch := range validContinues {
		if !isIdentContinue(ch) {
			t.Errorf("isIdentContinue(%q) = false, want true", ch)
		}
	}

	invalidContinues := []byte{'<', '>', ' ', '.', '"'}
	for _, ch := range invalidContinues {
		if isIdentContinue(ch) {
			t.Errorf("isIdentContinue(%q) = true, want false", ch)
		}
	}

	// Non-ASCII byte should return false
	if isIdentContinue(0x80) {
		t.Error("isIdentContinue(0x80) = true, want false")
	}
}

// ----------------------------------------------------------------------------
// Benchmarks
// ----------------------------------------------------------------------------

// Sample type expressions for benchmarking - representative of real designs
var benchmarkSource = `
// AXI-ish request channel with a forceable debug probe.
const.bundle<valid: uint<1>, ready flip: uint<1>, data: vector<bundle<addr: uint<32>, mask: uint<4>>, 4>>
rwprobe<bundle<cmd: enum<none: uint<0>, read: uint<8>, write: uint<8>>, "odd name": sint<16>>>
alias<[Word, Payload], uint<32>>
openvector<openbundle<data: uint<8>, tap flip: probe<uint<8>>>, 2>
list<map<string, bigint>>
sink.data[2] <= source.data[0]
`

// BenchmarkLexer measures tokenization performance
func BenchmarkLexer(b *testing.B) {
	b.ReportAllocs()
	b.SetBytes(int64(len(benchmarkSource)))

	for i := 0; i < b.N; i++ {
		l := New(benchmarkSource)
		_ = l.Tokenize()
	}
}

// BenchmarkLexerWideBundle tests a flat bundle with many elements
func BenchmarkLexerWideBundle(b *testing.B) {
	source := "bundle<"
	for i := 0; i < 500; i++ {
		if i > 0 {
			source += ", "
		}
		source += "field" + string(rune('a'+i%26)) + ": uint<8>"
	}
	source += ">"

	b.ReportAllocs()
	b.SetBytes(int64(len(source)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		l := New(source)
		_ = l.Tokenize()
	}
}

// BenchmarkLexerComments tests comment skipping performance
func BenchmarkLexerComments(b *testing.B) {
	source := ""
	for i := 0; i < 200; i++ {
		source += "// handshake pair for one channel\n"
		source += "bundle<valid: uint<1>, ready flip: uint<1>>\n"
		source += "/* probe of the whole channel */ probe<uint<8>>\n"
		source += "/* nested /* comment */ still going */ clock\n"
	}

	b.ReportAllocs()
	b.SetBytes(int64(len(source)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		l := New(source)
		_ = l.Tokenize()
	}
}
