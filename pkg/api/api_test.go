package api

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	ctx := NewContext()

	typ, errs := ctx.Parse("bundle<data: uint<8>, valid: uint<1>, ready flip: uint<1>>")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	want := "bundle<data: uint<8>, valid: uint<1>, ready flip: uint<1>>"
	if typ.String() != want {
		t.Errorf("String: got %q, want %q", typ.String(), want)
	}

	// Parsing the same expression again yields the same instance.
	again, _ := ctx.Parse(want)
	if again != typ {
		t.Error("reparsing produced a different instance")
	}
}

func TestParseErrors(t *testing.T) {
	ctx := NewContext()

	typ, errs := ctx.Parse("bundle<a uint<8>>")
	if typ != nil {
		t.Errorf("expected nil type, got %v", typ)
	}
	if len(errs) == 0 {
		t.Fatal("expected parse errors")
	}
	if errs[0].Line != 1 || errs[0].Column == 0 {
		t.Errorf("position: got %d:%d", errs[0].Line, errs[0].Column)
	}
	if !strings.Contains(errs[0].Message, "expected") {
		t.Errorf("unexpected message: %s", errs[0].Message)
	}
}

func TestMustParse(t *testing.T) {
	ctx := NewContext()

	typ := ctx.MustParse("uint<8>")
	if typ.String() != "uint<8>" {
		t.Errorf("got %q, want uint<8>", typ.String())
	}

	defer func() {
		if recover() == nil {
			t.Error("expected a panic for invalid input")
		}
	}()
	ctx.MustParse("uint<")
}

func TestDefine(t *testing.T) {
	ctx := NewContext()

	if err := ctx.Define("Word", "uint<32>"); err != nil {
		t.Fatalf("Define failed: %v", err)
	}

	typ, errs := ctx.Parse("Word")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if typ.String() != "alias<Word, uint<32>>" {
		t.Errorf("got %q, want alias<Word, uint<32>>", typ.String())
	}

	looked, ok := ctx.Lookup("Word")
	if !ok || looked != typ {
		t.Error("Lookup did not return the defined type")
	}
}

func TestDefineChain(t *testing.T) {
	ctx := NewContext()

	if err := ctx.Define("Word", "uint<32>"); err != nil {
		t.Fatalf("Define failed: %v", err)
	}
	if err := ctx.Define("Pair", "bundle<lo: Word, hi: Word>"); err != nil {
		t.Fatalf("Define failed: %v", err)
	}

	typ := ctx.MustParse("Pair")
	want := "alias<Pair, bundle<lo: alias<Word, uint<32>>, hi: alias<Word, uint<32>>>>"
	if typ.String() != want {
		t.Errorf("got %q, want %q", typ.String(), want)
	}

	names := ctx.NamedTypes()
	if len(names) != 2 || names[0] != "Pair" || names[1] != "Word" {
		t.Errorf("NamedTypes: got %v, want [Pair Word]", names)
	}
}

func TestDefineErrors(t *testing.T) {
	ctx := NewContext()

	if err := ctx.Define("clock", "uint<1>"); err == nil || !strings.Contains(err.Error(), "reserved") {
		t.Errorf("got %v, want a reserved-name error", err)
	}

	if err := ctx.Define("Bad", "uint<"); err == nil || !strings.Contains(err.Error(), `type "Bad"`) {
		t.Errorf("got %v, want a parse error mentioning Bad", err)
	}
}

func TestDefineNonBase(t *testing.T) {
	ctx := NewContext()

	if err := ctx.Define("Tap", "probe<uint<8>>"); err != nil {
		t.Fatalf("Define failed: %v", err)
	}

	typ := ctx.MustParse("Tap")
	if typ.String() != "probe<uint<8>>" {
		t.Errorf("got %q, want probe<uint<8>>", typ.String())
	}
}

func TestParseConnect(t *testing.T) {
	ctx := NewContext()

	dest, src, errs := ctx.ParseConnect("uint<8> <= uint<4>")
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if dest.String() != "uint<8>" || src.String() != "uint<4>" {
		t.Errorf("got %s <= %s", dest, src)
	}
}

// ----------------------------------------------------------------------------
// Connection Checking
// ----------------------------------------------------------------------------

func TestCheckConnect(t *testing.T) {
	ctx := NewContext()
	dest := ctx.MustParse("const.uint<8>")
	src := ctx.MustParse("uint<8>")

	result, err := ctx.CheckConnect(dest, src, CheckOptions{})
	if err != nil {
		t.Fatalf("CheckConnect failed: %v", err)
	}

	if result.Valid {
		t.Error("expected an invalid connection")
	}
	if len(result.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(result.Diagnostics))
	}

	d := result.Diagnostics[0]
	if d.Severity != "error" {
		t.Errorf("Severity: got %q, want error", d.Severity)
	}
	if d.Code != "E0200" {
		t.Errorf("Code: got %q, want E0200", d.Code)
	}
	if !strings.Contains(d.Message, "const destination") {
		t.Errorf("unexpected message: %s", d.Message)
	}
}

func TestCheckConnectPath(t *testing.T) {
	ctx := NewContext()
	dest := ctx.MustParse("bundle<io: bundle<data: uint<8>>>")
	src := ctx.MustParse("bundle<io: bundle<data: sint<8>>>")

	result, err := ctx.CheckConnect(dest, src, CheckOptions{})
	if err != nil {
		t.Fatalf("CheckConnect failed: %v", err)
	}
	if len(result.Diagnostics) != 1 || result.Diagnostics[0].Path != "io.data" {
		t.Errorf("got %+v, want one diagnostic at io.data", result.Diagnostics)
	}
}

func TestCheckConnectValid(t *testing.T) {
	ctx := NewContext()
	dest := ctx.MustParse("bundle<a: uint<8>, b flip: uint<4>>")
	src := ctx.MustParse("bundle<a: uint<8>, b flip: uint<4>>")

	result, err := ctx.CheckConnect(dest, src, CheckOptions{})
	if err != nil {
		t.Fatalf("CheckConnect failed: %v", err)
	}
	if !result.Valid || len(result.Diagnostics) != 0 {
		t.Errorf("got %+v, want a clean result", result)
	}
}

func TestCheckConnectRules(t *testing.T) {
	ctx := NewContext()
	dest := ctx.MustParse("uint<4>")
	src := ctx.MustParse("uint<8>")

	result, err := ctx.CheckConnect(dest, src, CheckOptions{
		Rules: map[string]string{"implicit_truncation": "warning"},
	})
	if err != nil {
		t.Fatalf("CheckConnect failed: %v", err)
	}

	if !result.Valid {
		t.Error("a truncation warning must not invalidate the connection")
	}
	if len(result.Diagnostics) != 1 {
		t.Fatalf("got %d diagnostics, want 1", len(result.Diagnostics))
	}
	d := result.Diagnostics[0]
	if d.Severity != "warning" || d.Code != "E0205" {
		t.Errorf("got severity=%q code=%q", d.Severity, d.Code)
	}
}

func TestCheckConnectBadSeverity(t *testing.T) {
	ctx := NewContext()
	dest := ctx.MustParse("uint<4>")
	src := ctx.MustParse("uint<8>")

	_, err := ctx.CheckConnect(dest, src, CheckOptions{
		Rules: map[string]string{"implicit_truncation": "loud"},
	})
	if err == nil || !strings.Contains(err.Error(), `unknown severity "loud"`) {
		t.Errorf("got %v, want an unknown-severity error", err)
	}
}

func TestCheckConnectMatchesEquivalent(t *testing.T) {
	ctx := NewContext()
	inputs := []string{
		"uint<8>", "uint<4>", "sint<8>", "clock", "reset",
		"bundle<a: uint<8>>", "bundle<a flip: uint<8>>",
		"vector<uint<8>, 2>", "const.uint<8>", "probe<uint<8>>",
	}

	for _, d := range inputs {
		for _, s := range inputs {
			dest := ctx.MustParse(d)
			src := ctx.MustParse(s)
			result, err := ctx.CheckConnect(dest, src, CheckOptions{})
			if err != nil {
				t.Fatalf("CheckConnect failed: %v", err)
			}
			if result.Valid != Equivalent(dest, src) {
				t.Errorf("%s <= %s: Valid=%v, Equivalent=%v", d, s, result.Valid, Equivalent(dest, src))
			}
		}
	}
}

// ----------------------------------------------------------------------------
// Printing
// ----------------------------------------------------------------------------

func TestPrint(t *testing.T) {
	ctx := NewContext()
	typ := ctx.MustParse("bundle<a: uint<8>, b: uint<4>>")

	compact := ctx.Print(typ, PrintOptions{})
	if compact != typ.String() {
		t.Errorf("compact: got %q, want %q", compact, typ.String())
	}

	pretty := ctx.Print(typ, PrintOptions{Pretty: true, Width: 10})
	if !strings.Contains(pretty, "\n") {
		t.Errorf("pretty: expected multi-line output, got %q", pretty)
	}
}

func TestFieldTable(t *testing.T) {
	ctx := NewContext()
	typ := ctx.MustParse("bundle<a: uint<8>>")

	table, err := ctx.FieldTable(typ)
	if err != nil {
		t.Fatalf("FieldTable failed: %v", err)
	}
	if !strings.Contains(table, "a") || !strings.Contains(table, "uint<8>") {
		t.Errorf("unexpected table:\n%s", table)
	}

	if _, err := ctx.FieldTable(ctx.MustParse("string")); err == nil {
		t.Error("expected an error for a property type")
	}
}

func TestFieldAt(t *testing.T) {
	ctx := NewContext()
	typ := ctx.MustParse("bundle<a: uint<8>, b: vector<uint<8>, 2>>")

	sub, path, err := ctx.FieldAt(typ, 3)
	if err != nil {
		t.Fatalf("FieldAt failed: %v", err)
	}
	if sub.String() != "uint<8>" || path != "b[0]" {
		t.Errorf("got %s at %q, want uint<8> at b[0]", sub, path)
	}

	if _, _, err := ctx.FieldAt(typ, 99); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Errorf("got %v, want an out-of-range error", err)
	}
}

// ----------------------------------------------------------------------------
// Reflection
// ----------------------------------------------------------------------------

func TestReflect(t *testing.T) {
	ctx := NewContext()
	if err := ctx.Define("Word", "uint<32>"); err != nil {
		t.Fatalf("Define failed: %v", err)
	}

	result := ctx.Reflect("Word")
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Info.Kind != "uint" {
		t.Errorf("Kind: got %q, want uint", result.Info.Kind)
	}
	if len(result.Info.Alias) != 1 || result.Info.Alias[0] != "Word" {
		t.Errorf("Alias: got %v, want [Word]", result.Info.Alias)
	}
	if result.Layout == nil || result.Layout.Bits != 32 {
		t.Errorf("Layout: got %+v", result.Layout)
	}
}

func TestReflectErrors(t *testing.T) {
	ctx := NewContext()

	result := ctx.Reflect("Missing")
	if result.Info != nil || len(result.Errors) == 0 {
		t.Errorf("got %+v, want errors only", result)
	}
}

// ----------------------------------------------------------------------------
// Comparisons and Transformations
// ----------------------------------------------------------------------------

func TestComparisons(t *testing.T) {
	ctx := NewContext()
	parse := ctx.MustParse

	if !Equivalent(parse("uint<8>"), parse("uint<4>")) {
		t.Error("lax equivalence must permit width differences")
	}
	if EquivalentStrict(parse("uint<8>"), parse("uint<4>")) {
		t.Error("strict equivalence must reject width differences")
	}
	if !EquivalentStrict(parse("uint<8>"), parse("uint<8>")) {
		t.Error("strict equivalence must accept identical types")
	}

	// Weak equivalence ignores vector lengths and missing fields.
	if !WeaklyEquivalent(parse("vector<uint<8>, 2>"), parse("vector<uint<8>, 4>")) {
		t.Error("weak equivalence must ignore vector lengths")
	}
	if !WeaklyEquivalent(parse("bundle<a: uint<8>>"), parse("bundle<a: uint<8>, b: uint<1>>")) {
		t.Error("weak equivalence must ignore extra source fields")
	}

	if !ConstCastable(parse("uint<8>"), parse("const.uint<8>")) {
		t.Error("dropping const must cast")
	}
	if ConstCastable(parse("const.uint<8>"), parse("uint<8>")) {
		t.Error("adding const must not cast")
	}

	if !RefCastable(parse("probe<uint>"), parse("probe<uint<8>>")) {
		t.Error("an unknown-width probe target must accept a sized one")
	}
	if RefCastable(parse("rwprobe<uint<8>>"), parse("probe<uint<8>>")) {
		t.Error("casting must not add forceability")
	}

	a := parse("uint<8>").(BaseType)
	b := parse("uint<4>").(BaseType)
	if !IsLarger(a, b) || IsLarger(b, a) {
		t.Error("IsLarger must order by width")
	}
}

func TestTransforms(t *testing.T) {
	ctx := NewContext()
	base := ctx.MustParse("bundle<a flip: const.uint<8>>").(BaseType)

	if got := Passive(base).String(); got != "bundle<a: const.uint<8>>" {
		t.Errorf("Passive: got %q", got)
	}
	if got := DropConst(base).String(); got != "bundle<a flip: uint<8>>" {
		t.Errorf("DropConst: got %q", got)
	}
	if got := Widthless(base).String(); got != "bundle<a flip: const.uint>" {
		t.Errorf("Widthless: got %q", got)
	}
	if got := Mask(base).String(); got != "bundle<a: uint<1>>" {
		t.Errorf("Mask: got %q", got)
	}

	aliased := ctx.MustParse("alias<W, uint<8>>").(BaseType)
	if got := Anonymous(aliased).String(); got != "uint<8>" {
		t.Errorf("Anonymous: got %q", got)
	}
	if got := WithConst(aliased, true).String(); got != "const.alias<W, uint<8>>" {
		t.Errorf("WithConst: got %q", got)
	}
}

func TestQueries(t *testing.T) {
	ctx := NewContext()

	typ := ctx.MustParse("alias<W, bundle<a: uint<8>>>")
	if b, ok := As[*Bundle](typ); !ok || b.NumElements() != 1 {
		t.Error("As must look through aliases")
	}
	if !Is[*Bundle](typ) {
		t.Error("Is must look through aliases")
	}
	if Under(typ).String() != "bundle<a: uint<8>>" {
		t.Errorf("Under: got %q", Under(typ))
	}
	if names := AliasNames(typ); len(names) != 1 || names[0] != "W" {
		t.Errorf("AliasNames: got %v", names)
	}

	base := ctx.MustParse("bundle<a: uint<8>, b: uint<4>>").(BaseType)
	if bits, known := BitWidth(base, true); !known || bits != 12 {
		t.Errorf("BitWidth: got %d, %v", bits, known)
	}
	if BitWidthOrSentinel(base) != -2 {
		t.Errorf("BitWidthOrSentinel: got %d, want -2 for an aggregate", BitWidthOrSentinel(base))
	}

	if !IsGround(ctx.MustParse("clock")) {
		t.Error("IsGround(clock) must be true")
	}
	if !IsReset(ctx.MustParse("uint<1>")) {
		t.Error("IsReset(uint<1>) must be true")
	}
	if IsRegister(ctx.MustParse("analog<4>").(BaseType)) {
		t.Error("IsRegister(analog) must be false")
	}
}

// ----------------------------------------------------------------------------
// Configuration
// ----------------------------------------------------------------------------

func TestApplyConfig(t *testing.T) {
	ctx := NewContext()
	cfg := &Config{
		Types: map[string]string{
			"Word": "uint<32>",
			"Pair": "bundle<lo: Word, hi: Word>",
		},
	}

	if errs := ctx.ApplyConfig(cfg); len(errs) > 0 {
		t.Fatalf("ApplyConfig failed: %v", errs)
	}

	typ := ctx.MustParse("vector<Pair, 2>")
	if !strings.Contains(typ.String(), "alias<Pair") {
		t.Errorf("got %q, want the Pair alias inside", typ.String())
	}
}

func TestApplyConfigErrors(t *testing.T) {
	ctx := NewContext()
	cfg := &Config{
		Types: map[string]string{"A": "vector<Missing, 2>"},
	}

	errs := ctx.ApplyConfig(cfg)
	if len(errs) != 1 || !strings.Contains(errs[0].Error(), `unknown type "Missing"`) {
		t.Errorf("got %v, want one unknown-type error", errs)
	}
}
