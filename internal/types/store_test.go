package types

import (
	"strings"
	"sync"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/elhewaty/circt/internal/test"
)

func errOf[T Type](_ T, err error) error { return err }

// ----------------------------------------------------------------------------
// Interning
// ----------------------------------------------------------------------------

func TestInterningIdentity(t *testing.T) {
	s := NewStore()

	if u(s, 8) != u(s, 8) {
		t.Error("uint<8> interned twice")
	}
	if probe(s, u(s, 8)) != probe(s, u(s, 8)) {
		t.Error("probe<uint<8>> interned twice")
	}

	b1 := s.Bundle([]BundleElement{elt("a", u(s, 8)), flipElt("b", si(s, 4))}, false)
	b2 := s.Bundle([]BundleElement{elt("a", u(s, 8)), flipElt("b", si(s, 4))}, false)
	if b1 != b2 {
		t.Error("same bundle structure produced different instances")
	}

	e1 := enum(s, EnumElement{Name: "a", Type: u(s, 1)})
	e2 := enum(s, EnumElement{Name: "a", Type: u(s, 1)})
	if e1 != e2 {
		t.Error("same enum structure produced different instances")
	}

	a1 := alias(s, "Word", u(s, 32))
	a2 := alias(s, "Word", u(s, 32))
	if a1 != a2 {
		t.Error("same alias produced different instances")
	}
}

func TestInterningDistinguishes(t *testing.T) {
	s := NewStore()

	if u(s, 8) == u(s, 9) {
		t.Error("widths collapsed")
	}
	if u(s, 8) == cu(s, 8) {
		t.Error("const collapsed")
	}
	if Type(u(s, 8)) == Type(si(s, 8)) {
		t.Error("signedness collapsed")
	}
	if probe(s, u(s, 8)) == rwprobe(s, u(s, 8)) {
		t.Error("forceability collapsed")
	}

	plain := s.Bundle([]BundleElement{elt("a", u(s, 1)), elt("b", u(s, 1))}, false)
	flipped := s.Bundle([]BundleElement{elt("a", u(s, 1)), flipElt("b", u(s, 1))}, false)
	renamed := s.Bundle([]BundleElement{elt("a", u(s, 1)), elt("c", u(s, 1))}, false)
	reordered := s.Bundle([]BundleElement{elt("b", u(s, 1)), elt("a", u(s, 1))}, false)
	if plain == flipped || plain == renamed || plain == reordered {
		t.Error("bundle variations collapsed")
	}

	if alias(s, "A", u(s, 8)) == alias(s, "B", u(s, 8)) {
		t.Error("alias names collapsed")
	}
}

func TestStoreSeedsAndSnapshot(t *testing.T) {
	s := NewStore()
	seeded := s.Len()
	if seeded == 0 {
		t.Fatal("store not seeded")
	}

	// Re-requesting seeded types must not grow the store.
	s.Clock(false)
	Must(s.UInt(1, false))
	test.AssertEqual(t, s.Len(), seeded)

	u(s, 77)
	test.AssertEqual(t, s.Len(), seeded+1)

	all := s.Types()
	test.AssertEqual(t, len(all), s.Len())
	if all[0] != Type(s.Clock(false)) {
		t.Error("creation order not preserved")
	}
}

// ----------------------------------------------------------------------------
// Verification
// ----------------------------------------------------------------------------

func TestConstructorErrors(t *testing.T) {
	s := NewStore()
	flipped := s.Bundle([]BundleElement{flipElt("x", u(s, 1))}, false)

	cases := []struct {
		name string
		err  error
	}{
		{"uint below sentinel", errOf(s.UInt(-2, false))},
		{"sint below sentinel", errOf(s.SInt(-5, false))},
		{"analog below sentinel", errOf(s.Analog(-2, false))},
		{"negative vector length", errOf(s.Vector(u(s, 8), -1, false))},
		{"non-passive enum field", errOf(s.Enum([]EnumElement{{Name: "bad", Type: flipped}}, false))},
		{"analog enum field", errOf(s.Enum([]EnumElement{{Name: "bad", Type: an(s, 1)}}, false))},
		{"const field in non-const enum", errOf(s.Enum([]EnumElement{{Name: "c", Type: cu(s, 1)}}, false))},
		{"property in open bundle", errOf(s.OpenBundle([]OpenBundleElement{{Name: "s", Type: s.PropertyString()}}, false))},
		{"const open bundle with probe", errOf(s.OpenBundle([]OpenBundleElement{{Name: "p", Type: probe(s, u(s, 1))}}, true))},
		{"property in open vector", errOf(s.OpenVector(s.PropertyString(), 1, false))},
		{"const open vector with probe", errOf(s.OpenVector(probe(s, u(s, 1)), 1, true))},
		{"negative open vector length", errOf(s.OpenVector(u(s, 8), -2, false))},
		{"non-passive probe target", errOf(s.Ref(flipped, false))},
		{"forceable probe of const", errOf(s.Ref(cu(s, 8), true))},
		{"alias without names", errOf(s.Alias(nil, u(s, 8)))},
		{"alias with bad name", errOf(s.Alias([]string{"not ok"}, u(s, 8)))},
	}
	for _, c := range cases {
		if c.err == nil {
			t.Errorf("%s: expected error", c.name)
		}
	}

	_, err := s.UInt(-2, false)
	test.AssertEqual(t, err.Error(), "invalid width -2")
	_, err = s.Ref(flipped, false)
	test.AssertEqual(t, err.Error(), "reference base type must be passive")
	_, err = s.Enum([]EnumElement{{Name: "bad", Type: flipped}}, false)
	if !strings.Contains(err.Error(), `enum field "bad" not passive`) {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestConstructorAccepts(t *testing.T) {
	s := NewStore()

	// A const enum may carry const fields.
	if _, err := s.Enum([]EnumElement{{Name: "c", Type: cu(s, 1)}}, true); err != nil {
		t.Errorf("const enum with const field: %v", err)
	}
	// A non-forceable probe may target const.
	if _, err := s.Ref(cu(s, 8), false); err != nil {
		t.Errorf("probe of const: %v", err)
	}
	// Zero-length vectors are legal.
	if _, err := s.Vector(u(s, 8), 0, false); err != nil {
		t.Errorf("empty vector: %v", err)
	}
	// Open aggregates accept plain hardware and nested open types.
	ob := Must(s.OpenBundle([]OpenBundleElement{{Name: "data", Type: u(s, 8)}}, false))
	if _, err := s.OpenVector(ob, 3, false); err != nil {
		t.Errorf("open vector of open bundle: %v", err)
	}
}

// ----------------------------------------------------------------------------
// Recursive Properties
// ----------------------------------------------------------------------------

func TestRecursiveProperties(t *testing.T) {
	s := NewStore()
	openWithProbe := Must(s.OpenBundle([]OpenBundleElement{
		{Name: "p", Flip: true, Type: probe(s, u(s, 1))},
	}, false))

	cases := []struct {
		name string
		typ  Type
		want RecursiveProperties
	}{
		{"clock", s.Clock(false), RecursiveProperties{IsPassive: true}},
		{"reset", s.Reset(false), RecursiveProperties{IsPassive: true, HasUninferredReset: true}},
		{"const asyncreset", s.AsyncReset(true), RecursiveProperties{IsPassive: true, ContainsConst: true}},
		{"uint unknown", u(s, WidthUnknown), RecursiveProperties{IsPassive: true, HasUninferredWidth: true}},
		{"uint known", u(s, 8), RecursiveProperties{IsPassive: true}},
		{"analog", an(s, 8), RecursiveProperties{IsPassive: true, ContainsAnalog: true}},
		{"flipped bundle", s.Bundle([]BundleElement{flipElt("x", u(s, 1))}, false),
			RecursiveProperties{}},
		{"const bundle", s.Bundle([]BundleElement{elt("x", u(s, 1))}, true),
			RecursiveProperties{IsPassive: true, ContainsConst: true}},
		{"bundle with const field", s.Bundle([]BundleElement{elt("x", cu(s, 1))}, false),
			RecursiveProperties{IsPassive: true, ContainsConst: true}},
		{"vector of analog", vec(s, an(s, WidthUnknown), 3),
			RecursiveProperties{IsPassive: true, ContainsAnalog: true, HasUninferredWidth: true}},
		{"const vector", Must(s.Vector(u(s, 8), 2, true)),
			RecursiveProperties{IsPassive: true, ContainsConst: true}},
		{"enum", enum(s, EnumElement{Name: "a", Type: u(s, 1)}),
			RecursiveProperties{IsPassive: true}},
		{"probe", probe(s, u(s, 8)), RecursiveProperties{ContainsReference: true}},
		{"probe of reset", probe(s, s.Reset(false)),
			RecursiveProperties{ContainsReference: true, HasUninferredReset: true}},
		{"open bundle with probe", openWithProbe, RecursiveProperties{ContainsReference: true}},
		{"alias", alias(s, "A8", u(s, 8)),
			RecursiveProperties{IsPassive: true, ContainsTypeAlias: true}},
		{"bundle with alias field", s.Bundle([]BundleElement{elt("w", alias(s, "B8", u(s, 8)))}, false),
			RecursiveProperties{IsPassive: true, ContainsTypeAlias: true}},
		{"string", s.PropertyString(), RecursiveProperties{IsPassive: true}},
		{"list", s.List(s.PropertyString()), RecursiveProperties{IsPassive: true}},
	}
	for _, c := range cases {
		if got := c.typ.Props(); got != c.want {
			t.Errorf("%s:\n%s", c.name, test.Diff(spew.Sdump(c.want), spew.Sdump(got)))
		}
	}
}

// ----------------------------------------------------------------------------
// Concurrency
// ----------------------------------------------------------------------------

func TestConcurrentInterning(t *testing.T) {
	s := NewStore()
	const workers = 8
	results := make([]*Bundle, workers)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			inner := Must(s.Vector(Must(s.UInt(8, false)), 4, false))
			results[w] = s.Bundle([]BundleElement{
				{Name: "data", Type: inner},
				{Name: "valid", Flip: true, Type: Must(s.UInt(1, false))},
			}, false)
		}(w)
	}
	wg.Wait()

	for w := 1; w < workers; w++ {
		if results[w] != results[0] {
			t.Fatalf("worker %d built a distinct instance", w)
		}
	}
}
