// Package validator explains connection legality between types.
//
// A connect drives a destination from a source. The checker re-walks
// the two types side by side and reports every structural reason the
// drive is illegal: kind and field-name mismatches, arity and length
// conflicts, orientation flips, const violations, reset
// incompatibilities, and width conflicts, each tagged with the field
// path where it occurs.
//
// With default options the checker reports at least one error exactly
// when types.Equivalent returns false, and none when it returns true.
// Both sides must come from the same Store; legality of references,
// open aggregates, and property types is interning identity, so the
// checker explains those by printing both types rather than recursing
// with the lax base-type rules.
package validator

import (
	"fmt"
	"strconv"

	"github.com/elhewaty/circt/internal/diagnostic"
	"github.com/elhewaty/circt/internal/types"
)

// Options controls checking behavior.
type Options struct {
	// StrictWidths demands exact width agreement wherever both sides
	// carry a known width, matching types.EquivalentStrict.
	StrictWidths bool

	// StrictMode treats warnings as errors.
	StrictMode bool

	// DiagnosticFilters enables optional rules such as
	// diagnostic.RuleImplicitTruncation.
	DiagnosticFilters *diagnostic.DiagnosticFilter
}

// Result contains check results.
type Result struct {
	// Valid is true if no errors were found.
	Valid bool
	// Diagnostics contains all messages, errors and warnings both.
	Diagnostics *diagnostic.DiagnosticList
}

// CheckConnect reports why src may not drive dest, if it may not.
func CheckConnect(dest, src types.Type, options Options) *Result {
	c := &checker{
		diags:   diagnostic.NewDiagnosticList(""),
		options: options,
	}
	if options.DiagnosticFilters == nil {
		c.options.DiagnosticFilters = diagnostic.NewDiagnosticFilter()
	}

	c.check(dest, src, "", false, false, options.StrictWidths)

	return &Result{
		Valid:       !c.diags.HasErrors(),
		Diagnostics: c.diags,
	}
}

type checker struct {
	diags   *diagnostic.DiagnosticList
	options Options
}

// ----------------------------------------------------------------------------
// Base Type Walk
// ----------------------------------------------------------------------------

// check mirrors the Equivalent recursion, emitting a diagnostic at
// every point where Equivalent would have returned false. destConst
// and srcConst accumulate the const context of enclosing aggregates.
func (c *checker) check(dest, src types.Type, path string, destConst, srcConst, exactWidths bool) {
	db, dok := dest.(types.BaseType)
	sb, sok := src.(types.BaseType)
	if !dok || !sok {
		c.checkNonBase(dest, src, path)
		return
	}

	destConst = destConst || db.IsConst()
	srcConst = srcConst || sb.IsConst()

	dv, dvok := types.As[*types.Vector](db)
	sv, svok := types.As[*types.Vector](sb)
	if dvok && svok {
		if dv.Len() != sv.Len() {
			c.errorf(diagnostic.CodeLengthMismatch, path,
				"vector length mismatch: destination has %d elements, source has %d", dv.Len(), sv.Len())
		}
		c.check(dv.ElementType(), sv.ElementType(), path+"[]", destConst, srcConst, exactWidths)
		return
	}

	dbu, dbok := types.As[*types.Bundle](db)
	sbu, sbok := types.As[*types.Bundle](sb)
	if dbok && sbok {
		c.checkBundles(dbu, sbu, path, destConst, srcConst, exactWidths)
		return
	}

	de, deok := types.As[*types.Enum](db)
	se, seok := types.As[*types.Enum](sb)
	if deok && seok {
		c.checkEnums(de, se, path, destConst, srcConst)
		return
	}

	c.checkLeaf(db, sb, path, destConst, srcConst, exactWidths)
}

func (c *checker) checkBundles(dest, src *types.Bundle, path string, destConst, srcConst, exactWidths bool) {
	if dest.NumElements() != src.NumElements() {
		c.errorf(diagnostic.CodeElementCountMismatch, path,
			"bundle field count mismatch: destination has %d fields, source has %d",
			dest.NumElements(), src.NumElements())
	}
	for i := 0; i < min(dest.NumElements(), src.NumElements()); i++ {
		de, se := dest.Element(i), src.Element(i)
		if de.Name != se.Name {
			c.errorf(diagnostic.CodeElementNameMismatch, path,
				"field %d is named %q in the destination but %q in the source", i, de.Name, se.Name)
			continue
		}
		eltPath := childPath(path, de.Name)
		if de.Flip != se.Flip {
			if de.Flip {
				c.errorf(diagnostic.CodeFlipMismatch, eltPath,
					"field %q is flipped in the destination but not in the source", de.Name)
			} else {
				c.errorf(diagnostic.CodeFlipMismatch, eltPath,
					"field %q is flipped in the source but not in the destination", de.Name)
			}
			continue
		}

		// A flipped field drives the other way, const context included.
		dt, st := de.Type, se.Type
		dc, sc := destConst, srcConst
		if de.Flip {
			dt, st = st, dt
			dc, sc = sc, dc
		}
		c.check(dt, st, eltPath, dc, sc, exactWidths)
	}
}

func (c *checker) checkEnums(dest, src *types.Enum, path string, destConst, srcConst bool) {
	if dest.NumElements() != src.NumElements() {
		c.errorf(diagnostic.CodeElementCountMismatch, path,
			"enum variant count mismatch: destination has %d variants, source has %d",
			dest.NumElements(), src.NumElements())
	}
	for i := 0; i < min(dest.NumElements(), src.NumElements()); i++ {
		de, se := dest.Element(i), src.Element(i)
		if de.Name != se.Name {
			c.errorf(diagnostic.CodeVariantMismatch, path,
				"variant %d is named %q in the destination but %q in the source", i, de.Name, se.Name)
			continue
		}
		// Variant widths are load-bearing: a narrower variant would
		// move the tag bits, so widths are exact regardless of options.
		c.check(de.Type, se.Type, childPath(path, de.Name), destConst, srcConst, true)
	}
}

// checkLeaf handles ground pairs and any mismatched base kinds that
// fell through the aggregate pairings.
func (c *checker) checkLeaf(dest, src types.BaseType, path string, destConst, srcConst, exactWidths bool) {
	if destConst && !srcConst {
		c.errorf(diagnostic.CodeConstViolation, path,
			"const destination %s cannot be driven by non-const source %s", dest, src)
	}

	// Abstract reset accepts and drives any reset type.
	if types.Is[*types.Reset](dest) {
		if !types.IsReset(src) {
			c.errorf(diagnostic.CodeResetMismatch, path,
				"reset destination cannot be driven by %s", src)
		}
		return
	}
	if types.Is[*types.Reset](src) {
		if !types.IsReset(dest) {
			c.errorf(diagnostic.CodeResetMismatch, path,
				"%s cannot be driven by an abstract reset", dest)
		}
		return
	}

	dk, sk := kindName(dest), kindName(src)
	if dk != sk {
		c.errorf(diagnostic.CodeKindMismatch, path,
			"type mismatch: destination is %s, source is %s", dest, src)
		return
	}

	// Same ground kind: only widths can still differ.
	dw := types.BitWidthOrSentinel(dest)
	sw := types.BitWidthOrSentinel(src)
	if dw < 0 || sw < 0 || dw == sw {
		return
	}
	if exactWidths {
		c.errorf(diagnostic.CodeWidthMismatch, path,
			"width mismatch: destination is %s, source is %s", dest, src)
		return
	}
	if dw < sw && (dk == "uint" || dk == "sint") {
		c.truncation(path, dest, src)
	}
}

// truncation reports a narrowing connect when the optional rule is
// enabled. Lax equivalence permits the connect, so this is never an
// error under default options.
func (c *checker) truncation(path string, dest, src types.BaseType) {
	f := c.options.DiagnosticFilters
	if _, on := f.Rules[diagnostic.RuleImplicitTruncation]; !on || f.IsDisabled(diagnostic.RuleImplicitTruncation) {
		return
	}
	sev := f.GetSeverity(diagnostic.RuleImplicitTruncation, diagnostic.Warning)
	if sev == diagnostic.Error {
		c.errorf(diagnostic.CodeWidthTruncation, path,
			"implicit truncation from %s to %s", src, dest)
	} else {
		c.warningf(diagnostic.CodeWidthTruncation, path,
			"implicit truncation from %s to %s", src, dest)
	}
}

// ----------------------------------------------------------------------------
// Identity Walk
// ----------------------------------------------------------------------------

// checkNonBase handles pairs where at least one side is a reference,
// open aggregate, or property type.
func (c *checker) checkNonBase(dest, src types.Type, path string) {
	if dest == src {
		return
	}

	dr, drok := dest.(*types.Ref)
	sr, srok := src.(*types.Ref)
	if drok && srok {
		c.checkRefs(dr, sr, path)
		return
	}

	dob, dobok := dest.(*types.OpenBundle)
	sob, sobok := src.(*types.OpenBundle)
	if dobok && sobok {
		c.checkOpenBundles(dob, sob, path)
		return
	}

	dov, dovok := dest.(*types.OpenVector)
	sov, sovok := src.(*types.OpenVector)
	if dovok && sovok {
		c.checkOpenVectors(dov, sov, path)
		return
	}

	dp, dpok := dest.(types.PropertyType)
	sp, spok := src.(types.PropertyType)
	if dpok && spok {
		c.errorf(diagnostic.CodeNotConnectable, path,
			"property types must match exactly: destination is %s, source is %s", dp, sp)
		return
	}

	c.errorf(diagnostic.CodeKindMismatch, path,
		"type mismatch: destination is %s, source is %s", dest, src)
}

func (c *checker) checkRefs(dest, src *types.Ref, path string) {
	if dest.Forceable() != src.Forceable() {
		if dest.Forceable() {
			c.errorf(diagnostic.CodeProbeMismatch, path,
				"cannot connect rwprobe destination to probe source")
		} else {
			c.errorf(diagnostic.CodeProbeMismatch, path,
				"cannot connect probe destination to rwprobe source")
		}
	}
	if dest.TargetType() != src.TargetType() {
		c.errorf(diagnostic.CodeProbeMismatch, path,
			"probe targets differ: destination probes %s, source probes %s",
			dest.TargetType(), src.TargetType())
	}
}

func (c *checker) checkOpenBundles(dest, src *types.OpenBundle, path string) {
	if dest.IsConst() != src.IsConst() {
		c.errorf(diagnostic.CodeConstViolation, path,
			"const mismatch: destination is %s, source is %s", dest, src)
	}
	if dest.NumElements() != src.NumElements() {
		c.errorf(diagnostic.CodeElementCountMismatch, path,
			"bundle field count mismatch: destination has %d fields, source has %d",
			dest.NumElements(), src.NumElements())
	}
	for i := 0; i < min(dest.NumElements(), src.NumElements()); i++ {
		de, se := dest.Element(i), src.Element(i)
		if de.Name != se.Name {
			c.errorf(diagnostic.CodeElementNameMismatch, path,
				"field %d is named %q in the destination but %q in the source", i, de.Name, se.Name)
			continue
		}
		eltPath := childPath(path, de.Name)
		if de.Flip != se.Flip {
			if de.Flip {
				c.errorf(diagnostic.CodeFlipMismatch, eltPath,
					"field %q is flipped in the destination but not in the source", de.Name)
			} else {
				c.errorf(diagnostic.CodeFlipMismatch, eltPath,
					"field %q is flipped in the source but not in the destination", de.Name)
			}
			continue
		}
		c.checkIdentical(de.Type, se.Type, eltPath)
	}
}

func (c *checker) checkOpenVectors(dest, src *types.OpenVector, path string) {
	if dest.IsConst() != src.IsConst() {
		c.errorf(diagnostic.CodeConstViolation, path,
			"const mismatch: destination is %s, source is %s", dest, src)
	}
	if dest.Len() != src.Len() {
		c.errorf(diagnostic.CodeLengthMismatch, path,
			"vector length mismatch: destination has %d elements, source has %d", dest.Len(), src.Len())
	}
	c.checkIdentical(dest.ElementType(), src.ElementType(), path+"[]")
}

// checkIdentical reports any difference between two open-aggregate
// element types. These match by identity, not by the lax base rules,
// so a base pair gets a single exact-match diagnostic.
func (c *checker) checkIdentical(dest, src types.Type, path string) {
	if dest == src {
		return
	}
	_, dok := dest.(types.BaseType)
	_, sok := src.(types.BaseType)
	if !dok || !sok {
		c.checkNonBase(dest, src, path)
		return
	}
	c.errorf(diagnostic.CodeNotConnectable, path,
		"element types must match exactly: destination is %s, source is %s", dest, src)
}

// ----------------------------------------------------------------------------
// Helpers
// ----------------------------------------------------------------------------

func (c *checker) errorf(code diagnostic.DiagnosticCode, path, format string, args ...interface{}) {
	c.diags.AddErrorWithCode(0, code, path, fmt.Sprintf(format, args...))
}

func (c *checker) warningf(code diagnostic.DiagnosticCode, path, format string, args ...interface{}) {
	if c.options.StrictMode {
		c.diags.AddErrorWithCode(0, code, path, fmt.Sprintf(format, args...))
	} else {
		c.diags.AddWarningWithCode(0, code, path, fmt.Sprintf(format, args...))
	}
}

func childPath(base, name string) string {
	if !types.IsValidIdentifier(name) {
		name = strconv.Quote(name)
	}
	if base == "" {
		return name
	}
	return base + "." + name
}

func kindName(t types.BaseType) string {
	switch types.Under(t).(type) {
	case *types.Clock:
		return "clock"
	case *types.Reset:
		return "reset"
	case *types.AsyncReset:
		return "asyncreset"
	case *types.SInt:
		return "sint"
	case *types.UInt:
		return "uint"
	case *types.Analog:
		return "analog"
	case *types.Bundle:
		return "bundle"
	case *types.Vector:
		return "vector"
	case *types.Enum:
		return "enum"
	default:
		panic("validator: unrecognized type kind")
	}
}
