// Command firtype parses, inspects, and compares FIRRTL types.
//
// Usage:
//
//	firtype [options] <type>
//	firtype [options] "<dest> <= <src>"
//	firtype -equiv [options] <dest> <src>
//	cat port.txt | firtype [options]
//	firtype -repl
//
// Options:
//
//	-f <file>         Read the input from file
//	-o <file>         Write output to file (default: stdout)
//	-config <file>    Use specific config file
//	-no-config        Ignore config files
//	-pretty           Multi-line layout for aggregate types
//	-indent <str>     Indentation unit for -pretty
//	-width <n>        Column budget for -pretty
//	-props            Print the recursive properties
//	-fields           Print the field ID table
//	-json             Print the JSON description and bit layout
//	-dump             Print the description tree as a Go literal
//	-passive          Strip flips before printing
//	-anonymous        Strip type aliases before printing
//	-widthless        Strip widths before printing
//	-mask             Convert to the mask type before printing
//	-const            Make the type const before printing
//	-drop-const       Strip const everywhere before printing
//	-equiv            Check that the second type can drive the first
//	-weak             Check weak equivalence of two types
//	-const-cast       Check const casting between two types
//	-ref-cast         Check reference casting between two types
//	-larger           Check that the first type is at least as wide
//	-explain          Explain an -equiv or connect check with diagnostics
//	-strict-widths    Require exact width matches
//	-strict           Treat warnings as errors
//	-rule <name=sev>  Set a rule severity (repeatable)
//	-repl             Start the interactive loop
//	-version          Print version and exit
//	-help             Print help and exit
//
// Config file:
//
//	firtype looks for firtype.json or .firtyperc in the current directory
//	and parent directories. Config file options are overridden by CLI
//	flags. Types named in the config are resolvable by bare identifier
//	in any input.
//
// Example firtype.json:
//
//	{
//	    "types": {
//	        "Word": "uint<32>",
//	        "Chan": "bundle<data: Word, valid: uint<1>, ready flip: uint<1>>"
//	    },
//	    "pretty": true,
//	    "rules": {"implicit_truncation": "warning"}
//	}
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sanity-io/litter"

	"github.com/elhewaty/circt/pkg/api"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// errCheckFailed reports a false comparison or an invalid connection.
// The finding is already printed, so main exits 1 without a message.
var errCheckFailed = errors.New("check failed")

func main() {
	if err := run(); err != nil {
		if errors.Is(err, errCheckFailed) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// transforms are the type rewrites requested on the command line,
// applied in field order.
type transforms struct {
	passive   bool
	anonymous bool
	widthless bool
	mask      bool
	dropConst bool
	makeConst bool
}

func (tr transforms) any() bool {
	return tr.passive || tr.anonymous || tr.widthless || tr.mask || tr.dropConst || tr.makeConst
}

// views are the requested output forms for a single type.
type views struct {
	props  bool
	fields bool
	jsonv  bool
	dump   bool
}

func (v views) any() bool {
	return v.props || v.fields || v.jsonv || v.dump
}

// ruleList collects repeated -rule flags.
type ruleList []string

func (r *ruleList) String() string { return strings.Join(*r, ",") }

func (r *ruleList) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func run() error {
	// Flags
	var (
		inputFile    string
		outputFile   string
		configFile   string
		noConfig     bool
		pretty       bool
		indent       string
		width        int
		tr           transforms
		vw           views
		cmpEquiv     bool
		cmpWeak      bool
		cmpConstCast bool
		cmpRefCast   bool
		cmpLarger    bool
		explain      bool
		strictWidths bool
		strictMode   bool
		rules        ruleList
		startREPL    bool
		showVersion  bool
		showHelp     bool
	)

	flag.StringVar(&inputFile, "f", "", "Read input from `file`")
	flag.StringVar(&outputFile, "o", "", "Write output to `file`")
	flag.StringVar(&configFile, "config", "", "Use specific config `file`")
	flag.BoolVar(&noConfig, "no-config", false, "Ignore config files")
	flag.BoolVar(&pretty, "pretty", false, "Multi-line layout for aggregate types")
	flag.StringVar(&indent, "indent", "  ", "Indentation `unit` for -pretty")
	flag.IntVar(&width, "width", 80, "Column `budget` for -pretty")
	flag.BoolVar(&vw.props, "props", false, "Print the recursive properties")
	flag.BoolVar(&vw.fields, "fields", false, "Print the field ID table")
	flag.BoolVar(&vw.jsonv, "json", false, "Print the JSON description and bit layout")
	flag.BoolVar(&vw.dump, "dump", false, "Print the description tree as a Go literal")
	flag.BoolVar(&tr.passive, "passive", false, "Strip flips before printing")
	flag.BoolVar(&tr.anonymous, "anonymous", false, "Strip type aliases before printing")
	flag.BoolVar(&tr.widthless, "widthless", false, "Strip widths before printing")
	flag.BoolVar(&tr.mask, "mask", false, "Convert to the mask type before printing")
	flag.BoolVar(&tr.makeConst, "const", false, "Make the type const before printing")
	flag.BoolVar(&tr.dropConst, "drop-const", false, "Strip const everywhere before printing")
	flag.BoolVar(&cmpEquiv, "equiv", false, "Check that the second type can drive the first")
	flag.BoolVar(&cmpWeak, "weak", false, "Check weak equivalence of two types")
	flag.BoolVar(&cmpConstCast, "const-cast", false, "Check const casting between two types")
	flag.BoolVar(&cmpRefCast, "ref-cast", false, "Check reference casting between two types")
	flag.BoolVar(&cmpLarger, "larger", false, "Check that the first type is at least as wide")
	flag.BoolVar(&explain, "explain", false, "Explain an -equiv or connect check with diagnostics")
	flag.BoolVar(&strictWidths, "strict-widths", false, "Require exact width matches")
	flag.BoolVar(&strictMode, "strict", false, "Treat warnings as errors")
	flag.Var(&rules, "rule", "Set a `rule=severity` pair (repeatable)")
	flag.BoolVar(&startREPL, "repl", false, "Start the interactive loop")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.BoolVar(&showHelp, "help", false, "Print help and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "firtype - FIRRTL type inspector v%s\n\n", version)
		fmt.Fprintf(os.Stderr, "Usage: firtype [options] <type>\n")
		fmt.Fprintf(os.Stderr, "       firtype [options] \"<dest> <= <src>\"\n")
		fmt.Fprintf(os.Stderr, "       firtype -equiv [options] <dest> <src>\n")
		fmt.Fprintf(os.Stderr, "       cat port.txt | firtype [options]\n")
		fmt.Fprintf(os.Stderr, "       firtype -repl\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nConfig file:\n")
		fmt.Fprintf(os.Stderr, "  Searches for firtype.json or .firtyperc in current and parent directories.\n")
		fmt.Fprintf(os.Stderr, "  CLI flags override config file settings.\n")
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  firtype 'bundle<a: uint<8>, b flip: sint<4>>' -fields\n")
		fmt.Fprintf(os.Stderr, "  firtype -passive -pretty 'bundle<a flip: uint<8>>'\n")
		fmt.Fprintf(os.Stderr, "  firtype -equiv 'uint<8>' 'uint<4>'\n")
		fmt.Fprintf(os.Stderr, "  firtype -explain 'bundle<a: uint<8>> <= bundle<a: sint<8>>'\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		return nil
	}

	if showVersion {
		fmt.Printf("firtype v%s (%s)\n", version, commit)
		return nil
	}

	// Which comparison, if any
	var rel string
	for _, c := range []struct {
		name string
		set  bool
	}{
		{"equiv", cmpEquiv},
		{"weak", cmpWeak},
		{"const-cast", cmpConstCast},
		{"ref-cast", cmpRefCast},
		{"larger", cmpLarger},
	} {
		if !c.set {
			continue
		}
		if rel != "" {
			return fmt.Errorf("-%s and -%s are mutually exclusive", rel, c.name)
		}
		rel = c.name
	}

	if rel != "" && (tr.any() || vw.any()) {
		return fmt.Errorf("comparison flags cannot be combined with transform or view flags")
	}
	if explain && rel != "" && rel != "equiv" {
		return fmt.Errorf("-explain applies to -equiv and connect checks")
	}
	if tr.makeConst && tr.dropConst {
		return fmt.Errorf("-const and -drop-const are mutually exclusive")
	}

	// Load config file
	var cfg *api.Config
	if !noConfig {
		var err error
		if configFile != "" {
			cfg, err = api.LoadConfigFile(configFile)
			if err != nil {
				return fmt.Errorf("loading config file %s: %w", configFile, err)
			}
		} else {
			startDir, _ := os.Getwd()
			if inputFile != "" {
				startDir = filepath.Dir(inputFile)
			}
			cfg, _, err = api.LoadConfig(startDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
		}
	}

	ctx := api.NewContext()
	if cfg != nil {
		for _, e := range ctx.ApplyConfig(cfg) {
			fmt.Fprintf(os.Stderr, "warning: config: %v\n", e)
		}
	}

	// Build options from config (or defaults) and CLI overrides
	var popts api.PrintOptions
	copts := api.CheckOptions{StrictMode: strictMode}
	if cfg != nil {
		if cfg.Pretty != nil {
			popts.Pretty = *cfg.Pretty
		}
		if cfg.Indent != nil {
			popts.Indent = *cfg.Indent
		}
		if cfg.Width != nil {
			popts.Width = *cfg.Width
		}
		if cfg.StrictWidths != nil {
			copts.StrictWidths = *cfg.StrictWidths
		}
		for name, severity := range cfg.Rules {
			setRule(&copts, name, severity)
		}
	}
	flagsSet := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { flagsSet[f.Name] = true })
	if flagsSet["pretty"] {
		popts.Pretty = pretty
	}
	if flagsSet["indent"] {
		popts.Indent = indent
	}
	if flagsSet["width"] {
		popts.Width = width
	}
	if flagsSet["strict-widths"] {
		copts.StrictWidths = strictWidths
	}
	for _, arg := range rules {
		name, severity, ok := strings.Cut(arg, "=")
		if !ok {
			severity = "warning"
		}
		setRule(&copts, name, severity)
	}

	if startREPL {
		return runREPL(ctx, popts, copts)
	}

	// Read input
	inputs := flag.Args()
	if inputFile != "" {
		if len(inputs) > 0 {
			return fmt.Errorf("cannot combine -f with type arguments")
		}
		source, err := os.ReadFile(inputFile)
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		inputs = []string{string(source)}
	}
	if len(inputs) == 0 {
		// Check if stdin is a pipe
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			flag.Usage()
			return fmt.Errorf("no input specified")
		}
		source, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		inputs = []string{string(source)}
	}
	if len(inputs) > 2 {
		return fmt.Errorf("expected at most two type expressions, got %d", len(inputs))
	}

	// Open output
	var out io.Writer = os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	// Resolve the one-or-two types the mode needs. A single input
	// holding "<dest> <= <src>" counts as two.
	var dest, src api.Type
	switch {
	case len(inputs) == 2:
		if rel == "" {
			return fmt.Errorf("two type expressions require a comparison flag")
		}
		var errs []api.ParseError
		if dest, errs = ctx.Parse(inputs[0]); len(errs) > 0 {
			printParseErrors(errs)
			return errCheckFailed
		}
		if src, errs = ctx.Parse(inputs[1]); len(errs) > 0 {
			printParseErrors(errs)
			return errCheckFailed
		}
	case strings.Contains(inputs[0], "<="):
		var errs []api.ParseError
		if dest, src, errs = ctx.ParseConnect(inputs[0]); len(errs) > 0 {
			printParseErrors(errs)
			return errCheckFailed
		}
	default:
		if rel != "" {
			return fmt.Errorf("-%s needs two type expressions", rel)
		}
		t, errs := ctx.Parse(inputs[0])
		if len(errs) > 0 {
			printParseErrors(errs)
			return errCheckFailed
		}
		return printType(ctx, out, t, popts, tr, vw)
	}

	if rel == "" {
		// Connect check
		result, err := ctx.CheckConnect(dest, src, copts)
		if err != nil {
			return err
		}
		renderDiagnostics(out, result.Diagnostics)
		if !result.Valid {
			return errCheckFailed
		}
		fmt.Fprintln(out, "ok")
		return nil
	}

	ok, err := evalRelation(rel, dest, src, copts.StrictWidths)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, ok)
	if explain {
		result, err := ctx.CheckConnect(dest, src, copts)
		if err != nil {
			return err
		}
		renderDiagnostics(os.Stderr, result.Diagnostics)
	}
	if !ok {
		return errCheckFailed
	}
	return nil
}

// printType renders a single type: transforms first, then either the
// requested views or the canonical form.
func printType(ctx *api.Context, out io.Writer, t api.Type, popts api.PrintOptions, tr transforms, vw views) error {
	t, err := applyTransforms(t, tr)
	if err != nil {
		return err
	}

	if !vw.any() {
		fmt.Fprintln(out, ctx.Print(t, popts))
		return nil
	}
	if vw.props {
		fmt.Fprint(out, formatProps(t))
	}
	if vw.fields {
		table, err := ctx.FieldTable(t)
		if err != nil {
			return err
		}
		fmt.Fprint(out, table)
	}
	if vw.jsonv {
		b, err := json.MarshalIndent(describeResult(ctx, t), "", "  ")
		if err != nil {
			return fmt.Errorf("encoding description: %w", err)
		}
		fmt.Fprintln(out, string(b))
	}
	if vw.dump {
		fmt.Fprintln(out, litter.Sdump(ctx.Describe(t)))
	}
	return nil
}

func applyTransforms(t api.Type, tr transforms) (api.Type, error) {
	if !tr.any() {
		return t, nil
	}
	base, ok := t.(api.BaseType)
	if !ok {
		return nil, fmt.Errorf("%s is not a hardware type, transforms do not apply", t)
	}
	if tr.passive {
		base = api.Passive(base)
	}
	if tr.anonymous {
		base = api.Anonymous(base)
	}
	if tr.widthless {
		base = api.Widthless(base)
	}
	if tr.mask {
		base = api.Mask(base)
	}
	if tr.dropConst {
		base = api.DropConst(base)
	}
	if tr.makeConst {
		base = api.WithConst(base, true)
	}
	return base, nil
}

func evalRelation(rel string, dest, src api.Type, strictWidths bool) (bool, error) {
	switch rel {
	case "equiv":
		if strictWidths {
			return api.EquivalentStrict(dest, src), nil
		}
		return api.Equivalent(dest, src), nil
	case "weak":
		return api.WeaklyEquivalent(dest, src), nil
	case "const-cast":
		return api.ConstCastable(dest, src), nil
	case "ref-cast":
		return api.RefCastable(dest, src), nil
	case "larger":
		db, dok := dest.(api.BaseType)
		sb, sok := src.(api.BaseType)
		if !dok || !sok {
			return false, fmt.Errorf("-larger compares hardware types, got %s and %s", dest, src)
		}
		return api.IsLarger(db, sb), nil
	}
	panic("unknown relation " + rel)
}

func setRule(copts *api.CheckOptions, name, severity string) {
	if copts.Rules == nil {
		copts.Rules = make(map[string]string)
	}
	copts.Rules[name] = severity
}

func formatProps(t api.Type) string {
	p := t.Props()
	var b strings.Builder
	row := func(name string, v bool) {
		fmt.Fprintf(&b, "%-20s %v\n", name+":", v)
	}
	row("passive", p.IsPassive)
	row("containsAnalog", p.ContainsAnalog)
	row("containsReference", p.ContainsReference)
	row("containsConst", p.ContainsConst)
	row("containsTypeAlias", p.ContainsTypeAlias)
	row("hasUninferredWidth", p.HasUninferredWidth)
	row("hasUninferredReset", p.HasUninferredReset)
	return b.String()
}

// describeResult pairs the description tree with the bit layout, when
// the type has one.
func describeResult(ctx *api.Context, t api.Type) api.ReflectResult {
	result := api.ReflectResult{Info: ctx.Describe(t)}
	if base, ok := t.(api.BaseType); ok {
		if layout, err := ctx.ComputeLayout(base); err == nil {
			result.Layout = layout
		}
	}
	return result
}

func renderDiagnostics(w io.Writer, diags []api.Diagnostic) {
	for _, d := range diags {
		if d.Path != "" {
			fmt.Fprintf(w, "%s[%s]: %s: %s\n", d.Severity, d.Code, d.Path, d.Message)
			continue
		}
		fmt.Fprintf(w, "%s[%s]: %s\n", d.Severity, d.Code, d.Message)
	}
}

func printParseErrors(errs []api.ParseError) {
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "error: %s\n", e.Error())
	}
}
