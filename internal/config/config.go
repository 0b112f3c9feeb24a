// Package config handles loading tool configuration from files.
//
// Configuration can be specified in a JSON file named firtype.json or
// .firtyperc. The config file is searched for in the current directory
// and parent directories. Besides output and checking defaults, a
// config can predefine named types that inputs then reference by bare
// identifier:
//
//	{
//	    "types": {
//	        "Word": "uint<32>",
//	        "Chan": "bundle<data: Word, valid: uint<1>, ready flip: uint<1>>"
//	    },
//	    "pretty": true,
//	    "rules": {"implicit_truncation": "warning"}
//	}
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/elhewaty/circt/internal/diagnostic"
	"github.com/elhewaty/circt/internal/lexer"
	"github.com/elhewaty/circt/internal/parser"
	"github.com/elhewaty/circt/internal/printer"
	"github.com/elhewaty/circt/internal/types"
	"github.com/elhewaty/circt/internal/validator"
)

// Config represents the configuration file structure.
// All fields are optional and will use default values if not specified.
type Config struct {
	// Types maps names to type expressions. Each entry becomes
	// resolvable by bare identifier; base types are registered as
	// aliases so they print with their name.
	Types map[string]string `json:"types,omitempty"`

	// Pretty enables multi-line layout for aggregate types.
	Pretty *bool `json:"pretty,omitempty"`

	// Indent is the indentation unit for pretty layout.
	Indent *string `json:"indent,omitempty"`

	// Width is the column budget for pretty layout.
	Width *int `json:"width,omitempty"`

	// StrictWidths requires exact widths on connection checks.
	StrictWidths *bool `json:"strictWidths,omitempty"`

	// Rules overrides severities for optional connection rules, e.g.
	// {"implicit_truncation": "warning"}. The severity "off" disables
	// a rule.
	Rules map[string]string `json:"rules,omitempty"`
}

// ConfigFileNames are the names searched for config files, in order of preference.
var ConfigFileNames = []string{
	"firtype.json",
	".firtyperc",
	".firtyperc.json",
}

// Load searches for a config file starting from the given directory
// and walking up to parent directories. Returns nil if no config file is found.
func Load(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		for _, name := range ConfigFileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				cfg, err := LoadFile(path)
				return cfg, path, err
			}
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root, no config found
			return nil, "", nil
		}
		dir = parent
	}
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// ----------------------------------------------------------------------------
// Named Types
// ----------------------------------------------------------------------------

// ResolveTypes parses every entry of the Types table into the store.
// Definitions may reference each other in any order. The returned
// table is suitable for Parser.DefineAll.
func (c *Config) ResolveTypes(s *types.Store) (map[string]types.Type, []error) {
	resolved := make(map[string]types.Type, len(c.Types))

	var pending []string
	var errs []error
	for name := range c.Types {
		if _, reserved := lexer.Keywords[name]; reserved {
			errs = append(errs, errors.Errorf("type name %q is reserved", name))
			continue
		}
		pending = append(pending, name)
	}
	slices.Sort(pending)

	// A definition may refer to a name defined after it, so keep
	// passing over the unresolved entries until a pass makes no
	// progress. Whatever is left then has a real error.
	for len(pending) > 0 {
		var remaining []string
		var remainingErrs []error
		for _, name := range pending {
			t, defErrs := c.resolveType(s, name, resolved)
			if len(defErrs) > 0 {
				remaining = append(remaining, name)
				remainingErrs = append(remainingErrs, defErrs...)
				continue
			}
			resolved[name] = t
		}
		if len(remaining) == len(pending) {
			return resolved, append(errs, remainingErrs...)
		}
		pending = remaining
	}
	return resolved, errs
}

func (c *Config) resolveType(s *types.Store, name string, named map[string]types.Type) (types.Type, []error) {
	p := parser.New(c.Types[name], s)
	p.DefineAll(named)
	t, perrs := p.Parse()
	if len(perrs) > 0 {
		defErrs := make([]error, len(perrs))
		for i, pe := range perrs {
			defErrs[i] = errors.Errorf("type %q: %s", name, pe.Message)
		}
		return nil, defErrs
	}

	base, ok := t.(types.BaseType)
	if !ok {
		// References, open aggregates, and property types cannot be
		// aliased, so they resolve to the bare type.
		return t, nil
	}
	if a, aok := types.As[*types.Alias](base); aok && a.Name() == name {
		return a, nil
	}
	alias, err := s.Alias([]string{name}, base)
	if err != nil {
		return nil, []error{errors.Errorf("type %q: %v", name, err)}
	}
	return alias, nil
}

// ----------------------------------------------------------------------------
// Options
// ----------------------------------------------------------------------------

// ToPrintOptions converts the config to printer options, using
// defaults for unset fields.
func (c *Config) ToPrintOptions() printer.Options {
	var opts printer.Options

	if c.Pretty != nil {
		opts.Pretty = *c.Pretty
	}
	if c.Indent != nil {
		opts.Indent = *c.Indent
	}
	if c.Width != nil {
		opts.Width = *c.Width
	}

	return opts
}

// ToCheckOptions converts the config to connection check options.
func (c *Config) ToCheckOptions() (validator.Options, error) {
	var opts validator.Options

	if c.StrictWidths != nil {
		opts.StrictWidths = *c.StrictWidths
	}
	if len(c.Rules) == 0 {
		return opts, nil
	}

	f := diagnostic.NewDiagnosticFilter()
	for _, rule := range sortedKeys(c.Rules) {
		if err := applyRule(f, rule, c.Rules[rule]); err != nil {
			return opts, err
		}
	}
	opts.DiagnosticFilters = f
	return opts, nil
}

// MergeOptions carries CLI flag values. A nil field means the flag was
// not given, so the config file value applies.
type MergeOptions struct {
	Pretty       *bool
	Indent       *string
	Width        *int
	StrictWidths *bool
	StrictMode   bool

	// Rules holds CLI rule specs of the form "name=severity". A bare
	// name enables the rule at warning severity.
	Rules []string
}

// Merge combines config file options with CLI options.
// CLI options take precedence over config file options.
func (c *Config) Merge(cli MergeOptions) (printer.Options, validator.Options, error) {
	popts := c.ToPrintOptions()
	if cli.Pretty != nil {
		popts.Pretty = *cli.Pretty
	}
	if cli.Indent != nil {
		popts.Indent = *cli.Indent
	}
	if cli.Width != nil {
		popts.Width = *cli.Width
	}

	vopts, err := c.ToCheckOptions()
	if err != nil {
		return popts, vopts, err
	}
	if cli.StrictWidths != nil {
		vopts.StrictWidths = *cli.StrictWidths
	}
	vopts.StrictMode = cli.StrictMode
	for _, spec := range cli.Rules {
		if vopts.DiagnosticFilters == nil {
			vopts.DiagnosticFilters = diagnostic.NewDiagnosticFilter()
		}
		rule, severity, found := strings.Cut(spec, "=")
		if !found {
			severity = "warning"
		}
		if err := applyRule(vopts.DiagnosticFilters, rule, severity); err != nil {
			return popts, vopts, err
		}
	}
	return popts, vopts, nil
}

func applyRule(f *diagnostic.DiagnosticFilter, rule, severity string) error {
	if severity == "off" {
		f.DisableRule(rule)
		return nil
	}
	sev, err := ParseSeverity(severity)
	if err != nil {
		return errors.Errorf("rule %q: %v", rule, err)
	}
	f.SetRule(rule, sev)
	return nil
}

// ParseSeverity converts a configuration string to a severity.
func ParseSeverity(s string) (diagnostic.Severity, error) {
	switch s {
	case "error":
		return diagnostic.Error, nil
	case "warning":
		return diagnostic.Warning, nil
	case "info":
		return diagnostic.Info, nil
	case "note":
		return diagnostic.Note, nil
	}
	return 0, errors.Errorf("unknown severity %q", s)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
