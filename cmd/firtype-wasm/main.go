//go:build js && wasm

// Command firtype-wasm is the WebAssembly build of the type inspector.
// It exposes parsing and connection checking to JavaScript via
// syscall/js, for playground use.
package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/elhewaty/circt/pkg/api"
)

var version = "0.1.0"

// jsOptions mirrors the JavaScript options object.
type jsOptions struct {
	Types        map[string]string `json:"types"`
	Pretty       *bool             `json:"pretty"`
	Indent       *string           `json:"indent"`
	Width        *int              `json:"width"`
	StrictWidths *bool             `json:"strictWidths"`
	Strict       *bool             `json:"strict"`
	Rules        map[string]string `json:"rules"`
}

func main() {
	// Export functions to JavaScript
	js.Global().Set("__firtype", js.ValueOf(map[string]interface{}{
		"describe": js.FuncOf(describeJS),
		"check":    js.FuncOf(checkJS),
		"version":  version,
	}))

	// Keep the Go runtime alive
	select {}
}

// describeJS is the JavaScript-callable type inspector.
// Signature: __firtype.describe(source: string, options?: object) => object
func describeJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeError("describe requires at least 1 argument (source)")
	}
	source := args[0].String()

	var opts jsOptions
	if len(args) > 1 && !args[1].IsUndefined() && !args[1].IsNull() {
		opts = parseOptions(args[1])
	}

	ctx, errs := newContext(opts)
	t, perrs := ctx.Parse(source)
	for _, e := range perrs {
		errs = append(errs, map[string]interface{}{
			"message": e.Message,
			"line":    e.Line,
			"column":  e.Column,
		})
	}
	if len(perrs) > 0 {
		return map[string]interface{}{
			"type":   "",
			"errors": errs,
		}
	}

	popts := api.PrintOptions{}
	if opts.Pretty != nil {
		popts.Pretty = *opts.Pretty
	}
	if opts.Indent != nil {
		popts.Indent = *opts.Indent
	}
	if opts.Width != nil {
		popts.Width = *opts.Width
	}

	result := map[string]interface{}{
		"type":   ctx.Print(t, popts),
		"errors": errs,
	}

	// The description tree crosses into JS as parsed JSON.
	described := api.ReflectResult{Info: ctx.Describe(t)}
	if base, ok := t.(api.BaseType); ok {
		if layout, err := ctx.ComputeLayout(base); err == nil {
			described.Layout = layout
		}
	}
	if b, err := json.Marshal(described); err == nil {
		result["info"] = js.Global().Get("JSON").Call("parse", string(b))
	}
	return result
}

// checkJS is the JavaScript-callable connection checker.
// Signature: __firtype.check(dest: string, src: string, options?: object) => object
func checkJS(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeError("check requires 2 arguments (dest, src)")
	}
	destSource := args[0].String()
	srcSource := args[1].String()

	var opts jsOptions
	if len(args) > 2 && !args[2].IsUndefined() && !args[2].IsNull() {
		opts = parseOptions(args[2])
	}

	ctx, errs := newContext(opts)
	dest, derrs := ctx.Parse(destSource)
	for _, e := range derrs {
		errs = append(errs, map[string]interface{}{
			"message": "dest: " + e.Message,
			"line":    e.Line,
			"column":  e.Column,
		})
	}
	src, serrs := ctx.Parse(srcSource)
	for _, e := range serrs {
		errs = append(errs, map[string]interface{}{
			"message": "src: " + e.Message,
			"line":    e.Line,
			"column":  e.Column,
		})
	}
	if len(derrs) > 0 || len(serrs) > 0 {
		return map[string]interface{}{
			"valid":       false,
			"diagnostics": []interface{}{},
			"errors":      errs,
		}
	}

	copts := api.CheckOptions{Rules: opts.Rules}
	if opts.StrictWidths != nil {
		copts.StrictWidths = *opts.StrictWidths
	}
	if opts.Strict != nil {
		copts.StrictMode = *opts.Strict
	}

	result, err := ctx.CheckConnect(dest, src, copts)
	if err != nil {
		return makeError(err.Error())
	}

	diagnostics := make([]interface{}, len(result.Diagnostics))
	for i, d := range result.Diagnostics {
		diagnostics[i] = map[string]interface{}{
			"severity": d.Severity,
			"code":     d.Code,
			"path":     d.Path,
			"message":  d.Message,
		}
	}
	return map[string]interface{}{
		"valid":       result.Valid,
		"diagnostics": diagnostics,
		"errors":      errs,
	}
}

// newContext builds a context with the named types from the options.
// Definition failures come back as error objects.
func newContext(opts jsOptions) (*api.Context, []interface{}) {
	ctx := api.NewContext()
	errs := []interface{}{}
	if len(opts.Types) > 0 {
		cfg := api.Config{Types: opts.Types}
		for _, e := range ctx.ApplyConfig(&cfg) {
			errs = append(errs, map[string]interface{}{
				"message": e.Error(),
				"line":    0,
				"column":  0,
			})
		}
	}
	return ctx, errs
}

// parseOptions extracts options from a JS object.
func parseOptions(jsVal js.Value) jsOptions {
	var opts jsOptions

	// Try JSON serialization first (handles nested objects better)
	jsonStr := js.Global().Get("JSON").Call("stringify", jsVal).String()
	if err := json.Unmarshal([]byte(jsonStr), &opts); err == nil {
		return opts
	}

	// Fallback to direct property access
	if v := jsVal.Get("pretty"); !v.IsUndefined() {
		b := v.Bool()
		opts.Pretty = &b
	}
	if v := jsVal.Get("indent"); !v.IsUndefined() {
		s := v.String()
		opts.Indent = &s
	}
	if v := jsVal.Get("width"); !v.IsUndefined() {
		n := v.Int()
		opts.Width = &n
	}
	if v := jsVal.Get("strictWidths"); !v.IsUndefined() {
		b := v.Bool()
		opts.StrictWidths = &b
	}
	if v := jsVal.Get("strict"); !v.IsUndefined() {
		b := v.Bool()
		opts.Strict = &b
	}

	return opts
}

// makeError creates a result object with an error.
func makeError(msg string) interface{} {
	return map[string]interface{}{
		"errors": []interface{}{
			map[string]interface{}{
				"message": msg,
				"line":    0,
				"column":  0,
			},
		},
	}
}
