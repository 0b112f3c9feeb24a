// Package main provides a C-callable static library for FIRRTL type
// inspection and connection checking.
//
// This is built with -buildmode=c-archive to produce libfirtype.a
// that can be linked into Zig/C/Rust programs.
//
// Build:
//
//	make lib
//	# or: CGO_ENABLED=1 go build -buildmode=c-archive -o build/libfirtype.a ./cmd/firtype-lib
//
// Exported functions:
//
//	firtype_describe(source, source_len, options_json, options_len, out_json, out_json_len) -> error_code
//	firtype_check(dest, dest_len, src, src_len, options_json, options_len, out_json, out_json_len) -> error_code
//	firtype_free(ptr) -> void
//	firtype_version() -> *char
package main

/*
#include <stdlib.h>
*/
import "C"
import (
	"encoding/json"
	"unsafe"

	"github.com/elhewaty/circt/pkg/api"
)

// Version should match the release version
const version = "0.1.0"

// Error codes
const (
	FIRTYPE_OK              = 0
	FIRTYPE_ERR_JSON_ENCODE = 1
	FIRTYPE_ERR_NULL_INPUT  = 2
	FIRTYPE_ERR_JSON_DECODE = 3
)

// Options mirrors the Go API options for JSON parsing. Types maps
// names to type expressions resolvable by bare identifier.
type Options struct {
	Types        map[string]string `json:"types"`
	Pretty       bool              `json:"pretty"`
	Indent       string            `json:"indent"`
	Width        int               `json:"width"`
	StrictWidths bool              `json:"strictWidths"`
	Strict       bool              `json:"strict"`
	Rules        map[string]string `json:"rules"`
}

// DescribeResult is the JSON result structure for type description.
// Parse failures land in Errors with the other fields empty.
type DescribeResult struct {
	Type   string        `json:"type"`
	Info   *api.TypeInfo `json:"info,omitempty"`
	Layout *api.Layout   `json:"layout,omitempty"`
	Errors []string      `json:"errors,omitempty"`
}

// CheckResult is the JSON result structure for connection checking.
type CheckResult struct {
	Valid       bool             `json:"valid"`
	Diagnostics []api.Diagnostic `json:"diagnostics,omitempty"`
	Errors      []string         `json:"errors,omitempty"`
}

// firtype_describe parses a type expression and returns its canonical
// form, description tree, and bit layout as JSON.
//
// Parameters:
//   - source: pointer to the type expression (UTF-8)
//   - source_len: length of source in bytes
//   - options_json: pointer to JSON options (can be NULL for defaults)
//   - options_len: length of options JSON
//   - out_json: pointer to receive the JSON result (caller must free with firtype_free)
//   - out_json_len: pointer to receive JSON length
//
// Returns:
//   - 0 on success
//   - non-zero error code on failure
//
//export firtype_describe
func firtype_describe(
	source *C.char, source_len C.int,
	options_json *C.char, options_len C.int,
	out_json **C.char, out_json_len *C.int,
) C.int {
	if source == nil || out_json == nil || out_json_len == nil {
		return FIRTYPE_ERR_NULL_INPUT
	}

	goSource := C.GoStringN(source, source_len)

	var opts Options
	if options_json != nil && options_len > 0 {
		optStr := C.GoStringN(options_json, options_len)
		if err := json.Unmarshal([]byte(optStr), &opts); err != nil {
			return FIRTYPE_ERR_JSON_DECODE
		}
	}

	ctx, errs := newContext(opts)
	t, perrs := ctx.Parse(goSource)
	for _, e := range perrs {
		errs = append(errs, e.Error())
	}

	jsonResult := DescribeResult{Errors: errs}
	if len(perrs) == 0 {
		jsonResult.Type = ctx.Print(t, api.PrintOptions{
			Pretty: opts.Pretty,
			Indent: opts.Indent,
			Width:  opts.Width,
		})
		jsonResult.Info = ctx.Describe(t)
		if base, ok := t.(api.BaseType); ok {
			if layout, err := ctx.ComputeLayout(base); err == nil {
				jsonResult.Layout = layout
			}
		}
	}

	jsonBytes, err := json.Marshal(jsonResult)
	if err != nil {
		return FIRTYPE_ERR_JSON_ENCODE
	}
	*out_json = C.CString(string(jsonBytes))
	*out_json_len = C.int(len(jsonBytes))

	return FIRTYPE_OK
}

// firtype_check checks whether the src type may legally drive the dest
// type and returns the verdict with diagnostics as JSON.
//
// Parameters:
//   - dest: pointer to the destination type expression (UTF-8)
//   - dest_len: length of dest in bytes
//   - src: pointer to the source type expression (UTF-8)
//   - src_len: length of src in bytes
//   - options_json: pointer to JSON options (can be NULL for defaults)
//   - options_len: length of options JSON
//   - out_json: pointer to receive the JSON result (caller must free with firtype_free)
//   - out_json_len: pointer to receive JSON length
//
// Returns:
//   - 0 on success
//   - non-zero error code on failure
//
//export firtype_check
func firtype_check(
	dest *C.char, dest_len C.int,
	src *C.char, src_len C.int,
	options_json *C.char, options_len C.int,
	out_json **C.char, out_json_len *C.int,
) C.int {
	if dest == nil || src == nil || out_json == nil || out_json_len == nil {
		return FIRTYPE_ERR_NULL_INPUT
	}

	goDest := C.GoStringN(dest, dest_len)
	goSrc := C.GoStringN(src, src_len)

	var opts Options
	if options_json != nil && options_len > 0 {
		optStr := C.GoStringN(options_json, options_len)
		if err := json.Unmarshal([]byte(optStr), &opts); err != nil {
			return FIRTYPE_ERR_JSON_DECODE
		}
	}

	ctx, errs := newContext(opts)
	destType, derrs := ctx.Parse(goDest)
	for _, e := range derrs {
		errs = append(errs, "dest: "+e.Error())
	}
	srcType, serrs := ctx.Parse(goSrc)
	for _, e := range serrs {
		errs = append(errs, "src: "+e.Error())
	}

	jsonResult := CheckResult{Errors: errs}
	if len(derrs) == 0 && len(serrs) == 0 {
		checked, err := ctx.CheckConnect(destType, srcType, api.CheckOptions{
			StrictWidths: opts.StrictWidths,
			StrictMode:   opts.Strict,
			Rules:        opts.Rules,
		})
		if err != nil {
			jsonResult.Errors = append(jsonResult.Errors, err.Error())
		} else {
			jsonResult.Valid = checked.Valid
			jsonResult.Diagnostics = checked.Diagnostics
		}
	}

	jsonBytes, err := json.Marshal(jsonResult)
	if err != nil {
		return FIRTYPE_ERR_JSON_ENCODE
	}
	*out_json = C.CString(string(jsonBytes))
	*out_json_len = C.int(len(jsonBytes))

	return FIRTYPE_OK
}

// newContext builds a context with the named types from the options.
// Definition failures come back as error strings.
func newContext(opts Options) (*api.Context, []string) {
	ctx := api.NewContext()
	var errs []string
	if len(opts.Types) > 0 {
		cfg := api.Config{Types: opts.Types}
		for _, e := range ctx.ApplyConfig(&cfg) {
			errs = append(errs, e.Error())
		}
	}
	return ctx, errs
}

// firtype_free frees memory allocated by firtype functions.
//
// Parameters:
//   - ptr: pointer returned from firtype_describe or firtype_check
//
//export firtype_free
func firtype_free(ptr *C.char) {
	if ptr != nil {
		C.free(unsafe.Pointer(ptr))
	}
}

// firtype_version returns the library version string.
// The returned pointer is static and must NOT be freed.
//
//export firtype_version
func firtype_version() *C.char {
	return C.CString(version)
}

// Required for c-archive build mode
func main() {}
