// Package diagnostic provides positioned error reporting for type
// parsing and connection checking.
//
// Diagnostics carry a severity, a stable code, a source range, and
// optionally the field path inside an aggregate where the problem was
// found. A DiagnosticList owns the source text and converts byte
// offsets to line/column positions on demand.
package diagnostic

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Severity represents the severity level of a diagnostic.
type Severity uint8

const (
	// Error marks an illegal type or connection.
	Error Severity = iota
	// Warning is a non-blocking issue.
	Warning
	// Info is an informational message.
	Info
	// Note provides additional context for another diagnostic.
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Info:
		return "info"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// Position represents a position in source text.
type Position struct {
	Offset int // Byte offset (0-based)
	Line   int // Line number (1-based)
	Column int // Column number (1-based)
}

// Range represents a range in source text.
type Range struct {
	Start Position
	End   Position
}

// RelatedInfo provides additional location information for a diagnostic.
type RelatedInfo struct {
	Range   Range
	Message string
}

// Diagnostic represents a single diagnostic message.
type Diagnostic struct {
	Severity Severity
	Code     DiagnosticCode // Stable code (e.g. "E0200")
	Message  string         // Human-readable message
	Range    Range          // Source location
	Path     string         // Field path inside an aggregate (e.g. "a.b[2]"), if any
	Related  []RelatedInfo  // Related locations
}

// Error returns a formatted error string.
func (d *Diagnostic) Error() string {
	if d.Path != "" {
		return fmt.Sprintf("%d:%d: %s: %s (at %s)", d.Range.Start.Line, d.Range.Start.Column, d.Severity, d.Message, d.Path)
	}
	return fmt.Sprintf("%d:%d: %s: %s", d.Range.Start.Line, d.Range.Start.Column, d.Severity, d.Message)
}

// DiagnosticList collects diagnostics during parsing and checking.
type DiagnosticList struct {
	diagnostics []Diagnostic
	lineIndex   *LineIndex
	source      string
	hasErrors   bool
}

// NewDiagnosticList creates a new diagnostic list for the given source.
func NewDiagnosticList(source string) *DiagnosticList {
	return &DiagnosticList{
		diagnostics: make([]Diagnostic, 0),
		lineIndex:   NewLineIndex(source),
		source:      source,
	}
}

// Add adds a diagnostic to the list.
func (dl *DiagnosticList) Add(d Diagnostic) {
	dl.diagnostics = append(dl.diagnostics, d)
	if d.Severity == Error {
		dl.hasErrors = true
	}
}

// AddError adds an error diagnostic at the given byte offset.
func (dl *DiagnosticList) AddError(offset int, message string) {
	dl.AddErrorRange(offset, offset+1, message)
}

// AddErrorRange adds an error diagnostic for a byte range.
func (dl *DiagnosticList) AddErrorRange(start, end int, message string) {
	dl.Add(Diagnostic{
		Severity: Error,
		Message:  message,
		Range:    dl.MakeRange(start, end),
	})
}

// AddErrorWithCode adds an error diagnostic with a code and field path.
func (dl *DiagnosticList) AddErrorWithCode(offset int, code DiagnosticCode, path, message string) {
	dl.Add(Diagnostic{
		Severity: Error,
		Code:     code,
		Message:  message,
		Range:    dl.MakeRange(offset, offset+1),
		Path:     path,
	})
}

// AddWarningWithCode adds a warning diagnostic with a code and field path.
func (dl *DiagnosticList) AddWarningWithCode(offset int, code DiagnosticCode, path, message string) {
	dl.Add(Diagnostic{
		Severity: Warning,
		Code:     code,
		Message:  message,
		Range:    dl.MakeRange(offset, offset+1),
		Path:     path,
	})
}

// AddNote adds a note diagnostic at the given byte offset.
func (dl *DiagnosticList) AddNote(offset int, message string) {
	dl.Add(Diagnostic{
		Severity: Note,
		Message:  message,
		Range:    dl.MakeRange(offset, offset+1),
	})
}

// MakePosition converts a byte offset to a Position.
func (dl *DiagnosticList) MakePosition(offset int) Position {
	line, col := dl.lineIndex.ByteOffsetToLineColumn(offset)
	return Position{
		Offset: offset,
		Line:   line + 1, // Convert to 1-based
		Column: col + 1,  // Convert to 1-based
	}
}

// MakeRange converts byte offsets to a Range.
func (dl *DiagnosticList) MakeRange(start, end int) Range {
	return Range{
		Start: dl.MakePosition(start),
		End:   dl.MakePosition(end),
	}
}

// HasErrors returns true if there are any error-level diagnostics.
func (dl *DiagnosticList) HasErrors() bool {
	return dl.hasErrors
}

// Diagnostics returns all collected diagnostics.
func (dl *DiagnosticList) Diagnostics() []Diagnostic {
	return dl.diagnostics
}

// Errors returns only error-level diagnostics.
func (dl *DiagnosticList) Errors() []Diagnostic {
	var errors []Diagnostic
	for _, d := range dl.diagnostics {
		if d.Severity == Error {
			errors = append(errors, d)
		}
	}
	return errors
}

// Warnings returns only warning-level diagnostics.
func (dl *DiagnosticList) Warnings() []Diagnostic {
	var warnings []Diagnostic
	for _, d := range dl.diagnostics {
		if d.Severity == Warning {
			warnings = append(warnings, d)
		}
	}
	return warnings
}

// Count returns the total number of diagnostics.
func (dl *DiagnosticList) Count() int {
	return len(dl.diagnostics)
}

// ErrorCount returns the number of error-level diagnostics.
func (dl *DiagnosticList) ErrorCount() int {
	count := 0
	for _, d := range dl.diagnostics {
		if d.Severity == Error {
			count++
		}
	}
	return count
}

// Sort orders diagnostics by source offset, then severity.
func (dl *DiagnosticList) Sort() {
	slices.SortStableFunc(dl.diagnostics, func(a, b Diagnostic) int {
		if a.Range.Start.Offset != b.Range.Start.Offset {
			return a.Range.Start.Offset - b.Range.Start.Offset
		}
		return int(a.Severity) - int(b.Severity)
	})
}

// Format formats all diagnostics as a human-readable string.
func (dl *DiagnosticList) Format() string {
	if len(dl.diagnostics) == 0 {
		return ""
	}

	var sb strings.Builder
	for _, d := range dl.diagnostics {
		sb.WriteString(dl.FormatDiagnostic(&d))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatDiagnostic formats a single diagnostic with source context.
func (dl *DiagnosticList) FormatDiagnostic(d *Diagnostic) string {
	var sb strings.Builder

	// Main diagnostic line
	sb.WriteString(fmt.Sprintf("%d:%d: %s: %s\n",
		d.Range.Start.Line, d.Range.Start.Column, d.Severity, d.Message))

	// Add field path if present
	if d.Path != "" {
		sb.WriteString(fmt.Sprintf("  [at %s]\n", d.Path))
	}

	// Add source context
	sourceLine := dl.getSourceLine(d.Range.Start.Line)
	if sourceLine != "" {
		sb.WriteString(fmt.Sprintf("    %s\n", sourceLine))
		// Add caret indicator
		caret := strings.Repeat(" ", d.Range.Start.Column-1+4) + "^"
		if d.Range.End.Line == d.Range.Start.Line && d.Range.End.Column > d.Range.Start.Column {
			caret += strings.Repeat("~", d.Range.End.Column-d.Range.Start.Column-1)
		}
		sb.WriteString(caret)
		sb.WriteByte('\n')
	}

	// Add related info
	for _, rel := range d.Related {
		sb.WriteString(fmt.Sprintf("  %d:%d: note: %s\n",
			rel.Range.Start.Line, rel.Range.Start.Column, rel.Message))
	}

	return sb.String()
}

// getSourceLine returns the source text line at the given 1-based line number.
func (dl *DiagnosticList) getSourceLine(line int) string {
	if line < 1 {
		return ""
	}
	lines := strings.Split(dl.source, "\n")
	if line > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[line-1], "\r")
}

// Clear removes all diagnostics.
func (dl *DiagnosticList) Clear() {
	dl.diagnostics = dl.diagnostics[:0]
	dl.hasErrors = false
}

// DiagnosticCode defines standard error codes.
type DiagnosticCode string

const (
	// Syntax errors (E00xx)
	CodeUnexpectedToken    DiagnosticCode = "E0001"
	CodeUnterminatedString DiagnosticCode = "E0002"
	CodeInvalidWidth       DiagnosticCode = "E0003"
	CodeUnknownType        DiagnosticCode = "E0004"
	CodeMalformedType      DiagnosticCode = "E0005"

	// Structure errors (E01xx)
	CodeKindMismatch         DiagnosticCode = "E0100"
	CodeElementCountMismatch DiagnosticCode = "E0101"
	CodeElementNameMismatch  DiagnosticCode = "E0102"
	CodeFlipMismatch         DiagnosticCode = "E0103"
	CodeLengthMismatch       DiagnosticCode = "E0104"
	CodeVariantMismatch      DiagnosticCode = "E0105"

	// Connection errors (E02xx)
	CodeConstViolation  DiagnosticCode = "E0200"
	CodeWidthMismatch   DiagnosticCode = "E0201"
	CodeResetMismatch   DiagnosticCode = "E0202"
	CodeProbeMismatch   DiagnosticCode = "E0203"
	CodeNotConnectable  DiagnosticCode = "E0204"
	CodeWidthTruncation DiagnosticCode = "E0205"
)

// DiagnosticFilter controls which diagnostics are reported.
type DiagnosticFilter struct {
	// Rules maps diagnostic rule names to their severity override.
	// Special severity 255 disables the diagnostic.
	Rules map[string]Severity
}

// NewDiagnosticFilter creates a new filter with default settings.
func NewDiagnosticFilter() *DiagnosticFilter {
	return &DiagnosticFilter{
		Rules: make(map[string]Severity),
	}
}

// SetRule sets the severity for a diagnostic rule.
func (f *DiagnosticFilter) SetRule(rule string, severity Severity) {
	f.Rules[rule] = severity
}

// DisableRule disables a diagnostic rule.
func (f *DiagnosticFilter) DisableRule(rule string) {
	// Use a special sentinel value to indicate disabled
	f.Rules[rule] = Severity(255)
}

// IsDisabled returns true if the rule is disabled.
func (f *DiagnosticFilter) IsDisabled(rule string) bool {
	if sev, ok := f.Rules[rule]; ok {
		return sev == Severity(255)
	}
	return false
}

// GetSeverity returns the severity for a rule, or the default if not set.
func (f *DiagnosticFilter) GetSeverity(rule string, defaultSev Severity) Severity {
	if sev, ok := f.Rules[rule]; ok {
		if sev == Severity(255) {
			return defaultSev // Return default for disabled (caller should check IsDisabled first)
		}
		return sev
	}
	return defaultSev
}

// Standard diagnostic rules.
const (
	// RuleImplicitTruncation reports connections whose source may be
	// wider than the destination. Off unless a filter enables it,
	// since lax equivalence permits the connection.
	RuleImplicitTruncation = "implicit_truncation"
)
