// Package importerror defines the typed errors surfaced by the import,
// matching and processing pipeline.
package importerror

import "fmt"

// UnsupportedFormatError indicates a statement format kind the parser does
// not recognize.
type UnsupportedFormatError struct {
	Kind string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported statement format: %s", e.Kind)
}

// MissingFileError indicates an import was requested without file content.
type MissingFileError struct {
	Statement string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("statement %s has no file attached", e.Statement)
}

// MissingPortfolioConfigError indicates the statement's portfolio has no
// usable format configuration.
type MissingPortfolioConfigError struct {
	Portfolio string
}

func (e *MissingPortfolioConfigError) Error() string {
	return fmt.Sprintf("portfolio %s has no statement format configured", e.Portfolio)
}

// InvalidColumnRangeError indicates a column range string that does not match
// the "C:M" letter-range pattern.
type InvalidColumnRangeError struct {
	Range string
}

func (e *InvalidColumnRangeError) Error() string {
	return fmt.Sprintf("invalid column range %q: expected letter range like \"C:M\"", e.Range)
}

// AIResponseError indicates empty or unparseable content from the AI
// matching service.
type AIResponseError struct {
	Snippet string
	Err     error
}

func (e *AIResponseError) Error() string {
	if e.Snippet != "" {
		return fmt.Sprintf("unusable AI response: %v. Content snippet: %q", e.Err, e.Snippet)
	}
	return fmt.Sprintf("unusable AI response: %v", e.Err)
}

func (e *AIResponseError) Unwrap() error {
	return e.Err
}

// AlreadyProcessedError indicates a line that has already been posted.
type AlreadyProcessedError struct {
	Line string
}

func (e *AlreadyProcessedError) Error() string {
	return fmt.Sprintf("line %s has already been processed", e.Line)
}

// MissingLoanAssignmentError indicates processing was requested for a line
// without a matched loan.
type MissingLoanAssignmentError struct {
	Line string
}

func (e *MissingLoanAssignmentError) Error() string {
	return fmt.Sprintf("line %s has no loan assigned", e.Line)
}

// ImportError wraps an unexpected failure while decoding a statement file.
type ImportError struct {
	Statement string
	Err       error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("failed to import statement %s: %v", e.Statement, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}
