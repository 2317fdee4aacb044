package parser

import (
	"errors"
	"fmt"
	"strings"
)

// File-fatal conditions. Any of these aborts the current document's parse;
// other documents in a batch are unaffected.
var (
	// ErrUnrecognizedLayout means no layout family matched the grid.
	ErrUnrecognizedLayout = errors.New("unrecognized document layout")

	// ErrEmptyDocument means the grid has no usable rows.
	ErrEmptyDocument = errors.New("document contains no data rows")

	// ErrMandatoryColumn means a mandatory role (date, dish name) could not
	// be assigned to any column.
	ErrMandatoryColumn = errors.New("mandatory column could not be identified")
)

// Severity classifies a parse issue.
type Severity int

const (
	// SeverityRow marks a recoverable issue: the offending row is skipped
	// and extraction continues.
	SeverityRow Severity = iota
	// SeverityFatal marks a file-level failure: the document yields no data.
	SeverityFatal
)

func (s Severity) String() string {
	if s == SeverityFatal {
		return "fatal"
	}
	return "row"
}

// Issue is one recorded parse problem with its grid location.
// Row and Col are zero-based; -1 means the issue is not tied to that axis.
type Issue struct {
	Severity Severity `json:"severity"`
	Row      int      `json:"row"`
	Col      int      `json:"col"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	loc := "file"
	switch {
	case i.Row >= 0 && i.Col >= 0:
		loc = fmt.Sprintf("row %d, col %d", i.Row+1, i.Col+1)
	case i.Row >= 0:
		loc = fmt.Sprintf("row %d", i.Row+1)
	}
	return fmt.Sprintf("[%s] %s: %s", i.Severity, loc, i.Message)
}

// MarshalJSON encodes the severity as its string form.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Report aggregates all issues from one parse invocation.
type Report struct {
	Layout Layout  `json:"layout"`
	Issues []Issue `json:"issues,omitempty"`
}

// Reporter accumulates issues without aborting extraction. It is threaded
// through every pipeline stage; only fatal issues stop the document.
type Reporter struct {
	report Report
}

// NewReporter returns an empty reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Rowf records a row-local issue. The offending row is skipped by the caller.
func (r *Reporter) Rowf(row, col int, format string, args ...any) {
	r.report.Issues = append(r.report.Issues, Issue{
		Severity: SeverityRow,
		Row:      row,
		Col:      col,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Fatalf records a file-fatal issue.
func (r *Reporter) Fatalf(format string, args ...any) {
	r.report.Issues = append(r.report.Issues, Issue{
		Severity: SeverityFatal,
		Row:      -1,
		Col:      -1,
		Message:  fmt.Sprintf(format, args...),
	})
}

// HasFatal reports whether any fatal issue has been recorded.
func (r *Reporter) HasFatal() bool {
	for _, issue := range r.report.Issues {
		if issue.Severity == SeverityFatal {
			return true
		}
	}
	return false
}

// RowIssues returns the count of recoverable issues.
func (r *Reporter) RowIssues() int {
	n := 0
	for _, issue := range r.report.Issues {
		if issue.Severity == SeverityRow {
			n++
		}
	}
	return n
}

// SetLayout records the detected layout family on the report.
func (r *Reporter) SetLayout(layout Layout) {
	r.report.Layout = layout
}

// Summary returns the accumulated report.
func (r *Reporter) Summary() *Report {
	return &r.report
}

// Error renders the report as one error message, used as the payload when a
// parse fails fatally.
func (rep *Report) Error() string {
	if len(rep.Issues) == 0 {
		return "parse failed"
	}
	parts := make([]string, 0, len(rep.Issues))
	for _, issue := range rep.Issues {
		parts = append(parts, issue.String())
	}
	return strings.Join(parts, "; ")
}
