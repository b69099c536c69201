package tle

import "fmt"

// FormatError reports a fixed-width field that is missing, non-numeric,
// or outside its physically valid range.
type FormatError struct {
	Line   int // 1 or 2, 0 when the problem spans both lines
	Field  string
	Value  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("tle: %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("tle: line %d field %s %q: %s", e.Line, e.Field, e.Value, e.Reason)
}

// ChecksumError reports a mod-10 checksum mismatch on a TLE line.
type ChecksumError struct {
	Line int
	Want int // digit printed in column 69
	Got  int // digit computed over columns 1-68
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("tle: line %d checksum mismatch: line says %d, computed %d", e.Line, e.Want, e.Got)
}
