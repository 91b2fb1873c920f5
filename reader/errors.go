package reader

import "fmt"

// ParseError reports a source that could not be turned into samples. The
// batch treats it as a per-record failure, not a fatal one.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.Path, e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }
