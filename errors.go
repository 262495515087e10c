package pdfmerge

import (
	"errors"
	"fmt"
)

// Sentinel errors for common merge failure conditions.
var (
	ErrUnsupportedType = errors.New("pdfmerge: unsupported file type")
	ErrConversion      = errors.New("pdfmerge: file conversion failed")
	ErrTooFewFiles     = errors.New("pdfmerge: at least two files are required")
	ErrPageOutOfRange  = errors.New("pdfmerge: page index out of range")
	ErrEmptyDocument   = errors.New("pdfmerge: no pages selected")
	ErrUnknownFile     = errors.New("pdfmerge: unknown file")
	ErrAmbiguousName   = errors.New("pdfmerge: more than one file has this name")
	ErrNoArtifact      = errors.New("pdfmerge: no merged document available")
	ErrCorrupted       = errors.New("pdfmerge: document is corrupted")
)

// MergeError represents an error that occurred while handling one source file.
// It wraps an underlying error and records the operation and file name for context.
type MergeError struct {
	Op   string // operation name, e.g. "load", "import", "transcode"
	File string // source file name, may be empty
	Err  error  // underlying error
}

func (e *MergeError) Error() string {
	msg := "unknown error"
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if e.File != "" {
		return fmt.Sprintf("pdfmerge.%s %s: %s", e.Op, e.File, msg)
	}
	return fmt.Sprintf("pdfmerge.%s: %s", e.Op, msg)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// NewMergeError creates a MergeError wrapping err with operation and file context.
func NewMergeError(op, file string, err error) *MergeError {
	return &MergeError{Op: op, File: file, Err: err}
}
