// Package ocrerr defines the typed error-kind taxonomy shared across the
// pipeline and its mapping to the CLI's stable exit-code contract.
package ocrerr

import (
	"errors"
	"fmt"
)

// Kind is a closed enum of the error categories the pipeline can surface.
type Kind int

const (
	KindBadArgs Kind = iota
	KindInputFile
	KindMissingDependency
	KindInvalidOutputPdf
	KindOutputFileAccess
	KindPriorOcrFound
	KindSubprocessOutput
	KindEncryptedPdf
	KindTesseractConfig
	KindPdfaConversionFailed
	KindOther
	KindInterrupted
)

// ExitCode returns the stable exit code for a Kind.
func (k Kind) ExitCode() int {
	switch k {
	case KindBadArgs:
		return 1
	case KindInputFile:
		return 2
	case KindMissingDependency:
		return 3
	case KindInvalidOutputPdf:
		return 4
	case KindOutputFileAccess:
		return 5
	case KindPriorOcrFound:
		return 6
	case KindSubprocessOutput:
		return 7
	case KindEncryptedPdf:
		return 8
	case KindTesseractConfig:
		return 9
	case KindPdfaConversionFailed:
		return 10
	case KindInterrupted:
		return 130
	default:
		return 15
	}
}

func (k Kind) String() string {
	switch k {
	case KindBadArgs:
		return "bad-args"
	case KindInputFile:
		return "input-file"
	case KindMissingDependency:
		return "missing-dependency"
	case KindInvalidOutputPdf:
		return "invalid-output-pdf"
	case KindOutputFileAccess:
		return "output-file-access"
	case KindPriorOcrFound:
		return "prior-ocr-found"
	case KindSubprocessOutput:
		return "subprocess-output"
	case KindEncryptedPdf:
		return "encrypted-pdf"
	case KindTesseractConfig:
		return "tesseract-config"
	case KindPdfaConversionFailed:
		return "pdfa-conversion-failed"
	case KindInterrupted:
		return "interrupted"
	default:
		return "other"
	}
}

// Error is a Kind-tagged error carrying a human-readable message and an
// optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an *Error of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// ExitCode extracts the exit code for any error, defaulting to KindOther's
// code (15) when err is not a *Error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind.ExitCode()
	}
	return KindOther.ExitCode()
}
