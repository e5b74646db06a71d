package models

import (
	"errors"
	"fmt"
)

// ErrorCode is the machine-readable identifier carried by every failure and
// warning the pipeline can produce.
type ErrorCode string

const (
	CodeFileTooLarge      ErrorCode = "FILE_TOO_LARGE"
	CodeCorruptOrImagePDF ErrorCode = "CORRUPT_OR_IMAGE_PDF"
	CodeUnsupportedBank   ErrorCode = "UNSUPPORTED_BANK"
	CodeExtractionPartial ErrorCode = "EXTRACTION_PARTIAL"
	CodeParsingTimeout    ErrorCode = "PARSING_TIMEOUT"
	CodeServerBusy        ErrorCode = "SERVER_BUSY"

	CodeInvalidDate      ErrorCode = "INVALID_DATE"
	CodeUnparsableLine   ErrorCode = "UNPARSABLE_LINE"
	CodeDuplicateRemoved ErrorCode = "DUPLICATE_REMOVED"
	CodeLowConfidence    ErrorCode = "LOW_CONFIDENCE_DETECTION"
)

// defaultMessages maps each code to its caller-facing wording. Nothing beyond
// these messages leaks out of the pipeline.
var defaultMessages = map[ErrorCode]string{
	CodeFileTooLarge:      "file exceeds the maximum allowed size",
	CodeCorruptOrImagePDF: "PDF is corrupt, empty, or contains no extractable text",
	CodeUnsupportedBank:   "statement format not recognized by any supported bank",
	CodeExtractionPartial: "only part of the statement could be parsed",
	CodeParsingTimeout:    "statement processing exceeded the time limit",
	CodeServerBusy:        "server is processing too many statements, try again later",
	CodeInvalidDate:       "transaction date could not be parsed",
	CodeUnparsableLine:    "line could not be parsed as a transaction",
	CodeDuplicateRemoved:  "duplicate transactions removed",
	CodeLowConfidence:     "bank detection confidence below threshold, using generic parser",
}

// Message returns the default human-readable message for a code.
func (c ErrorCode) Message() string {
	if msg, ok := defaultMessages[c]; ok {
		return msg
	}
	return string(c)
}

// Fatal reports whether the code aborts a conversion with no partial data.
func (c ErrorCode) Fatal() bool {
	switch c {
	case CodeFileTooLarge, CodeCorruptOrImagePDF, CodeParsingTimeout, CodeServerBusy:
		return true
	}
	return false
}

// ConversionError is a pipeline failure with a machine-readable code.
// errors.Is matches on code so call sites can test against the sentinels
// below regardless of wrapping.
type ConversionError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ConversionError) Unwrap() error { return e.Err }

func (e *ConversionError) Is(target error) bool {
	var ce *ConversionError
	if errors.As(target, &ce) {
		return e.Code == ce.Code
	}
	return false
}

// Fatal reports whether the error aborts the conversion outright.
func (e *ConversionError) Fatal() bool { return e.Code.Fatal() }

// NewError builds a ConversionError with the code's default message.
func NewError(code ErrorCode) *ConversionError {
	return &ConversionError{Code: code, Message: code.Message()}
}

// Errorf builds a ConversionError with a custom message.
func Errorf(code ErrorCode, format string, args ...any) *ConversionError {
	return &ConversionError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds a ConversionError around an underlying cause.
func WrapError(code ErrorCode, err error) *ConversionError {
	return &ConversionError{Code: code, Message: code.Message(), Err: err}
}

// Sentinels for errors.Is checks.
var (
	ErrFileTooLarge      = NewError(CodeFileTooLarge)
	ErrCorruptOrImagePDF = NewError(CodeCorruptOrImagePDF)
	ErrUnsupportedBank   = NewError(CodeUnsupportedBank)
	ErrExtractionPartial = NewError(CodeExtractionPartial)
	ErrParsingTimeout    = NewError(CodeParsingTimeout)
	ErrServerBusy        = NewError(CodeServerBusy)
)

// CodeOf extracts the ErrorCode from err, or empty string when err carries
// no ConversionError.
func CodeOf(err error) ErrorCode {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// Warning is a non-fatal finding recorded during conversion. Page and Line
// are 1-based; zero means the warning is not scoped to a location.
type Warning struct {
	Code    ErrorCode
	Message string
	Page    int
	Line    int
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// NewUnparsableLine records a line skipped during matching.
func NewUnparsableLine(page, line int) Warning {
	return Warning{
		Code:    CodeUnparsableLine,
		Message: fmt.Sprintf("page %d line %d could not be parsed as a transaction", page, line),
		Page:    page,
		Line:    line,
	}
}

// NewInvalidDate records a candidate dropped because its date never parsed.
func NewInvalidDate(page, line int, raw string) Warning {
	return Warning{
		Code:    CodeInvalidDate,
		Message: fmt.Sprintf("page %d line %d: unparsable date %q, record dropped", page, line, raw),
		Page:    page,
		Line:    line,
	}
}

// NewDuplicateRemoved records how many duplicate transactions were collapsed.
func NewDuplicateRemoved(count int) Warning {
	return Warning{
		Code:    CodeDuplicateRemoved,
		Message: fmt.Sprintf("%d duplicate transaction(s) removed", count),
	}
}

// NewLowConfidence records a detection that fell back to the generic parser.
func NewLowConfidence(best BankType, score int) Warning {
	return Warning{
		Code:    CodeLowConfidence,
		Message: fmt.Sprintf("best bank match %q scored %d, below threshold; using generic parser", best, score),
	}
}

// NewOutOfPeriod records a transaction dated outside the statement window.
func NewOutOfPeriod(page, line int, date string) Warning {
	return Warning{
		Code:    CodeInvalidDate,
		Message: fmt.Sprintf("page %d line %d: date %s outside statement period, record flagged", page, line, date),
		Page:    page,
		Line:    line,
	}
}
