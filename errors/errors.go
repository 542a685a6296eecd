// Package errors provides the error taxonomy used by the wire codec core.
package errors

import (
	"context"
	"log/slog"

	cockroacherrors "github.com/cockroachdb/errors"

	"github.com/guileen/pgwirebind/logger"
)

// Error codes for the codec's error taxonomy (§7).
const (
	CodeBufferTooSmall         = "buffer_too_small"
	CodeInvalidCast            = "invalid_cast"
	CodeOidMismatch            = "oid_mismatch"
	CodeUnsupportedBinaryFmt   = "unsupported_binary_format"
	CodeUnsupportedBackendOpt  = "unsupported_backend_option"
	CodeNotImplemented         = "not_implemented"
	CodeSafeReadError          = "safe_read_error"
	CodeProtocolError          = "protocol_error"
	CodeConcurrentOperation    = "concurrent_operation"
)

// brokenCodes marks error codes that must take the connection to Broken
// rather than just unwinding the current statement.
var brokenCodes = map[string]bool{
	CodeBufferTooSmall:        true,
	CodeOidMismatch:           true,
	CodeUnsupportedBackendOpt: true,
	CodeProtocolError:         true,
}

// CodecError is the single error type raised by this module. Code
// identifies the taxonomy entry; Broken reports whether the owning
// connection must be discarded.
type CodecError struct {
	Code    string
	Message string
	Op      string
	Broken  bool
	Err     error
}

// Error implements the error interface.
func (e *CodecError) Error() string {
	if e.Op != "" {
		return e.Op + ": " + e.Message
	}
	return e.Message
}

// Unwrap implements the unwrap interface for error chaining.
func (e *CodecError) Unwrap() error {
	return e.Err
}

// Is checks if the error matches the target error by code.
func (e *CodecError) Is(target error) bool {
	t, ok := target.(*CodecError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Log logs the error with the package logger, including any connection
// identifiers carried on ctx.
func (e *CodecError) Log(ctx context.Context, level slog.Level) {
	fields := []any{
		"error_code", e.Code,
		"operation", e.Op,
		"message", e.Message,
		"broken", e.Broken,
	}
	if e.Err != nil {
		fields = append(fields, "cause", e.Err.Error())
	}
	switch level {
	case slog.LevelDebug:
		logger.DebugContext(ctx, "codec error", fields...)
	case slog.LevelWarn:
		logger.WarnContext(ctx, "codec error", fields...)
	default:
		logger.ErrorContext(ctx, "codec error", fields...)
	}
}

// New creates a new CodecError for the given code.
func New(op, code, message string) *CodecError {
	return &CodecError{Code: code, Message: message, Op: op, Broken: brokenCodes[code]}
}

// Newf creates a new CodecError with a formatted message.
func Newf(op, code, format string, args ...interface{}) *CodecError {
	return &CodecError{Code: code, Message: cockroacherrors.Newf(format, args...).Error(), Op: op, Broken: brokenCodes[code]}
}

// Wrap attaches op/code context to an existing error, preserving its
// stack trace via cockroachdb/errors so the original call site survives
// the registry -> parameter -> array-codec -> bind-writer chain.
func Wrap(err error, op, code string) *CodecError {
	return &CodecError{
		Code:    code,
		Message: err.Error(),
		Op:      op,
		Broken:  brokenCodes[code],
		Err:     cockroacherrors.Wrap(err, op),
	}
}

// Wrapf attaches formatted op/code context to an existing error.
func Wrapf(err error, op, code, format string, args ...interface{}) *CodecError {
	return &CodecError{
		Code:    code,
		Message: cockroacherrors.Newf(format, args...).Error(),
		Op:      op,
		Broken:  brokenCodes[code],
		Err:     cockroacherrors.Wrapf(err, op),
	}
}

// BufferTooSmall reports a buffer capacity smaller than an atomic header.
func BufferTooSmall(op string, capacity, required int) *CodecError {
	return Newf(op, CodeBufferTooSmall, "buffer capacity %d is smaller than required header size %d", capacity, required)
}

// InvalidCast reports that no handler could be resolved for a host value.
func InvalidCast(op, hostType string) *CodecError {
	return Newf(op, CodeInvalidCast, "no type handler registered for host type %q", hostType)
}

// OidMismatch reports an array header OID that disagrees with the element handler.
func OidMismatch(op string, want, got uint32) *CodecError {
	return Newf(op, CodeOidMismatch, "array element oid mismatch: expected %d, got %d", want, got)
}

// UnsupportedBinaryFormat reports a binary read/write request on a text-only handler.
func UnsupportedBinaryFormat(op, pgName string) *CodecError {
	return Newf(op, CodeUnsupportedBinaryFmt, "type %q does not support binary format", pgName)
}

// UnsupportedBackendOption reports a backend configuration this codec cannot honor.
func UnsupportedBackendOption(op, option string) *CodecError {
	return Newf(op, CodeUnsupportedBackendOpt, "unsupported backend option: %s", option)
}

// NotImplemented reports a feature this codec intentionally does not support.
func NotImplemented(op, feature string) *CodecError {
	return Newf(op, CodeNotImplemented, "%s is not implemented", feature)
}

// SafeRead wraps an inner error that was fully consumed byte-wise but is
// semantically invalid; the connection remains healthy.
func SafeRead(op string, inner error) *CodecError {
	return Wrap(inner, op, CodeSafeReadError)
}

// Protocol reports an unsafe read/write failure that must break the connection.
func Protocol(op string, inner error) *CodecError {
	return Wrap(inner, op, CodeProtocolError)
}

// ConcurrentOperation reports re-entrant use of a codec still mid-operation.
func ConcurrentOperation(op string) *CodecError {
	return New(op, CodeConcurrentOperation, "codec is already in a non-terminal state")
}

// IsBroken reports whether err (if a *CodecError) requires discarding the connection.
func IsBroken(err error) bool {
	var e *CodecError
	if cockroacherrors.As(err, &e) {
		return e.Broken
	}
	return false
}

// Code returns the taxonomy code of err, or "" if err is not a *CodecError.
func Code(err error) string {
	var e *CodecError
	if cockroacherrors.As(err, &e) {
		return e.Code
	}
	return ""
}
