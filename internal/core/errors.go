package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies errors that cross the wire.
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindNotFound    ErrorKind = "not_found"
	KindEngine      ErrorKind = "engine"
	KindUnsupported ErrorKind = "unsupported"
)

// Error codes raised by this layer. They are negative so they never collide
// with the engine's own codes, which are passed through unchanged.
const (
	ErrCodeValidation  = -1001
	ErrCodeNotFound    = -1002
	ErrCodeUnsupported = -1003
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrUnsupported = errors.New("unsupported method")
)

// CoreError wraps a kind, a numeric code and a human-readable message.
type CoreError struct {
	Kind    ErrorKind
	Code    int
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// Is lets errors.Is match a CoreError against the package sentinels by kind.
func (e *CoreError) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrUnsupported:
		return e.Kind == KindUnsupported
	}
	return false
}

func coreError(kind ErrorKind, code int, msg string) *CoreError {
	return &CoreError{Kind: kind, Code: code, Message: msg}
}

// MissingParamError reports an absent required parameter.
func MissingParamError(key string) *CoreError {
	return coreError(KindValidation, ErrCodeValidation, fmt.Sprintf("missing required parameter %q", key))
}

// InvalidParamError reports a parameter that is present but malformed.
func InvalidParamError(key string, cause error) *CoreError {
	msg := fmt.Sprintf("invalid parameter %q", key)
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return coreError(KindValidation, ErrCodeValidation, msg)
}

// NotFoundError reports an entity that could not be resolved by id.
func NotFoundError(what, id string) *CoreError {
	return coreError(KindNotFound, ErrCodeNotFound, fmt.Sprintf("%s %q not found", what, id))
}

// EngineError carries an engine failure with its code and description verbatim.
func EngineError(code int, description string) *CoreError {
	return coreError(KindEngine, code, description)
}

// UnsupportedError reports a method nobody handles.
func UnsupportedError(method string) *CoreError {
	return coreError(KindUnsupported, ErrCodeUnsupported, fmt.Sprintf("method %q is not supported", method))
}

// AsCoreError extracts a CoreError from err.
func AsCoreError(err error) (*CoreError, bool) {
	var ce *CoreError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
