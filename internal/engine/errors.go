package engine

import (
	"errors"
	"fmt"
)

// Engine error codes.
const (
	ErrCodeGeneral            = 1
	ErrCodeInvalidParam       = 2
	ErrCodeUserNotLoggedIn    = 201
	ErrCodeTranslateDisabled  = 300
	ErrCodeFileNotFound       = 400
	ErrCodeFileInvalid        = 401
	ErrCodeMessageInvalid     = 500
	ErrCodeMessageNotFound    = 504
	ErrCodeConversationAbsent = 600
)

// Error is a failure reported by the engine.
type Error struct {
	Code        int
	Description string
}

func (e *Error) Error() string {
	return fmt.Sprintf("engine error %d: %s", e.Code, e.Description)
}

// NewError builds an engine error.
func NewError(code int, description string) *Error {
	return &Error{Code: code, Description: description}
}

// AsError converts err into an engine error, wrapping unknown errors with ErrCodeGeneral.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}
	return NewError(ErrCodeGeneral, err.Error())
}
