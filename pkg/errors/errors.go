package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeInvalidQuantity    Code = "INVALID_QUANTITY"
	CodeItemNotFound       Code = "ITEM_NOT_FOUND"
	CodeInvalidAddress     Code = "INVALID_ADDRESS"
	CodeMissingAddress     Code = "MISSING_ADDRESS"
	CodeInvalidPayment     Code = "INVALID_PAYMENT"
	CodePersistenceFailure Code = "PERSISTENCE_FAILURE"
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeNotFound           Code = "NOT_FOUND"
	CodeStateConflict      Code = "STATE_CONFLICT"
	CodeInternal           Code = "INTERNAL_ERROR"
	CodeDependency         Code = "DEPENDENCY_ERROR"
)

type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	// UserInput marks rejections raised at the boundary closest to user input;
	// the operation left state untouched.
	UserInput bool
}

var metadataByCode = map[Code]Metadata{
	CodeInvalidQuantity: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "quantity must be at least 1",
		DetailsAllowed: true,
		UserInput:      true,
	},
	CodeItemNotFound: {
		HTTPStatus:     http.StatusNotFound,
		PublicMessage:  "item is not in the cart",
		DetailsAllowed: true,
		UserInput:      true,
	},
	CodeInvalidAddress: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "please provide a valid delivery address",
		DetailsAllowed: true,
		UserInput:      true,
	},
	CodeMissingAddress: {
		HTTPStatus:    http.StatusUnprocessableEntity,
		PublicMessage: "please provide a valid delivery address",
		UserInput:     true,
	},
	CodeInvalidPayment: {
		HTTPStatus:     http.StatusUnprocessableEntity,
		PublicMessage:  "please select and complete a valid payment method",
		DetailsAllowed: true,
		UserInput:      true,
	},
	CodePersistenceFailure: {
		HTTPStatus:    http.StatusServiceUnavailable,
		Retryable:     true,
		PublicMessage: "order could not be saved",
	},
	CodeValidation: {
		HTTPStatus:     http.StatusBadRequest,
		PublicMessage:  "validation failed",
		DetailsAllowed: true,
		UserInput:      true,
	},
	CodeNotFound: {
		HTTPStatus:    http.StatusNotFound,
		PublicMessage: "resource not found",
	},
	CodeStateConflict: {
		HTTPStatus:     http.StatusConflict,
		PublicMessage:  "state transition disallowed",
		DetailsAllowed: true,
	},
	CodeInternal: {
		HTTPStatus:    http.StatusInternalServerError,
		Retryable:     true,
		PublicMessage: "internal error",
	},
	CodeDependency: {
		HTTPStatus:     http.StatusServiceUnavailable,
		Retryable:      true,
		PublicMessage:  "dependency unavailable",
		DetailsAllowed: true,
	},
}

func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the provided code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}

// PublicMessage resolves the message shown to the shopper for err.
func PublicMessage(err error) string {
	typed := As(err)
	if typed == nil {
		return MetadataFor(CodeInternal).PublicMessage
	}
	meta := MetadataFor(typed.Code())
	if meta.UserInput && typed.Message() != "" {
		return typed.Message()
	}
	return meta.PublicMessage
}
