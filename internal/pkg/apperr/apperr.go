package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies a failure so callers can tell "try a smaller amount" from
// "wait for unlock" from "try again later" from "this request is malformed".
type Kind string

const (
	Validation                  Kind = "VALIDATION"
	InsufficientBalance         Kind = "INSUFFICIENT_BALANCE"
	InsufficientUnlockedBalance Kind = "INSUFFICIENT_UNLOCKED_BALANCE"
	PriceUnavailable            Kind = "PRICE_UNAVAILABLE"
	NotFound                    Kind = "NOT_FOUND"
	Persistence                 Kind = "PERSISTENCE"
)

// Error carries a kind, a human message and optional machine-readable details.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]interface{}
}

func (e *Error) Error() string {
	return e.Message
}

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf builds an Error with a formatted message.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches machine-readable fields (asset, amounts) to the error.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	e.Details = details
	return e
}

// KindOf extracts the kind from err, defaulting to Persistence for
// unclassified errors (unexpected storage/infra failures).
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Persistence
}

// StatusCode maps a kind to its HTTP status.
func StatusCode(kind Kind) int {
	switch kind {
	case Validation:
		return fiber.StatusBadRequest
	case InsufficientBalance, InsufficientUnlockedBalance:
		return fiber.StatusConflict
	case PriceUnavailable:
		return fiber.StatusServiceUnavailable
	case NotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}
