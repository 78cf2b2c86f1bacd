package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindInsufficientStock Kind = "insufficient_stock"
	KindUnknownItem       Kind = "unknown_item"
	KindInvalidSideOption Kind = "invalid_side_option"
	KindInvalidTransition Kind = "invalid_transition"
	KindNotFound          Kind = "not_found"
	KindForbidden         Kind = "forbidden"
	KindUnauthenticated   Kind = "unauthenticated"
	KindInsufficientData  Kind = "insufficient_data"
	KindModelNotTrained   Kind = "model_not_trained"
	KindValidation        Kind = "validation_error"
	KindRateLimited       Kind = "rate_limited"
	KindInternal          Kind = "internal"
)

// Class tells a caller how to react: fix the input, refresh and retry, re-authenticate, or give up.
type Class string

const (
	ClassValidation    Class = "validation"
	ClassConflict      Class = "conflict"
	ClassAuthorization Class = "authorization"
	ClassInternal      Class = "internal"
)

type Error struct {
	Kind    Kind
	Message string
	// ItemID names the menu item at fault for stock and catalog failures.
	ItemID *int64
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, apperror.New(KindNotFound, "")) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Kind == e.Kind
	}
	return false
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// ForItem returns a copy of e attributed to a menu item.
func (e *Error) ForItem(id int64) *Error {
	cp := *e
	cp.ItemID = &id
	return &cp
}

func InsufficientStock(itemID int64, name string, requested, available int) *Error {
	return New(KindInsufficientStock, "insufficient stock for %s: requested %d, available %d", name, requested, available).ForItem(itemID)
}

func UnknownItem(itemID int64) *Error {
	return New(KindUnknownItem, "menu item %d does not exist", itemID).ForItem(itemID)
}

func Internal(err error, op string) *Error {
	return Wrap(err, KindInternal, "%s", op)
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func ClassOf(kind Kind) Class {
	switch kind {
	case KindValidation, KindUnknownItem, KindInvalidSideOption:
		return ClassValidation
	case KindInsufficientStock, KindInvalidTransition, KindInsufficientData, KindModelNotTrained, KindNotFound:
		return ClassConflict
	case KindForbidden, KindUnauthenticated, KindRateLimited:
		return ClassAuthorization
	default:
		return ClassInternal
	}
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation, KindUnknownItem, KindInvalidSideOption:
		return http.StatusBadRequest
	case KindInsufficientStock, KindInvalidTransition, KindInsufficientData, KindModelNotTrained:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
