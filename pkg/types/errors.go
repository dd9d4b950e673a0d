package types

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the store and the engine wraps exactly
// one of these so callers can branch with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrForbidden        = errors.New("forbidden")
	ErrConflict         = errors.New("conflict")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrUnauthorized     = errors.New("unauthorized")
)

// Kind labels returned by KindOf.
const (
	KindNotFound         = "not_found"
	KindInvalidArgument  = "invalid_argument"
	KindForbidden        = "forbidden"
	KindConflict         = "conflict"
	KindStoreUnavailable = "store_unavailable"
	KindUnauthorized     = "unauthorized"
	KindInternal         = "internal"
)

var kindLabels = []struct {
	err   error
	label string
}{
	{ErrNotFound, KindNotFound},
	{ErrInvalidArgument, KindInvalidArgument},
	{ErrForbidden, KindForbidden},
	{ErrConflict, KindConflict},
	{ErrStoreUnavailable, KindStoreUnavailable},
	{ErrUnauthorized, KindUnauthorized},
}

// KindOf returns the stable label of the kind wrapped by err. Errors that
// carry no kind report KindInternal; nil reports "".
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kindLabels {
		if errors.Is(err, k.err) {
			return k.label
		}
	}
	return KindInternal
}

// NotFoundf wraps ErrNotFound with a formatted description.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrNotFound)
}

// InvalidArgumentf wraps ErrInvalidArgument with a formatted description.
func InvalidArgumentf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidArgument)
}

// Forbiddenf wraps ErrForbidden with a formatted description.
func Forbiddenf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrForbidden)
}

// Conflictf wraps ErrConflict with a formatted description.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConflict)
}
