package errors

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalid        = errors.New("invalid")
	ErrConflict       = errors.New("conflict")
	ErrTooMany        = errors.New("too many requests")
	ErrInternal       = errors.New("internal")
	ErrQuotaExhausted = errors.New("quota exhausted")
	ErrEmptyInput     = errors.New("empty input")
	ErrSuperseded     = errors.New("run superseded")
	ErrInfra          = errors.New("infrastructure unavailable")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsQuotaExhausted(err error) bool {
	return errors.Is(err, ErrQuotaExhausted)
}

func IsInfra(err error) bool {
	return errors.Is(err, ErrInfra)
}
