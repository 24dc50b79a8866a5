package handler

import "github.com/jonuar/Donacrypto/internal/core/domain"

// FormError is a failed form action together with the per-field messages
// the dashboard recorded for it.
type FormError struct {
	Err    error
	Fields domain.FormErrors
}

func (e *FormError) Error() string { return e.Err.Error() }

func (e *FormError) Unwrap() error { return e.Err }
