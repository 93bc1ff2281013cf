package model

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation error")
	ErrConflict          = errors.New("conflict")
	ErrMalformedRequest  = errors.New("malformed request")
	ErrUnknownMetricKind = errors.New("unknown metric kind")
)
