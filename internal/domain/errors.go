package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidAspectRatio = errors.New("unsupported aspect ratio")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrNoImageReturned    = errors.New("model did not return an image")
	ErrQuotaExhausted     = errors.New("generation quota exhausted")
	ErrBatchRunning       = errors.New("batch still running")
)
