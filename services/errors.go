package services

import "errors"

var (
	// ErrNotFound signals that the referenced marker, image or user does
	// not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden signals that the caller is not authorized for the
	// requested mutation. Routes map it to 404 just like ErrNotFound so
	// the API never confirms the existence of resources the caller cannot
	// touch; the distinction exists for logging and tests.
	ErrForbidden = errors.New("forbidden")

	// ErrNoContent signals an upload request without image bytes.
	ErrNoContent = errors.New("no image content provided")
)
