package services

import "errors"

// Sentinel errors returned by the service layer. Controllers translate
// them to HTTP status codes; anything unrecognized is a 500.
var (
	ErrValidation    = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrAccessDenied  = errors.New("access denied")
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrDuplicateVote = errors.New("member already voted in this poll")
)
