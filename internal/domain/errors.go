package domain

import "errors"

var (
	ErrMissingInput       = errors.New("missing input")
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrInvalidChallenge   = errors.New("invalid challenge")
	ErrChallengeExpired   = errors.New("challenge expired")
	ErrModelOutputInvalid = errors.New("model output invalid")
)
