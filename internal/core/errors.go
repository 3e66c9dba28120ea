package core

import "errors"

var (
	ErrNotFound = errors.New("user not found")

	// pairing
	ErrAlreadyPaired   = errors.New("already paired")
	ErrNoCandidate     = errors.New("no candidate")
	ErrNotPaired       = errors.New("not paired")
	ErrDanglingPartner = errors.New("dangling partner link")
	ErrDeliveryFailure = errors.New("delivery failure")

	// region
	ErrInvalidRegion = errors.New("invalid region")
	ErrPremiumOnly   = errors.New("premium only")
)
