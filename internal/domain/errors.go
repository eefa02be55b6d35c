package domain

import "errors"

// Sentinel errors for the domain layer.
var (
	ErrNotFound  = errors.New("domain: not found")
	ErrForbidden = errors.New("domain: forbidden")

	// Brand membership and lifecycle violations.
	ErrMemberLimit     = errors.New("domain: member limit reached")
	ErrDuplicateMember = errors.New("domain: member already exists")
	ErrBrandActive     = errors.New("domain: brand is currently active")
	ErrLastBrand       = errors.New("domain: cannot delete the last brand")
)
