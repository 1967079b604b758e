package billing

import "errors"

var (
	// ErrInvalidBoundaryDay is returned when a boundary day is zero.
	ErrInvalidBoundaryDay = errors.New("billing: invalid boundary day")
	// ErrInvalidBoundaryRole is returned when a role is neither start nor end.
	ErrInvalidBoundaryRole = errors.New("billing: invalid boundary role")
	// ErrInvalidReferenceDate is returned when a period reference date is zero.
	ErrInvalidReferenceDate = errors.New("billing: invalid reference date")
	// ErrInvalidPricing is returned when a pricing config carries a negative
	// threshold or price.
	ErrInvalidPricing = errors.New("billing: invalid pricing config")
)
