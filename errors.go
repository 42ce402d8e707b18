package ssf

import "errors"

var (
	// ErrInconsistentData is returned when a zero variance prediction meets a non-zero residual
	ErrInconsistentData = errors.New("inconsistent data")
	// ErrDiffuseUnresolved is returned when the diffuse part does not vanish within the data
	ErrDiffuseUnresolved = errors.New("unresolved diffuse initialization")
	// ErrFastInit is returned when the fast recursion can not be initialized or breaks down
	ErrFastInit = errors.New("fast filter initialization failed")
	// ErrInvalidModel is returned when a model violates the contract dimensions
	ErrInvalidModel = errors.New("invalid model")
)
