package fl

import "errors"

var (
	ErrNoUpdates          = errors.New("no updates provided for aggregation")
	ErrOverflow           = errors.New("sample count overflow during aggregation")
	ErrShapeMismatch      = errors.New("parameter shapes do not match")
	ErrEmptyParameters    = errors.New("empty model parameters")
	ErrInvalidSampleCount = errors.New("sample count must be positive")
	ErrLengthMismatch     = errors.New("probabilities and labels differ in length")
)
