package questbook

import "errors"

// Sentinel kinds for questbook errors.
var (
	ErrInvalidDefinition = errors.New("invalid quest or bounty definition")
)
