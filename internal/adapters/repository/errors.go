package repository

import "errors"

// Sentinel kinds for persistence errors.
var (
	ErrNotFound     = errors.New("run not found")
	ErrNoStores     = errors.New("no stores configured")
	ErrInvalidStore = errors.New("invalid store configuration")
	ErrCorruptRun   = errors.New("corrupt run payload")
)
