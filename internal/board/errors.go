package board

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateKey       = errors.New("duplicate key")
	ErrInvalidKey         = errors.New("invalid key")
	ErrInvalidPermutation = errors.New("invalid permutation")
	ErrAdapterUnavailable = errors.New("adapter unavailable")
	ErrNotLoaded          = errors.New("board not loaded")
)
