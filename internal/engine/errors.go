package engine

import "errors"

var (
	ErrDuplicateKey    = errors.New("column key already exists")
	ErrEmptyKey        = errors.New("column key is empty")
	ErrInvalidRowCount = errors.New("invalid row count, loaded as zero")
)
