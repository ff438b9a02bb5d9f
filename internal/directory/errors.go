package directory

import "errors"

var (
	ErrInvalidInput = errors.New("directory: invalid input")
	ErrNotFound     = errors.New("directory: not found")
	ErrConflict     = errors.New("directory: conflict")
	ErrSelfDelete   = errors.New("directory: cannot delete your own account")
)
