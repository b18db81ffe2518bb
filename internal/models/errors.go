package models

import "errors"

var (
	ErrNotFound     = errors.New("file not found")
	ErrExists       = errors.New("file already exists")
	ErrMissingFile  = errors.New("missing file")
	ErrTooManyFiles = errors.New("too many files for field")
	ErrBadRequest   = errors.New("bad request")
)
