package internal

import (
	"errors"
)

var (
	ENOTSUP         = errors.New("not supported")
	ErrEmptyPath    = errors.New("empty path")
	ErrIsDirectory  = errors.New("path is a directory")
	ErrSameInOutput = errors.New("input and output refer to the same file")
)
