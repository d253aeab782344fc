package process

import "errors"

var (
	// ErrReadDir is returned when the input directory cannot be listed.
	ErrReadDir = errors.New("cannot read input directory")
	// ErrWriteReport is returned when the report cannot be created or written.
	ErrWriteReport = errors.New("cannot write report")
)
