package models

import "errors"

var (
	ErrNotFound        = errors.New("file not found")
	ErrIO              = errors.New("i/o failure")
	ErrChunkOutOfOrder = errors.New("chunk out of order")
	ErrDuplicateChunk  = errors.New("chunk already received")
	ErrInvalidChunk    = errors.New("invalid chunk")
)
