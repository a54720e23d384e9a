package pcd

import (
	"errors"
)

var (
	// ErrInvalidInput is returned for malformed or misaligned arguments.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDimensionMismatch is returned when paired point sets differ in length.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrDegenerate is returned when there are not enough points to solve the problem.
	ErrDegenerate = errors.New("degenerate input")
)
