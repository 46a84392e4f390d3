package domain

import "errors"

var (
	ErrInvalidRotation  = errors.New("rotation must be 0, 90, 180 or 270 degrees")
	ErrNoRotationScores = errors.New("no rotation scores computed")
	ErrUnsupportedImage = errors.New("unsupported image format")
	ErrEmptyImage       = errors.New("image has zero width or height")
)
