package impl

import "errors"

var (
	ErrEmptyPhone = errors.New("empty phone")
	ErrEmptyCode  = errors.New("empty code")
)
