package domain

import (
	"errors"
)

var (
	ErrSampleNotFound = errors.New("sample not found")
)
