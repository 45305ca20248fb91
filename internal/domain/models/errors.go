package models

import "errors"

// ErrNotFound is returned by stores when a looked-up record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned by stores when a uniqueness constraint is violated.
var ErrDuplicate = errors.New("duplicate record")
