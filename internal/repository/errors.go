package repository

import "github.com/juju/errors"

const (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.ConstError("entity not found")

	// ErrActiveShiftExists is returned when inserting or reopening a shift
	// would leave two active shifts. Storage enforces it with a unique index.
	ErrActiveShiftExists = errors.ConstError("an active shift already exists")
)
