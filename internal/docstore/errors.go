package docstore

import (
	"errors"

	"github.com/otaku572/gptproduct/internal/storage"
)

// ErrNotFound is the storage sentinel, re-exported so callers of the service
// layer need only this package.
var ErrNotFound = storage.ErrNotFound

// ErrValidation is returned when a required field (name, title) is missing or
// malformed.
var ErrValidation = errors.New("validation failed")

// ErrConflict is returned when an operation would leave two documents with
// the same title inside one project, or two projects with the same name.
var ErrConflict = errors.New("name conflict")
