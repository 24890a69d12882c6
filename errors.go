package cache

import (
	"github.com/jmgilman/go/errors"
)

var (
	// ErrProducerPanic is returned to every caller sharing a computation whose producer panicked.
	ErrProducerPanic = errors.New(errors.CodeInternal, "producer panicked")

	// ErrTypeMismatch is returned by the generic helpers when the cached value is not of the requested type.
	ErrTypeMismatch = errors.New(errors.CodeConflict, "cached value has unexpected type")
)

func storageErr(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, errors.CodeDatabase, msg)
}
