package cache

import (
	"time"

	"github.com/charmbracelet/log"
	"github.com/krisalay/keshi/storage"
	"github.com/krisalay/keshi/types"
)

const (
	// DefaultCleanupInterval is the sweep period used when Options.CleanupInterval is zero.
	DefaultCleanupInterval = 5 * time.Minute

	// NoCleanup disables the background sweep. Any negative interval does the same.
	NoCleanup time.Duration = -1
)

// Options configures a Cache. The zero value is usable.
type Options struct {
	// CleanupInterval is the pause between two sweep passes.
	// Zero means DefaultCleanupInterval, negative (NoCleanup) disables the sweep.
	CleanupInterval time.Duration

	// Storage is the backing store. Nil means a fresh storage.Memory.
	Storage storage.Storage

	// Metrics receives cache events. Nil means types.NoopMetrics.
	Metrics types.Metrics

	// Logger receives debug output. Nil discards it.
	Logger *log.Logger

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.CleanupInterval == 0 {
		o.CleanupInterval = DefaultCleanupInterval
	}
	if o.Storage == nil {
		o.Storage = storage.NewMemory()
	}
	return o
}
