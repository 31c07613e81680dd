package cbl

import (
	"context"

	"github.com/hyp3rd/ewrap"

	"github.com/couchbase/cbl-go/internal/bindings"
)

// InstanceCount returns the number of live native objects. The count is
// read from the native layer on every call.
func InstanceCount() int {
	return bindings.InstanceCount()
}

// DumpInstances asks the native layer to log the class and address of every
// live object to its own log channel.
//
// Couchbase Lite only implements this in debug builds; in release builds it
// silently does nothing. The in-memory backend always implements it.
func DumpInstances() {
	bindings.DumpInstances()
}

// Baseline records the instance count at a point in time so that later
// growth can be reported as a leak.
type Baseline struct {
	count int
}

// Snapshot takes a baseline from the current instance count.
func Snapshot() Baseline {
	return Baseline{count: InstanceCount()}
}

// Count returns the instance count the baseline was taken at.
func (b Baseline) Count() int { return b.count }

// Leaked returns how many more objects are alive now than at the baseline.
// It is negative when objects older than the baseline were destroyed.
func (b Baseline) Leaked() int {
	return InstanceCount() - b.count
}

// Check returns an error wrapping ErrLeak when objects are alive above the
// baseline. With Config.DumpOnLeak it also dumps the live instances.
func (b Baseline) Check() error {
	n := b.Leaked()
	if n <= 0 {
		return nil
	}
	s := current()
	s.logger.Warn(context.Background(), "native objects leaked", "leaked", n, "baseline", b.count)
	if s.cfg.DumpOnLeak {
		DumpInstances()
	}
	return ewrap.Wrapf(ErrLeak, "%d objects alive above baseline %d", n, b.count)
}
