//go:build cgo && cblite

package main

import "github.com/couchbase/cbl-go/internal/bindings"

// runSelftest needs objects it can create and fire events on, which only the
// in-memory backend provides.
func runSelftest() (*selftestReport, error) {
	return nil, bindings.ErrNotBuilt
}
