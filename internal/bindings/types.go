package bindings

import "errors"

// ErrNotBuilt reports that a feature needs the native library, which was not
// linked into the current binary.
var ErrNotBuilt = errors.New("cbl/internal/bindings: native bindings not built")

const (
	// BackendNative names the cgo backend.
	BackendNative = "couchbase-lite-c"
	// BackendMemory names the in-memory heap backend.
	BackendMemory = "memheap"
)
