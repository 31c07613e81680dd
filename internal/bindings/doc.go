// Package bindings is the narrow native boundary of the bridge.
//
// With the cgo and cblite build tags it calls straight into
// libCouchbaseLiteC. Without them every call is served by the process-wide
// in-memory heap (internal/memheap), which models the same protocol so that
// the rest of the repository builds and tests without the C library.
//
// Only package pkg/cbl may call the retain/release entry points; the
// internalcheck tests enforce this.
package bindings
