//go:build !cgo || !cblite

package bindings

import (
	"unsafe"

	"github.com/couchbase/cbl-go/internal/memheap"
)

func heap() *memheap.Heap { return memheap.Default }

// Retain increments the reference count of the object at p and returns p.
func Retain(p unsafe.Pointer) unsafe.Pointer {
	return unsafe.Pointer(heap().Retain((*memheap.Object)(p)))
}

// Release decrements the reference count of the object at p.
func Release(p unsafe.Pointer) {
	heap().Release((*memheap.Object)(p))
}

// ReleaseBuf frees an owned result buffer.
func ReleaseBuf(p unsafe.Pointer) {
	heap().ReleaseBuf(p)
}

// RemoveListener deregisters and releases a listener token.
func RemoveListener(token unsafe.Pointer) {
	heap().RemoveListener((*memheap.Object)(token))
}

// InstanceCount returns the number of live native objects.
func InstanceCount() int {
	return heap().InstanceCount()
}

// DumpInstances logs every live native object.
func DumpInstances() {
	heap().DumpInstances()
}

// Backend names the active backend.
func Backend() string { return BackendMemory }

// Version returns the native library version, empty when unknown.
func Version() string { return "" }
