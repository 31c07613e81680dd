//go:build cgo && cblite

package bindings

/*
#cgo LDFLAGS: -lCouchbaseLiteC
#include <stdlib.h>
#include "cbl/CouchbaseLite.h"
#include "cbl/CBL_Edition.h"

static const char* cblgo_version(void) { return CBLITE_VERSION; }
*/
import "C"

import "unsafe"

// Retain increments the reference count of the object at p and returns p.
func Retain(p unsafe.Pointer) unsafe.Pointer {
	return unsafe.Pointer(C.CBL_Retain((*C.CBLRefCounted)(p)))
}

// Release decrements the reference count of the object at p.
func Release(p unsafe.Pointer) {
	C.CBL_Release((*C.CBLRefCounted)(p))
}

// ReleaseBuf frees the buffer of an FLSliceResult.
func ReleaseBuf(p unsafe.Pointer) {
	C._FLBuf_Release(p)
}

// RemoveListener deregisters and releases a listener token.
func RemoveListener(token unsafe.Pointer) {
	C.CBLListener_Remove((*C.CBLListenerToken)(token))
}

// InstanceCount returns the number of live Couchbase Lite objects.
func InstanceCount() int {
	return int(C.CBL_InstanceCount())
}

// DumpInstances logs the class and address of each live object. Only debug
// builds of Couchbase Lite implement it; release builds do nothing.
func DumpInstances() {
	C.CBL_DumpInstances()
}

// Backend names the active backend.
func Backend() string { return BackendNative }

// Version returns CBLITE_VERSION from the headers the library was built with.
func Version() string { return C.GoString(C.cblgo_version()) }
