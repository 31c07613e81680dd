// Package cbl is the safe-ownership bridge between Go and the Couchbase Lite
// native object model.
//
// The native library hands out two kinds of resources that must each be
// released exactly once: reference-counted objects (CBL_Retain/CBL_Release)
// and owned byte buffers (FLSliceResult). It also hands out borrowed byte
// views (FLSlice) that must never be released and never outlive their
// producer. This package gives each convention its own Go type:
//
//   - Slice is a borrowed view. It has no Release method.
//   - SliceResult is an owned buffer. IntoString/IntoBytes copy it into Go
//     memory and release it in one step.
//   - Handle[T] owns one reference to a native object. Clone retains first,
//     Close releases once.
//   - ListenerToken owns one listener registration. Close is the only way to
//     deregister it.
//
// Domain packages (documents, queries, replication, blobs) build on these
// primitives; they are not part of this package.
//
// # Lifetimes
//
// Go has no destructors, so every owning type implements io.Closer and is
// meant to be closed with defer:
//
//	h := cbl.Adopt(ptr)
//	defer h.Close()
//
// A finalizer releases handles and tokens that become unreachable without
// being closed and logs a warning. It is a safety net for leaks, not a
// replacement for Close, and can be turned off with Config.DisableFinalizers.
//
// # Backends
//
// Built with the cgo and cblite tags the package talks to libCouchbaseLiteC.
// Otherwise it runs against an in-memory model of the native heap, which is
// what the tests use.
package cbl
