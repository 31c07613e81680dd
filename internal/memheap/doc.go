// Package memheap is an in-process model of the Couchbase Lite native object
// protocol: reference-counted objects, owned result buffers released exactly
// once, and listener tokens that are themselves counted objects.
//
// It backs internal/bindings whenever the real C library is not linked
// (builds without the cgo and cblite tags), which makes it the test harness
// for the ownership rules of pkg/cbl. Every counter is instrumented so that
// tests can observe retains, releases and buffer frees directly.
//
// Misuse that the C library cannot detect (releasing a destroyed object,
// releasing a buffer twice, removing a listener twice) panics here.
package memheap
