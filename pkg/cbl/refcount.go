package cbl

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/hyp3rd/ewrap"

	"github.com/couchbase/cbl-go/internal/bindings"
	"github.com/couchbase/cbl-go/pkg/cbl/logging"
)

// Retain increments the native reference count of p and returns p. The
// caller now shares ownership and owes one Release. T is the native object
// type (for example C.CBLDocument).
func Retain[T any](p *T) *T {
	return (*T)(bindings.Retain(unsafe.Pointer(p)))
}

// Release gives up one reference to p. The native object is destroyed when
// its count reaches zero. Never release a pointer the caller does not own.
func Release[T any](p *T) {
	bindings.Release(unsafe.Pointer(p))
}

// Handle owns exactly one reference to a native object.
//
// Close releases that reference; Clone retains a new one for the copy. Use
// Ptr to pass the object to native calls and keep the handle reachable until
// the call returns:
//
//	n := C.CBLDocument_Count(h.Ptr())
//	runtime.KeepAlive(h)
//
// All methods are safe for concurrent use.
type Handle[T any] struct {
	mu  sync.RWMutex
	ptr *T
}

// Adopt wraps a pointer the caller already owns, such as the result of a
// native New or Copy call. Adopting nil is a usage error and panics; use
// Check for results of fallible calls.
func Adopt[T any](p *T) *Handle[T] {
	if p == nil {
		panic("cbl: Adopt of nil handle")
	}
	return newHandle(p)
}

// Retained wraps a borrowed pointer, retaining it first so that the handle
// owns its own reference. Wrapping nil panics.
func Retained[T any](p *T) *Handle[T] {
	if p == nil {
		panic("cbl: Retained of nil handle")
	}
	return newHandle(Retain(p))
}

// Check adopts the result of a fallible native call. A nil pointer returns
// ErrNilHandle, wrapping err when the call reported one.
//
// Couchbase Lite fills its error out-parameter only on failure, so a non-nil
// pointer wins: the handle is adopted and err is logged as a warning rather
// than returned.
func Check[T any](p *T, err error) (*Handle[T], error) {
	if p == nil {
		if err != nil {
			return nil, ewrap.Wrap(err, ErrNilHandle.Error())
		}
		return nil, ErrNilHandle
	}
	if err != nil {
		current().logger.Warn(context.Background(), "native call returned an object and an error; error ignored",
			"type", fmt.Sprintf("%T", p), "error", err.Error())
	}
	return newHandle(p), nil
}

func newHandle[T any](p *T) *Handle[T] {
	h := &Handle[T]{ptr: p}
	if !current().cfg.DisableFinalizers {
		runtime.SetFinalizer(h, finalizeHandle[T])
	}
	return h
}

func finalizeHandle[T any](h *Handle[T]) {
	h.mu.Lock()
	p := h.ptr
	h.ptr = nil
	h.mu.Unlock()
	if p == nil {
		return
	}
	current().logger.Warn(context.Background(), "handle released by finalizer; missing Close",
		"type", fmt.Sprintf("%T", p), logging.Pointer("ref", unsafe.Pointer(p)))
	Release(p)
}

// Ptr returns the borrowed native pointer, or nil once the handle is closed.
// The pointer must not be released by the caller.
func (h *Handle[T]) Ptr() *T {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ptr
}

// Valid reports whether the handle still owns its reference.
func (h *Handle[T]) Valid() bool {
	return h.Ptr() != nil
}

// Clone returns a second owner of the same object, retaining it first.
// Cloning a closed handle returns nil.
func (h *Handle[T]) Clone() *Handle[T] {
	if h == nil {
		return nil
	}
	h.mu.RLock()
	p := h.ptr
	if p == nil {
		h.mu.RUnlock()
		return nil
	}
	p = Retain(p)
	h.mu.RUnlock()
	return newHandle(p)
}

// Detach gives up the handle's reference without releasing it and returns
// the pointer; the caller now owes the release. It is meant for native calls
// that take over a reference. Detaching a closed handle returns nil.
func (h *Handle[T]) Detach() *T {
	if h == nil {
		return nil
	}
	h.mu.Lock()
	p := h.ptr
	h.ptr = nil
	h.mu.Unlock()
	runtime.SetFinalizer(h, nil)
	return p
}

// Close releases the handle's reference. Only the first call releases;
// later calls return nil without effect.
func (h *Handle[T]) Close() error {
	if p := h.Detach(); p != nil {
		Release(p)
	}
	return nil
}
