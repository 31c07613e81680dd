package cbl

import (
	"bytes"
	"strings"
	"unicode/utf8"
	"unsafe"

	"github.com/couchbase/cbl-go/internal/bindings"
)

// emptyAnchor gives present, zero-length views a non-null address.
var emptyAnchor byte

// Slice is a borrowed view of native or Go memory: an address and a length,
// shaped like FLSlice. It owns nothing and is only valid while whatever
// produced it is alive.
//
// A null address means absent. A non-null address with zero length is a
// present, empty value. The two are never conflated.
type Slice struct {
	buf  unsafe.Pointer
	size uint64
}

// NullSlice is the absent view.
var NullSlice = Slice{}

// FromString returns a view of s's bytes. The view must not outlive s and its
// bytes must not be modified. The empty string yields a present, empty view.
func FromString(s string) Slice {
	if len(s) == 0 {
		return Slice{buf: unsafe.Pointer(&emptyAnchor)}
	}
	return Slice{buf: unsafe.Pointer(unsafe.StringData(s)), size: uint64(len(s))}
}

// FromBytes returns a view of b. The view must not outlive b. A nil b yields
// the absent view; a non-nil empty b yields a present, empty view.
func FromBytes(b []byte) Slice {
	switch {
	case b == nil:
		return NullSlice
	case len(b) == 0:
		return Slice{buf: unsafe.Pointer(&emptyAnchor)}
	default:
		return Slice{buf: unsafe.Pointer(unsafe.SliceData(b)), size: uint64(len(b))}
	}
}

// UnsafeSlice wraps a view returned by a native call. The caller guarantees
// that p points to at least n readable bytes for as long as the view is used,
// and that p is never released through this view.
func UnsafeSlice(p unsafe.Pointer, n uint64) Slice {
	return Slice{buf: p, size: n}
}

// IsPresent reports whether the view has a non-null address.
func (s Slice) IsPresent() bool { return s.buf != nil }

// Ptr returns the view's address, for passing it back to a native call.
func (s Slice) Ptr() unsafe.Pointer { return s.buf }

// Len returns the view's length. It is zero for the absent view whatever
// length the producer reported.
func (s Slice) Len() uint64 {
	if s.buf == nil {
		return 0
	}
	return s.size
}

// AsBytes returns the viewed bytes without copying. The returned slice
// aliases the producer's memory: it is valid only as long as the view and
// must not be modified. ok is false for the absent view.
func (s Slice) AsBytes() (b []byte, ok bool) {
	if s.buf == nil {
		return nil, false
	}
	return unsafe.Slice((*byte)(s.buf), s.size), true
}

// AsString returns the viewed bytes as a string. ok is false for the absent
// view and for bytes that are not valid UTF-8.
func (s Slice) AsString() (string, bool) {
	b, ok := s.AsBytes()
	if !ok || !utf8.Valid(b) {
		return "", false
	}
	return string(b), true
}

// Copy returns an independent copy of the viewed bytes. ok is false for the
// absent view.
func (s Slice) Copy() ([]byte, bool) {
	b, ok := s.AsBytes()
	if !ok {
		return nil, false
	}
	return bytes.Clone(b), true
}

// CopyString returns the viewed bytes as a string without UTF-8 validation,
// for binary keys and identifiers. ok is false for the absent view.
func (s Slice) CopyString() (string, bool) {
	b, ok := s.AsBytes()
	if !ok {
		return "", false
	}
	return string(b), true
}

// SliceResult is an owned buffer returned by a native call, shaped like
// FLSliceResult. Exactly one release must happen before it is discarded.
//
// The preferred way to discharge it is IntoString or IntoBytes, which copy
// the content into Go memory and release in one step. Release and the Into
// methods zero the receiver, so repeating them on the same variable is a
// no-op. Copying a SliceResult by value copies the obligation; releasing
// both copies is a double free that the native layer cannot detect.
type SliceResult struct {
	buf  unsafe.Pointer
	size uint64
}

// UnsafeTakeResult takes ownership of a buffer returned by a native call
// that documents the caller must release it. This is the only way to
// obtain a SliceResult; a borrowed Slice can never become one.
func UnsafeTakeResult(p unsafe.Pointer, n uint64) SliceResult {
	return SliceResult{buf: p, size: n}
}

// View returns a borrowed view of the result without transferring
// ownership. The view is invalid once the result is released.
func (r SliceResult) View() Slice {
	return Slice(r)
}

// IsPresent reports whether the result has a non-null address.
func (r SliceResult) IsPresent() bool { return r.buf != nil }

// Release frees the buffer and zeroes r. Releasing the null result does
// nothing.
func (r *SliceResult) Release() {
	p := r.buf
	*r = SliceResult{}
	if p != nil {
		bindings.ReleaseBuf(p)
	}
}

// IntoBytes copies the content into Go memory and releases r.
func (r *SliceResult) IntoBytes() ([]byte, bool) {
	b, ok := r.View().Copy()
	r.Release()
	return b, ok
}

// IntoString copies the content into a string and releases r. ok is false
// for the null result and for content that is not valid UTF-8; r is
// released in both cases.
func (r *SliceResult) IntoString() (string, bool) {
	s, ok := r.View().AsString()
	r.Release()
	return s, ok
}

// CString copies a NUL-terminated native string. Invalid UTF-8 sequences are
// replaced with U+FFFD. A nil p yields "".
func CString(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return strings.ToValidUTF8(string(unsafe.Slice((*byte)(p), n)), "\uFFFD")
}
