package memheap

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"unsafe"

	"github.com/couchbase/cbl-go/pkg/cbl/logging"
)

// ListenerFunc is the native callback signature used by event sources. ctx is
// the opaque context supplied at registration.
type ListenerFunc func(ctx uintptr)

// Stats is a snapshot of the heap's instrumentation counters.
type Stats struct {
	Retains        uint64
	Releases       uint64
	Destroyed      uint64
	BufferAllocs   uint64
	BufferReleases uint64
}

// Object is a reference-counted native object. Its address is the handle
// passed across the bridge.
type Object struct {
	heap  *Heap
	class string
	name  []byte
	refs  int

	// event source state
	listeners []*listener

	// token state
	token *listener
}

type listener struct {
	source  *Object
	fn      ListenerFunc
	ctx     uintptr
	enabled bool
}

// Heap owns every object and buffer it issues.
type Heap struct {
	mu      sync.Mutex
	objects map[*Object]struct{}
	buffers map[unsafe.Pointer][]byte
	stats   Stats
	debug   bool
	logger  logging.Logger
}

// Option configures a Heap.
type Option func(*Heap)

// WithDebug enables DumpInstances. Release builds of Couchbase Lite ship with
// the dump compiled out, which a heap without this option mirrors.
func WithDebug(enabled bool) Option {
	return func(h *Heap) { h.debug = enabled }
}

// WithLogger sets the heap's diagnostic channel.
func WithLogger(l logging.Logger) Option {
	return func(h *Heap) {
		if l != nil {
			h.logger = l
		}
	}
}

// New returns an empty heap.
func New(opts ...Option) *Heap {
	h := &Heap{
		objects: make(map[*Object]struct{}),
		buffers: make(map[unsafe.Pointer][]byte),
		logger:  logging.New(nil).With("component", "memheap"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Default is the process-wide heap used by internal/bindings.
var Default = New(WithDebug(true))

// NewObject creates an object with a reference count of one, owned by the
// caller.
func (h *Heap) NewObject(class string) *Object {
	return h.NewNamedObject(class, "")
}

// NewNamedObject is NewObject with a name whose bytes stay valid, and may be
// viewed without copying, for the object's lifetime.
func (h *Heap) NewNamedObject(class, name string) *Object {
	o := &Object{heap: h, class: class, refs: 1}
	if name != "" {
		o.name = []byte(name)
	}
	h.mu.Lock()
	h.objects[o] = struct{}{}
	h.mu.Unlock()
	return o
}

// Retain increments o's reference count and returns o.
func (h *Heap) Retain(o *Object) *Object {
	if o == nil {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mustBeLive(o, "retain")
	o.refs++
	h.stats.Retains++
	return o
}

// Release decrements o's reference count, destroying it at zero. Releasing
// nil is a no-op.
func (h *Heap) Release(o *Object) {
	if o == nil {
		return
	}
	for _, held := range h.releaseOne(o) {
		h.Release(held)
	}
}

func (h *Heap) releaseOne(o *Object) []*Object {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mustBeLive(o, "release")
	h.stats.Releases++
	o.refs--
	if o.refs > 0 {
		return nil
	}
	return h.destroyLocked(o)
}

// destroyLocked removes o and returns the objects it held references to.
func (h *Heap) destroyLocked(o *Object) []*Object {
	delete(h.objects, o)
	h.stats.Destroyed++
	var held []*Object
	if l := o.token; l != nil && l.source != nil {
		l.enabled = false
		l.source.listeners = removeListener(l.source.listeners, l)
		held = append(held, l.source)
		l.source = nil
	}
	for _, l := range o.listeners {
		l.enabled = false
	}
	o.listeners = nil
	return held
}

func (h *Heap) mustBeLive(o *Object, op string) {
	if _, ok := h.objects[o]; !ok || o.heap != h {
		panic(fmt.Sprintf("memheap: %s of destroyed or foreign object %p", op, o))
	}
}

// InstanceCount returns the number of live objects.
func (h *Heap) InstanceCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.objects)
}

// DumpInstances logs the class and address of each live object, sorted by
// class. It does nothing unless the heap was built WithDebug.
func (h *Heap) DumpInstances() {
	if !h.debug {
		return
	}
	type entry struct {
		class string
		addr  unsafe.Pointer
		refs  int
	}
	h.mu.Lock()
	entries := make([]entry, 0, len(h.objects))
	for o := range h.objects {
		entries = append(entries, entry{class: o.class, addr: unsafe.Pointer(o), refs: o.refs})
	}
	h.mu.Unlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].class != entries[j].class {
			return entries[i].class < entries[j].class
		}
		return uintptr(entries[i].addr) < uintptr(entries[j].addr)
	})

	ctx := context.Background()
	h.logger.Info(ctx, "live instances", "count", len(entries))
	for _, e := range entries {
		h.logger.Info(ctx, "instance", "class", e.class, logging.Pointer("addr", e.addr), "refs", e.refs)
	}
}

// Stats returns a snapshot of the instrumentation counters.
func (h *Heap) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// NewResult copies data into a heap-owned buffer and returns it as an owned
// result. A nil data yields the null result, which needs no release. A
// non-nil empty data yields a non-null zero-length buffer that must still be
// released.
func (h *Heap) NewResult(data []byte) (unsafe.Pointer, uint64) {
	if data == nil {
		return nil, 0
	}
	// One spare byte keeps the address non-null for empty results.
	backing := make([]byte, len(data)+1)
	copy(backing, data)
	p := unsafe.Pointer(&backing[0])

	h.mu.Lock()
	h.buffers[p] = backing
	h.stats.BufferAllocs++
	h.mu.Unlock()
	return p, uint64(len(data))
}

// ReleaseBuf frees a buffer issued by NewResult. Releasing nil is a no-op.
func (h *Heap) ReleaseBuf(p unsafe.Pointer) {
	if p == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	backing, ok := h.buffers[p]
	if !ok {
		panic(fmt.Sprintf("memheap: release of unknown or already released buffer %p", p))
	}
	clear(backing)
	delete(h.buffers, p)
	h.stats.BufferReleases++
}

// LiveBuffers returns the number of unreleased result buffers.
func (h *Heap) LiveBuffers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.buffers)
}

// RemoveListener disables the listener behind token and releases the token.
// After it returns no new call of the listener's function starts. Like
// CBLListener_Remove it does not wait for a call already running on another
// goroutine; the bridge's token waits for those.
func (h *Heap) RemoveListener(token *Object) {
	if token == nil {
		return
	}
	h.disable(token)
	h.Release(token)
}

func (h *Heap) disable(token *Object) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mustBeLive(token, "listener removal")
	l := token.token
	if l == nil {
		panic(fmt.Sprintf("memheap: %p is not a listener token", token))
	}
	if !l.enabled {
		panic(fmt.Sprintf("memheap: listener token %p removed twice", token))
	}
	l.enabled = false
	if l.source != nil {
		l.source.listeners = removeListener(l.source.listeners, l)
	}
}
