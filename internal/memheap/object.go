package memheap

import "unsafe"

// Class returns the object's class name.
func (o *Object) Class() string { return o.class }

// RefCount returns the current reference count. Zero means destroyed.
func (o *Object) RefCount() int {
	o.heap.mu.Lock()
	defer o.heap.mu.Unlock()
	if _, ok := o.heap.objects[o]; !ok {
		return 0
	}
	return o.refs
}

// Name returns a borrowed view of the object's name, the way accessors such
// as CBLQuery_ColumnName return an FLSlice into memory the object owns. The
// view is null when the object has no name.
func (o *Object) Name() (unsafe.Pointer, uint64) {
	if len(o.name) == 0 {
		return nil, 0
	}
	return unsafe.Pointer(&o.name[0]), uint64(len(o.name))
}

// AddListener registers fn against o and returns the listener token, a new
// object owned by the caller. The token retains o until it is removed with
// Heap.RemoveListener or released.
func (o *Object) AddListener(fn ListenerFunc, ctx uintptr) *Object {
	h := o.heap
	token := &Object{heap: h, class: "CBLListenerToken", refs: 1}
	l := &listener{source: o, fn: fn, ctx: ctx, enabled: true}
	token.token = l

	h.mu.Lock()
	defer h.mu.Unlock()
	h.mustBeLive(o, "listener registration")
	o.refs++
	h.stats.Retains++
	o.listeners = append(o.listeners, l)
	h.objects[token] = struct{}{}
	return token
}

// Fire invokes every enabled listener of o on the calling goroutine and
// returns how many were called. A listener removed while Fire runs is
// skipped if its turn has not come yet.
func (o *Object) Fire() int {
	h := o.heap
	h.mu.Lock()
	pending := make([]*listener, 0, len(o.listeners))
	for _, l := range o.listeners {
		if l.enabled {
			pending = append(pending, l)
		}
	}
	h.mu.Unlock()

	called := 0
	for _, l := range pending {
		h.mu.Lock()
		live := l.enabled
		h.mu.Unlock()
		if !live {
			continue
		}
		l.fn(l.ctx)
		called++
	}
	return called
}

func removeListener(list []*listener, l *listener) []*listener {
	for i, other := range list {
		if other == l {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
