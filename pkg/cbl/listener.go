package cbl

import (
	"context"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/couchbase/cbl-go/internal/bindings"
	"github.com/couchbase/cbl-go/pkg/cbl/logging"
)

// RegisterFunc performs a native listener registration, such as
// CBLQuery_AddChangeListener, passing ctx as the callback context. It
// returns the native listener token, or nil when registration failed.
type RegisterFunc func(ctx uintptr) unsafe.Pointer

// ListenerToken owns one listener registration. Closing it is the only way
// to deregister: after Close returns the callback is never invoked again.
// Close may be called from any goroutine, and only the first call has an
// effect.
//
// Close waits for deliveries already running on other goroutines. A callback
// may close its own token; that Close stops further deliveries but returns
// without waiting for any delivery.
type ListenerToken struct {
	removed atomic.Bool
	ctx     uintptr
	token   unsafe.Pointer
	gate    *deliveryGate
}

// deliveryGate tracks the deliveries in progress for one registration.
// active maps goroutine id to nesting depth.
type deliveryGate struct {
	callback any

	mu     sync.Mutex
	idle   *sync.Cond
	closed bool
	active map[int64]int
}

func newDeliveryGate(callback any) *deliveryGate {
	g := &deliveryGate{callback: callback, active: make(map[int64]int)}
	g.idle = sync.NewCond(&g.mu)
	return g
}

// enter admits a delivery on goroutine gid unless the gate is closed.
func (g *deliveryGate) enter(gid int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	g.active[gid]++
	return true
}

func (g *deliveryGate) leave(gid int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.active[gid]--; g.active[gid] == 0 {
		delete(g.active, gid)
	}
	g.idle.Broadcast()
}

// close refuses new deliveries and waits for running ones to finish. It does
// not wait when goroutine gid is itself inside a delivery.
func (g *deliveryGate) close(gid int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	if g.active[gid] > 0 {
		return
	}
	for len(g.active) > 0 {
		g.idle.Wait()
	}
}

// goroutineID returns the current goroutine's id as printed in stack traces.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	field := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))[0]
	id, _ := strconv.ParseInt(field, 10, 64)
	return id
}

// Listen registers callback through register. The callback is made
// reachable to native trampolines (see Dispatch) before register runs, since
// the native side may deliver the first event before Listen returns.
func Listen[F any](register RegisterFunc, callback F) (*ListenerToken, error) {
	if register == nil {
		return nil, ErrNilRegister
	}
	gate := newDeliveryGate(callback)
	ctx := bindings.Put(gate)
	raw := register(ctx)
	if raw == nil {
		bindings.Del(ctx)
		return nil, ErrListenerRejected
	}

	t := &ListenerToken{ctx: ctx, token: raw, gate: gate}
	if !current().cfg.DisableFinalizers {
		runtime.SetFinalizer(t, finalizeToken)
	}
	return t, nil
}

func finalizeToken(t *ListenerToken) {
	t.gate.close(goroutineID())
	if t.removed.Swap(true) {
		return
	}
	current().logger.Warn(context.Background(), "listener removed by finalizer; missing Close",
		logging.Pointer("token", t.token))
	t.remove()
}

// remove runs once, after the gate is shut, so an event racing with it finds
// nothing to call.
func (t *ListenerToken) remove() {
	bindings.Del(t.ctx)
	bindings.RemoveListener(t.token)
	t.token = nil
}

// Close deregisters the listener. Outside a callback, every caller returns
// only once no delivery can reach the callback. The first caller also
// removes the native listener.
func (t *ListenerToken) Close() error {
	if t == nil {
		return nil
	}
	t.gate.close(goroutineID())
	if t.removed.Swap(true) {
		return nil
	}
	runtime.SetFinalizer(t, nil)
	t.remove()
	return nil
}

// Dispatch looks up the callback registered under ctx and passes it to
// invoke. Native callback trampolines call it with the context they were
// given. It returns false, without calling invoke, once the token has been
// closed or when the callback is not an F.
//
// Dispatch may run on any goroutine or native thread. A Close racing with it
// returns only after invoke has returned.
func Dispatch[F any](ctx uintptr, invoke func(F)) bool {
	v, ok := bindings.Get(ctx)
	if !ok {
		return false
	}
	gate, ok := v.(*deliveryGate)
	if !ok {
		return false
	}
	cb, ok := gate.callback.(F)
	if !ok {
		return false
	}
	gid := goroutineID()
	if !gate.enter(gid) {
		return false
	}
	defer gate.leave(gid)
	invoke(cb)
	return true
}
