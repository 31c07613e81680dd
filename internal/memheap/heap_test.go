package memheap

import (
	"bytes"
	"log/slog"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchbase/cbl-go/pkg/cbl/logging"
)

func TestObjectLifecycle(t *testing.T) {
	h := New()
	o := h.NewObject("CBLDocument")
	require.Equal(t, 1, h.InstanceCount())
	require.Equal(t, 1, o.RefCount())

	h.Retain(o)
	assert.Equal(t, 2, o.RefCount())
	h.Release(o)
	assert.Equal(t, 1, o.RefCount())
	assert.Equal(t, 1, h.InstanceCount())

	h.Release(o)
	assert.Equal(t, 0, o.RefCount())
	assert.Equal(t, 0, h.InstanceCount())

	st := h.Stats()
	assert.Equal(t, uint64(1), st.Retains)
	assert.Equal(t, uint64(2), st.Releases)
	assert.Equal(t, uint64(1), st.Destroyed)
}

func TestReleaseOfDestroyedObjectPanics(t *testing.T) {
	h := New()
	o := h.NewObject("CBLDocument")
	h.Release(o)
	assert.Panics(t, func() { h.Release(o) })
	assert.Panics(t, func() { h.Retain(o) })
}

func TestForeignObjectPanics(t *testing.T) {
	a, b := New(), New()
	o := a.NewObject("CBLDocument")
	assert.Panics(t, func() { b.Release(o) })
	a.Release(o)
}

func TestNilIsNoOp(t *testing.T) {
	h := New()
	assert.Nil(t, h.Retain(nil))
	assert.NotPanics(t, func() {
		h.Release(nil)
		h.ReleaseBuf(nil)
		h.RemoveListener(nil)
	})
}

func TestResultBuffers(t *testing.T) {
	h := New()

	p, n := h.NewResult([]byte("explain"))
	require.NotNil(t, p)
	require.Equal(t, uint64(7), n)
	assert.Equal(t, "explain", string(unsafe.Slice((*byte)(p), n)))
	assert.Equal(t, 1, h.LiveBuffers())

	h.ReleaseBuf(p)
	assert.Equal(t, 0, h.LiveBuffers())
	assert.Panics(t, func() { h.ReleaseBuf(p) })

	empty, n := h.NewResult([]byte{})
	assert.NotNil(t, empty)
	assert.Zero(t, n)
	h.ReleaseBuf(empty)

	null, n := h.NewResult(nil)
	assert.Nil(t, null)
	assert.Zero(t, n)

	st := h.Stats()
	assert.Equal(t, uint64(2), st.BufferAllocs)
	assert.Equal(t, uint64(2), st.BufferReleases)
}

func TestNamedObjectView(t *testing.T) {
	h := New()
	o := h.NewNamedObject("CBLQuery", "name")
	defer h.Release(o)

	p, n := o.Name()
	require.NotNil(t, p)
	assert.Equal(t, "name", string(unsafe.Slice((*byte)(p), n)))

	anon := h.NewObject("CBLQuery")
	defer h.Release(anon)
	p, n = anon.Name()
	assert.Nil(t, p)
	assert.Zero(t, n)
}

func TestListenerTokenLifecycle(t *testing.T) {
	h := New()
	src := h.NewObject("CBLQuery")

	var calls []uintptr
	token := src.AddListener(func(ctx uintptr) { calls = append(calls, ctx) }, 42)
	assert.Equal(t, 2, h.InstanceCount(), "token is a counted instance")
	assert.Equal(t, 2, src.RefCount(), "token retains its source")

	assert.Equal(t, 1, src.Fire())
	assert.Equal(t, []uintptr{42}, calls)

	h.RemoveListener(token)
	assert.Equal(t, 0, src.Fire())
	assert.Len(t, calls, 1)
	assert.Equal(t, 1, h.InstanceCount())
	assert.Equal(t, 1, src.RefCount())

	assert.Panics(t, func() { h.RemoveListener(token) })

	h.Release(src)
	assert.Equal(t, 0, h.InstanceCount())
}

func TestReleasingTokenWithoutRemovalDisablesListener(t *testing.T) {
	h := New()
	src := h.NewObject("CBLReplicator")
	token := src.AddListener(func(uintptr) { t.Fatal("listener called after token destroyed") }, 1)

	h.Release(token)
	assert.Equal(t, 0, src.Fire())
	assert.Equal(t, 1, src.RefCount())
	h.Release(src)
}

func TestRemoveListenerOnNonToken(t *testing.T) {
	h := New()
	o := h.NewObject("CBLDocument")
	defer h.Release(o)
	assert.Panics(t, func() { h.RemoveListener(o) })
}

func TestDumpInstances(t *testing.T) {
	var buf bytes.Buffer
	h := New(WithDebug(true), WithLogger(logging.NewWithLevel(&buf, slog.LevelInfo)))
	a := h.NewObject("CBLDocument")
	b := h.NewObject("CBLBlob")

	h.DumpInstances()
	out := buf.String()
	assert.Contains(t, out, "count=2")
	assert.Contains(t, out, "class=CBLBlob")
	assert.Contains(t, out, "class=CBLDocument")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("CBLBlob")), bytes.Index(buf.Bytes(), []byte("CBLDocument")))

	h.Release(a)
	h.Release(b)
}

func TestDumpInstancesWithoutDebugIsSilent(t *testing.T) {
	var buf bytes.Buffer
	h := New(WithLogger(logging.NewWithLevel(&buf, slog.LevelDebug)))
	o := h.NewObject("CBLDocument")
	defer h.Release(o)

	h.DumpInstances()
	assert.Empty(t, buf.String())
}
