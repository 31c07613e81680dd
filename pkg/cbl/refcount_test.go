//go:build !cgo || !cblite

package cbl

import (
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchbase/cbl-go/internal/memheap"
)

func TestRetainReleaseIsNetZero(t *testing.T) {
	doc := newDocument()
	before := InstanceCount()

	assert.Same(t, doc, Retain(doc))
	assert.Equal(t, 2, doc.RefCount())
	Release(doc)
	assert.Equal(t, before, InstanceCount())
	assert.Equal(t, 1, doc.RefCount())

	Release(doc)
	assert.Equal(t, before-1, InstanceCount())
}

func TestHandleCreateAndClose(t *testing.T) {
	base := InstanceCount()

	h := Adopt(newDocument())
	assert.Equal(t, base+1, InstanceCount())
	require.True(t, h.Valid())

	require.NoError(t, h.Close())
	assert.Equal(t, base, InstanceCount())
	assert.False(t, h.Valid())
	assert.Nil(t, h.Ptr())
}

func TestHandleCloseIsIdempotent(t *testing.T) {
	requireNoLeak(t)
	h := Adopt(newDocument())
	releases := memheap.Default.Stats().Releases

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())
	assert.Equal(t, releases+1, memheap.Default.Stats().Releases)

	var nilHandle *Handle[memheap.Object]
	assert.NoError(t, nilHandle.Close())
	assert.Nil(t, nilHandle.Ptr())
	assert.Nil(t, nilHandle.Clone())
}

func TestCloneNeedsBothCloses(t *testing.T) {
	base := InstanceCount()

	a := Adopt(newDocument())
	b := a.Clone()
	require.NotNil(t, b)
	assert.Same(t, a.Ptr(), b.Ptr())
	assert.Equal(t, 2, a.Ptr().RefCount())
	assert.Equal(t, base+1, InstanceCount())

	require.NoError(t, a.Close())
	assert.Equal(t, base+1, InstanceCount(), "first close must not destroy a shared object")
	assert.True(t, b.Valid())

	require.NoError(t, b.Close())
	assert.Equal(t, base, InstanceCount())
}

func TestCloneOfClosedHandle(t *testing.T) {
	h := Adopt(newDocument())
	require.NoError(t, h.Close())
	assert.Nil(t, h.Clone())
}

func TestRetainedOwnsItsOwnReference(t *testing.T) {
	requireNoLeak(t)
	doc := newDocument()

	h := Retained(doc)
	assert.Equal(t, 2, doc.RefCount())

	Release(doc)
	assert.Equal(t, 1, doc.RefCount())
	assert.True(t, h.Valid())
	require.NoError(t, h.Close())
}

func TestWrappingNilPanics(t *testing.T) {
	assert.Panics(t, func() { Adopt[memheap.Object](nil) })
	assert.Panics(t, func() { Retained[memheap.Object](nil) })
}

func TestCheck(t *testing.T) {
	requireNoLeak(t)

	h, err := Check(newDocument(), nil)
	require.NoError(t, err)
	require.NoError(t, h.Close())

	_, err = Check[memheap.Object](nil, nil)
	require.ErrorIs(t, err, ErrNilHandle)

	cause := errors.New("CBLError 404: not found")
	_, err = Check[memheap.Object](nil, cause)
	require.ErrorIs(t, err, ErrNilHandle)
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "not found")
}

func TestCheckKeepsObjectReturnedWithError(t *testing.T) {
	requireNoLeak(t)
	out := configureForTest(t, Config{})

	stale := errors.New("CBLError 1: stale error slot")
	h, err := Check(newDocument(), stale)
	require.NoError(t, err)
	require.True(t, h.Valid())
	assert.Contains(t, out.String(), "error ignored")
	assert.Contains(t, out.String(), "stale error slot")
	require.NoError(t, h.Close())
}

func TestDetachTransfersOwnership(t *testing.T) {
	requireNoLeak(t)
	h := Adopt(newDocument())

	p := h.Detach()
	require.NotNil(t, p)
	assert.False(t, h.Valid())
	require.NoError(t, h.Close())
	assert.Equal(t, 1, p.RefCount(), "closing a detached handle must not release")

	Release(p)
	assert.Nil(t, h.Detach())
}

func TestConcurrentCloneAndClose(t *testing.T) {
	requireNoLeak(t)
	root := Adopt(newDocument())

	const workers = 32
	clones := make([]*Handle[memheap.Object], workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clones[i] = root.Clone()
		}()
	}
	wg.Wait()
	require.NoError(t, root.Close())

	for _, c := range clones {
		wg.Add(2)
		go func() { defer wg.Done(); _ = c.Close() }()
		go func() { defer wg.Done(); _ = c.Close() }()
	}
	wg.Wait()
}

func TestFinalizerReleasesUnclosedHandle(t *testing.T) {
	out := configureForTest(t, Config{})
	base := Snapshot()

	func() {
		_ = Adopt(newDocument())
	}()
	require.Equal(t, 1, base.Leaked())

	require.Eventually(t, func() bool {
		runtime.GC()
		return base.Leaked() == 0
	}, 5*time.Second, 10*time.Millisecond)
	assert.Contains(t, out.String(), "missing Close")
}

func TestFinalizersDisabled(t *testing.T) {
	configureForTest(t, Config{DisableFinalizers: true})
	doc := newDocument()

	func() {
		_ = Retained(doc)
	}()
	for range 3 {
		runtime.GC()
	}
	assert.Equal(t, 2, doc.RefCount(), "without finalizers a forgotten handle leaks")

	Release(doc)
	Release(doc)
}
