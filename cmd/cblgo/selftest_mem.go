//go:build !cgo || !cblite

package main

import (
	"fmt"
	"strings"
	"sync/atomic"
	"unsafe"

	"github.com/couchbase/cbl-go/internal/memheap"
	"github.com/couchbase/cbl-go/pkg/cbl"
)

// runSelftest exercises the bridge's release-exactly-once rules against the
// in-memory heap.
func runSelftest() (*selftestReport, error) {
	rep := &selftestReport{}
	heap := memheap.Default
	base := cbl.Snapshot()

	// Handle lifecycle and clone.
	doc := cbl.Adopt(heap.NewObject("CBLDocument"))
	clone := doc.Clone()
	_ = doc.Close()
	rep.record("clone survives first close", clone.Valid() && base.Leaked() == 1,
		fmt.Sprintf("leaked=%d", base.Leaked()))
	_ = clone.Close()
	rep.record("second close destroys", base.Leaked() == 0, fmt.Sprintf("leaked=%d", base.Leaked()))

	// Owned result consumed once.
	releases := heap.Stats().BufferReleases
	res := cbl.UnsafeTakeResult(heap.NewResult([]byte("explain")))
	text, ok := res.IntoString()
	rep.record("result consumed and released once",
		ok && text == "explain" && heap.Stats().BufferReleases == releases+1, "")

	// Listener goes inert on close.
	query := cbl.Adopt(heap.NewObject("CBLQuery"))
	var calls atomic.Int32
	token, err := cbl.Listen(func(ctx uintptr) unsafe.Pointer {
		return unsafe.Pointer(query.Ptr().AddListener(func(c uintptr) {
			cbl.Dispatch(c, func(cb func()) { cb() })
		}, ctx))
	}, func() { calls.Add(1) })
	if err != nil {
		_ = query.Close()
		return rep, err
	}
	query.Ptr().Fire()
	_ = token.Close()
	query.Ptr().Fire()
	rep.record("closed token is inert", calls.Load() == 1, fmt.Sprintf("calls=%d", calls.Load()))
	_ = query.Close()

	if err := base.Check(); err != nil {
		rep.record("no leaks", false, err.Error())
	} else {
		rep.record("no leaks", true, "")
	}

	if failed := rep.failed(); len(failed) > 0 {
		return rep, fmt.Errorf("selftest: failed checks: %s", strings.Join(failed, ", "))
	}
	return rep, nil
}
