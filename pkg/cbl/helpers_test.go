//go:build !cgo || !cblite

package cbl

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/couchbase/cbl-go/internal/memheap"
	"github.com/couchbase/cbl-go/pkg/cbl/logging"
)

// syncBuffer is written from finalizer goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// configureForTest installs cfg with a logger capturing warnings and restores
// the defaults when the test ends.
func configureForTest(t *testing.T, cfg Config) *syncBuffer {
	t.Helper()
	out := &syncBuffer{}
	cfg.Logger = logging.NewWithLevel(out, slog.LevelWarn)
	require.NoError(t, Configure(cfg))
	t.Cleanup(func() {
		require.NoError(t, Configure(DefaultConfig()))
	})
	return out
}

func newDocument() *memheap.Object {
	return memheap.Default.NewObject("CBLDocument")
}

// requireNoLeak fails the test if it left native objects alive.
func requireNoLeak(t *testing.T) {
	t.Helper()
	base := Snapshot()
	t.Cleanup(func() {
		require.NoError(t, base.Check())
	})
}
