package cbl

import (
	"os"
	"sync/atomic"

	"github.com/couchbase/cbl-go/pkg/cbl/logging"
)

// Config holds the process-wide settings of the bridge.
type Config struct {
	// Logger receives bridge diagnostics. When nil a text logger on stderr
	// at LogLevel is used.
	Logger logging.Logger

	// LogLevel is one of debug, info, warn, error. Ignored when Logger is set.
	LogLevel string

	// DisableFinalizers stops the finalizer that releases a Handle or
	// ListenerToken which becomes unreachable before Close. The zero value
	// keeps the finalizer.
	DisableFinalizers bool

	// DumpOnLeak makes Baseline.Check call DumpInstances when it finds a leak.
	DumpOnLeak bool
}

// DefaultConfig returns the settings in effect before Configure is called.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
	}
}

type settings struct {
	cfg    Config
	logger logging.Logger
}

var active atomic.Pointer[settings]

func init() {
	cfg := DefaultConfig()
	active.Store(&settings{
		cfg:    cfg,
		logger: logging.New(nil).With("component", "cbl"),
	})
}

func current() *settings { return active.Load() }

// Configure replaces the process-wide settings as a whole; fields left at
// their zero value take the zero value, not the previous setting. An empty
// LogLevel means info. Handles and tokens created earlier keep the finalizer
// choice they were created with.
func Configure(cfg Config) error {
	logger := cfg.Logger
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultConfig().LogLevel
	}
	if logger == nil {
		level, err := logging.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		logger = logging.NewWithLevel(os.Stderr, level)
	}
	active.Store(&settings{
		cfg:    cfg,
		logger: logger.With("component", "cbl"),
	})
	return nil
}

// CurrentConfig returns the settings in effect.
func CurrentConfig() Config {
	return current().cfg
}
