// Command cblgo reports on the native bridge compiled into this binary:
// versions, backend and live instance count. It can dump live instances,
// run the ownership self-test and write a JSON report.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/natefinch/atomic"
	flag "github.com/spf13/pflag"

	"github.com/couchbase/cbl-go/internal/bindings"
	"github.com/couchbase/cbl-go/pkg/cbl"
	"github.com/couchbase/cbl-go/pkg/cbl/configloader"
	"github.com/couchbase/cbl-go/pkg/cbl/logging"
)

type report struct {
	WrapperVersion string          `json:"wrapper_version"`
	NativeVersion  string          `json:"native_version"`
	Backend        string          `json:"backend"`
	InstanceCount  int             `json:"instance_count"`
	Selftest       *selftestReport `json:"selftest,omitempty"`
}

type options struct {
	configPath string
	envPrefix  string
	dump       bool
	selftest   bool
	reportPath string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opts options
	fs := flag.NewFlagSet("cblgo", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", "", "config file (yaml, json or toml)")
	fs.StringVar(&opts.envPrefix, "env-prefix", configloader.DefaultEnvPrefix, "prefix of configuration environment variables")
	fs.BoolVar(&opts.dump, "dump", false, "log every live native object (debug builds only)")
	fs.BoolVar(&opts.selftest, "selftest", false, "run the ownership self-test")
	fs.StringVar(&opts.reportPath, "report", "", "write a JSON report to this path")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cblgo: %v\n", err)
		return 1
	}
	if err := cbl.Configure(*cfg); err != nil {
		fmt.Fprintf(os.Stderr, "cblgo: %v\n", err)
		return 1
	}
	level, _ := logging.ParseLevel(cfg.LogLevel)
	logger := logging.NewWithLevel(os.Stderr, level).With("cmd", "cblgo")
	ctx := context.Background()

	rep := report{
		WrapperVersion: cbl.WrapperVersion(),
		NativeVersion:  cbl.NativeVersion(),
		Backend:        cbl.Backend(),
	}
	logger.Info(ctx, "bridge", "version", rep.WrapperVersion, "native", rep.NativeVersion, "backend", rep.Backend)

	status := 0
	if opts.selftest {
		st, err := runSelftest()
		switch {
		case errors.Is(err, bindings.ErrNotBuilt):
			logger.Warn(ctx, "selftest unavailable", "backend", rep.Backend, "err", err)
		case err != nil:
			logger.Error(ctx, "selftest failed", "err", err)
			status = 1
		default:
			logger.Info(ctx, "selftest passed", "checks", len(st.Checks))
		}
		rep.Selftest = st
	}

	if opts.dump {
		cbl.DumpInstances()
	}

	rep.InstanceCount = cbl.InstanceCount()
	fmt.Printf("instances: %d\n", rep.InstanceCount)

	if opts.reportPath != "" {
		if err := writeReport(opts.reportPath, rep); err != nil {
			logger.Error(ctx, "write report", "path", opts.reportPath, "err", err)
			return 1
		}
	}
	return status
}

func loadConfig(opts options) (*cbl.Config, error) {
	if opts.configPath != "" {
		return configloader.FromFile(opts.configPath)
	}
	return configloader.FromEnv(opts.envPrefix)
}

func writeReport(path string, rep report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return atomic.WriteFile(path, bytes.NewReader(data))
}
