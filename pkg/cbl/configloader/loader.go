// Package configloader builds cbl.Config values from environment variables,
// YAML documents or config files using Viper.
package configloader

import (
	"bytes"
	"strings"

	"github.com/hyp3rd/ewrap"
	"github.com/spf13/viper"

	"github.com/couchbase/cbl-go/pkg/cbl"
	"github.com/couchbase/cbl-go/pkg/cbl/logging"
)

// DefaultEnvPrefix is used by FromEnv when prefix is empty.
const DefaultEnvPrefix = "CBLGO"

const (
	keyLogLevel   = "log_level"
	keyFinalizers = "finalizers"
	keyDumpOnLeak = "dump_on_leak"
)

type rawConfig struct {
	LogLevel   string `mapstructure:"log_level"`
	Finalizers bool   `mapstructure:"finalizers"`
	DumpOnLeak bool   `mapstructure:"dump_on_leak"`
}

func allKeys() []string {
	return []string{keyLogLevel, keyFinalizers, keyDumpOnLeak}
}

// FromEnv loads configuration from environment variables named
// <PREFIX>_LOG_LEVEL, <PREFIX>_FINALIZERS and <PREFIX>_DUMP_ON_LEAK.
// Unset variables keep their cbl.DefaultConfig values.
func FromEnv(prefix string) (*cbl.Config, error) {
	return load(func(v *viper.Viper) error {
		return bindEnvironment(v, normalizePrefix(prefix))
	})
}

// FromYAML loads configuration from a YAML document.
func FromYAML(data []byte) (*cbl.Config, error) {
	return load(func(v *viper.Viper) error {
		v.SetConfigType("yaml")
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return ewrap.Wrapf(err, "failed to read config from YAML")
		}
		return nil
	})
}

// FromFile loads configuration from a file; the format follows its extension.
func FromFile(path string) (*cbl.Config, error) {
	return load(func(v *viper.Viper) error {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return ewrap.Wrapf(err, "failed to read config file %s", path)
		}
		return nil
	})
}

// load seeds a fresh Viper with the defaults, lets source fill it, and
// decodes the result. Every loader starts from cbl.DefaultConfig so that an
// unset key never reads as false.
func load(source func(*viper.Viper) error) (*cbl.Config, error) {
	v := viper.New()
	defaults := cbl.DefaultConfig()
	v.SetDefault(keyLogLevel, defaults.LogLevel)
	v.SetDefault(keyFinalizers, !defaults.DisableFinalizers)
	v.SetDefault(keyDumpOnLeak, defaults.DumpOnLeak)

	if err := source(v); err != nil {
		return nil, err
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return nil, ewrap.Wrapf(err, "failed to unmarshal config")
	}
	return applyRaw(raw)
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), "_")
	if prefix == "" {
		return DefaultEnvPrefix
	}
	return strings.ToUpper(prefix)
}

// bindEnvironment binds the known keys explicitly, since Unmarshal only sees
// keys Viper already knows about; AutomaticEnv covers lookups by name.
func bindEnvironment(v *viper.Viper, prefix string) error {
	v.SetEnvPrefix(prefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	errs := ewrap.NewErrorGroup()
	for _, key := range allKeys() {
		if err := v.BindEnv(key); err != nil {
			errs.Add(ewrap.Wrapf(err, "binding %s", key))
		}
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// applyRaw validates the decoded values. The file and env key stays the
// positive "finalizers" so that configs read naturally.
func applyRaw(raw rawConfig) (*cbl.Config, error) {
	if _, err := logging.ParseLevel(raw.LogLevel); err != nil {
		return nil, ewrap.Wrap(err, "invalid log level")
	}

	return &cbl.Config{
		LogLevel:          strings.ToLower(strings.TrimSpace(raw.LogLevel)),
		DisableFinalizers: !raw.Finalizers,
		DumpOnLeak:        raw.DumpOnLeak,
	}, nil
}
