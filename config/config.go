// Package config centralizes the handful of knobs cmd/ccnetctl exposes:
// log level/format, a metrics listen address, and the Jaeger tracing
// service name. The metrics address is only recorded in Config;
// cmd/ccnetctl starts no metrics server. It is built on spf13/viper, bound to spf13/pflag flags the same
// way the teacher's binaries wire configuration, even though this module
// carries only one demo command rather than the teacher's full command
// tree.
package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/oasisprotocol/ccnet/common/logging"
)

// Config is the resolved set of runtime knobs for cmd/ccnetctl.
type Config struct {
	LogLevel  logging.Level
	LogFormat logging.Format

	MetricsAddr string
	TracingService string
}

// RegisterFlags adds this package's flags to fs, namespaced under "log.",
// "metrics.", and "tracing." the way the teacher's binaries namespace
// subsystem flags.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("log.level", "info", "logging level (debug, info, warn, error)")
	fs.String("log.format", "logfmt", "logging format (logfmt, json)")
	fs.String("metrics.addr", "", "metrics listen address (recorded only; no metrics server is started)")
	fs.String("tracing.service_name", "", "service name to report spans under (empty disables tracing)")
}

// Load resolves a Config from v, which must already have RegisterFlags's
// flag set bound via v.BindPFlags.
func Load(v *viper.Viper) (*Config, error) {
	lvl, err := logging.LogLevel(v.GetString("log.level"))
	if err != nil {
		return nil, err
	}
	format, err := logging.LogFormat(v.GetString("log.format"))
	if err != nil {
		return nil, err
	}
	return &Config{
		LogLevel:       lvl,
		LogFormat:      format,
		MetricsAddr:    v.GetString("metrics.addr"),
		TracingService: v.GetString("tracing.service_name"),
	}, nil
}
