// Package config loads the settings of the selinv driver from flags,
// SELINV_* environment variables and an optional selinv.yaml.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "selinv"
	configFilename = "selinv"
)

var ErrInvalid = errors.New("config: invalid configuration")

type Config struct {
	Dir         string `mapstructure:"dir"`
	Prefix      string `mapstructure:"prefix"`
	Repetitions int    `mapstructure:"repetitions"`
	Choices     int    `mapstructure:"choices"`

	Rank        int    `mapstructure:"rank"`
	WorldSize   int    `mapstructure:"world-size"`
	Coordinator string `mapstructure:"coordinator"`
	Local       int    `mapstructure:"local"`
	Compress    bool   `mapstructure:"compress"`
	Session     string `mapstructure:"session"`

	Threads  int  `mapstructure:"threads"`
	Residual bool `mapstructure:"residual"`

	LogLevel    string `mapstructure:"log-level"`
	LogFormat   string `mapstructure:"log-format"`
	MetricsAddr string `mapstructure:"metrics-addr"`
	CPUProfile  string `mapstructure:"cpuprofile"`
	MemProfile  string `mapstructure:"memprofile"`
}

// Flags defines the command line flags of every Config field.
func Flags(fs *pflag.FlagSet) {
	fs.String("dir", "sprandsym", "directory holding the input matrices and receiving the results")
	fs.String("prefix", "sprandsym", "file name prefix of the matrices")
	fs.Int("repetitions", 5, "number of repetitions of the evaluation loop")
	fs.Int("choices", 1, "number of matrices per repetition")

	fs.Int("rank", 0, "rank of this process; 0 is the coordinator")
	fs.Int("world-size", 0, "number of processes in the group, coordinator included")
	fs.String("coordinator", "127.0.0.1:7077", "address the coordinator listens on and workers dial")
	fs.Int("local", 0, "run this many workers in process instead of joining a networked group")
	fs.Bool("compress", false, "zstd-compress large collective payloads")
	fs.String("session", "", "group name shared by the coordinator and its workers; empty accepts any")

	fs.Int("threads", 0, "goroutines per worker; 0 uses all available cores")
	fs.Bool("residual", false, "log the residual of every result")

	fs.String("log-level", "info", "log level")
	fs.String("log-format", "console", "log format, json or console")
	fs.String("metrics-addr", "", "serve Prometheus metrics on this address")
	fs.String("cpuprofile", "", "write cpu profile to this file")
	fs.String("memprofile", "", "write memory profile to this file")
}

// Load reads the configuration of cmd into cfg.
func Load(cmd *cobra.Command, cfg *Config) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName(configFilename)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.PersistentFlags()); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return v, nil
}

// GroupSize is the number of processes taking part in a round.
func (c *Config) GroupSize() int {
	if c.Local > 0 {
		return c.Local + 1
	}
	return c.WorldSize
}

func (c *Config) Validate() error {
	if c.GroupSize() < 2 {
		return fmt.Errorf("%w: need a coordinator and at least one worker, got a group of %v", ErrInvalid, c.GroupSize())
	}
	if c.Local == 0 && (c.Rank < 0 || c.Rank >= c.WorldSize) {
		return fmt.Errorf("%w: rank %v outside a group of %v", ErrInvalid, c.Rank, c.WorldSize)
	}
	if c.Repetitions < 0 || c.Choices < 0 {
		return fmt.Errorf("%w: negative repetitions or choices", ErrInvalid)
	}
	if c.Threads < 0 {
		return fmt.Errorf("%w: negative thread count", ErrInvalid)
	}
	return nil
}

// ThreadCount is the configured number of goroutines per worker, or the
// number of available cores.
func (c *Config) ThreadCount() int {
	if c.Threads > 0 {
		return c.Threads
	}
	return AvailableThreads()
}

// AvailableThreads is the number of logical cores, capped by GOMAXPROCS.
func AvailableThreads() int {
	n := runtime.GOMAXPROCS(0)
	if cores, err := cpu.Counts(true); err == nil && cores > 0 {
		n = min(n, cores)
	}
	return n
}
