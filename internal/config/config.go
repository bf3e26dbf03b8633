// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/calckit/pkg/constants"
	"github.com/iwvelando/calckit/pkg/input"
	"github.com/iwvelando/calckit/pkg/tables"
	"github.com/iwvelando/calckit/pkg/validation"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. CALCKIT_OUTPUT_FORMAT.
const EnvPrefix = "CALCKIT"

// Configuration holds all configuration for calckit.
type Configuration struct {
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
	Cache   CacheConfig   `yaml:"cache,omitempty"`
	// Tables overrides entries of the built-in lookup tables.
	Tables tables.Tables `yaml:"tables,omitempty"`
	Jobs   []Job         `yaml:"jobs,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// CacheConfig selects where calculation results are memoized.
type CacheConfig struct {
	Backend      string        `yaml:"backend,omitempty"` // none, memory, redis, sqlite
	RedisAddress string        `yaml:"redisAddress,omitempty"`
	RedisDB      int           `yaml:"redisDB,omitempty"`
	SQLitePath   string        `yaml:"sqlitePath,omitempty"`
	TTL          time.Duration `yaml:"ttl,omitempty"`
	// PruneInterval is how often a long-running process deletes expired
	// memory and sqlite entries.
	PruneInterval time.Duration `yaml:"pruneInterval,omitempty"`
}

// Job is one batch calculation. Params holds the calculator request fields
// and is decoded by the calculator named by Kind.
type Job struct {
	Name   string
	Kind   string
	Active bool
	Params map[string]interface{}
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config, %s", err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("cache.backend", constants.CacheBackendNone)
	v.SetDefault("cache.ttl", constants.DefaultCacheTTL)
	v.SetDefault("cache.pruneInterval", constants.DefaultCachePruneInterval)
	return v
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	err := v.Unmarshal(&configuration, viper.DecodeHook(DecodeHook()))
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	return &configuration, nil
}

// DecodeHook is the mapstructure hook used for configuration and job params:
// permissive numbers, then duration strings such as "30m".
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		input.DecodeHook,
		mapstructure.StringToTimeDurationHookFunc(),
	)
}

// DecodeParams decodes a job's params into a calculator request struct.
// Unknown params are ignored.
func DecodeParams(params map[string]interface{}, out interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       DecodeHook(),
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(params); err != nil {
		return fmt.Errorf("unable to decode job params, %w", err)
	}
	return nil
}

// ActiveJobs returns the jobs marked active, in file order.
func (c *Configuration) ActiveJobs() []Job {
	var jobs []Job
	for _, job := range c.Jobs {
		if job.Active {
			jobs = append(jobs, job)
		}
	}
	return jobs
}

// ResolvedTables returns the built-in tables with the configured overrides
// applied.
func (c *Configuration) ResolvedTables() tables.Tables {
	return tables.Default().Merge(c.Tables)
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	jobs := make([]validation.JobConfig, 0, len(c.Jobs))
	for _, job := range c.Jobs {
		jobs = append(jobs, validation.JobConfig{
			Name:   job.Name,
			Kind:   job.Kind,
			Active: job.Active,
		})
	}

	validator := validation.ConfigValidator{
		Jobs:         jobs,
		CacheBackend: c.Cache.Backend,
		RedisAddress: c.Cache.RedisAddress,
		SQLitePath:   c.Cache.SQLitePath,
	}
	return validator.ValidateAll()
}
