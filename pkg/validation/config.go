// Package validation provides configuration validation utilities.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/calckit/pkg/constants"
)

// JobConfig is the subset of a batch job that validation looks at.
type JobConfig struct {
	Name   string
	Kind   string
	Active bool
}

// ConfigValidator collects warnings about a configuration without failing it.
type ConfigValidator struct {
	Jobs         []JobConfig
	CacheBackend string
	RedisAddress string
	SQLitePath   string
}

// ValidateAll validates the entire configuration and returns warnings
func (cv *ConfigValidator) ValidateAll() []string {
	var warnings []string
	warnings = append(warnings, ValidateJobs(cv.Jobs)...)
	if warn := ValidateCache(cv.CacheBackend, cv.RedisAddress, cv.SQLitePath); warn != "" {
		warnings = append(warnings, warn)
	}
	return warnings
}

// ValidateJobs checks job names and kinds. Unknown kinds are reported here and
// skipped at run time.
func ValidateJobs(jobs []JobConfig) []string {
	var warnings []string

	seen := make(map[string]bool, len(jobs))
	active := 0
	for i, job := range jobs {
		name := job.Name
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("#%d", i+1)
			warnings = append(warnings, fmt.Sprintf("Job %s has no name", name))
		} else if seen[name] {
			warnings = append(warnings, fmt.Sprintf("Job '%s' is defined more than once", name))
		}
		seen[name] = true

		if !IsKnownKind(job.Kind) {
			warnings = append(warnings, fmt.Sprintf("Job '%s' has unknown kind '%s' (expected one of %s)",
				name, job.Kind, strings.Join(constants.Kinds, ", ")))
		}
		if job.Active {
			active++
		}
	}

	if len(jobs) > 0 && active == 0 {
		warnings = append(warnings, "No active jobs - nothing will be calculated")
	}

	return warnings
}

// ValidateCache checks that the selected cache backend has what it needs.
func ValidateCache(backend, redisAddress, sqlitePath string) string {
	switch backend {
	case "", constants.CacheBackendNone, constants.CacheBackendMemory:
		return ""
	case constants.CacheBackendRedis:
		if redisAddress == "" {
			return "Cache backend 'redis' selected without cache.redisAddress - caching disabled"
		}
	case constants.CacheBackendSQLite:
		if sqlitePath == "" {
			return "Cache backend 'sqlite' selected without cache.sqlitePath - caching disabled"
		}
	default:
		return fmt.Sprintf("Unknown cache backend '%s' - caching disabled", backend)
	}
	return ""
}

// IsKnownKind reports whether kind names a calculator.
func IsKnownKind(kind string) bool {
	for _, k := range constants.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}
