// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/calckit/internal/calculator"
)

// FindJob finds a job result by name in the results slice.
// Returns a pointer to the result if found, nil otherwise.
func FindJob(results []calculator.JobResult, name string) *calculator.JobResult {
	for i := range results {
		if results[i].Name == name {
			return &results[i]
		}
	}
	return nil
}
