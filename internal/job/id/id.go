// Package id provides unique identifier generation for jobs.
package id

import "github.com/google/uuid"

// Prefix is prepended to every generated job ID.
const Prefix = "job-"

// Generate creates a new unique job ID.
// Format: job-<uuid>
// Example: job-6f1c2b9e-8d3a-4f7e-9a51-0c2d4e6f8a10
func Generate() string {
	return Prefix + uuid.NewString()
}
