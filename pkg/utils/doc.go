// Package utils provides small shared helpers for the aboxlink pipeline.
//
// This package contains:
//   - Vector math used by similarity linking (vector.go)
//   - Concurrent execution helpers and worker pools (concurrent.go)
//   - Panic recovery that converts panics into errors (recovery.go)
//   - Environment-driven defaults (helpers.go)
package utils
