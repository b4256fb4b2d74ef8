package utils

import (
	"os"
	"runtime"
	"strconv"
)

// DefaultBatchSize is the number of texts sent to an embedder per call.
const DefaultBatchSize = 64

// WorkersEnv overrides the default worker count.
const WorkersEnv = "ABOXLINK_WORKERS"

// DefaultWorkers returns the worker count for CPU-bound ranking: the value
// of ABOXLINK_WORKERS when it is a positive integer, otherwise GOMAXPROCS.
func DefaultWorkers() int {
	if n, err := strconv.Atoi(os.Getenv(WorkersEnv)); err == nil && n > 0 {
		return n
	}
	return runtime.GOMAXPROCS(0)
}
