package utils

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultWorkers(t *testing.T) {
	t.Setenv(WorkersEnv, "")
	assert.Equal(t, runtime.GOMAXPROCS(0), DefaultWorkers())

	t.Setenv(WorkersEnv, "3")
	assert.Equal(t, 3, DefaultWorkers())

	for _, bad := range []string{"0", "-2", "many"} {
		t.Setenv(WorkersEnv, bad)
		assert.Equal(t, runtime.GOMAXPROCS(0), DefaultWorkers(), bad)
	}
}
