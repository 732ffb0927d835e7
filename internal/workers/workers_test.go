package workers

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountAtLeastOne(t *testing.T) {
	assert.GreaterOrEqual(t, Count(0.1, 0), 1)
}

func TestCountRespectsLimit(t *testing.T) {
	assert.Equal(t, 1, Count(100, 1))
	assert.LessOrEqual(t, ForIO(4), 4)
}

func TestCountMultiplier(t *testing.T) {
	available := runtime.GOMAXPROCS(0)
	assert.Equal(t, available, ForCPU(0))
	assert.Equal(t, 2*available, ForIO(0))
}

func TestCountEnvOverride(t *testing.T) {
	t.Setenv("SEARCH_WORKERS", "3")
	assert.Equal(t, 3, Count(1.0, 0))
	assert.Equal(t, 2, Count(1.0, 2), "limit still caps the override")

	t.Setenv("SEARCH_WORKERS", "bogus")
	assert.GreaterOrEqual(t, Count(1.0, 0), 1)
}
