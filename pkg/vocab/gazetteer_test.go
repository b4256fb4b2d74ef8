package vocab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLabel(t *testing.T) {
	assert.Equal(t, "fire plug", NormalizeLabel("  Fire\tPLUG "))
	// Fullwidth letters fold under NFKC.
	assert.Equal(t, "tunnel", NormalizeLabel("ＴＵＮＮＥＬ"))
	assert.Equal(t, "", NormalizeLabel("   "))
}

func TestGazetteer(t *testing.T) {
	idx := loadTunnel(t)
	g := NewGazetteer(idx)

	e, ok := g.Class("Fire Plug")
	require.True(t, ok)
	assert.Equal(t, "Hydrant", e.Name)

	e, ok = g.Property("HAS LENGTH")
	require.True(t, ok)
	assert.Equal(t, "tunnelLength", e.Name)
	assert.Equal(t, KindDataProperty, e.Kind)

	_, ok = g.Class("bridge")
	assert.False(t, ok)
	_, ok = g.Property("Hydrant")
	assert.False(t, ok)
}
