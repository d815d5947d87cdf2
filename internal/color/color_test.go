package color

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	c, err := Parse("#ff8000")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c.R, 1e-6)
	assert.InDelta(t, 128.0/255.0, c.G, 1e-6)
	assert.InDelta(t, 0.0, c.B, 1e-6)
	assert.Equal(t, "#ff8000", c.Hex())

	_, err = Parse("00ffcc")
	assert.NoError(t, err)
}

func TestParseInvalid(t *testing.T) {
	for _, s := range []string{"", "#fff", "#gg0000", "#12345678"} {
		_, err := Parse(s)
		assert.Error(t, err, s)
	}
}

func TestFlashNotInPalette(t *testing.T) {
	for _, c := range Palette() {
		assert.NotEqual(t, Flash, c)
	}
}

func TestTweenReachesTarget(t *testing.T) {
	tw := NewTween(Cyan)
	assert.True(t, tw.Done())
	assert.Equal(t, Cyan, tw.Update(0.1))

	tw.Set(Coral)
	assert.Equal(t, Coral, tw.Target())
	mid := tw.Update(TransitionSeconds / 2)
	assert.False(t, tw.Done())
	assert.NotEqual(t, Cyan, mid)
	assert.NotEqual(t, Coral, mid)

	got := tw.Update(TransitionSeconds)
	assert.True(t, tw.Done())
	assert.InDelta(t, Coral.R, got.R, 1e-4)
	assert.InDelta(t, Coral.G, got.G, 1e-4)
	assert.InDelta(t, Coral.B, got.B, 1e-4)
}

func TestEmissiveDimmer(t *testing.T) {
	e := Gold.Emissive()
	assert.Less(t, e.R, Gold.R)
	assert.Less(t, e.G, Gold.G)
}
