package density

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func assertRGB(t *testing.T, want, got RGB) {
	t.Helper()
	assert.InDelta(t, want.R, got.R, 1e-9, "red")
	assert.InDelta(t, want.G, got.G, 1e-9, "green")
	assert.InDelta(t, want.B, got.B, 1e-9, "blue")
}

func TestColorAt_Endpoints(t *testing.T) {
	assertRGB(t, RGB{R: 0, G: 0, B: 1}, ColorAt(0))
	assertRGB(t, RGB{R: 1, G: 0, B: 0}, ColorAt(1))
}

func TestColorAt_Stops(t *testing.T) {
	assertRGB(t, RGB{R: 0, G: 1, B: 1}, ColorAt(0.25))
	assertRGB(t, RGB{R: 0, G: 1, B: 0}, ColorAt(0.5))
	assertRGB(t, RGB{R: 1, G: 1, B: 0}, ColorAt(0.75))
	assertRGB(t, RGB{R: 0, G: 0.5, B: 1}, ColorAt(0.125))
	assertRGB(t, RGB{R: 1, G: 0.5, B: 0}, ColorAt(0.875))
}

func TestColorAt_ContinuousAtBoundaries(t *testing.T) {
	for k := 0; k < len(gradient)-1; k++ {
		boundary := gradient[k].hi
		assert.Equal(t, boundary, gradient[k+1].lo)
		assertRGB(t, gradient[k].color(boundary), gradient[k+1].color(boundary))
	}
}

func TestColorAt_ChannelsInRange(t *testing.T) {
	for i := 0; i <= 1000; i++ {
		c := ColorAt(float64(i) / 1000)
		for _, v := range []float64{c.R, c.G, c.B} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestColorAt_ClampsOutOfRange(t *testing.T) {
	assertRGB(t, ColorAt(0), ColorAt(-3))
	assertRGB(t, ColorAt(1), ColorAt(42))
}

func TestRGB_Hex(t *testing.T) {
	assert.Equal(t, "#0000ff", ColorAt(0).Hex())
	assert.Equal(t, "#ff0000", ColorAt(1).Hex())
	assert.Equal(t, "#00ff00", ColorAt(0.5).Hex())
	assert.Equal(t, "#ff8000", RGB{R: 1, G: 0.5, B: 0}.Hex())
}
