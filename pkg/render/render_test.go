package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAtFrame(t *testing.T) {
	assert.Equal(t, Immediately, AtFrame(0))
	assert.Equal(t, Immediately, AtFrame(-3))
	assert.Equal(t, Anchor{Frames: 441}, AtFrame(441))
	assert.Equal(t, int64(441), AtFrame(441).Offset())
	assert.Equal(t, int64(0), Immediately.Offset())
}

func TestTime(t *testing.T) {
	assert.True(t, Time{}.IsZero())

	rt := Time{SampleTime: 96000, SampleRate: 48000}
	assert.False(t, rt.IsZero())
	assert.Equal(t, 2*time.Second, rt.Duration())
}
