package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Sendspin/multitrack-go/pkg/source"
)

func stub(frames int64, rate int) source.Source {
	return source.Static{SourceName: "stub", Length: frames, Rate: rate}
}

func TestDerivedValues(t *testing.T) {
	item := New(stub(44100, 44100), 2*time.Second, DefaultGain)

	// 2s of delay is 88200 frames; the source adds one more second
	assert.Equal(t, int64(88200), item.DelayFrames())
	assert.Equal(t, int64(132300), item.LengthFrames())
	assert.Equal(t, 3*time.Second, item.Duration())
	assert.Equal(t, 44100, item.SampleRate())
	assert.Equal(t, "stub", item.Name())
}

func TestDelayFramesRounds(t *testing.T) {
	tests := []struct {
		name  string
		delay time.Duration
		rate  int
		want  int64
	}{
		{"exact", time.Second, 48000, 48000},
		{"rounds up", 15 * time.Microsecond, 48000, 1},
		{"rounds down", 10 * time.Microsecond, 48000, 0},
		{"half second at 44.1k", 500 * time.Millisecond, 44100, 22050},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := New(stub(0, tt.rate), tt.delay, 1)
			assert.Equal(t, tt.want, item.DelayFrames())
		})
	}
}

func TestWithDelayKeepsIdentity(t *testing.T) {
	orig := New(stub(48000, 48000), time.Second, 0.5)
	edited := orig.WithDelay(3 * time.Second)

	assert.Equal(t, orig.ID, edited.ID)
	assert.Equal(t, time.Second, orig.Delay, "original must not change")
	assert.Equal(t, 4*time.Second, edited.Duration())
	assert.Equal(t, 0.5, edited.Gain)

	gained := edited.WithGain(2)
	assert.Equal(t, 2.0, gained.Gain)
	assert.Equal(t, 0.5, edited.Gain)
}

func TestNegativeDelayClamps(t *testing.T) {
	item := New(stub(100, 100), -time.Second, 1)
	assert.Equal(t, time.Duration(0), item.Delay)
	assert.Equal(t, time.Duration(0), item.WithDelay(-5*time.Second).Delay)
}

func TestUniqueIDs(t *testing.T) {
	a := New(stub(1, 1), 0, 1)
	b := New(stub(1, 1), 0, 1)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestZeroItem(t *testing.T) {
	var item Item
	assert.Equal(t, int64(0), item.LengthFrames())
	assert.Equal(t, time.Duration(0), item.Duration())
	assert.True(t, item.Format().IsZero())
}
