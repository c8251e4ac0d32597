package player

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sendspin/multitrack-go/pkg/audio"
	"github.com/Sendspin/multitrack-go/pkg/render"
	"github.com/Sendspin/multitrack-go/pkg/render/memory"
	"github.com/Sendspin/multitrack-go/pkg/source"
	"github.com/Sendspin/multitrack-go/pkg/track"
)

func setup(t *testing.T, rate int, frames int64, delay time.Duration) (*Track, *memory.Sink, *memory.Engine) {
	t.Helper()

	e := memory.NewEngine(nil)
	s, err := e.Attach(audio.Format{SampleRate: rate, Channels: 2})
	require.NoError(t, err)

	item := track.New(source.Static{SourceName: "t", Length: frames, Rate: rate}, delay, 0.8)
	return New(item, s, nil), s.(*memory.Sink), e
}

func TestNewAppliesGainAndDelay(t *testing.T) {
	tr, sink, _ := setup(t, 44100, 44100, time.Second)

	assert.Equal(t, 0.8, sink.Gain())
	assert.Equal(t, []int64{44100}, tr.Scheduler().StartFrames())
	assert.Empty(t, sink.Queue())
}

func TestReload(t *testing.T) {
	tr, sink, _ := setup(t, 44100, 44100, time.Second)

	tr.Reload()

	log := sink.Log()
	require.Len(t, log, 3)
	assert.Equal(t, memory.KindStop, log[1].Kind)
	assert.Equal(t, memory.KindFull, log[2].Kind)
	assert.Equal(t, render.AtFrame(44100), log[2].At)
}

func TestSeekUsesOwnSampleRate(t *testing.T) {
	tests := []struct {
		name     string
		rate     int
		wantFrom int64
	}{
		{"44.1k", 44100, 44100},
		{"48k", 48000, 48000},
		{"22.05k", 22050, 22050},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, sink, _ := setup(t, tt.rate, int64(tt.rate)*5, 0)
			tr.Seek(time.Second, false)

			queue := sink.Queue()
			require.Len(t, queue, 1)
			assert.Equal(t, tt.wantFrom, queue[0].From)
		})
	}
}

func TestSeekWhilePlayingReplays(t *testing.T) {
	tr, sink, engine := setup(t, 48000, 48000*5, 0)

	tr.Reload()
	tr.Play(engine.Now())
	engine.Advance(4800)

	tr.Seek(2*time.Second, true)

	assert.True(t, tr.IsPlaying())
	assert.Equal(t, int64(4800), sink.PlayedAt().SampleTime)
	require.Len(t, sink.Queue(), 1)
	assert.Equal(t, int64(96000), sink.Queue()[0].From)
}

func TestSeekWhileStoppedStaysStopped(t *testing.T) {
	tr, _, _ := setup(t, 48000, 48000, 0)
	tr.Seek(500*time.Millisecond, false)
	assert.False(t, tr.IsPlaying())
}

func TestSeekSupersedesQueue(t *testing.T) {
	tr, sink, _ := setup(t, 48000, 48000, 0)

	tr.Seek(100*time.Millisecond, false)
	tr.Seek(200*time.Millisecond, false)
	require.Len(t, sink.Queue(), 1)
	assert.Equal(t, int64(9600), sink.Queue()[0].From)
}

func TestSeekPastEndLeavesTrackSilent(t *testing.T) {
	tr, sink, _ := setup(t, 48000, 48000, 0)

	plan := tr.Seek(3*time.Second, false)
	assert.Empty(t, plan)
	assert.Empty(t, sink.Queue())
}

func TestSetItem(t *testing.T) {
	tr, sink, _ := setup(t, 48000, 48000, 0)

	edited := tr.Item().WithDelay(2 * time.Second).WithGain(0.5)
	tr.SetItem(edited)

	assert.Equal(t, edited, tr.Item())
	assert.Equal(t, []int64{96000}, tr.Scheduler().StartFrames())
	assert.Equal(t, 0.5, sink.Gain())
	assert.Empty(t, sink.Queue(), "SetItem does not reschedule")
}

func TestSetItemKeepsRepeatScheduleOnGainEdit(t *testing.T) {
	tr, sink, _ := setup(t, 48000, 48000, time.Second)
	tr.Scheduler().SetStartFrames(48000, 144000, 240000)

	tr.SetItem(tr.Item().WithGain(0.3))
	assert.Equal(t, []int64{48000, 144000, 240000}, tr.Scheduler().StartFrames())
	assert.Equal(t, 0.3, sink.Gain())

	tr.SetItem(tr.Item())
	assert.Equal(t, []int64{48000, 144000, 240000}, tr.Scheduler().StartFrames())

	tr.SetItem(tr.Item().WithDelay(500 * time.Millisecond))
	assert.Equal(t, []int64{24000}, tr.Scheduler().StartFrames())
}

func TestPauseStop(t *testing.T) {
	tr, sink, engine := setup(t, 48000, 48000, 0)

	tr.Play(engine.Now())
	assert.True(t, tr.IsPlaying())
	tr.Pause()
	assert.False(t, tr.IsPlaying())
	tr.Stop()
	assert.Equal(t, memory.KindStop, sink.Log()[len(sink.Log())-1].Kind)
	assert.Equal(t, engine.Now(), tr.RenderTime())
}
