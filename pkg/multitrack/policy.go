// ABOUTME: Pluggable reducers over the track collection
// ABOUTME: Decide group duration and the render engine's reference format
package multitrack

import (
	"time"

	"github.com/Sendspin/multitrack-go/pkg/audio"
	"github.com/Sendspin/multitrack-go/pkg/track"
)

// Policy reduces the track list to group-wide values
type Policy struct {
	// Duration returns the group playback length
	Duration func(items []track.Item) time.Duration
	// Format returns the reference output format
	Format func(items []track.Item) audio.Format
}

// DefaultPolicy uses the longest track and the lowest sample rate
func DefaultPolicy() Policy {
	return Policy{
		Duration: LongestDuration,
		Format:   LowestSampleRate,
	}
}

func (p Policy) withDefaults() Policy {
	if p.Duration == nil {
		p.Duration = LongestDuration
	}
	if p.Format == nil {
		p.Format = LowestSampleRate
	}
	return p
}

// LongestDuration is the maximum item duration, 0 when empty
func LongestDuration(items []track.Item) time.Duration {
	var longest time.Duration
	for _, item := range items {
		if d := item.Duration(); d > longest {
			longest = d
		}
	}
	return longest
}

// ShortestDuration is the minimum item duration, 0 when empty
func ShortestDuration(items []track.Item) time.Duration {
	if len(items) == 0 {
		return 0
	}
	shortest := items[0].Duration()
	for _, item := range items[1:] {
		if d := item.Duration(); d < shortest {
			shortest = d
		}
	}
	return shortest
}

// LowestSampleRate picks the lowest-rate item's format with the widest channel count
func LowestSampleRate(items []track.Item) audio.Format {
	return pickFormat(items, func(candidate, best int) bool { return candidate < best })
}

// HighestSampleRate picks the highest-rate item's format with the widest channel count
func HighestSampleRate(items []track.Item) audio.Format {
	return pickFormat(items, func(candidate, best int) bool { return candidate > best })
}

func pickFormat(items []track.Item, better func(candidate, best int) bool) audio.Format {
	var (
		format   audio.Format
		channels int
	)
	for i, item := range items {
		f := item.Format()
		if f.Channels > channels {
			channels = f.Channels
		}
		if i == 0 || better(f.SampleRate, format.SampleRate) {
			format = f
		}
	}
	format.Channels = channels
	return format
}
