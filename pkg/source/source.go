// ABOUTME: Audio source handles consumed by the playback core
// ABOUTME: Exposes frame length and native rate; PCM access is optional
package source

import (
	"errors"

	"github.com/Sendspin/multitrack-go/pkg/audio"
)

// ErrUnreadable is returned when a source cannot be opened or decoded
var ErrUnreadable = errors.New("source unreadable")

// Source is an opaque handle to an openable audio source
type Source interface {
	// Name identifies the source for display and logging
	Name() string
	// Frames returns the source length in frames at its native rate
	Frames() int64
	// SampleRate returns the native sample rate in Hz
	SampleRate() int
	// Channels returns the channel count
	Channels() int
}

// FrameReader is implemented by sources that can hand out PCM.
// Render engines that mix real audio require it.
type FrameReader interface {
	// ReadFrames copies interleaved 24-bit frames starting at from into dst
	// and returns the number of whole frames copied
	ReadFrames(dst []int32, from int64) int
}

// Provider opens sources by path
type Provider interface {
	Open(path string) (Source, error)
}

// Metadata is optional descriptive information about a source
type Metadata struct {
	Title  string
	Artist string
	Album  string
}

// Decoded is a fully decoded in-memory source
type Decoded struct {
	name     string
	path     string
	pcm      *audio.PCM
	metadata Metadata
}

// FromPCM wraps decoded PCM as a Source
func FromPCM(name string, pcm *audio.PCM) *Decoded {
	return &Decoded{name: name, pcm: pcm, metadata: Metadata{Title: name}}
}

// Name returns the display name
func (d *Decoded) Name() string { return d.name }

// Path returns the file the source was decoded from, if any
func (d *Decoded) Path() string { return d.path }

// Frames returns the source length in frames
func (d *Decoded) Frames() int64 { return d.pcm.Frames() }

// SampleRate returns the native sample rate
func (d *Decoded) SampleRate() int { return d.pcm.Format.SampleRate }

// Channels returns the channel count
func (d *Decoded) Channels() int { return d.pcm.Format.Channels }

// Format returns the decoded audio format
func (d *Decoded) Format() audio.Format { return d.pcm.Format }

// Metadata returns tag metadata read at open time
func (d *Decoded) Metadata() Metadata { return d.metadata }

// ReadFrames copies PCM frames into dst
func (d *Decoded) ReadFrames(dst []int32, from int64) int {
	return d.pcm.ReadFrames(dst, from)
}

// Static is a length-only source with no audio data.
// Useful for dry-run scheduling and with engines that do not read PCM.
type Static struct {
	SourceName string
	Length     int64
	Rate       int
	Chans      int
}

// Name returns the display name
func (s Static) Name() string { return s.SourceName }

// Frames returns the configured length
func (s Static) Frames() int64 { return s.Length }

// SampleRate returns the configured rate
func (s Static) SampleRate() int { return s.Rate }

// Channels returns the configured channel count, defaulting to stereo
func (s Static) Channels() int {
	if s.Chans <= 0 {
		return 2
	}
	return s.Chans
}

// FormatOf describes a source's native format
func FormatOf(src Source) audio.Format {
	if d, ok := src.(interface{ Format() audio.Format }); ok {
		return d.Format()
	}
	return audio.Format{
		Codec:      "pcm",
		SampleRate: src.SampleRate(),
		Channels:   src.Channels(),
		BitDepth:   24,
	}
}
