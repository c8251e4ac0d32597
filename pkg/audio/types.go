// ABOUTME: Audio type definitions
// ABOUTME: Defines audio formats, decoded PCM sources and sample conversions
package audio

import "time"

const (
	// 24-bit audio range constants
	Max24Bit = 8388607  // 2^23 - 1
	Min24Bit = -8388608 // -2^23
)

// Format describes audio stream format
type Format struct {
	Codec      string
	SampleRate int
	Channels   int
	BitDepth   int
}

// IsZero reports whether the format carries no information
func (f Format) IsZero() bool {
	return f.SampleRate == 0 && f.Channels == 0
}

// PCM is a fully decoded source held in memory.
// Samples are interleaved int32 values in 24-bit range.
type PCM struct {
	Format  Format
	Samples []int32
}

// Frames returns the number of sample frames (one sample per channel)
func (p *PCM) Frames() int64 {
	if p == nil || p.Format.Channels <= 0 {
		return 0
	}
	return int64(len(p.Samples) / p.Format.Channels)
}

// Duration returns the wall-clock length of the PCM data at its native rate
func (p *PCM) Duration() time.Duration {
	return FramesToDuration(p.Frames(), p.Format.SampleRate)
}

// ReadFrames copies interleaved frames starting at frame `from` into dst.
// Returns the number of whole frames copied.
func (p *PCM) ReadFrames(dst []int32, from int64) int {
	ch := p.Format.Channels
	if ch <= 0 || from < 0 || from >= p.Frames() {
		return 0
	}
	n := copy(dst, p.Samples[from*int64(ch):])
	return n / ch
}

// FramesToDuration converts a frame count at the given rate to a duration
func FramesToDuration(frames int64, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second))
}

// DurationToFrames converts a duration to the nearest frame index at the given rate
func DurationToFrames(d time.Duration, sampleRate int) int64 {
	if sampleRate <= 0 {
		return 0
	}
	f := d.Seconds() * float64(sampleRate)
	if f < 0 {
		return -int64(-f + 0.5)
	}
	return int64(f + 0.5)
}

// SampleToInt16 converts int32 sample to int16 (for 16-bit playback)
func SampleToInt16(sample int32) int16 {
	// Right-shift to convert 24-bit (or 16-bit) to 16-bit range
	return int16(sample >> 8)
}

// SampleFromInt16 converts int16 sample to int32 (left-justified in 24-bit)
func SampleFromInt16(sample int16) int32 {
	return int32(sample) << 8
}

// SampleFromFloat32 converts a [-1, 1] float sample to 24-bit range with clipping
func SampleFromFloat32(sample float32) int32 {
	v := int64(float64(sample) * Max24Bit)
	return ClampTo24Bit(v)
}

// SampleFromBitDepth scales a signed integer sample of the given depth to 24-bit range
func SampleFromBitDepth(sample int32, bitDepth int) int32 {
	switch {
	case bitDepth == 24:
		return sample
	case bitDepth == 8:
		// 8-bit PCM is unsigned in WAV
		return (sample - 128) << 16
	case bitDepth < 24:
		return sample << (24 - bitDepth)
	default:
		return sample >> (bitDepth - 24)
	}
}

// ClampTo24Bit clips a wide sample into 24-bit range
func ClampTo24Bit(v int64) int32 {
	if v > Max24Bit {
		return Max24Bit
	}
	if v < Min24Bit {
		return Min24Bit
	}
	return int32(v)
}
