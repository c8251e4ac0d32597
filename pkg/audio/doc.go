// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format, PCM types and sample/frame conversion functions
// Package audio provides fundamental audio types shared by the multitrack packages.
//
// This package defines core types used throughout the library:
//   - Format: Describes a source format (codec, sample rate, channels, bit depth)
//   - PCM: A decoded source held in memory as interleaved 24-bit samples
//
// Frame/time conversions always take the owning source's own sample rate;
// tracks of different rates are never converted through a shared rate.
//
// Example:
//
//	frames := audio.DurationToFrames(2*time.Second, 44100) // 88200
//	d := audio.FramesToDuration(frames, 44100)            // 2s
package audio
