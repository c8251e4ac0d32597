// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts audio between different sample rates
// Package resample provides audio sample rate conversion.
//
// Uses linear interpolation for converting between sample rates and keeps
// state between calls so a stream can be fed in arbitrary block sizes.
// Render engines use it to bring each track's native rate to the output rate.
//
// Example:
//
//	r := resample.New(44100, 48000, 2)
//	out := make([]int32, r.MaxOutputSamples(len(in)))
//	n := r.Resample(in, out)
package resample
