// ABOUTME: Audio source provider package
// ABOUTME: Opens files into length-addressable sources for scheduling
// Package source defines the audio source handles the playback core
// schedules against, and a file provider that decodes them.
//
// The core only needs a source's length in frames and its native sample
// rate. Engines that render real audio additionally use FrameReader.
//
// Example:
//
//	p := source.NewFileProvider(nil)
//	src, err := p.Open("drums.flac")
//	if errors.Is(err, source.ErrUnreadable) {
//	    // skip this track
//	}
package source
