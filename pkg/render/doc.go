// ABOUTME: Render collaborator interfaces package
// ABOUTME: Implemented by the memory and oto engines
// Package render defines the narrow interfaces between the playback core and
// a real-time render graph.
//
// A Sink only understands "render starting now" or "render starting N frames
// after play" requests, so a seek must stop the sink and rebuild its queue.
// Sinks of one Engine share its render clock, which lets a group of tracks be
// started in phase from a single anchor Time.
package render
