// ABOUTME: Sentinel errors for the playback orchestrator
// ABOUTME: Callers match them with errors.Is
package multitrack

import "errors"

var (
	// ErrEngineStart is returned by Play when the render engine cannot start
	ErrEngineStart = errors.New("render engine failed to start")

	// ErrTrackIndex is returned for an index outside the track list
	ErrTrackIndex = errors.New("track index out of range")

	// ErrNoEngine is returned by New without a render engine
	ErrNoEngine = errors.New("no render engine configured")
)
