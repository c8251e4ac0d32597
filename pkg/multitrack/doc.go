// ABOUTME: Synchronized multi-track playback package
// ABOUTME: Orchestrates track players against one logical timeline
// Package multitrack plays a group of independently delayed audio tracks in
// phase against a single logical timeline.
//
// The Orchestrator owns a timeline.Timeline and one player.Track per source.
// Transport commands fan out to every track; play uses one anchor instant
// taken from the shared render clock so all tracks start together. Position
// is reported from the timeline's own clock, never from the render engine.
//
// Example:
//
//	engine := otoengine.New(nil)
//	o, err := multitrack.New(multitrack.Config{
//	    Engine: engine,
//	    OnPositionUpdate: func(pos time.Duration) {
//	        fmt.Printf("\r%v", pos)
//	    },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer o.Close()
//
//	o.AppendFile("drums.flac", 0, 1)
//	o.AppendFile("vocals.mp3", 2*time.Second, 0.8)
//	o.Play()
package multitrack
