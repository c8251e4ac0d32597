// ABOUTME: Periodic elapsed-time clocks that drive the playback timeline
// ABOUTME: Provides a real ticker-backed clock and a manual clock for tests
// Package clock provides the periodic-callback primitive behind the logical
// playback timeline.
//
// A Clock counts from zero at each Start and invokes its tick callback at a
// fixed period until Stop. Stop is immediate and never waits for an in-flight
// callback, so it is safe to call from inside the callback itself.
//
// Example:
//
//	c := clock.NewTicker(100 * time.Millisecond)
//	c.OnTick(func(elapsed time.Duration) {
//	    fmt.Println(elapsed)
//	})
//	c.Start()
//	defer c.Stop()
package clock
