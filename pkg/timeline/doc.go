// ABOUTME: Logical playback timeline package
// ABOUTME: Accumulates position across pause and resume segments
// Package timeline implements the logical playback clock shared by a group
// of tracks. Position is accumulated across pause/resume segments and is
// reported through callbacks at the cadence of the underlying clock.Clock.
package timeline
