// ABOUTME: Track player package
// ABOUTME: Binds one item and scheduler to one render sink
// Package player binds one track.Item and its schedule.Scheduler to a
// render.Sink and exposes per-track transport. Group coordination lives in
// package multitrack.
package player
