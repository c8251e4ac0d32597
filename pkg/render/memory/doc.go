// ABOUTME: In-memory render engine package
// ABOUTME: Records sink commands for tests and dry runs
// Package memory provides a render.Engine that records sink commands instead
// of producing audio. The render clock is advanced by hand, which makes it
// the engine of choice for tests and for dry runs of a schedule.
package memory
