// ABOUTME: oto render engine package
// ABOUTME: Plays each track through its own oto player
// Package otoengine implements render.Engine on top of github.com/ebitengine/oto/v3.
//
// Every attached track gets a node that turns its scheduled regions into
// 16-bit PCM at the engine's output format. oto mixes all node players on
// the device. The render clock is the wall time elapsed since Start, counted
// in output frames.
package otoengine
