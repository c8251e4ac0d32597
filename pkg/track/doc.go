// ABOUTME: Track item package
// ABOUTME: Immutable source, delay and gain triples
// Package track defines Item, the value describing one source placed on a
// group timeline with its own start delay and gain.
package track
