// ABOUTME: Remote control package for a running player
// ABOUTME: WebSocket command server with optional mDNS advertisement
// Package remote exposes a running player's transport over a websocket so
// other devices on the network can drive it. See package protocol for the
// message set.
package remote
