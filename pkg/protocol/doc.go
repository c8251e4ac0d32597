// ABOUTME: Multitrack remote-control protocol package
// ABOUTME: Defines protocol messages and WebSocket client
// Package protocol implements the multitrack remote-control protocol.
//
// Provides message types and a WebSocket client for controlling a running
// multitrack player.
//
// Example:
//
//	client := protocol.NewClient(protocol.Config{ServerAddr: "localhost:8928", Name: "remote"})
//	if err := client.Connect(); err != nil {
//	    log.Fatal(err)
//	}
//	err := client.SendCommand(protocol.TransportCommand{Command: protocol.CommandPlay})
package protocol
