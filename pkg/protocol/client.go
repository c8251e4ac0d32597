// ABOUTME: WebSocket client for the multitrack remote-control protocol
// ABOUTME: Handles connection, handshake, and message routing
package protocol

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// DefaultPath is the websocket endpoint path
const DefaultPath = "/multitrack"

// Version is the protocol version sent in hellos
const Version = 1

// Config holds client configuration
type Config struct {
	ServerAddr string
	Path       string
	Name       string
	Logger     *logrus.Entry
}

// Client is a remote-control connection to a player
type Client struct {
	config Config
	log    *logrus.Entry
	conn   *websocket.Conn
	mu     sync.RWMutex

	// Message channels
	States    chan TransportState
	Positions chan TransportPosition
	Finished  chan TransportFinished
	Errors    chan ErrorMessage

	hello     ServerHello
	connected bool
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewClient creates a new WebSocket client
func NewClient(config Config) *Client {
	if config.Path == "" {
		config.Path = DefaultPath
	}
	if config.Logger == nil {
		config.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Client{
		config:    config,
		log:       config.Logger.WithField("remote", config.ServerAddr),
		States:    make(chan TransportState, 10),
		Positions: make(chan TransportPosition, 32),
		Finished:  make(chan TransportFinished, 1),
		Errors:    make(chan ErrorMessage, 10),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Connect establishes the WebSocket connection and performs the handshake
func (c *Client) Connect() error {
	u := url.URL{Scheme: "ws", Host: c.config.ServerAddr, Path: c.config.Path}
	c.log.Debugf("Connecting to %s", u.String())

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.handshake(); err != nil {
		c.Close()
		return fmt.Errorf("handshake failed: %w", err)
	}

	go c.readMessages()

	return nil
}

func (c *Client) handshake() error {
	hello := Message{
		Type:    TypeClientHello,
		Payload: ClientHello{Name: c.config.Name, Version: Version},
	}
	if err := c.sendJSON(hello); err != nil {
		return fmt.Errorf("failed to send client/hello: %w", err)
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("failed to read server/hello: %w", err)
	}
	_ = c.conn.SetReadDeadline(time.Time{})

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("failed to parse server/hello: %w", err)
	}
	if msg.Type != TypeServerHello {
		return fmt.Errorf("expected %s, got %s", TypeServerHello, msg.Type)
	}

	var sh ServerHello
	if err := DecodePayload(msg, &sh); err != nil {
		return err
	}

	c.mu.Lock()
	c.hello = sh
	c.mu.Unlock()

	c.log.Infof("Connected to %s: %d tracks, %dms", sh.Name, len(sh.Tracks), sh.DurationMs)
	return nil
}

// Hello returns the server/hello received during the handshake
func (c *Client) Hello() ServerHello {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hello
}

// SendCommand sends a transport/command
func (c *Client) SendCommand(cmd TransportCommand) error {
	return c.sendJSON(Message{Type: TypeTransportCommand, Payload: cmd})
}

func (c *Client) sendJSON(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return fmt.Errorf("not connected")
	}

	return c.conn.WriteJSON(msg)
}

func (c *Client) readMessages() {
	defer c.Close()

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			c.log.Debugf("Read error: %v", err)
			return
		}

		if messageType != websocket.TextMessage {
			c.log.Debugf("Ignoring websocket message type %d", messageType)
			continue
		}
		c.handleJSONMessage(data)
	}
}

func (c *Client) handleJSONMessage(data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		c.log.Warnf("Failed to parse JSON message: %v", err)
		return
	}

	switch msg.Type {
	case TypeTransportState:
		var state TransportState
		if err := DecodePayload(msg, &state); err != nil {
			c.log.Warn(err)
			return
		}
		select {
		case c.States <- state:
		case <-c.ctx.Done():
		}

	case TypeTransportPosition:
		var pos TransportPosition
		if err := DecodePayload(msg, &pos); err != nil {
			c.log.Warn(err)
			return
		}
		// Positions are frequent; drop rather than stall the reader
		select {
		case c.Positions <- pos:
		default:
		}

	case TypeTransportFinished:
		var fin TransportFinished
		if err := DecodePayload(msg, &fin); err != nil {
			c.log.Warn(err)
			return
		}
		select {
		case c.Finished <- fin:
		default:
		}

	case TypeError:
		var em ErrorMessage
		if err := DecodePayload(msg, &em); err != nil {
			c.log.Warn(err)
			return
		}
		select {
		case c.Errors <- em:
		case <-time.After(100 * time.Millisecond):
			c.log.Warn("Error channel full, dropping message")
		}

	default:
		c.log.Debugf("Unknown message type: %s", msg.Type)
	}
}

// Close closes the connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		c.connected = false
		c.cancel()
		_ = c.conn.Close()
		c.log.Debug("Connection closed")
	}
}

// IsConnected returns connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
