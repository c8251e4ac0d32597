// ABOUTME: WebSocket remote-control server for a multitrack player
// ABOUTME: Applies transport commands and broadcasts state to connected clients
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/Sendspin/multitrack-go/internal/discovery"
	"github.com/Sendspin/multitrack-go/pkg/multitrack"
	"github.com/Sendspin/multitrack-go/pkg/protocol"
	"github.com/Sendspin/multitrack-go/pkg/track"
)

// DefaultPort is the remote-control listen port
const DefaultPort = 8928

// Controller is the transport surface the server drives.
// *multitrack.Orchestrator implements it.
type Controller interface {
	Play() error
	Pause()
	Stop()
	Reload()
	Seek(delta time.Duration) time.Duration
	SeekTo(position time.Duration) time.Duration
	SetDelay(delay time.Duration, index int) error
	SetGain(gain float64, index int) error
	State() multitrack.State
	CurrentTime() time.Duration
	Duration() time.Duration
	Tracks() []track.Item
}

// Config configures the remote-control server
type Config struct {
	// Port to listen on (default: 8928)
	Port int

	// Name of the player for identification
	Name string

	// Controller receives commands (required)
	Controller Controller

	// EnableMDNS advertises the endpoint on the local network
	EnableMDNS bool

	Logger *logrus.Entry
}

// Server serves the /multitrack websocket endpoint
type Server struct {
	config   Config
	ctrl     Controller
	log      *logrus.Entry
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	httpServer *http.Server
	listener   net.Listener
	mdns       *discovery.Manager

	clients   map[string]*client
	clientsMu sync.RWMutex

	stopChan   chan struct{}
	stopOnce   sync.Once
	shutdownMu sync.RWMutex
	isShutdown bool
	wg         sync.WaitGroup
}

type client struct {
	ID       string
	Name     string
	Conn     *websocket.Conn
	sendChan chan interface{}
}

// ClientInfo describes a connected remote
type ClientInfo struct {
	ID   string
	Name string
}

// NewServer creates a remote-control server
func NewServer(config Config) (*Server, error) {
	if config.Controller == nil {
		return nil, fmt.Errorf("controller is required")
	}
	if config.Port == 0 {
		config.Port = DefaultPort
	}
	if config.Name == "" {
		config.Name = "Multitrack Player"
	}
	if config.Logger == nil {
		config.Logger = logrus.NewEntry(logrus.StandardLogger())
	}

	s := &Server{
		config: config,
		ctrl:   config.Controller,
		log:    config.Logger.WithField("component", "remote"),
		mux:    http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Local network control surface
				return true
			},
		},
		clients:  make(map[string]*client),
		stopChan: make(chan struct{}),
	}
	s.mux.HandleFunc(protocol.DefaultPath, s.handleWebSocket)

	return s, nil
}

// Handler returns the HTTP handler serving the endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens and serves until Stop is called
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{Handler: s.mux}

	if s.config.EnableMDNS {
		s.mdns = discovery.NewManager(discovery.Config{
			ServiceName: s.config.Name,
			Port:        s.config.Port,
			Path:        protocol.DefaultPath,
			Logger:      s.log,
		})
		if err := s.mdns.Advertise(); err != nil {
			s.log.WithError(err).Warn("Failed to start mDNS advertisement")
		}
	}

	s.log.Infof("Remote control listening on %s%s", addr, protocol.DefaultPath)

	errChan := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-s.stopChan:
		s.log.Debug("Remote control shutting down")
	case err := <-errChan:
		return fmt.Errorf("remote control server: %w", err)
	}

	s.shutdownMu.Lock()
	s.isShutdown = true
	s.shutdownMu.Unlock()

	if s.mdns != nil {
		s.mdns.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.WithError(err).Warn("HTTP server shutdown error")
	}

	s.closeClients()
	s.wg.Wait()
	return nil
}

// Stop stops the server
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
}

// Port returns the configured port
func (s *Server) Port() int {
	return s.config.Port
}

// Clients returns the connected remotes
func (s *Server) Clients() []ClientInfo {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	infos := make([]ClientInfo, 0, len(s.clients))
	for _, c := range s.clients {
		infos = append(infos, ClientInfo{ID: c.ID, Name: c.Name})
	}
	return infos
}

// NotifyState broadcasts a transport/state message
func (s *Server) NotifyState(state multitrack.State) {
	s.broadcast(protocol.TypeTransportState, s.stateMessage(state))
}

// NotifyPosition broadcasts a transport/position message
func (s *Server) NotifyPosition(position time.Duration) {
	s.broadcast(protocol.TypeTransportPosition, protocol.TransportPosition{PositionMs: protocol.Millis(position)})
}

// NotifyFinished broadcasts a transport/finished message
func (s *Server) NotifyFinished() {
	s.broadcast(protocol.TypeTransportFinished, protocol.TransportFinished{DurationMs: protocol.Millis(s.ctrl.Duration())})
}

func (s *Server) stateMessage(state multitrack.State) protocol.TransportState {
	return protocol.TransportState{
		State:      state.String(),
		PositionMs: protocol.Millis(s.ctrl.CurrentTime()),
		DurationMs: protocol.Millis(s.ctrl.Duration()),
	}
}

func (s *Server) helloMessage() protocol.ServerHello {
	items := s.ctrl.Tracks()
	tracks := make([]protocol.TrackInfo, len(items))
	for i, item := range items {
		tracks[i] = protocol.TrackInfo{
			ID:         item.ID,
			Name:       item.Name(),
			DelayMs:    protocol.Millis(item.Delay),
			Gain:       item.Gain,
			DurationMs: protocol.Millis(item.Duration()),
			SampleRate: item.SampleRate(),
		}
	}
	return protocol.ServerHello{
		Name:       s.config.Name,
		Version:    protocol.Version,
		State:      s.ctrl.State().String(),
		DurationMs: protocol.Millis(s.ctrl.Duration()),
		PositionMs: protocol.Millis(s.ctrl.CurrentTime()),
		Tracks:     tracks,
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("WebSocket upgrade error")
		return
	}

	s.log.Debugf("New WebSocket connection from %s", r.RemoteAddr)
	s.handleConnection(conn)
}

func (s *Server) handleConnection(conn *websocket.Conn) {
	defer conn.Close()

	s.shutdownMu.RLock()
	if s.isShutdown {
		s.shutdownMu.RUnlock()
		return
	}
	s.shutdownMu.RUnlock()

	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		s.log.Debugf("Error reading hello: %v", err)
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type != protocol.TypeClientHello {
		s.log.Warnf("Expected %s, closing connection", protocol.TypeClientHello)
		return
	}

	var hello protocol.ClientHello
	if err := protocol.DecodePayload(msg, &hello); err != nil {
		s.log.WithError(err).Warn("Invalid client hello")
		return
	}

	c := &client{
		ID:       uuid.NewString(),
		Name:     hello.Name,
		Conn:     conn,
		sendChan: make(chan interface{}, 100),
	}

	s.clientsMu.Lock()
	s.clients[c.ID] = c
	s.clientsMu.Unlock()

	s.log.WithFields(logrus.Fields{"client": c.Name, "id": c.ID}).Info("Remote connected")

	defer func() {
		s.removeClient(c)
		s.log.WithField("client", c.Name).Info("Remote disconnected")
	}()

	if err := s.sendMessage(c, protocol.TypeServerHello, s.helloMessage()); err != nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(c)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debugf("WebSocket error: %v", err)
			}
			break
		}

		s.handleClientMessage(c, data)
	}
}

func (s *Server) clientWriter(c *client) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	const writeDeadline = 10 * time.Second

	for {
		select {
		case msg, ok := <-c.sendChan:
			if !ok {
				return
			}
			data, err := json.Marshal(msg)
			if err != nil {
				continue
			}
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

func (s *Server) handleClientMessage(c *client, data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Debugf("Error unmarshaling message: %v", err)
		return
	}

	if msg.Type != protocol.TypeTransportCommand {
		s.log.Debugf("Unknown message type: %s", msg.Type)
		return
	}

	var cmd protocol.TransportCommand
	if err := protocol.DecodePayload(msg, &cmd); err != nil {
		_ = s.sendMessage(c, protocol.TypeError, protocol.ErrorMessage{Message: err.Error()})
		return
	}

	if err := s.apply(cmd); err != nil {
		s.log.WithError(err).Warnf("Command %s from %s failed", cmd.Command, c.Name)
		_ = s.sendMessage(c, protocol.TypeError, protocol.ErrorMessage{Command: cmd.Command, Message: err.Error()})
	}
}

// apply runs one command against the controller
func (s *Server) apply(cmd protocol.TransportCommand) error {
	switch cmd.Command {
	case protocol.CommandPlay:
		return s.ctrl.Play()
	case protocol.CommandPause:
		s.ctrl.Pause()
	case protocol.CommandStop:
		s.ctrl.Stop()
	case protocol.CommandReload:
		s.ctrl.Reload()
	case protocol.CommandSeek:
		s.ctrl.Seek(protocol.FromMillis(cmd.DeltaMs))
	case protocol.CommandSeekTo:
		s.ctrl.SeekTo(protocol.FromMillis(cmd.PositionMs))
	case protocol.CommandSetDelay:
		return s.ctrl.SetDelay(protocol.FromMillis(cmd.DelayMs), cmd.Index)
	case protocol.CommandSetGain:
		return s.ctrl.SetGain(cmd.Gain, cmd.Index)
	default:
		return fmt.Errorf("unknown command %s", strconv.Quote(cmd.Command))
	}
	return nil
}

func (s *Server) sendMessage(c *client, msgType string, payload interface{}) error {
	msg := protocol.Message{
		Type:    msgType,
		Payload: payload,
	}

	select {
	case c.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

func (s *Server) broadcast(msgType string, payload interface{}) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()

	for _, c := range s.clients {
		if err := s.sendMessage(c, msgType, payload); err != nil {
			s.log.WithField("client", c.Name).Debugf("Dropping %s: %v", msgType, err)
		}
	}
}

func (s *Server) removeClient(c *client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()

	if _, ok := s.clients[c.ID]; !ok {
		return
	}
	delete(s.clients, c.ID)
	close(c.sendChan)
}

func (s *Server) closeClients() {
	s.clientsMu.RLock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for _, c := range s.clients {
		conns = append(conns, c.Conn)
	}
	s.clientsMu.RUnlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}
