package bridge

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"

	"github.com/casement-dev/casement/internal/events"
	"github.com/casement-dev/casement/internal/route"
)

// Controller dispatches a routed operation. An empty scope targets the
// global table; otherwise scope names a window handle. The bool is false
// when no route matched; the error reports dispatch-level failures such as
// an unknown scope.
type Controller interface {
	Dispatch(ctx context.Context, scope string, method route.Method, path string, body json.RawMessage) (route.Outcome, bool, error)
}

// subscriberBuffer is the per-connection event queue. Slow readers drop,
// they never block the hub.
const subscriberBuffer = 32

// Server accepts bridge connections on a unix socket and relays calls to
// the controller and published events to subscribers.
type Server struct {
	socketPath string
	listener   net.Listener
	ctrl       Controller
	hub        *events.Hub
	logger     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	connsMu sync.Mutex
	conns   map[*serverConn]struct{}

	shutdownMu   sync.Mutex
	shuttingDown bool
}

// NewServer creates a bridge server for the given socket path. The hub may
// be nil when event delivery is not needed (tests).
func NewServer(socketPath string, ctrl Controller, hub *events.Hub, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())

	// Remove existing socket if present
	os.Remove(socketPath)

	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
		hub:        hub,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		conns:      make(map[*serverConn]struct{}),
	}
}

// Start begins listening for bridge connections
func (s *Server) Start() error {
	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create bridge socket: %w", err)
	}
	s.listener = listener

	// Set socket permissions
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.logger.Info("bridge listening", "socket", s.socketPath)

	go s.acceptLoop()

	return nil
}

// SocketPath returns the path the server listens on.
func (s *Server) SocketPath() string {
	return s.socketPath
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			s.shutdownMu.Lock()
			if s.shuttingDown {
				s.shutdownMu.Unlock()
				return
			}
			s.shutdownMu.Unlock()
			s.logger.Warn("bridge accept error", "error", err)
			continue
		}

		go s.handleConnection(conn)
	}
}

type serverConn struct {
	nc      net.Conn
	writeMu sync.Mutex

	subMu sync.Mutex
	sub   *events.Subscription
}

func (c *serverConn) writeFrame(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.nc.Write(data)
	return err
}

func (s *Server) handleConnection(nc net.Conn) {
	c := &serverConn{nc: nc}

	s.connsMu.Lock()
	s.conns[c] = struct{}{}
	s.connsMu.Unlock()

	defer func() {
		s.connsMu.Lock()
		delete(s.conns, c)
		s.connsMu.Unlock()
		s.dropSubscription(c)
		nc.Close()
	}()

	reader := bufio.NewReader(nc)
	for {
		data, err := reader.ReadBytes('\n')
		if err != nil {
			return
		}
		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}

		req, err := ParseRequest(data)
		if err != nil {
			c.writeFrame(NewErrorReply(0, fmt.Sprintf("invalid request: %v", err), nil))
			continue
		}

		switch req.Command {
		case CommandCall:
			// Calls run off the read loop so one slow handler does not
			// starve pipelined requests on the same connection.
			go s.handleCall(c, req)
		case CommandSubscribe:
			s.handleSubscribe(c, req)
		case CommandUnsubscribe:
			s.dropSubscription(c)
			if reply, err := NewOKReply(req.ID, nil); err == nil {
				c.writeFrame(reply)
			}
		default:
			c.writeFrame(NewErrorReply(req.ID, fmt.Sprintf("unknown command: %s", req.Command), nil))
		}
	}
}

func (s *Server) handleCall(c *serverConn, req *Request) {
	var call CallPayload
	if err := json.Unmarshal(req.Payload, &call); err != nil {
		c.writeFrame(NewErrorReply(req.ID, fmt.Sprintf("invalid call payload: %v", err), nil))
		return
	}

	method, err := route.ParseMethod(call.Method)
	if err != nil {
		c.writeFrame(NewErrorReply(req.ID, err.Error(), nil))
		return
	}

	out, found, err := s.ctrl.Dispatch(s.ctx, call.Scope, method, call.Path, call.Body)
	c.writeFrame(outcomeReply(req.ID, method, call.Path, out, found, err))
}

// outcomeReply maps a dispatch outcome onto the wire. Faults carry their
// structured form in the data field alongside the message.
func outcomeReply(id int64, method route.Method, path string, out route.Outcome, found bool, err error) *Reply {
	if err != nil {
		return NewErrorReply(id, err.Error(), nil)
	}
	if !found {
		return NewErrorReply(id, fmt.Sprintf("no route for %s %s", method, path), nil)
	}
	if out.Fault != nil {
		return NewErrorReply(id, out.Fault.Message, out.Fault)
	}
	reply, err := NewOKReply(id, out.Value)
	if err != nil {
		return NewErrorReply(id, fmt.Sprintf("failed to encode result: %v", err), nil)
	}
	return reply
}

func (s *Server) handleSubscribe(c *serverConn, req *Request) {
	if s.hub == nil {
		c.writeFrame(NewErrorReply(req.ID, "events unavailable", nil))
		return
	}

	var payload SubscribePayload
	if len(req.Payload) > 0 {
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			c.writeFrame(NewErrorReply(req.ID, fmt.Sprintf("invalid subscribe payload: %v", err), nil))
			return
		}
	}

	// A second subscribe replaces the first.
	s.dropSubscription(c)

	sub := s.hub.Subscribe(subscriberBuffer, payload.Topics...)
	c.subMu.Lock()
	c.sub = sub
	c.subMu.Unlock()

	if reply, err := NewOKReply(req.ID, SubscribePayload{Topics: payload.Topics}); err == nil {
		c.writeFrame(reply)
	}

	go s.pumpEvents(c, sub)
}

func (s *Server) pumpEvents(c *serverConn, sub *events.Subscription) {
	for ev := range sub.C {
		data, err := json.Marshal(ev.Data)
		if err != nil {
			s.logger.Warn("event payload not encodable", "event", ev.Name, "error", err)
			continue
		}
		frame := EventFrame{
			Type:  FrameEvent,
			Event: ev.Name,
			Time:  ev.Time,
			Data:  data,
		}
		if err := c.writeFrame(frame); err != nil {
			// Dead connection; the read loop cleans up.
			return
		}
	}
}

func (s *Server) dropSubscription(c *serverConn) {
	c.subMu.Lock()
	sub := c.sub
	c.sub = nil
	c.subMu.Unlock()
	if sub != nil {
		sub.Cancel()
	}
}

// Stop shuts the server down: no new connections, in-flight dispatches
// canceled, existing connections closed.
func (s *Server) Stop() {
	s.shutdownMu.Lock()
	s.shuttingDown = true
	s.shutdownMu.Unlock()

	s.cancel()

	if s.listener != nil {
		s.listener.Close()
	}

	s.connsMu.Lock()
	for c := range s.conns {
		c.nc.Close()
	}
	s.connsMu.Unlock()

	os.Remove(s.socketPath)
}
