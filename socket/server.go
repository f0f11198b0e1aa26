package socket

import (
	"context"
	"strconv"

	socketio "github.com/googollee/go-socket.io"

	"wedmatch_server/logger"
	"wedmatch_server/notify"
)

// Server pushes engine events to connected clients. Clients join "user:<id>" and
// "match:<id>" rooms with the join event.
type Server struct {
	io  *socketio.Server
	log *logger.Logger
}

type joinRequest struct {
	UserID  string `json:"userId"`
	MatchID string `json:"matchId"`
}

// NewSocketServer initializes and returns a new Socket.IO server
func NewSocketServer(baseLog *logger.Logger) *Server {
	s := &Server{io: socketio.NewServer(nil), log: baseLog.With("component", "socket")}

	s.io.OnConnect("/", func(c socketio.Conn) error {
		s.log.Debug("✅ socket connected", "socket_id", c.ID())
		return nil
	})

	s.io.OnEvent("/", "join", func(c socketio.Conn, req joinRequest) {
		if req.UserID != "" {
			id, err := strconv.ParseInt(req.UserID, 10, 64)
			if err != nil || id <= 0 {
				s.log.Warn("❌ invalid userId in join request", "socket_id", c.ID(), "user_id", req.UserID)
				return
			}
			c.Join(notify.UserRoom(id))
		}
		if req.MatchID != "" {
			c.Join(notify.MatchRoom(req.MatchID))
		}
		s.log.Debug("👥 socket joined", "socket_id", c.ID(), "rooms", c.Rooms())
	})

	s.io.OnError("/", func(c socketio.Conn, err error) {
		s.log.Warn("socket error", "error", err)
	})

	s.io.OnDisconnect("/", func(c socketio.Conn, reason string) {
		s.log.Debug("❌ socket disconnected", "socket_id", c.ID(), "reason", reason)
	})

	return s
}

// Handler serves the socket.io endpoint.
func (s *Server) Handler() *socketio.Server { return s.io }

// Serve runs the engine loop until Close.
func (s *Server) Serve() error { return s.io.Serve() }

func (s *Server) Close() error { return s.io.Close() }

// Emit broadcasts the event to every room it is addressed to.
func (s *Server) Emit(_ context.Context, eventType string, payload map[string]interface{}) error {
	for _, room := range notify.Rooms(eventType, payload) {
		s.io.BroadcastToRoom("/", room, eventType, payload)
	}
	return nil
}
