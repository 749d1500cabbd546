package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/game"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
)

// Server represents the WebSocket server
type Server struct {
	cfg         *Config
	upgrader    websocket.Upgrader
	connections map[*Connection]bool
	register    chan *Connection
	unregister  chan *Connection
	lobby       *Lobby
	clock       quartz.Clock
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	httpServer  *http.Server
}

// Option configures a Server
type Option func(*Server)

// WithClock sets the clock driving turn deadlines, round delays and join timeouts
func WithClock(clock quartz.Clock) Option {
	return func(s *Server) { s.clock = clock }
}

// WithObserver attaches a match observer such as the console monitor
func WithObserver(o Observer) Option {
	return func(s *Server) { s.lobby.AddObserver(o) }
}

// WithMatchOptions passes extra options to every match, e.g. fixed decks in tests
func WithMatchOptions(opts ...game.MatchOption) Option {
	return func(s *Server) { s.lobby.matchOpts = append(s.lobby.matchOpts, opts...) }
}

// NewServer creates a new WebSocket server
func NewServer(cfg *Config, logger *log.Logger, opts ...Option) (*Server, error) {
	matchCfg, err := cfg.MatchConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid match config: %w", err)
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		connections: make(map[*Connection]bool),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		clock:       quartz.NewReal(),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}
	s.lobby = NewLobby(matchCfg, cfg.JoinTimeout(), cfg.Server.MaxMatches, s.clock, logger)
	if cfg.Server.ResultsDir != "" {
		archive, err := NewArchive(cfg.Server.ResultsDir)
		if err != nil {
			cancel()
			return nil, err
		}
		s.lobby.archive = archive
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lobby.clock = s.clock

	go s.run()
	return s, nil
}

// Handler returns the HTTP routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/matches", s.handleMatches)
	return mux
}

// Serve accepts connections on l until Shutdown is called
func (s *Server) Serve(l net.Listener) error {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return l.Close()
	}
	s.httpServer = &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	srv := s.httpServer
	s.mu.Unlock()

	s.logger.Info("Starting WebSocket server", "addr", l.Addr().String())
	if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start listens on the configured address and serves until Shutdown
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address(), err)
	}
	return s.Serve(l)
}

// Shutdown stops accepting connections and closes the open ones. Running
// matches end as their players disconnect.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.cancel()
	srv := s.httpServer
	s.mu.Unlock()

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}

	s.mu.RLock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	s.mu.RUnlock()

	for _, conn := range conns {
		s.lobby.Leave(conn)
		_ = conn.Close()
	}
	return err
}

// Lobby returns the lobby pairing players into matches
func (s *Server) Lobby() *Lobby { return s.lobby }

// run handles connection lifecycle
func (s *Server) run() {
	for {
		select {
		case conn := <-s.register:
			s.mu.Lock()
			s.connections[conn] = true
			total := len(s.connections)
			s.mu.Unlock()
			s.logger.Debug("Client connected", "total", total)

		case conn := <-s.unregister:
			s.mu.Lock()
			_, ok := s.connections[conn]
			delete(s.connections, conn)
			total := len(s.connections)
			s.mu.Unlock()

			if ok {
				if playerID := conn.PlayerID(); playerID != "" {
					s.logger.Info("Cleaning up disconnected player", "player", playerID)
				}
				s.lobby.Leave(conn)
				_ = conn.Close()
			}
			s.logger.Debug("Client disconnected", "total", total)

		case <-s.ctx.Done():
			return
		}
	}
}

// handleWebSocket handles WebSocket upgrade requests
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	client := NewConnection(conn, s.lobby, s.clock, s.logger)
	select {
	case s.register <- client:
	case <-s.ctx.Done():
		_ = conn.Close()
		return
	}
	client.Start()

	// Connection cleanup is handled by the connection itself
	go func() {
		<-client.Done()
		select {
		case s.unregister <- client:
		case <-s.ctx.Done():
		}
	}()
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

// handleMatches lists the running matches as JSON
func (s *Server) handleMatches(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	snaps := s.lobby.Matches()
	summaries := make([]protocol.MatchSummary, len(snaps))
	for i, snap := range snaps {
		summaries[i] = protocol.SummaryFromSnapshot(snap)
	}
	if err := json.NewEncoder(w).Encode(summaries); err != nil {
		s.logger.Error("Failed to encode matches", "error", err)
	}
}
