package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/gorilla/websocket"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/game"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
)

// Connection represents a WebSocket connection to a client
type Connection struct {
	conn     *websocket.Conn
	send     chan *protocol.Message
	playerID string
	name     string
	session  *Session
	lobby    *Lobby
	clock    quartz.Clock
	logger   *log.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.RWMutex

	closeOnce sync.Once
	sendOnce  sync.Once
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, lobby *Lobby, clock quartz.Clock, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:   conn,
		send:   make(chan *protocol.Message, 256),
		lobby:  lobby,
		clock:  clock,
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Done is closed once the connection is gone
func (c *Connection) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection immediately, dropping queued messages
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		c.closeSend()
		err = c.conn.Close()
	})
	return err
}

// Finish flushes queued messages, sends a close frame and hangs up
func (c *Connection) Finish() {
	c.closeSend()
}

func (c *Connection) closeSend() {
	c.sendOnce.Do(func() { close(c.send) })
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *protocol.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed, this is expected once the match is over
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
			err = ErrConnectionClosed
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection", "player", c.PlayerID())
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// Send wraps data in a message and queues it
func (c *Connection) Send(msgType protocol.MessageType, data any) error {
	msg, err := protocol.NewMessage(msgType, data, c.clock.Now())
	if err != nil {
		c.logger.Error("Failed to create message", "type", msgType, "error", err)
		return err
	}
	return c.SendMessage(msg)
}

func (c *Connection) join(playerID, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playerID = playerID
	c.name = name
}

// PlayerID returns the ID assigned on join, or "" before
func (c *Connection) PlayerID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.playerID
}

// Name returns the display name chosen on join
func (c *Connection) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

func (c *Connection) setSession(s *Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = s
}

// Session returns the match this connection plays in, if any
func (c *Connection) Session() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var (
	ErrConnectionClosed = websocket.ErrCloseSent
)

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err, "player", c.PlayerID())
			}
			return
		}

		msg, err := protocol.Parse(frame)
		if err != nil {
			c.sendError(protocol.CodeBadMessage, err.Error())
			continue
		}
		c.handleMessage(msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *protocol.Message) {
	c.logger.Debug("Received message", "type", msg.Type, "player", c.PlayerID())

	switch msg.Type {
	case protocol.TypeJoin:
		var data protocol.JoinData
		if len(msg.Data) > 0 {
			if err := msg.Decode(&data); err != nil {
				c.sendError(protocol.CodeBadMessage, err.Error())
				return
			}
		}
		if err := c.lobby.Join(c, data.Name); err != nil {
			c.sendErr(err)
		}

	case protocol.TypeAction:
		session := c.Session()
		if session == nil {
			c.sendError(protocol.CodeNotJoined, "no match in progress, join first")
			return
		}
		var data protocol.ActionData
		if err := msg.Decode(&data); err != nil {
			c.sendError(protocol.CodeBadMessage, err.Error())
			return
		}
		action, err := protocol.ToAction(data)
		if err != nil {
			c.sendErr(err)
			return
		}
		if err := session.Apply(c.PlayerID(), action); err != nil {
			c.logger.Debug("Action rejected", "player", c.PlayerID(), "action", action, "error", err)
			c.sendErr(err)
		}

	default:
		c.sendError(protocol.CodeUnknownType, "Unknown message type: "+msg.Type.String())
	}
}

// sendError sends an error message to the client
func (c *Connection) sendError(code, message string) {
	_ = c.Send(protocol.TypeError, protocol.ErrorData{Code: code, Message: message})
}

func (c *Connection) sendErr(err error) {
	var lobbyErr *LobbyError
	if errors.As(err, &lobbyErr) {
		c.sendError(lobbyErr.Code, lobbyErr.Msg)
		return
	}
	_ = c.Send(protocol.TypeError, protocol.ErrorFromErr(err))
}

// seat describes the connection as a match participant
func (c *Connection) seat() game.Seat {
	return game.Seat{ID: c.PlayerID(), Name: c.Name()}
}
