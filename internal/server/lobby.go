package server

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/game"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/gameid"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
)

// Observer watches every match the lobby starts
type Observer interface {
	Watch(matchID string, seats [2]game.Seat) game.EventSubscriber
}

// LobbyError is a join failure reported to the client
type LobbyError struct {
	Code string
	Msg  string
}

func (e *LobbyError) Error() string { return e.Msg }

// Lobby pairs joining connections two at a time and runs a match for each
// pair
type Lobby struct {
	mu        sync.Mutex
	waiting   *Connection
	waitTimer *quartz.Timer
	sessions  map[string]*Session

	matchCfg    game.MatchConfig
	joinTimeout time.Duration
	maxMatches  int
	observers   []Observer
	matchOpts   []game.MatchOption
	archive     *Archive
	clock       quartz.Clock
	logger      *log.Logger
}

// NewLobby creates a lobby that starts matches with the given rules
func NewLobby(matchCfg game.MatchConfig, joinTimeout time.Duration, maxMatches int, clock quartz.Clock, logger *log.Logger) *Lobby {
	return &Lobby{
		sessions:    make(map[string]*Session),
		matchCfg:    matchCfg,
		joinTimeout: joinTimeout,
		maxMatches:  maxMatches,
		clock:       clock,
		logger:      logger.WithPrefix("lobby"),
	}
}

// AddObserver registers a watcher for matches started from now on
func (l *Lobby) AddObserver(o Observer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.observers = append(l.observers, o)
}

// Join seats a connection. The first player waits; the second starts a match.
func (l *Lobby) Join(c *Connection, name string) error {
	l.mu.Lock()

	if c.PlayerID() != "" {
		l.mu.Unlock()
		return &LobbyError{Code: protocol.CodeAlreadyJoined, Msg: "already joined"}
	}
	if l.maxMatches > 0 && len(l.sessions) >= l.maxMatches {
		l.mu.Unlock()
		return &LobbyError{Code: protocol.CodeServerFull, Msg: fmt.Sprintf("server is running %d matches, try again later", l.maxMatches)}
	}

	id := uuid.NewString()
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Player-" + id[:4]
	}
	c.join(id, name)
	l.logger.Info("Player joined", "player", id, "name", name)

	if l.waiting == nil {
		l.waiting = c
		if l.joinTimeout > 0 {
			l.waitTimer = l.clock.AfterFunc(l.joinTimeout, func() { l.expireWaiting(c) }, "join")
		}
		l.mu.Unlock()
		return c.Send(protocol.TypeWaiting, protocol.WaitingData{Message: "Waiting for an opponent..."})
	}

	opponent := l.waiting
	l.waiting = nil
	l.stopWaitTimer()
	session, err := l.newSession([2]*Connection{opponent, c})
	l.mu.Unlock()
	if err != nil {
		return err
	}

	session.Begin()
	return nil
}

// newSession must be called with l.mu held
func (l *Lobby) newSession(conns [2]*Connection) (*Session, error) {
	id := gameid.Generate()
	seats := [2]game.Seat{conns[0].seat(), conns[1].seat()}

	session := newSession(id, conns, l.clock, l.logger, l.archive, l.remove)
	bus := game.NewEventBus(session)
	for _, o := range l.observers {
		bus.Subscribe(o.Watch(id, seats))
	}

	opts := append([]game.MatchOption{
		game.WithID(id),
		game.WithClock(l.clock),
		game.WithLogger(l.logger.WithPrefix("match")),
		game.WithEventSubscriber(bus),
	}, l.matchOpts...)
	match, err := game.NewMatch(l.matchCfg, seats, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	session.match = match

	l.sessions[id] = session
	for _, c := range conns {
		c.setSession(session)
	}
	l.logger.Info("Match created", "match", id, "players", []string{seats[0].Name, seats[1].Name})
	return session, nil
}

func (l *Lobby) expireWaiting(c *Connection) {
	l.mu.Lock()
	if l.waiting != c {
		l.mu.Unlock()
		return
	}
	l.waiting = nil
	l.waitTimer = nil
	l.mu.Unlock()

	l.logger.Info("No opponent arrived", "player", c.PlayerID())
	c.sendError(protocol.CodeJoinTimeout, "Timed out waiting for players.")
	c.Finish()
}

func (l *Lobby) stopWaitTimer() {
	if l.waitTimer != nil {
		l.waitTimer.Stop()
		l.waitTimer = nil
	}
}

// Leave handles a connection that went away, waiting or mid-match
func (l *Lobby) Leave(c *Connection) {
	l.mu.Lock()
	if l.waiting == c {
		l.waiting = nil
		l.stopWaitTimer()
	}
	l.mu.Unlock()

	if s := c.Session(); s != nil {
		s.Disconnect(c.PlayerID())
	}
}

func (l *Lobby) remove(s *Session) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sessions, s.ID())
}

// Matches returns snapshots of every running match ordered by ID
func (l *Lobby) Matches() []game.MatchSnapshot {
	l.mu.Lock()
	ids := slices.Sorted(maps.Keys(l.sessions))
	sessions := make([]*Session, len(ids))
	for i, id := range ids {
		sessions[i] = l.sessions[id]
	}
	l.mu.Unlock()

	snaps := make([]game.MatchSnapshot, len(sessions))
	for i, s := range sessions {
		snaps[i] = s.match.Snapshot()
	}
	return snaps
}

// Waiting reports whether a player is waiting for an opponent
func (l *Lobby) Waiting() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.waiting != nil
}
