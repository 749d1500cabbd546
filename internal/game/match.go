package game

import (
	"cmp"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/deck"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/gameid"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/randutil"
)

// Seat identifies a player joining a match
type Seat struct {
	ID   string
	Name string
}

// Standing is one line of the final results
type Standing struct {
	Rank     int
	PlayerID string
	Name     string
	Stack    int
	Status   Status
}

// Match runs a fixed number of rounds between two players. Every mutating
// method is serialized, and the events it produces are delivered to the
// subscriber in order after the state lock is released. Subscribers must not
// call back into the match from OnEvent.
type Match struct {
	mu         sync.RWMutex
	dispatchMu sync.Mutex

	id           string
	cfg          MatchConfig
	players      [2]*Player
	round        *Round
	roundsPlayed int
	over         bool
	chipTotal    int

	clock      quartz.Clock
	turnClock  *TurnClock
	advance    *quartz.Timer
	rng        *rand.Rand
	decks      func(round int) *deck.Deck
	logger     *log.Logger
	subscriber EventSubscriber
}

// MatchOption configures a Match
type MatchOption func(*Match)

// WithClock sets the clock used for turn deadlines and round delays
func WithClock(clock quartz.Clock) MatchOption {
	return func(m *Match) { m.clock = clock }
}

// WithRand sets the random source used to shuffle each round's deck
func WithRand(rng *rand.Rand) MatchOption {
	return func(m *Match) { m.rng = rng }
}

// WithDecks replaces shuffling with a deck supplied per round number
func WithDecks(fn func(round int) *deck.Deck) MatchOption {
	return func(m *Match) { m.decks = fn }
}

// WithLogger sets the match logger
func WithLogger(logger *log.Logger) MatchOption {
	return func(m *Match) { m.logger = logger }
}

// WithEventSubscriber sets the receiver of match events
func WithEventSubscriber(sub EventSubscriber) MatchOption {
	return func(m *Match) { m.subscriber = sub }
}

// WithID overrides the generated match ID
func WithID(id string) MatchOption {
	return func(m *Match) { m.id = id }
}

// NewMatch seats two players with the configured starting stack
func NewMatch(cfg MatchConfig, seats [2]Seat, opts ...MatchOption) (*Match, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid match config: %w", err)
	}
	if seats[0].ID == "" || seats[1].ID == "" || seats[0].ID == seats[1].ID {
		return nil, fmt.Errorf("match needs two distinct player IDs, got %q and %q", seats[0].ID, seats[1].ID)
	}

	m := &Match{
		cfg:        cfg,
		clock:      quartz.NewReal(),
		logger:     log.New(io.Discard),
		subscriber: nopSubscriber{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.id == "" {
		m.id = gameid.Generate()
	}
	if m.rng == nil {
		m.rng = randutil.New(randutil.Seed())
	}
	if m.decks == nil {
		m.decks = func(int) *deck.Deck { return deck.NewShuffled(m.rng) }
	}
	m.logger = m.logger.With("match", m.id)
	m.turnClock = NewTurnClock(m.clock, cfg.TurnTimeout)

	for i, s := range seats {
		name := s.Name
		if name == "" {
			name = s.ID
		}
		m.players[i] = &Player{ID: s.ID, Name: name, Seat: i, Stack: cfg.StartingStack}
		m.chipTotal += cfg.StartingStack
	}
	return m, nil
}

// ID returns the match identifier
func (m *Match) ID() string { return m.id }

// Config returns the rules the match was created with
func (m *Match) Config() MatchConfig { return m.cfg }

// IsOver reports whether the match has finished
func (m *Match) IsOver() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.over
}

// mutate runs fn under the state lock and then publishes its events. The
// dispatch lock is taken before the state lock is released so that events of
// consecutive mutations never interleave.
func (m *Match) mutate(fn func() ([]GameEvent, error)) error {
	m.mu.Lock()
	events, err := fn()
	if len(events) > 0 {
		events = append(events, m.sync()...)
	}
	m.dispatchMu.Lock()
	m.mu.Unlock()
	defer m.dispatchMu.Unlock()

	for _, e := range events {
		m.subscriber.OnEvent(e)
	}
	return err
}

func (m *Match) seatOf(playerID string) (int, error) {
	for i, p := range m.players {
		if p.ID == playerID {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", ErrUnknownPlayer, playerID)
}

func (m *Match) liveRound() *Round {
	if m.round != nil && m.round.Live() {
		return m.round
	}
	return nil
}

// StartRound deals the next round
func (m *Match) StartRound() error {
	return m.mutate(func() ([]GameEvent, error) {
		switch {
		case m.over:
			return nil, ErrMatchOver
		case m.liveRound() != nil:
			return nil, ErrRoundInProgress
		}
		for _, p := range m.players {
			if p.Status.Departed() {
				return nil, ErrNotEnoughPlayers
			}
		}
		m.stopAdvance()

		number := m.roundsPlayed + 1
		first := m.roundsPlayed % 2
		if m.players[0].Stack == 0 || m.players[1].Stack == 0 {
			if m.cfg.Elimination != EliminationPlayOut {
				return nil, ErrNotEnoughPlayers
			}
			return m.forfeitRound(number), nil
		}

		m.round = newRound(roundSetup{
			number:  number,
			total:   m.cfg.Rounds,
			first:   first,
			timeout: m.turnClock.Timeout(),
			now:     m.clock.Now,
		}, m.players, m.decks(number))
		m.logger.Debug("Starting round", "round", number, "first", m.players[first].ID)
		return m.round.start(), nil
	})
}

// forfeitRound records a round nobody can play because a stack is empty
func (m *Match) forfeitRound(number int) []GameEvent {
	var winners []string
	for _, p := range m.players {
		if p.Stack > 0 {
			winners = append(winners, p.ID)
		}
	}
	r := newRound(roundSetup{number: number, total: m.cfg.Rounds, now: m.clock.Now}, m.players, nil)
	m.round = r
	m.logger.Info("Round forfeited", "round", number, "winners", winners)
	return []GameEvent{r.finish(RoundOutcome{Mechanism: Forfeit, Winners: winners})}
}

// Apply submits a player's action
func (m *Match) Apply(playerID string, a Action) error {
	return m.mutate(func() ([]GameEvent, error) {
		seat, err := m.seatOf(playerID)
		if err != nil {
			return nil, err
		}
		if m.over {
			return nil, ErrMatchOver
		}
		r := m.liveRound()
		if r == nil {
			return nil, invalid(CodeRoundClosed, "no round in progress")
		}
		events, err := r.apply(seat, a)
		if err != nil {
			m.logger.Debug("Rejected action", "player", playerID, "action", a, "error", err)
			return nil, err
		}
		m.logger.Debug("Applied action", "player", playerID, "action", a, "pot", r.Pot())
		return events, nil
	})
}

// OnTimeout folds the player if it is still their turn. Calls for any other
// player are ignored.
func (m *Match) OnTimeout(playerID string) error {
	return m.mutate(func() ([]GameEvent, error) {
		seat, err := m.seatOf(playerID)
		if err != nil {
			return nil, err
		}
		r := m.liveRound()
		if r == nil || r.actor != seat {
			return nil, nil
		}
		return m.forceFold(r, seat), nil
	})
}

// expire is the turn clock callback
func (m *Match) expire(playerID string, turn uint64) {
	_ = m.mutate(func() ([]GameEvent, error) {
		r := m.liveRound()
		if r == nil || r.turn != turn || r.players[r.actor].ID != playerID {
			m.logger.Debug("Ignoring stale turn timer", "player", playerID, "turn", turn)
			return nil, nil
		}
		return m.forceFold(r, r.actor), nil
	})
}

func (m *Match) forceFold(r *Round, seat int) []GameEvent {
	m.logger.Info("Player timed out", "player", m.players[seat].ID, "stage", r.Stage())
	return r.expireTurn(seat)
}

// OnDisconnect removes a player from the match. A live round is lost by fold;
// between rounds the match simply ends.
func (m *Match) OnDisconnect(playerID string) error {
	return m.mutate(func() ([]GameEvent, error) {
		seat, err := m.seatOf(playerID)
		if err != nil {
			return nil, err
		}
		p := m.players[seat]
		if p.Status.Departed() {
			return nil, nil
		}
		m.logger.Info("Player disconnected", "player", playerID)

		if r := m.liveRound(); r != nil {
			return r.leave(seat), nil
		}
		p.Status = Disconnected
		events := []GameEvent{PlayerLeftEvent{PlayerID: p.ID, Reason: LeaveDisconnect, timestamp: m.clock.Now()}}
		if !m.over {
			events = append(events, m.finishMatch())
		}
		return events, nil
	})
}

// sync brings the turn clock and match bookkeeping in line with the round
// after a mutation. It returns any match level events.
func (m *Match) sync() []GameEvent {
	r := m.round
	if r == nil {
		return nil
	}
	if r.Live() {
		if _, turn, ok := m.turnClock.Armed(); !ok || turn != r.turn {
			m.turnClock.Start(r.players[r.actor].ID, r.turn, m.expire)
		}
		return nil
	}
	m.turnClock.Stop()

	// The round has just ended.
	if m.roundsPlayed >= r.number {
		return nil
	}
	m.roundsPlayed = r.number
	m.checkChips()

	o := r.outcome
	if o.Mechanism == Aborted {
		m.logger.Error("Round aborted", "round", r.number, "error", o.Err)
	} else {
		m.logger.Info("Round over", "round", r.number, "mechanism", o.Mechanism, "winners", o.Winners, "pot", o.Pot)
	}

	if m.shouldEnd() {
		return []GameEvent{m.finishMatch()}
	}
	if m.cfg.AutoAdvance {
		m.advance = m.clock.AfterFunc(m.cfg.RoundDelay, func() {
			if err := m.StartRound(); err != nil {
				m.logger.Warn("Could not start next round", "error", err)
			}
		}, "round")
	}
	return nil
}

func (m *Match) shouldEnd() bool {
	if m.roundsPlayed >= m.cfg.Rounds {
		return true
	}
	for _, p := range m.players {
		if p.Status.Departed() {
			return true
		}
		if p.Stack == 0 && m.cfg.Elimination == EliminationEndMatch {
			return true
		}
	}
	return false
}

func (m *Match) checkChips() {
	sum := 0
	for _, p := range m.players {
		sum += p.Stack
	}
	if sum != m.chipTotal {
		m.logger.Error("Chip conservation violated", "expected", m.chipTotal, "actual", sum)
	}
}

func (m *Match) finishMatch() GameEvent {
	m.over = true
	m.stopAdvance()
	m.turnClock.Stop()
	standings := m.standings()
	m.logger.Info("Match over", "rounds", m.roundsPlayed, "winner", standings[0].PlayerID)
	return MatchOverEvent{
		MatchID:      m.id,
		RoundsPlayed: m.roundsPlayed,
		Standings:    standings,
		timestamp:    m.clock.Now(),
	}
}

func (m *Match) stopAdvance() {
	if m.advance != nil {
		m.advance.Stop()
		m.advance = nil
	}
}

// Standings ranks seated players by stack, ahead of players who left
func (m *Match) Standings() []Standing {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.standings()
}

func (m *Match) standings() []Standing {
	ordered := slices.Clone(m.players[:])
	slices.SortStableFunc(ordered, func(a, b *Player) int {
		if a.Status.Departed() != b.Status.Departed() {
			if a.Status.Departed() {
				return 1
			}
			return -1
		}
		return cmp.Compare(b.Stack, a.Stack)
	})

	out := make([]Standing, len(ordered))
	for i, p := range ordered {
		out[i] = Standing{Rank: i + 1, PlayerID: p.ID, Name: p.Name, Stack: p.Stack, Status: p.Status}
	}
	return out
}

// PlayerSnapshot is the public view of a player
type PlayerSnapshot struct {
	ID     string
	Name   string
	Seat   int
	Stack  int
	Status Status
	Bet    int
}

// RoundSnapshot is the public view of the current round
type RoundSnapshot struct {
	Number int
	Stage  Stage
	Actor  string // empty once the round is over
	Turn   uint64
	Pot    int
	ToCall int
	Board  []deck.Card
}

// MatchSnapshot is a consistent read-only copy of the match state
type MatchSnapshot struct {
	ID           string
	Rounds       int
	RoundsPlayed int
	Over         bool
	Players      []PlayerSnapshot
	Round        *RoundSnapshot
	Deadline     time.Time // zero when no turn clock is running
}

// Snapshot returns the current state without hole cards
func (m *Match) Snapshot() MatchSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MatchSnapshot{
		ID:           m.id,
		Rounds:       m.cfg.Rounds,
		RoundsPlayed: m.roundsPlayed,
		Over:         m.over,
	}
	for _, p := range m.players {
		snap.Players = append(snap.Players, PlayerSnapshot{
			ID: p.ID, Name: p.Name, Seat: p.Seat, Stack: p.Stack, Status: p.Status, Bet: p.Bet,
		})
	}
	if r := m.round; r != nil {
		rs := &RoundSnapshot{
			Number: r.number,
			Stage:  r.stage,
			Turn:   r.turn,
			Pot:    r.pot.Total(),
			Board:  r.Board(),
		}
		if r.Live() {
			rs.Actor = r.players[r.actor].ID
			rs.ToCall = r.ToCall(r.actor)
		}
		snap.Round = rs
	}
	snap.Deadline = m.turnClock.Deadline()
	return snap
}

// HoleCards returns a player's private cards for the current round
func (m *Match) HoleCards(playerID string) ([]deck.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seat, err := m.seatOf(playerID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(m.players[seat].Hole), nil
}
