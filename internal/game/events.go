package game

import (
	"slices"
	"sync"
	"time"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/deck"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/evaluator"
)

// EventType represents a game event type with type safety
type EventType string

const (
	EventTypeRoundStarted   EventType = "round_started"
	EventTypeHoleCardsDealt EventType = "hole_cards_dealt"
	EventTypeCommunityDealt EventType = "community_dealt"
	EventTypeActionApplied  EventType = "action_applied"
	EventTypeTurnChanged    EventType = "turn_changed"
	EventTypePlayerTimedOut EventType = "player_timed_out"
	EventTypePlayerLeft     EventType = "player_left"
	EventTypePlayerEjected  EventType = "player_ejected"
	EventTypeRoundOver      EventType = "round_over"
	EventTypeMatchOver      EventType = "match_over"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// GameEvent represents anything observable that happens in a match
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

// PrivateEvent is implemented by events only one player may see
type PrivateEvent interface {
	GameEvent
	Recipient() string
}

// EventSubscriber receives the events of a match in the order they happened
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventSubscriberFunc adapts a function to EventSubscriber
type EventSubscriberFunc func(event GameEvent)

func (f EventSubscriberFunc) OnEvent(event GameEvent) { f(event) }

type nopSubscriber struct{}

func (nopSubscriber) OnEvent(GameEvent) {}

// EventBus fans events out to every subscriber in subscription order. It is
// itself an EventSubscriber so it can be handed to a Match.
type EventBus struct {
	mu          sync.RWMutex
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus(subscribers ...EventSubscriber) *EventBus {
	bus := &EventBus{}
	for _, s := range subscribers {
		bus.Subscribe(s)
	}
	return bus
}

// Subscribe adds a subscriber to receive events. Nil subscribers are ignored.
func (bus *EventBus) Subscribe(subscriber EventSubscriber) {
	if subscriber == nil {
		return
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events
func (bus *EventBus) Unsubscribe(subscriber EventSubscriber) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	if i := slices.Index(bus.subscribers, subscriber); i >= 0 {
		bus.subscribers = slices.Delete(bus.subscribers, i, i+1)
	}
}

// Publish sends an event to all subscribers
func (bus *EventBus) Publish(event GameEvent) {
	bus.mu.RLock()
	subscribers := slices.Clone(bus.subscribers)
	bus.mu.RUnlock()

	for _, s := range subscribers {
		s.OnEvent(event)
	}
}

func (bus *EventBus) OnEvent(event GameEvent) { bus.Publish(event) }

// RoundStartedEvent is published when a round begins
type RoundStartedEvent struct {
	Round       int
	TotalRounds int
	FirstPlayer string
	Players     []PlayerStack
	timestamp   time.Time
}

func (e RoundStartedEvent) EventType() EventType { return EventTypeRoundStarted }
func (e RoundStartedEvent) Timestamp() time.Time { return e.timestamp }

// HoleCardsDealtEvent carries one player's private cards
type HoleCardsDealtEvent struct {
	PlayerID  string
	Cards     []deck.Card
	timestamp time.Time
}

func (e HoleCardsDealtEvent) EventType() EventType { return EventTypeHoleCardsDealt }
func (e HoleCardsDealtEvent) Timestamp() time.Time { return e.timestamp }
func (e HoleCardsDealtEvent) Recipient() string    { return e.PlayerID }

// CommunityDealtEvent is published when the board grows
type CommunityDealtEvent struct {
	Stage     Stage
	Cards     []deck.Card // revealed by this deal
	Board     []deck.Card // whole board after the deal
	timestamp time.Time
}

func (e CommunityDealtEvent) EventType() EventType { return EventTypeCommunityDealt }
func (e CommunityDealtEvent) Timestamp() time.Time { return e.timestamp }

// ActionAppliedEvent is published for every accepted action, including forced folds
type ActionAppliedEvent struct {
	PlayerID  string
	Stage     Stage
	Action    Action
	Pot       int
	Stack     int
	AllIn     bool
	timestamp time.Time
}

func (e ActionAppliedEvent) EventType() EventType { return EventTypeActionApplied }
func (e ActionAppliedEvent) Timestamp() time.Time { return e.timestamp }

// TurnChangedEvent announces who must act next and what they face
type TurnChangedEvent struct {
	PlayerID  string
	Stage     Stage
	Turn      uint64
	Pot       int
	ToCall    int
	Stack     int
	Board     []deck.Card
	Timeout   time.Duration
	timestamp time.Time
}

func (e TurnChangedEvent) EventType() EventType { return EventTypeTurnChanged }
func (e TurnChangedEvent) Timestamp() time.Time { return e.timestamp }

// PlayerTimedOutEvent precedes the forced fold of a player whose turn expired
type PlayerTimedOutEvent struct {
	PlayerID  string
	Stage     Stage
	timestamp time.Time
}

func (e PlayerTimedOutEvent) EventType() EventType { return EventTypePlayerTimedOut }
func (e PlayerTimedOutEvent) Timestamp() time.Time { return e.timestamp }

// LeaveReason says why a player left the match
type LeaveReason string

const (
	LeaveQuit       LeaveReason = "quit"
	LeaveDisconnect LeaveReason = "disconnect"
)

// PlayerLeftEvent is published when a player quits or disconnects. After a
// quit the transport closes the connection.
type PlayerLeftEvent struct {
	PlayerID  string
	Reason    LeaveReason
	timestamp time.Time
}

func (e PlayerLeftEvent) EventType() EventType { return EventTypePlayerLeft }
func (e PlayerLeftEvent) Timestamp() time.Time { return e.timestamp }

// PlayerEjectedEvent is published when a showdown claim exceeds the real hand
type PlayerEjectedEvent struct {
	PlayerID  string
	Claimed   evaluator.Category
	Actual    evaluator.Category
	timestamp time.Time
}

func (e PlayerEjectedEvent) EventType() EventType { return EventTypePlayerEjected }
func (e PlayerEjectedEvent) Timestamp() time.Time { return e.timestamp }

// Mechanism is how a round was decided
type Mechanism string

const (
	ByFold     Mechanism = "fold"
	ByShowdown Mechanism = "showdown"
	ByEjection Mechanism = "ejection"
	Aborted    Mechanism = "aborted"
	Forfeit    Mechanism = "forfeit"
)

// RoundOutcome is the terminal result of one round
type RoundOutcome struct {
	Round     int
	Mechanism Mechanism
	Winners   []string // two entries on a split, none on abort or double ejection
	Pot       int      // chips at stake before settlement
	Payout    Payout   // chips returned to each seat, uncalled chips included
	Stacks    []PlayerStack
	Hands     map[string]evaluator.HandValue // showdown only
	Holes     map[string][]deck.Card         // showdown only
	Board     []deck.Card
	Err       error // abort cause
}

// Split reports whether the pot was shared
func (o RoundOutcome) Split() bool {
	return o.Mechanism == ByShowdown && len(o.Winners) == 2
}

// RoundOverEvent is published once per round
type RoundOverEvent struct {
	Outcome   RoundOutcome
	timestamp time.Time
}

func (e RoundOverEvent) EventType() EventType { return EventTypeRoundOver }
func (e RoundOverEvent) Timestamp() time.Time { return e.timestamp }

// MatchOverEvent is the last event of a match
type MatchOverEvent struct {
	MatchID      string
	RoundsPlayed int
	Standings    []Standing
	timestamp    time.Time
}

func (e MatchOverEvent) EventType() EventType { return EventTypeMatchOver }
func (e MatchOverEvent) Timestamp() time.Time { return e.timestamp }
