package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/game"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
)

// Session connects one match to the two connections playing it. It turns
// match events into protocol messages, keeping private events private.
type Session struct {
	id      string
	match   *game.Match
	conns   [2]*Connection
	clock   quartz.Clock
	logger  *log.Logger
	archive *Archive
	done    func(*Session)

	// state below is set up by Begin, then only touched from OnEvent, which the
	// match serializes
	round    int
	chips    map[string]int
	record   MatchRecord
	doneOnce sync.Once
}

func newSession(id string, conns [2]*Connection, clock quartz.Clock, logger *log.Logger, archive *Archive, done func(*Session)) *Session {
	return &Session{
		id:      id,
		conns:   conns,
		clock:   clock,
		logger:  logger.WithPrefix("session").With("match", id),
		archive: archive,
		done:    done,
		chips:   make(map[string]int, 2),
		record:  MatchRecord{MatchID: id},
	}
}

// ID returns the match ID
func (s *Session) ID() string { return s.id }

// Match returns the underlying match
func (s *Session) Match() *game.Match { return s.match }

// Begin announces the match to both players and deals the first round
func (s *Session) Begin() {
	cfg := s.match.Config()
	snap := s.match.Snapshot()
	s.record.StartedAt = s.clock.Now()
	s.record.Players = protocol.PlayersFromSnapshot(snap)
	for _, c := range s.conns {
		_ = c.Send(protocol.TypeMatchStart, protocol.MatchStartData{
			MatchID:        s.id,
			You:            c.PlayerID(),
			Players:        protocol.PlayersFromSnapshot(snap),
			Rounds:         cfg.Rounds,
			TimeoutSeconds: int(cfg.TurnTimeout.Seconds()),
		})
	}

	if err := s.match.StartRound(); err != nil {
		// a player left before the first deal; the match is already over
		s.logger.Warn("Failed to start first round", "error", err)
	}
}

// Apply forwards a player's action to the match
func (s *Session) Apply(playerID string, a game.Action) error {
	err := s.match.Apply(playerID, a)
	if err == nil || a.Kind != game.Quit {
		return err
	}
	// quitting out of turn leaves just like hanging up
	if errors.Is(err, game.ErrInvalidAction) {
		s.logger.Info("Player quit out of turn", "player", playerID)
		if err := s.match.OnDisconnect(playerID); err != nil {
			return err
		}
		if c := s.conn(playerID); c != nil {
			c.Finish()
		}
		return nil
	}
	return err
}

// Disconnect resolves a lost connection
func (s *Session) Disconnect(playerID string) {
	if err := s.match.OnDisconnect(playerID); err != nil {
		s.logger.Debug("Disconnect ignored", "player", playerID, "error", err)
	}
}

func (s *Session) conn(playerID string) *Connection {
	for _, c := range s.conns {
		if c.PlayerID() == playerID {
			return c
		}
	}
	return nil
}

func (s *Session) name(playerID string) string {
	if c := s.conn(playerID); c != nil {
		return c.Name()
	}
	return playerID
}

func (s *Session) order() []string {
	return []string{s.conns[0].PlayerID(), s.conns[1].PlayerID()}
}

func (s *Session) sendTo(playerID string, event game.GameEvent, msgType protocol.MessageType, data any) {
	c := s.conn(playerID)
	if c == nil {
		return
	}
	msg, err := protocol.NewMessage(msgType, data, event.Timestamp())
	if err != nil {
		s.logger.Error("Failed to create message", "type", msgType, "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

func (s *Session) broadcast(event game.GameEvent, msgType protocol.MessageType, data any) {
	msg, err := protocol.NewMessage(msgType, data, event.Timestamp())
	if err != nil {
		s.logger.Error("Failed to create message", "type", msgType, "error", err)
		return
	}
	for _, c := range s.conns {
		_ = c.SendMessage(msg)
	}
}

func (s *Session) others(playerID string, event game.GameEvent, msgType protocol.MessageType, data any) {
	for _, c := range s.conns {
		if c.PlayerID() != playerID {
			s.sendTo(c.PlayerID(), event, msgType, data)
		}
	}
}

// OnEvent implements game.EventSubscriber
func (s *Session) OnEvent(event game.GameEvent) {
	switch e := event.(type) {
	case game.RoundStartedEvent:
		s.round = e.Round
		for _, p := range e.Players {
			s.chips[p.PlayerID] = p.Stack
		}
		s.broadcast(e, protocol.TypeInfo, protocol.InfoData{
			Message: fmt.Sprintf("*** ROUND %d OF %d ***", e.Round, e.TotalRounds),
		})

	case game.HoleCardsDealtEvent:
		s.sendTo(e.Recipient(), e, protocol.TypeHand, protocol.HandData{
			Round:   s.round,
			Cards:   e.Cards,
			Display: protocol.CardNames(e.Cards),
			Chips:   s.chips[e.PlayerID],
		})

	case game.CommunityDealtEvent:
		s.broadcast(e, protocol.TypeCommunity, protocol.CommunityData{
			Stage:   protocol.StageName(e.Stage),
			Cards:   e.Board,
			New:     e.Cards,
			Display: protocol.CardNames(e.Board),
		})

	case game.ActionAppliedEvent:
		s.chips[e.PlayerID] = e.Stack
		data := protocol.PlayerActionData{
			PlayerID: e.PlayerID,
			Player:   s.name(e.PlayerID),
			Stage:    protocol.StageName(e.Stage),
			Action:   e.Action.Kind.String(),
			AllIn:    e.AllIn,
			Pot:      e.Pot,
			Chips:    e.Stack,
		}
		if e.Action.Kind == game.Bet {
			data.Amount = e.Action.Amount
		}
		s.broadcast(e, protocol.TypeAction, data)

	case game.TurnChangedEvent:
		s.broadcast(e, protocol.TypeTurn, protocol.TurnData{
			PlayerID: e.PlayerID,
			Player:   s.name(e.PlayerID),
			Stage:    protocol.StageName(e.Stage),
			Pot:      e.Pot,
		})
		s.sendTo(e.PlayerID, e, protocol.TypeYourTurn, protocol.YourTurnData{
			Stage:          protocol.StageName(e.Stage),
			Pot:            e.Pot,
			Chips:          e.Stack,
			ToCall:         e.ToCall,
			Community:      e.Board,
			TimeoutSeconds: int(e.Timeout.Seconds()),
		})

	case game.PlayerTimedOutEvent:
		s.broadcast(e, protocol.TypeTimeout, protocol.TimeoutData{
			PlayerID: e.PlayerID,
			Player:   s.name(e.PlayerID),
			Stage:    protocol.StageName(e.Stage),
		})

	case game.PlayerLeftEvent:
		s.others(e.PlayerID, e, protocol.TypeInfo, protocol.InfoData{
			Message: fmt.Sprintf("%s has left the game.", s.name(e.PlayerID)),
		})
		if e.Reason == game.LeaveQuit {
			if c := s.conn(e.PlayerID); c != nil {
				c.Finish()
			}
		}

	case game.PlayerEjectedEvent:
		s.sendTo(e.PlayerID, e, protocol.TypeKicked, protocol.KickedData{
			Message: fmt.Sprintf("Kicked for cheating: claimed %s but held %s.", e.Claimed, e.Actual),
			Claimed: e.Claimed.String(),
			Actual:  e.Actual.String(),
		})
		s.others(e.PlayerID, e, protocol.TypeInfo, protocol.InfoData{
			Message: fmt.Sprintf("%s was kicked for cheating.", s.name(e.PlayerID)),
		})

	case game.RoundOverEvent:
		o := e.Outcome
		for _, st := range o.Stacks {
			s.chips[st.PlayerID] = st.Stack
		}
		if showdown, ok := protocol.ShowdownFromOutcome(o, s.order(), s.name); ok {
			s.broadcast(e, protocol.TypeShowdown, showdown)
		}
		if o.Mechanism == game.Aborted {
			s.broadcast(e, protocol.TypeInfo, protocol.InfoData{
				Message: fmt.Sprintf("Round %d aborted, stakes returned.", o.Round),
			})
		}
		winner := protocol.WinnerFromOutcome(o, s.name)
		s.record.Rounds = append(s.record.Rounds, winner)
		s.broadcast(e, protocol.TypeWinner, winner)

	case game.MatchOverEvent:
		standings := protocol.StandingsFromGame(e.Standings)
		s.broadcast(e, protocol.TypeGameOver, protocol.GameOverData{
			MatchID:   e.MatchID,
			Rounds:    e.RoundsPlayed,
			Standings: standings,
		})
		s.logger.Info("Match over", "rounds", e.RoundsPlayed)
		for _, c := range s.conns {
			c.Finish()
		}
		s.record.EndedAt = e.Timestamp()
		s.record.Standings = standings
		s.save()
		s.doneOnce.Do(func() { s.done(s) })
	}
}

func (s *Session) save() {
	if s.archive == nil {
		return
	}
	if err := s.archive.Save(&s.record); err != nil {
		s.logger.Error("Failed to archive match", "error", err)
		return
	}
	s.logger.Debug("Match archived", "path", s.archive.Path(s.id))
}
