// Package game implements the heads-up Texas Hold'em match engine.
//
// The main type is Match, which runs a fixed number of rounds between two
// players, carries their stacks from round to round and decides the final
// standings.
//
// # Basic Usage
//
//	m, err := game.NewMatch(game.DefaultMatchConfig(), [2]game.Seat{
//	    {ID: "p1", Name: "Alice"},
//	    {ID: "p2", Name: "Bob"},
//	}, game.WithEventSubscriber(sub))
//	if err != nil {
//	    return err
//	}
//	_ = m.StartRound()
//	_ = m.Apply("p1", game.BetAction(50))
//	_ = m.Apply("p2", game.BetAction(50)) // call, deals the flop
//
// Every mutation (StartRound, Apply, OnTimeout, OnDisconnect) is serialized
// by the match. Rejected actions return a *ValidationError and leave the state
// untouched. Accepted ones publish GameEvents to the subscriber in order.
//
// # Deterministic Testing
//
// Inject a seeded random source, or supply stacked decks directly, and drive
// the turn clock with a quartz mock:
//
//	clock := quartz.NewMock(t)
//	m, _ := game.NewMatch(cfg, seats,
//	    game.WithClock(clock),
//	    game.WithRand(randutil.New(42)),
//	)
//
// # Architecture
//
// Match delegates responsibilities to specialized components:
//   - Round: the betting state machine for one deal
//   - Pot: chip commitments and settlement
//   - TurnClock: the single live turn deadline
//   - deck.Deck and evaluator.BestHand: dealing and showdown ranking
package game
