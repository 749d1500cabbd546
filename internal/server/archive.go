package server

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/WTCSC/sockets-to-em-casino-day/internal/fileutil"
	"github.com/WTCSC/sockets-to-em-casino-day/internal/protocol"
)

// MatchRecord is the archived result of one finished match
type MatchRecord struct {
	MatchID   string                  `json:"match_id"`
	StartedAt time.Time               `json:"started_at"`
	EndedAt   time.Time               `json:"ended_at"`
	Players   []protocol.PlayerInfo   `json:"players"`
	Rounds    []protocol.WinnerData   `json:"rounds"`
	Standings []protocol.StandingData `json:"standings"`
}

// Archive stores one JSON file per finished match
type Archive struct {
	dir string
}

// NewArchive creates the results directory if needed
func NewArchive(dir string) (*Archive, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create results dir: %w", err)
	}
	return &Archive{dir: dir}, nil
}

// Path returns where a match's record is stored
func (a *Archive) Path(matchID string) string {
	return filepath.Join(a.dir, matchID+".json")
}

// Save writes the record, replacing any earlier one for the same match
func (a *Archive) Save(rec *MatchRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode match record: %w", err)
	}
	return fileutil.WriteFileAtomic(a.Path(rec.MatchID), data, 0o644)
}

// Load reads a saved record
func (a *Archive) Load(matchID string) (*MatchRecord, error) {
	data, err := os.ReadFile(a.Path(matchID))
	if err != nil {
		return nil, err
	}
	var rec MatchRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode match record: %w", err)
	}
	return &rec, nil
}
