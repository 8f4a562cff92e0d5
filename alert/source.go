package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// FileSource is a SnapshotSource backed by a JSON export of brokerage
// positions, keyed by user id. It stands in for a live brokerage client in
// evaluation runs and tests.
type FileSource struct {
	byUser map[int64][]Snapshot
}

type fileSnapshot struct {
	Name           string             `json:"name"`
	Instrument     string             `json:"ticker"`
	CurrentPrice   float64            `json:"current_price"`
	PortfolioPrice float64            `json:"portfolio_price"`
	CandlePrices   map[string]float64 `json:"candle_prices"`
}

type fileEntry struct {
	UserID    int64          `json:"user_id"`
	Positions []fileSnapshot `json:"positions"`
}

func NewFileSource(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshots: %w", err)
	}
	var entries []fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse snapshots: %w", err)
	}

	byUser := make(map[int64][]Snapshot, len(entries))
	for _, e := range entries {
		for _, p := range e.Positions {
			snap := Snapshot{
				Name:           p.Name,
				Instrument:     p.Instrument,
				CurrentPrice:   p.CurrentPrice,
				PortfolioPrice: p.PortfolioPrice,
				CandlePrices:   make(map[Reference]float64, len(p.CandlePrices)),
			}
			for k, v := range p.CandlePrices {
				ref, err := ParseReference(k)
				if err != nil {
					return nil, err
				}
				snap.CandlePrices[ref] = v
			}
			byUser[e.UserID] = append(byUser[e.UserID], snap)
		}
	}
	return &FileSource{byUser: byUser}, nil
}

func (s *FileSource) Positions(_ context.Context, u User) ([]Snapshot, error) {
	return s.byUser[u.ID], nil
}
