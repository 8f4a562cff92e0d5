package market

import (
	"encoding/json"
	"fmt"
	"time"
)

// Candle is a single time-bucketed OHLC observation for one instrument.
// The feed guarantees at most one candle per (instrument, timestamp).
type Candle struct {
	Instrument string    `json:"figi"`
	Time       time.Time `json:"time"`

	Open  float64 `json:"o"`
	High  float64 `json:"h"`
	Low   float64 `json:"l"`
	Close float64 `json:"c"`
}

// ParseCandle decodes a single JSON candle record, one line of a candle file.
// The instrument field may be absent from the record; callers that know the
// instrument from context (e.g. the file name) pass it as fallback.
func ParseCandle(line []byte, instrument string) (Candle, error) {
	var c Candle
	if err := json.Unmarshal(line, &c); err != nil {
		return Candle{}, fmt.Errorf("parse candle: %w", err)
	}
	if c.Instrument == "" {
		c.Instrument = instrument
	}
	if c.Time.IsZero() {
		return Candle{}, fmt.Errorf("parse candle: missing time in %q", string(line))
	}
	return c, nil
}
