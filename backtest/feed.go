package backtest

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bicklebow/bicklebow/market"
)

// CandleFeed yields candle records one at a time: deterministic,
// (ok=false, err=nil) at EOF.
type CandleFeed interface {
	Next() (c market.Candle, ok bool, err error)
	Close() error
}

// JSONLFeed reads candle files with one JSON candle per line. Blank lines
// are skipped. The instrument is taken from the record when present,
// otherwise from the feed's configured instrument.
type JSONLFeed struct {
	f          *os.File
	sc         *bufio.Scanner
	instrument string
}

func NewJSONLFeed(path, instrument string) (*JSONLFeed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &JSONLFeed{f: f, sc: bufio.NewScanner(f), instrument: instrument}, nil
}

func (f *JSONLFeed) Next() (market.Candle, bool, error) {
	for f.sc.Scan() {
		line := strings.TrimSpace(f.sc.Text())
		if line == "" {
			continue
		}
		c, err := market.ParseCandle([]byte(line), f.instrument)
		if err != nil {
			return market.Candle{}, false, err
		}
		return c, true, nil
	}
	if err := f.sc.Err(); err != nil {
		return market.Candle{}, false, err
	}
	return market.Candle{}, false, nil
}

func (f *JSONLFeed) Close() error {
	if f.f != nil {
		return f.f.Close()
	}
	return nil
}

// History indexes candles by instrument and timestamp for replay lookups.
// Loading dedups by timestamp, so concatenated or out-of-order candle files
// collapse to one candle per (instrument, timestamp).
type History struct {
	candles map[string]map[int64]market.Candle
}

func NewHistory() *History {
	return &History{candles: make(map[string]map[int64]market.Candle)}
}

// Load drains a feed into the index. The feed is closed afterwards.
func (h *History) Load(instrument string, feed CandleFeed) error {
	defer feed.Close()

	byTime := h.candles[instrument]
	if byTime == nil {
		byTime = make(map[int64]market.Candle)
		h.candles[instrument] = byTime
	}
	for {
		c, ok, err := feed.Next()
		if err != nil {
			return fmt.Errorf("load %s: %w", instrument, err)
		}
		if !ok {
			return nil
		}
		if c.Instrument == "" {
			c.Instrument = instrument
		}
		key := c.Time.UTC().Unix()
		if _, seen := byTime[key]; !seen {
			byTime[key] = c
		}
	}
}

// LoadDir reads every "<INSTRUMENT>-*.txt" candle file under dir. A broken
// file taints only its own instrument: the instrument is dropped from the
// history and its error is reported in the joined return value.
func LoadDir(dir string) (*History, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	h := NewHistory()
	var errs []error
	for _, path := range paths {
		instrument := instrumentFromPath(path)
		feed, err := NewJSONLFeed(path, instrument)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := h.Load(instrument, feed); err != nil {
			delete(h.candles, instrument)
			errs = append(errs, err)
		}
	}
	return h, errors.Join(errs...)
}

// instrumentFromPath maps "data/BBG000N9MNX3-2020.txt" to "BBG000N9MNX3".
func instrumentFromPath(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	if i := strings.Index(name, "-"); i > 0 {
		return name[:i]
	}
	return name
}

// At returns the candle for an instrument at an exact timestamp. A missing
// candle means "no decision this step", never an error.
func (h *History) At(instrument string, t time.Time) (market.Candle, bool) {
	c, ok := h.candles[instrument][t.UTC().Unix()]
	return c, ok
}

// Instruments lists the indexed instruments in stable order.
func (h *History) Instruments() []string {
	out := make([]string, 0, len(h.candles))
	for instrument := range h.candles {
		out = append(out, instrument)
	}
	sort.Strings(out)
	return out
}

// Len reports the total number of indexed candles.
func (h *History) Len() int {
	n := 0
	for _, byTime := range h.candles {
		n += len(byTime)
	}
	return n
}
