package alert

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "snapshots.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {
    "user_id": 1,
    "positions": [
      {
        "name": "Tesla",
        "ticker": "TSLA",
        "current_price": 1000,
        "portfolio_price": 900,
        "candle_prices": {"CANDLE_1D": 950, "CANDLE_1W": 920}
      }
    ]
  }
]`), 0644))

	src, err := NewFileSource(path)
	require.NoError(t, err)

	snaps, err := src.Positions(context.Background(), User{ID: 1})
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "Tesla", snaps[0].Name)
	assert.Equal(t, "TSLA", snaps[0].Instrument)
	assert.Equal(t, 1000.0, snaps[0].CurrentPrice)
	assert.Equal(t, 950.0, snaps[0].CandlePrices[ReferenceCandleDay])

	// Unknown user: no holdings, no error.
	snaps, err = src.Positions(context.Background(), User{ID: 99})
	require.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestFileSourceRejectsUnknownReference(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "snapshots.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
  {
    "user_id": 1,
    "positions": [
      {
        "ticker": "TSLA",
        "current_price": 1000,
        "portfolio_price": 900,
        "candle_prices": {"CANDLE_1Y": 950}
      }
    ]
  }
]`), 0644))

	_, err := NewFileSource(path)
	assert.ErrorIs(t, err, ErrUnknownReference)
}
