package assets

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-trader/trader-portal/internal/domain"
)

func Test_ParseCandlesCSV(t *testing.T) {
	data := `timestamp,open,high,low,close,volume
2025-06-01T00:00:00Z,100,110,95,105,1000
1748739600,105,112,101,111,1500
1748743200000,111,115,108,109,900
`

	candles, err := ParseCandlesCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, candles, 3)

	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), candles[0].Timestamp)
	assert.Equal(t, 100.0, candles[0].Open)
	assert.Equal(t, 105.0, candles[0].Close)

	// unix seconds and milliseconds resolve to the same bar spacing
	assert.Equal(t, int64(1748739600), candles[1].Timestamp.Unix())
	assert.Equal(t, int64(1748743200), candles[2].Timestamp.Unix())
}

func Test_ParseCandlesCSV_invalidData(t *testing.T) {
	_, err := ParseCandlesCSV(strings.NewReader("2025-06-01T00:00:00Z,1,2\n"))
	assert.Error(t, err)

	_, err = ParseCandlesCSV(strings.NewReader("not-a-time,1,2,3,4,5\n"))
	assert.Error(t, err)

	_, err = ParseCandlesCSV(strings.NewReader("2025-06-01T00:00:00Z,one,2,3,4,5\n"))
	assert.Error(t, err)
}

func Test_ParseCandlesJSON(t *testing.T) {
	data := `[
		{"timestamp": "2025-06-01T00:00:00Z", "open": 1, "high": 2, "low": 0.5, "close": 1.5, "volume": 42},
		{"timestamp": "1748739600", "open": 1.5, "high": 3, "low": 1, "close": 2, "volume": 13}
	]`

	candles, err := ParseCandlesJSON(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, candles, 2)
	assert.Equal(t, 42.0, candles[0].Volume)
	assert.Equal(t, int64(1748739600), candles[1].Timestamp.Unix())

	_, err = ParseCandlesJSON(strings.NewReader(`{"not": "an array"}`))
	assert.Error(t, err)
}

func Test_validateCandle(t *testing.T) {
	ts := time.Now()

	valid := domain.Candle{Timestamp: ts, Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10}
	assert.NoError(t, validateCandle(&valid))

	missingTs := valid
	missingTs.Timestamp = time.Time{}
	assert.Error(t, validateCandle(&missingTs))

	highBelowLow := valid
	highBelowLow.High = 0.1
	assert.Error(t, validateCandle(&highBelowLow))

	negativeVolume := valid
	negativeVolume.Volume = -1
	assert.Error(t, validateCandle(&negativeVolume))
}
