package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWithLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.TraceLevel)

	var buf bytes.Buffer
	logger := NewLogger(&buf)
	require.NoError(t, SetLevel("warn"))

	logger.Info().Msg("dropped")
	require.Zero(t, buf.Len())

	logger.Warn().Int64("order_id", 7).Msg("kept")
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "ordercenter", line["service"])
	require.Equal(t, "kept", line["message"])
	require.EqualValues(t, 7, line["order_id"])
	require.Contains(t, line, "time")

	buf.Reset()
	require.Error(t, SetLevel("loud"))
	logger.Info().Msg("back to info")
	require.NotZero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("")
	require.NoError(t, err)
	require.Equal(t, zerolog.InfoLevel, lvl)

	lvl, err = ParseLevel("DEBUG")
	require.NoError(t, err)
	require.Equal(t, zerolog.DebugLevel, lvl)

	lvl, err = ParseLevel("loud")
	require.Error(t, err)
	require.Equal(t, zerolog.InfoLevel, lvl)
}
