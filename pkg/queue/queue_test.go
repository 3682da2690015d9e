package queue

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Symbol string `json:"symbol"`
	Score  int    `json:"score"`
}

func TestParsePayloadTypedValue(t *testing.T) {
	in := samplePayload{Symbol: "AAPL", Score: 3}

	out, err := ParsePayload[samplePayload](in)
	require.NoError(t, err)
	assert.Equal(t, in, *out)

	ptr, err := ParsePayload[samplePayload](&in)
	require.NoError(t, err)
	assert.Same(t, &in, ptr)
}

func TestParsePayloadRawJSON(t *testing.T) {
	raw := json.RawMessage(`{"symbol":"TSLA","score":7}`)

	out, err := ParsePayload[samplePayload](raw)
	require.NoError(t, err)
	assert.Equal(t, "TSLA", out.Symbol)
	assert.Equal(t, 7, out.Score)

	out, err = ParsePayload[samplePayload]([]byte(`{"symbol":"NVDA"}`))
	require.NoError(t, err)
	assert.Equal(t, "NVDA", out.Symbol)
}

func TestParsePayloadMap(t *testing.T) {
	out, err := ParsePayload[samplePayload](map[string]interface{}{
		"symbol": "MSFT",
		"score":  2,
	})
	require.NoError(t, err)
	assert.Equal(t, "MSFT", out.Symbol)
	assert.Equal(t, 2, out.Score)
}

func TestParsePayloadInvalidJSON(t *testing.T) {
	_, err := ParsePayload[samplePayload](json.RawMessage(`{broken`))
	require.Error(t, err)
}

func TestMessageRoundTrip(t *testing.T) {
	raw, err := json.Marshal(samplePayload{Symbol: "AMZN", Score: 1})
	require.NoError(t, err)

	body, err := json.Marshal(Message{ID: "m1", Type: "analysis_request", Payload: raw})
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(body, &msg))
	assert.Equal(t, "m1", msg.ID)

	out, err := ParsePayload[samplePayload](msg.Payload)
	require.NoError(t, err)
	assert.Equal(t, "AMZN", out.Symbol)
}
