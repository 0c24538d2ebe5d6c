package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnixTimestampWireForm(t *testing.T) {
	ts := UnixTimestamp(1700000000)

	data, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"1700000000"`, string(data))

	var decoded UnixTimestamp
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ts, decoded)
}

func TestUnixTimestampRejectsJSONNumber(t *testing.T) {
	var ts UnixTimestamp
	err := json.Unmarshal([]byte(`1700000000`), &ts)
	assert.Error(t, err)
}

func TestParseUnixTimestampRejectsNegative(t *testing.T) {
	_, err := ParseUnixTimestamp("-1")
	assert.Error(t, err)
}

func TestNonceWireForm(t *testing.T) {
	n, err := NewNonce()
	require.NoError(t, err)

	s := n.String()
	assert.Len(t, s, 66) // "0x" + 64 hex chars

	parsed, err := ParseNonce(s)
	require.NoError(t, err)
	assert.Equal(t, n, parsed)
}

func TestParseNonceRejectsWrongLength(t *testing.T) {
	_, err := ParseNonce("0xabcd")
	assert.Error(t, err)
}
