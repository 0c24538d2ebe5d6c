package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/x402-labs/facilitator-core/facilitator"
	"github.com/x402-labs/facilitator-core/internal/blacklist"
	"github.com/x402-labs/facilitator-core/internal/providercache"
	"github.com/x402-labs/facilitator-core/internal/registry"
	"github.com/x402-labs/facilitator-core/types"
)

func newTestServer() *Server {
	reg := registry.New(nil)
	cache := providercache.New()
	bl := blacklist.Empty()
	fac := facilitator.New(reg, cache, bl)
	return NewServer(fac, bl, zerolog.Nop())
}

func TestHealth(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSupportedIsEmptyWithNoRegisteredProviders(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/supported", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp types.SupportedResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Kinds)
}

func TestBlacklistIntrospection(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/blacklist", nil)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp types.BlacklistResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.EvmEntries)
	assert.False(t, resp.LoadedAtStart)
}

func TestVerifyRejectsMalformedBody(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/verify", bytes.NewBufferString("not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp types.VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Valid)
	require.NotNil(t, resp.Error)
}

func TestVerifyRejectsUnknownNetwork(t *testing.T) {
	s := newTestServer()
	body, err := json.Marshal(types.VerifyRequest{
		X402Version: 1,
		PaymentPayload: types.PaymentPayload{
			X402Version: 1,
			Scheme:      types.SchemeExact,
			Network:     "eip155:999999",
			Payload:     json.RawMessage(`{}`),
		},
		PaymentRequirements: types.PaymentRequirements{
			Scheme:            types.SchemeExact,
			Network:           "eip155:999999",
			Asset:             "USDC",
			PayTo:             "0x2222222222222222222222222222222222222222",
			MaxAmountRequired: "1000000",
		},
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/verify", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp types.VerifyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, types.ErrUnsupportedNetwork, resp.Error.Tag)
}
