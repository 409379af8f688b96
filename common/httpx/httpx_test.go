package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchHost(t *testing.T) {
	tests := []struct {
		pattern, host string
		want          bool
	}{
		{"*", "ipfs.io", true},
		{"ipfs.io", "IPFS.io", true},
		{"*.pinata.cloud", "gateway.pinata.cloud", true},
		{"*.pinata.cloud", "pinata.cloud", true},
		{"*.pinata.cloud", "evilpinata.cloud", false},
		{"dweb.link", "ipfs.io", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchHost(tt.pattern, tt.host), "%s vs %s", tt.pattern, tt.host)
	}
}

func TestDoBlocksHostOutsideAllowlist(t *testing.T) {
	c := New(nil, Options{HostAllowlist: []string{"ipfs.io"}})
	_, err := c.Get(context.Background(), "https://example.com/ipfs/x")
	assert.ErrorIs(t, err, ErrHostNotAllowed)
}

func TestDoOpensCircuitAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := New(srv.Client(), Options{MaxConsecutiveFail: 2, CircuitOpen: time.Minute})
	for i := 0; i < 2; i++ {
		resp, err := c.Get(context.Background(), srv.URL)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
		resp.Body.Close()
	}

	_, err := c.Get(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, calls)
}

func TestDoSuccessResetsFailures(t *testing.T) {
	fail := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.Client(), Options{MaxConsecutiveFail: 2})
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()

	fail = false
	resp, err = c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, int32(0), c.fail.Load())
}
