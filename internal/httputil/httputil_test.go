// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paperbot/pkg/types"
)

func TestCheckResponse(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(http.StatusNoContent)
		case "/quota":
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, "  quota exceeded \n")
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/ok")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NoError(t, CheckResponse(resp))

	resp, err = ts.Client().Get(ts.URL + "/quota")
	require.NoError(t, err)
	err = CheckResponse(resp)
	require.Error(t, err)
	assert.EqualError(t, err, "HTTP 429: quota exceeded")
	assert.True(t, IsStatus(err, http.StatusTooManyRequests))
	assert.True(t, IsStatus(fmt.Errorf("calling model: %w", err), http.StatusTooManyRequests))
	assert.False(t, IsStatus(err, http.StatusInternalServerError))

	resp, err = ts.Client().Get(ts.URL + "/boom")
	require.NoError(t, err)
	assert.EqualError(t, CheckResponse(resp), "HTTP 500")
}

func TestIsStatusPlainError(t *testing.T) {
	assert.False(t, IsStatus(fmt.Errorf("network down"), http.StatusTooManyRequests))
	assert.False(t, IsStatus(nil, http.StatusTooManyRequests))
}

func TestNewClient(t *testing.T) {
	var gotAgent string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
	}))
	defer ts.Close()

	c := NewClient(types.HTTPConfig{UserAgent: "paperbot/test"})
	assert.Equal(t, DefaultTimeout, c.Timeout)

	resp, err := c.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "paperbot/test", gotAgent)

	req, err := http.NewRequest(http.MethodGet, ts.URL, nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", "custom")
	resp, err = c.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "custom", gotAgent)

	assert.Equal(t, 5*time.Second, NewClient(types.HTTPConfig{Timeout: 5 * time.Second}).Timeout)
}
