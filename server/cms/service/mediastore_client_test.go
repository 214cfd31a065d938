package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cms_server/server/common/cmserr"
)

func bulkDeleteStub(t *testing.T, hits *atomic.Int32, failed []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var req struct {
			FileIDs []string `json:"fileIds"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		_ = json.NewEncoder(w).Encode(map[string]any{"deleted": req.FileIDs, "failed": failed})
	}))
}

func TestBulkDeleteRotatesEndpoints(t *testing.T) {
	var hitsA, hitsB atomic.Int32
	a := bulkDeleteStub(t, &hitsA, nil)
	defer a.Close()
	b := bulkDeleteStub(t, &hitsB, nil)
	defer b.Close()

	c := NewMediaStoreClient(a.URL, b.URL)
	for i := 0; i < 4; i++ {
		require.NoError(t, c.BulkDelete(context.Background(), []string{"x.jpg"}))
	}
	assert.Equal(t, int32(2), hitsA.Load())
	assert.Equal(t, int32(2), hitsB.Load())
}

func TestBulkDeleteFailsOverToHealthyEndpoint(t *testing.T) {
	var hits atomic.Int32
	healthy := bulkDeleteStub(t, &hits, nil)
	defer healthy.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer dead.Close()

	c := NewMediaStoreClient(dead.URL, healthy.URL)
	for i := 0; i < 2; i++ {
		require.NoError(t, c.BulkDelete(context.Background(), []string{"x.jpg"}))
	}
	assert.Equal(t, int32(2), hits.Load())
}

func TestBulkDeleteReportsPartialFailure(t *testing.T) {
	var hits atomic.Int32
	srv := bulkDeleteStub(t, &hits, []string{"stuck.jpg"})
	defer srv.Close()

	c := NewMediaStoreClient(srv.URL)
	err := c.BulkDelete(context.Background(), []string{"x.jpg", "stuck.jpg"})
	assert.True(t, errors.Is(err, cmserr.ErrUpstreamStorage))
}

func TestBulkDeleteAllEndpointsDown(t *testing.T) {
	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	dead.Close()

	c := NewMediaStoreClient(dead.URL)
	err := c.BulkDelete(context.Background(), []string{"x.jpg"})
	assert.True(t, errors.Is(err, cmserr.ErrUpstreamStorage))
}

func TestBulkDeleteNoEndpoints(t *testing.T) {
	c := NewMediaStoreClient()
	err := c.BulkDelete(context.Background(), []string{"x.jpg"})
	assert.True(t, errors.Is(err, cmserr.ErrConfiguration))
}
