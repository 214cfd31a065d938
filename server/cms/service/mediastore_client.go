package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"cms_server/server/common/cmserr"
)

const defaultStoreTimeout = 5 * time.Second

// MediaStoreClient talks to the media gateway's bulk-delete API. Endpoints
// rotate round-robin with failover; calls are metadata-only so the timeout
// stays short.
type MediaStoreClient struct {
	endpoints []string
	http      *http.Client
	next      uint32
}

func NewMediaStoreClient(endpoints ...string) *MediaStoreClient {
	normalized := make([]string, 0, len(endpoints))
	for _, e := range endpoints {
		e = strings.TrimSuffix(strings.TrimSpace(e), "/")
		if e != "" {
			normalized = append(normalized, e)
		}
	}
	return &MediaStoreClient{
		endpoints: normalized,
		http:      &http.Client{Timeout: defaultStoreTimeout},
	}
}

type bulkDeleteRequest struct {
	FileIDs []string `json:"fileIds"`
}

type bulkDeleteResponse struct {
	Deleted []string `json:"deleted"`
	Failed  []string `json:"failed"`
}

// BulkDelete asks the gateway to drop the given objects. Any failure comes
// back as an upstream storage error; callers treat it as best-effort.
func (c *MediaStoreClient) BulkDelete(ctx context.Context, fileIDs []string) error {
	if len(c.endpoints) == 0 {
		return cmserr.Configurationf("media gateway endpoint is not configured")
	}
	body, err := json.Marshal(bulkDeleteRequest{FileIDs: fileIDs})
	if err != nil {
		return err
	}

	start := int(atomic.AddUint32(&c.next, 1)-1) % len(c.endpoints)
	var lastErr error
	for offset := 0; offset < len(c.endpoints); offset++ {
		endpoint := c.endpoints[(start+offset)%len(c.endpoints)]
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/media/bulk-delete", bytes.NewReader(body))
		if reqErr != nil {
			lastErr = reqErr
			continue
		}
		req.Header.Set("Content-Type", "application/json")

		resp, doErr := c.http.Do(req)
		if doErr != nil {
			lastErr = cmserr.Storagef("media gateway request failed endpoint=%s: %v", endpoint, doErr)
			continue
		}
		if resp.StatusCode >= 300 {
			_ = resp.Body.Close()
			lastErr = cmserr.Storagef("media gateway status %d endpoint=%s", resp.StatusCode, endpoint)
			continue
		}

		var out bulkDeleteResponse
		decodeErr := json.NewDecoder(resp.Body).Decode(&out)
		_ = resp.Body.Close()
		if decodeErr != nil {
			return decodeErr
		}
		if len(out.Failed) > 0 {
			return cmserr.Storagef("media gateway could not delete %d of %d objects", len(out.Failed), len(fileIDs))
		}
		return nil
	}
	return lastErr
}
