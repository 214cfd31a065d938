package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cms_server/server/common/uploadsig"
)

// CMSClient talks to the content backend: it fetches upload credentials for
// the batch and submits descriptors of uploaded assets afterwards.
type CMSClient struct {
	baseURL string
	token   string
	httpc   *http.Client
}

func NewCMSClient(baseURL, accessToken string) *CMSClient {
	return &CMSClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   accessToken,
		httpc:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Login exchanges admin credentials for an access token and returns a client
// that sends it on every request.
func Login(ctx context.Context, baseURL, username, password string) (*CMSClient, error) {
	c := NewCMSClient(baseURL, "")
	body := map[string]string{"username": username, "password": password}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.call(ctx, http.MethodPost, "/admin/login", body, &out); err != nil {
		return nil, err
	}
	c.token = out.AccessToken
	return c, nil
}

// UploadCredential implements CredentialSource. Each call yields a fresh
// single-use credential; the gateway refuses replays.
func (c *CMSClient) UploadCredential(ctx context.Context) (uploadsig.Credential, error) {
	var cred uploadsig.Credential
	if err := c.call(ctx, http.MethodGet, "/upload-auth", nil, &cred); err != nil {
		return uploadsig.Credential{}, err
	}
	return cred, nil
}

type FolderSubmission struct {
	Title     string
	Caption   string
	EventDate string
}

// CreateFolder registers a gallery folder whose first asset becomes the
// thumbnail.
func (c *CMSClient) CreateFolder(ctx context.Context, sub FolderSubmission, thumbnail AssetDescriptor) (int64, error) {
	body := map[string]any{
		"title":           sub.Title,
		"caption":         sub.Caption,
		"event_date":      sub.EventDate,
		"thumbnail_image": assetPayload(thumbnail),
	}
	var out struct {
		Folder struct {
			ID int64 `json:"id"`
		} `json:"folder"`
	}
	if err := c.call(ctx, http.MethodPost, "/gallery/addFolder", body, &out); err != nil {
		return 0, err
	}
	return out.Folder.ID, nil
}

// AddFolderImages attaches uploaded assets to a folder and returns how many
// rows the backend recorded.
func (c *CMSClient) AddFolderImages(ctx context.Context, folderID int64, assets []AssetDescriptor) (int, error) {
	body := map[string]any{
		"folder_id":  folderID,
		"imageArray": assetPayloads(assets),
	}
	var out struct {
		Count int `json:"count"`
	}
	if err := c.call(ctx, http.MethodPost, "/gallery/addImages", body, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

type MediaSubmission struct {
	Title string
	Asset AssetDescriptor
}

// AddMedia submits press items. The backend skips duplicate titles instead
// of failing, so the returned count may be lower than len(items).
func (c *CMSClient) AddMedia(ctx context.Context, items []MediaSubmission) (int, error) {
	payload := make([]map[string]any, 0, len(items))
	for _, item := range items {
		m := assetPayload(item.Asset)
		m["title"] = item.Title
		payload = append(payload, m)
	}
	var out struct {
		Count int `json:"count"`
	}
	if err := c.call(ctx, http.MethodPost, "/news/addMedia", map[string]any{"imageArray": payload}, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func assetPayload(a AssetDescriptor) map[string]any {
	return map[string]any{
		"fileId": a.FileID,
		"url":    a.URL,
		"width":  a.Width,
		"height": a.Height,
	}
}

func assetPayloads(assets []AssetDescriptor) []map[string]any {
	out := make([]map[string]any, 0, len(assets))
	for _, a := range assets {
		out = append(out, assetPayload(a))
	}
	return out
}

func (c *CMSClient) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		if e.Error == "" {
			e.Error = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("%s %s: %s", method, path, e.Error)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
