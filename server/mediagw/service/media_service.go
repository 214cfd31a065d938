package service

import (
	"bytes"
	"context"
	"image"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"cms_server/server/common/cmserr"
	"cms_server/server/common/log"
	"cms_server/server/common/uploadsig"
)

// Asset is the descriptor returned for one accepted upload. The file id is
// the handle for later bulk deletion; the url is the public delivery address.
type Asset struct {
	FileID string `json:"fileId"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"`
}

type UploadInput struct {
	Token     string
	Expire    int64
	Signature string
	FileName  string
	Body      io.Reader
}

const DefaultMaxUploadBytes = 25 << 20

type MediaService struct {
	signer   *uploadsig.Signer
	tokens   TokenClaimer
	store    ObjectStore
	baseURL  string
	maxBytes int64
}

func NewMediaService(signer *uploadsig.Signer, tokens TokenClaimer, store ObjectStore, baseURL string, maxBytes int64) *MediaService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &MediaService{
		signer:   signer,
		tokens:   tokens,
		store:    store,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		maxBytes: maxBytes,
	}
}

// Upload verifies the presented credential, claims its token so it cannot be
// replayed, stores the bytes and probes image dimensions. The credential is
// scoped to uploads only; nothing here can read or delete other assets.
func (s *MediaService) Upload(ctx context.Context, in UploadInput) (Asset, error) {
	if err := s.signer.Verify(in.Token, in.Expire, in.Signature); err != nil {
		return Asset{}, err
	}
	claimed, err := s.tokens.Claim(ctx, in.Token, s.signer.TTLUntil(in.Expire))
	if err != nil {
		return Asset{}, err
	}
	if !claimed {
		return Asset{}, cmserr.ErrCredential
	}

	// read at most one byte past the ceiling so an oversized body is
	// detected without buffering it whole
	data, err := io.ReadAll(io.LimitReader(in.Body, s.maxBytes+1))
	if err != nil {
		return Asset{}, cmserr.Validationf("unreadable upload body: %v", err)
	}
	if len(data) == 0 {
		return Asset{}, cmserr.Validationf("upload body must not be empty")
	}
	if int64(len(data)) > s.maxBytes {
		return Asset{}, cmserr.Validationf("upload exceeds the %d byte limit", s.maxBytes)
	}

	width, height := probeDimensions(data)

	ext := strings.ToLower(filepath.Ext(in.FileName))
	fileID := uuid.NewString() + ext
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.store.Put(ctx, fileID, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return Asset{}, cmserr.Storagef("store object %s: %v", fileID, err)
	}

	return Asset{
		FileID: fileID,
		URL:    s.baseURL + "/media/" + fileID,
		Width:  width,
		Height: height,
		Size:   int64(len(data)),
	}, nil
}

// BulkDelete removes objects by file id. Missing objects count as deleted
// so the call stays idempotent.
func (s *MediaService) BulkDelete(ctx context.Context, fileIDs []string) (deleted, failed []string) {
	deleted = make([]string, 0, len(fileIDs))
	failed = make([]string, 0)
	for _, id := range fileIDs {
		if id == "" {
			continue
		}
		if err := s.store.Remove(ctx, id); err != nil && !IsNotFound(err) {
			log.Errorf("remove object %s: %v", id, err)
			failed = append(failed, id)
			continue
		}
		deleted = append(deleted, id)
	}
	return deleted, failed
}

// Serve opens an object for delivery.
func (s *MediaService) Serve(ctx context.Context, fileID string) (io.ReadCloser, string, error) {
	rc, err := s.store.Get(ctx, fileID)
	if err != nil {
		if IsNotFound(err) {
			return nil, "", cmserr.NotFoundf("media %s does not exist", fileID)
		}
		return nil, "", cmserr.Storagef("open object %s: %v", fileID, err)
	}
	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileID)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return rc, contentType, nil
}

// probeDimensions reads pixel dimensions when the payload is a decodable
// image. DecodeConfig only parses headers; the imaging fallback handles
// EXIF-rotated JPEGs whose header dimensions are swapped. Non-images keep
// the 0 defaults.
func probeDimensions(data []byte) (int, int) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		return cfg.Width, cfg.Height
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return 0, 0
	}
	bounds := img.Bounds()
	return bounds.Dx(), bounds.Dy()
}
