package service

import (
	"context"
	"strings"

	"cms_server/server/cms/domain"
	"cms_server/server/common/cmserr"
)

type MediaItemStore interface {
	InsertBatch(ctx context.Context, items []domain.MediaItem) (int, error)
	DeleteByFileIDs(ctx context.Context, fileIDs []string) (int, error)
	List(ctx context.Context, p domain.ListParams) ([]domain.MediaItem, int, error)
}

type MediaService struct {
	items   MediaItemStore
	store   ObjectRemover
	cleanup CleanupNotifier
}

func NewMediaService(items MediaItemStore, store ObjectRemover, cleanup CleanupNotifier) *MediaService {
	return &MediaService{items: items, store: store, cleanup: cleanup}
}

// AddMedia persists press images. Titles must be present and batch-locally
// unique; collection-wide duplicates are skipped by the store, not fatal.
// Returns the number of rows actually written.
func (s *MediaService) AddMedia(ctx context.Context, items []domain.MediaItem) (int, error) {
	if len(items) == 0 {
		return 0, cmserr.Validationf("imageArray must not be empty")
	}
	refs := make([]domain.ImageRef, 0, len(items))
	for _, item := range items {
		refs = append(refs, domain.ImageRef{FileID: item.FileID, URL: item.URL})
	}
	if err := validateRefs(refs); err != nil {
		return 0, err
	}

	seen := make(map[string]struct{}, len(items))
	deduped := make([]domain.MediaItem, 0, len(items))
	for i, item := range items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			return 0, cmserr.Validationf("imageArray[%d].title must not be empty", i)
		}
		if _, ok := seen[title]; ok {
			// first occurrence wins, mirroring the store's conflict skip
			continue
		}
		seen[title] = struct{}{}
		item.Title = title
		deduped = append(deduped, item)
	}
	return s.items.InsertBatch(ctx, deduped)
}

func (s *MediaService) DeleteMedia(ctx context.Context, fileIDs []string) (int, error) {
	if len(fileIDs) == 0 {
		return 0, cmserr.Validationf("no media selected for deletion")
	}
	removeRemote(ctx, s.store, s.cleanup, fileIDs)
	return s.items.DeleteByFileIDs(ctx, fileIDs)
}

func (s *MediaService) ListMedia(ctx context.Context, p domain.ListParams) ([]domain.MediaItem, int, error) {
	return s.items.List(ctx, p)
}
