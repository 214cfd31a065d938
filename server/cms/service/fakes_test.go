package service

import (
	"context"
	"errors"
	"time"

	"cms_server/server/cms/domain"
	"cms_server/server/common/cmserr"
)

// fakeFolderStore keeps folders in memory with the same not-found semantics
// as the real repository.
type fakeFolderStore struct {
	folders map[int64]domain.Folder
	nextID  int64
	deleted []int64
}

func newFakeFolderStore() *fakeFolderStore {
	return &fakeFolderStore{folders: make(map[int64]domain.Folder), nextID: 1}
}

func (f *fakeFolderStore) CreateWithThumbnail(_ context.Context, folder domain.Folder) (domain.Folder, domain.FolderImage, error) {
	folder.ID = f.nextID
	folder.CreatedAt = time.Now()
	folder.ImageCount = 1
	f.nextID++
	f.folders[folder.ID] = folder
	image := domain.FolderImage{
		ID:       folder.ID,
		FolderID: folder.ID,
		FileID:   folder.Thumbnail.FileID,
		URL:      folder.Thumbnail.URL,
		Width:    folder.Thumbnail.Width,
		Height:   folder.Thumbnail.Height,
	}
	return folder, image, nil
}

func (f *fakeFolderStore) Get(_ context.Context, id int64) (domain.Folder, error) {
	folder, ok := f.folders[id]
	if !ok {
		return domain.Folder{}, cmserr.NotFoundf("folder %d", id)
	}
	return folder, nil
}

func (f *fakeFolderStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.folders[id]; !ok {
		return cmserr.NotFoundf("folder %d", id)
	}
	delete(f.folders, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeFolderStore) List(_ context.Context, _ domain.ListParams) ([]domain.Folder, int, error) {
	out := make([]domain.Folder, 0, len(f.folders))
	for _, folder := range f.folders {
		out = append(out, folder)
	}
	return out, len(out), nil
}

type fakeImageStore struct {
	byFolder map[int64][]domain.ImageRef
}

func newFakeImageStore() *fakeImageStore {
	return &fakeImageStore{byFolder: make(map[int64][]domain.ImageRef)}
}

func (f *fakeImageStore) InsertBatch(_ context.Context, folderID int64, refs []domain.ImageRef) (int, error) {
	f.byFolder[folderID] = append(f.byFolder[folderID], refs...)
	return len(refs), nil
}

func (f *fakeImageStore) FileIDsByFolder(_ context.Context, folderID int64) ([]string, error) {
	refs := f.byFolder[folderID]
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.FileID)
	}
	return ids, nil
}

func (f *fakeImageStore) DeleteByFolder(_ context.Context, folderID int64) (int, error) {
	n := len(f.byFolder[folderID])
	delete(f.byFolder, folderID)
	return n, nil
}

func (f *fakeImageStore) DeleteByFileIDs(_ context.Context, fileIDs []string) (int, error) {
	drop := make(map[string]struct{}, len(fileIDs))
	for _, id := range fileIDs {
		drop[id] = struct{}{}
	}
	deleted := 0
	for folderID, refs := range f.byFolder {
		kept := refs[:0]
		for _, ref := range refs {
			if _, ok := drop[ref.FileID]; ok {
				deleted++
				continue
			}
			kept = append(kept, ref)
		}
		f.byFolder[folderID] = kept
	}
	return deleted, nil
}

func (f *fakeImageStore) ListByFolder(_ context.Context, folderID int64, _ domain.ListParams) ([]domain.FolderImage, int, error) {
	refs := f.byFolder[folderID]
	out := make([]domain.FolderImage, 0, len(refs))
	for i, ref := range refs {
		out = append(out, domain.FolderImage{
			ID:       int64(i + 1),
			FolderID: folderID,
			FileID:   ref.FileID,
			URL:      ref.URL,
		})
	}
	return out, len(out), nil
}

// fakeRemover records bulk deletions and can be told to fail.
type fakeRemover struct {
	calls [][]string
	err   error
}

func (f *fakeRemover) BulkDelete(_ context.Context, fileIDs []string) error {
	f.calls = append(f.calls, append([]string(nil), fileIDs...))
	return f.err
}

type fakeCleanup struct {
	fileIDs []string
	reasons []string
}

func (f *fakeCleanup) NotifyFailedCleanup(_ context.Context, fileIDs []string, reason string) error {
	f.fileIDs = append(f.fileIDs, fileIDs...)
	f.reasons = append(f.reasons, reason)
	return nil
}

// fakeMediaStore mirrors the unique-title skip of the real repository.
type fakeMediaStore struct {
	items []domain.MediaItem
}

func (f *fakeMediaStore) InsertBatch(_ context.Context, items []domain.MediaItem) (int, error) {
	existing := make(map[string]struct{}, len(f.items))
	for _, item := range f.items {
		existing[item.Title] = struct{}{}
	}
	inserted := 0
	for _, item := range items {
		if _, ok := existing[item.Title]; ok {
			continue
		}
		existing[item.Title] = struct{}{}
		item.ID = int64(len(f.items) + 1)
		f.items = append(f.items, item)
		inserted++
	}
	return inserted, nil
}

func (f *fakeMediaStore) DeleteByFileIDs(_ context.Context, fileIDs []string) (int, error) {
	drop := make(map[string]struct{}, len(fileIDs))
	for _, id := range fileIDs {
		drop[id] = struct{}{}
	}
	kept := f.items[:0]
	deleted := 0
	for _, item := range f.items {
		if _, ok := drop[item.FileID]; ok {
			deleted++
			continue
		}
		kept = append(kept, item)
	}
	f.items = kept
	return deleted, nil
}

func (f *fakeMediaStore) List(_ context.Context, _ domain.ListParams) ([]domain.MediaItem, int, error) {
	return append([]domain.MediaItem(nil), f.items...), len(f.items), nil
}

type fakePostStore struct {
	posts   map[int64]domain.Post
	nextID  int64
	deleted []int64
}

func newFakePostStore() *fakePostStore {
	return &fakePostStore{posts: make(map[int64]domain.Post), nextID: 1}
}

func (f *fakePostStore) Create(_ context.Context, post domain.Post) (domain.Post, error) {
	post.ID = f.nextID
	post.CreatedAt = time.Now()
	f.nextID++
	f.posts[post.ID] = post
	return post, nil
}

func (f *fakePostStore) Get(_ context.Context, id int64) (domain.Post, error) {
	post, ok := f.posts[id]
	if !ok {
		return domain.Post{}, cmserr.NotFoundf("post %d", id)
	}
	return post, nil
}

func (f *fakePostStore) Delete(_ context.Context, id int64) error {
	if _, ok := f.posts[id]; !ok {
		return cmserr.NotFoundf("post %d", id)
	}
	delete(f.posts, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakePostStore) List(_ context.Context, _ domain.ListParams) ([]domain.Post, int, error) {
	out := make([]domain.Post, 0, len(f.posts))
	for _, post := range f.posts {
		out = append(out, post)
	}
	return out, len(out), nil
}

var errStoreDown = errors.New("object store unreachable")
