package service

import (
	"context"
	"strings"

	"cms_server/server/cms/domain"
	"cms_server/server/common/cmserr"
)

type FolderStore interface {
	CreateWithThumbnail(ctx context.Context, folder domain.Folder) (domain.Folder, domain.FolderImage, error)
	Get(ctx context.Context, id int64) (domain.Folder, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, p domain.ListParams) ([]domain.Folder, int, error)
}

type ImageStore interface {
	InsertBatch(ctx context.Context, folderID int64, refs []domain.ImageRef) (int, error)
	FileIDsByFolder(ctx context.Context, folderID int64) ([]string, error)
	DeleteByFolder(ctx context.Context, folderID int64) (int, error)
	DeleteByFileIDs(ctx context.Context, fileIDs []string) (int, error)
	ListByFolder(ctx context.Context, folderID int64, p domain.ListParams) ([]domain.FolderImage, int, error)
}

type GalleryService struct {
	folders FolderStore
	images  ImageStore
	store   ObjectRemover
	cleanup CleanupNotifier
}

func NewGalleryService(folders FolderStore, images ImageStore, store ObjectRemover, cleanup CleanupNotifier) *GalleryService {
	return &GalleryService{folders: folders, images: images, store: store, cleanup: cleanup}
}

// CreateFolder persists a folder and its thumbnail as one logical unit; the
// thumbnail doubles as the first member of the folder's image collection.
func (s *GalleryService) CreateFolder(ctx context.Context, folder domain.Folder) (domain.Folder, domain.FolderImage, error) {
	if strings.TrimSpace(folder.Title) == "" {
		return domain.Folder{}, domain.FolderImage{}, cmserr.Validationf("title must not be empty")
	}
	if folder.EventDate.IsZero() {
		return domain.Folder{}, domain.FolderImage{}, cmserr.Validationf("event_date must not be empty")
	}
	if err := validateRefs([]domain.ImageRef{folder.Thumbnail}); err != nil {
		return domain.Folder{}, domain.FolderImage{}, cmserr.Validationf("thumbnail_image: %v", err)
	}
	return s.folders.CreateWithThumbnail(ctx, folder)
}

// AddImages appends uploaded images to an existing folder.
func (s *GalleryService) AddImages(ctx context.Context, folderID int64, refs []domain.ImageRef) (int, error) {
	if err := validateRefs(refs); err != nil {
		return 0, err
	}
	if _, err := s.folders.Get(ctx, folderID); err != nil {
		return 0, err
	}
	return s.images.InsertBatch(ctx, folderID, refs)
}

// DeleteImages removes images by explicit file ids, or every image of a
// folder when folderID is set. Object bytes go first, best-effort; the
// relational delete proceeds regardless and its row count is the result.
// A selector that matches nothing yields count 0, not an error: ids with
// no relational counterpart and folders that are already empty both count
// as valid outcomes of a delete request.
func (s *GalleryService) DeleteImages(ctx context.Context, fileIDs []string, folderID int64) (int, error) {
	if folderID == 0 && len(fileIDs) == 0 {
		return 0, cmserr.Validationf("no images selected for deletion")
	}
	if folderID != 0 {
		if _, err := s.folders.Get(ctx, folderID); err != nil {
			return 0, err
		}
		expanded, err := s.images.FileIDsByFolder(ctx, folderID)
		if err != nil {
			return 0, err
		}
		fileIDs = expanded
	}
	if len(fileIDs) == 0 {
		return 0, nil
	}
	removeRemote(ctx, s.store, s.cleanup, fileIDs)
	return s.images.DeleteByFileIDs(ctx, fileIDs)
}

// DeleteFolder cascades: child bytes (best-effort), child rows, folder row,
// in that order. A failure late in the chain leaves an orphan-free state;
// images without their folder must never survive.
func (s *GalleryService) DeleteFolder(ctx context.Context, folderID int64) (int, error) {
	if _, err := s.folders.Get(ctx, folderID); err != nil {
		return 0, err
	}
	fileIDs, err := s.images.FileIDsByFolder(ctx, folderID)
	if err != nil {
		return 0, err
	}
	removeRemote(ctx, s.store, s.cleanup, fileIDs)

	removed, err := s.images.DeleteByFolder(ctx, folderID)
	if err != nil {
		return 0, err
	}
	if err := s.folders.Delete(ctx, folderID); err != nil {
		return removed, err
	}
	return removed, nil
}

func (s *GalleryService) ListFolders(ctx context.Context, p domain.ListParams) ([]domain.Folder, int, error) {
	return s.folders.List(ctx, p)
}

func (s *GalleryService) ListFolderImages(ctx context.Context, folderID int64, p domain.ListParams) ([]domain.FolderImage, int, error) {
	if _, err := s.folders.Get(ctx, folderID); err != nil {
		return nil, 0, err
	}
	return s.images.ListByFolder(ctx, folderID, p)
}
