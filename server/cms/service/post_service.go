package service

import (
	"context"
	"strings"

	"cms_server/server/cms/domain"
	"cms_server/server/common/cmserr"
)

type PostStore interface {
	Create(ctx context.Context, post domain.Post) (domain.Post, error)
	Get(ctx context.Context, id int64) (domain.Post, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, p domain.ListParams) ([]domain.Post, int, error)
}

// PostService backs one article-like collection (blogs or thanks). Images
// live inline on the post; deleting a post also removes its bytes from the
// object store, best-effort.
type PostService struct {
	posts   PostStore
	store   ObjectRemover
	cleanup CleanupNotifier
}

func NewPostService(posts PostStore, store ObjectRemover, cleanup CleanupNotifier) *PostService {
	return &PostService{posts: posts, store: store, cleanup: cleanup}
}

func (s *PostService) CreatePost(ctx context.Context, post domain.Post) (domain.Post, error) {
	if strings.TrimSpace(post.Title) == "" {
		return domain.Post{}, cmserr.Validationf("title must not be empty")
	}
	if err := validateRefs(post.Images); err != nil {
		return domain.Post{}, err
	}
	return s.posts.Create(ctx, post)
}

func (s *PostService) DeletePost(ctx context.Context, id int64) error {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return err
	}
	fileIDs := make([]string, 0, len(post.Images))
	for _, ref := range post.Images {
		fileIDs = append(fileIDs, ref.FileID)
	}
	removeRemote(ctx, s.store, s.cleanup, fileIDs)
	return s.posts.Delete(ctx, id)
}

func (s *PostService) ListPosts(ctx context.Context, p domain.ListParams) ([]domain.Post, int, error) {
	return s.posts.List(ctx, p)
}
