package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cms_server/server/cms/domain"
	"cms_server/server/common/cmserr"
)

func validPost() domain.Post {
	return domain.Post{
		Kind:    domain.PostKindBlog,
		Title:   "Opening the new library",
		Content: "Long form text",
		Images: []domain.ImageRef{
			{FileID: "cover.jpg", URL: "https://media.example.com/media/cover.jpg"},
			{FileID: "inside.jpg", URL: "https://media.example.com/media/inside.jpg"},
		},
	}
}

func TestCreatePost(t *testing.T) {
	store := newFakePostStore()
	svc := NewPostService(store, &fakeRemover{}, nil)

	post, err := svc.CreatePost(context.Background(), validPost())
	require.NoError(t, err)
	assert.NotZero(t, post.ID)
	assert.Len(t, store.posts, 1)
}

func TestCreatePostValidation(t *testing.T) {
	svc := NewPostService(newFakePostStore(), &fakeRemover{}, nil)

	noTitle := validPost()
	noTitle.Title = " "
	_, err := svc.CreatePost(context.Background(), noTitle)
	assert.True(t, errors.Is(err, cmserr.ErrValidation))

	noImages := validPost()
	noImages.Images = nil
	_, err = svc.CreatePost(context.Background(), noImages)
	assert.True(t, errors.Is(err, cmserr.ErrValidation))
}

func TestDeletePostRemovesInlineImages(t *testing.T) {
	store := newFakePostStore()
	remover := &fakeRemover{}
	svc := NewPostService(store, remover, nil)

	post, err := svc.CreatePost(context.Background(), validPost())
	require.NoError(t, err)

	require.NoError(t, svc.DeletePost(context.Background(), post.ID))

	assert.Equal(t, []int64{post.ID}, store.deleted)
	require.Len(t, remover.calls, 1)
	assert.ElementsMatch(t, []string{"cover.jpg", "inside.jpg"}, remover.calls[0])
}

func TestDeletePostUnknownID(t *testing.T) {
	remover := &fakeRemover{}
	svc := NewPostService(newFakePostStore(), remover, nil)

	err := svc.DeletePost(context.Background(), 404)
	assert.True(t, errors.Is(err, cmserr.ErrNotFound))
	assert.Empty(t, remover.calls)
}

func TestDeletePostSurvivesStorageFailure(t *testing.T) {
	store := newFakePostStore()
	cleanup := &fakeCleanup{}
	svc := NewPostService(store, &fakeRemover{err: errStoreDown}, cleanup)

	post, err := svc.CreatePost(context.Background(), validPost())
	require.NoError(t, err)

	require.NoError(t, svc.DeletePost(context.Background(), post.ID))
	assert.Empty(t, store.posts)
	assert.ElementsMatch(t, []string{"cover.jpg", "inside.jpg"}, cleanup.fileIDs)
}
