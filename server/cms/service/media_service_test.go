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

func mediaItem(title, fileID string) domain.MediaItem {
	return domain.MediaItem{
		Title:  title,
		FileID: fileID,
		URL:    "https://media.example.com/media/" + fileID,
	}
}

func TestAddMediaSkipsDuplicateTitles(t *testing.T) {
	store := &fakeMediaStore{}
	svc := NewMediaService(store, &fakeRemover{}, nil)

	count, err := svc.AddMedia(context.Background(), []domain.MediaItem{
		mediaItem("Annual report", "a.jpg"),
		mediaItem("Annual report", "a-dup.jpg"),
		mediaItem("Press photo", "b.jpg"),
	})
	require.NoError(t, err)

	assert.Equal(t, 2, count, "duplicate titles skip, the batch is not aborted")
	require.Len(t, store.items, 2)
	assert.Equal(t, "a.jpg", store.items[0].FileID, "first occurrence wins")
}

func TestAddMediaSkipsTitlesAlreadyStored(t *testing.T) {
	store := &fakeMediaStore{items: []domain.MediaItem{mediaItem("Existing", "old.jpg")}}
	svc := NewMediaService(store, &fakeRemover{}, nil)

	count, err := svc.AddMedia(context.Background(), []domain.MediaItem{
		mediaItem("Existing", "new.jpg"),
		mediaItem("Fresh", "fresh.jpg"),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, count)
	assert.Equal(t, "old.jpg", store.items[0].FileID, "stored row is untouched by the skipped duplicate")
}

func TestAddMediaValidation(t *testing.T) {
	svc := NewMediaService(&fakeMediaStore{}, &fakeRemover{}, nil)

	_, err := svc.AddMedia(context.Background(), nil)
	assert.True(t, errors.Is(err, cmserr.ErrValidation))

	_, err = svc.AddMedia(context.Background(), []domain.MediaItem{mediaItem("  ", "a.jpg")})
	assert.True(t, errors.Is(err, cmserr.ErrValidation))

	noURL := mediaItem("Titled", "a.jpg")
	noURL.URL = ""
	_, err = svc.AddMedia(context.Background(), []domain.MediaItem{noURL})
	assert.True(t, errors.Is(err, cmserr.ErrValidation))
}

func TestDeleteMediaRemovesBytesFirst(t *testing.T) {
	store := &fakeMediaStore{items: []domain.MediaItem{mediaItem("One", "a.jpg"), mediaItem("Two", "b.jpg")}}
	remover := &fakeRemover{}
	svc := NewMediaService(store, remover, nil)

	count, err := svc.DeleteMedia(context.Background(), []string{"a.jpg"})
	require.NoError(t, err)

	assert.Equal(t, 1, count)
	require.Len(t, remover.calls, 1)
	assert.Equal(t, []string{"a.jpg"}, remover.calls[0])
	require.Len(t, store.items, 1)
	assert.Equal(t, "b.jpg", store.items[0].FileID)
}

func TestDeleteMediaSurvivesStorageFailure(t *testing.T) {
	store := &fakeMediaStore{items: []domain.MediaItem{mediaItem("One", "a.jpg")}}
	cleanup := &fakeCleanup{}
	svc := NewMediaService(store, &fakeRemover{err: errStoreDown}, cleanup)

	count, err := svc.DeleteMedia(context.Background(), []string{"a.jpg"})
	require.NoError(t, err)

	assert.Equal(t, 1, count)
	assert.Empty(t, store.items)
	assert.Equal(t, []string{"a.jpg"}, cleanup.fileIDs)
}
