package domain

import "time"

// ImageRef identifies one uploaded binary held by the media gateway. The
// file id is the handle for later deletion; the url is the public delivery
// address. Width and height default to 0 when the client never probed them.
type ImageRef struct {
	FileID string `json:"fileId"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Folder struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Caption   string    `json:"caption"`
	EventDate time.Time `json:"event_date"`
	Thumbnail ImageRef  `json:"thumbnail"`
	CreatedAt time.Time `json:"created_at"`

	// ImageCount is derived per listing, never stored.
	ImageCount int `json:"imageCount"`
}

type FolderImage struct {
	ID        int64     `json:"id"`
	FolderID  int64     `json:"folder_id"`
	FileID    string    `json:"fileId"`
	URL       string    `json:"url"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
}

// MediaItem is one press image. Titles are unique across the collection;
// the unique index is the only guard, there is no pre-check.
type MediaItem struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	FileID     string    `json:"fileId"`
	URL        string    `json:"url"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	IsFeatured bool      `json:"isFeatured"`
	CreatedAt  time.Time `json:"created_at"`
}

type PostKind string

const (
	PostKindBlog   PostKind = "blog"
	PostKindThanks PostKind = "thanks"
)

// Post covers blogs and thanks entries: same shape, different collection.
// Images are stored inline as a JSON array, not normalized into rows.
type Post struct {
	ID          int64      `json:"id"`
	Kind        PostKind   `json:"-"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Content     string     `json:"content"`
	Images      []ImageRef `json:"imageArray"`
	IsFeatured  bool       `json:"isFeatured"`
	CreatedAt   time.Time  `json:"created_at"`
}

type SortOrder string

const (
	SortNewest SortOrder = "newest"
	SortOldest SortOrder = "oldest"
)

// ListParams drive every collection read. Paginate false returns the whole
// collection (still searched and sorted); some callers need the full set.
type ListParams struct {
	Page     int
	Limit    int
	Search   string
	Sort     SortOrder
	Paginate bool
}

func (p ListParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}
