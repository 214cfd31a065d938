package api

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"cms_server/server/cms/domain"
)

type imageRefRequest struct {
	FileID string `json:"fileId" binding:"required"`
	URL    string `json:"url" binding:"required"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (r imageRefRequest) toRef() domain.ImageRef {
	return domain.ImageRef{FileID: r.FileID, URL: r.URL, Width: r.Width, Height: r.Height}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type addFolderRequest struct {
	Title          string          `json:"title" binding:"required"`
	Caption        string          `json:"caption"`
	EventDate      string          `json:"event_date" binding:"required"`
	ThumbnailImage imageRefRequest `json:"thumbnail_image" binding:"required"`
}

type addImagesRequest struct {
	FolderID   int64             `json:"folder_id" binding:"required"`
	ImageArray []imageRefRequest `json:"imageArray" binding:"required"`
}

type fileIDRequest struct {
	FileID string `json:"fileId" binding:"required"`
}

type deleteImagesRequest struct {
	FolderID   int64           `json:"folder_id"`
	ImageArray []fileIDRequest `json:"imageArray"`
}

type mediaItemRequest struct {
	Title      string `json:"title" binding:"required"`
	FileID     string `json:"fileId" binding:"required"`
	URL        string `json:"url" binding:"required"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	IsFeatured bool   `json:"isFeatured"`
}

type addMediaRequest struct {
	ImageArray []mediaItemRequest `json:"imageArray" binding:"required"`
}

type deleteMediaRequest struct {
	ImageArray []fileIDRequest `json:"imageArray" binding:"required"`
}

type addPostRequest struct {
	Title       string            `json:"title" binding:"required"`
	Description string            `json:"description"`
	Content     string            `json:"content"`
	ImageArray  []imageRefRequest `json:"imageArray" binding:"required"`
	IsFeatured  bool              `json:"isFeatured"`
}

const eventDateLayout = "2006-01-02"

func parseEventDate(raw string) (time.Time, bool) {
	t, err := time.Parse(eventDateLayout, raw)
	return t, err == nil
}

// listParamsFromQuery reads the shared listing query surface. Page and
// limit are taken as given; a page past the end yields an empty data set
// with accurate meta, not an error.
func listParamsFromQuery(c *gin.Context) domain.ListParams {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 {
		limit = 10
	}
	sort := domain.SortNewest
	if c.Query("sort") == string(domain.SortOldest) {
		sort = domain.SortOldest
	}
	return domain.ListParams{
		Page:     page,
		Limit:    limit,
		Search:   c.Query("search"),
		Sort:     sort,
		Paginate: c.DefaultQuery("paginate", "true") != "false",
	}
}
