package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cms_server/server/cms/domain"
	"cms_server/server/cms/service"
	commonauth "cms_server/server/common/auth"
	"cms_server/server/common/cmserr"
	"cms_server/server/common/log"
	"cms_server/server/common/middleware"
	"cms_server/server/common/transport/httpresp"
	"cms_server/server/common/uploadsig"
)

type AdminCredentials struct {
	Username     string
	PasswordHash string
}

type Handler struct {
	gallery *service.GalleryService
	media   *service.MediaService
	blogs   *service.PostService
	thanks  *service.PostService
	signer  *uploadsig.Signer
	auth    *commonauth.Service
	admin   AdminCredentials
}

func NewHandler(gallery *service.GalleryService, media *service.MediaService, blogs, thanks *service.PostService,
	signer *uploadsig.Signer, auth *commonauth.Service, admin AdminCredentials) *Handler {
	return &Handler{gallery: gallery, media: media, blogs: blogs, thanks: thanks, signer: signer, auth: auth, admin: admin}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/admin/login", h.login)

	// reads are public, matching each collection's trust model
	r.GET("/gallery/getFolders", h.getFolders)
	r.GET("/gallery/getFolderImages/:id", h.getFolderImages)
	r.GET("/news/fetchMedia", h.fetchMedia)
	r.GET("/blogs/fetchBlogs", h.fetchPosts(h.blogs))
	r.GET("/thanks/fetchThanks", h.fetchPosts(h.thanks))

	admin := r.Group("")
	admin.Use(middleware.AdminRequired(h.auth))
	{
		admin.GET("/upload-auth", h.uploadAuth)
		admin.POST("/gallery/addFolder", h.addFolder)
		admin.POST("/gallery/addImages", h.addImages)
		admin.POST("/gallery/deleteImages", h.deleteImages)
		admin.DELETE("/gallery/deleteFolder/:id", h.deleteFolder)
		admin.POST("/news/addMedia", h.addMedia)
		admin.POST("/news/deleteMedia", h.deleteMedia)
		admin.POST("/blogs/addBlog", h.addPost(h.blogs))
		admin.POST("/blogs/deleteBlog/:id", h.deletePost(h.blogs))
		admin.POST("/thanks/addThank", h.addPost(h.thanks))
		admin.POST("/thanks/deleteThank/:id", h.deletePost(h.thanks))
	}
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse(err.Error()))
		return
	}
	if req.Username != h.admin.Username || !commonauth.VerifyPassword(h.admin.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, httpresp.NewErrorResponse(httpresp.ErrInvalidCredentials))
		return
	}
	token, err := h.auth.GenerateToken(req.Username)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpresp.TokenResponse{AccessToken: token})
}

func (h *Handler) uploadAuth(c *gin.Context) {
	cred, err := h.signer.Issue()
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cred)
}

func (h *Handler) addFolder(c *gin.Context) {
	var req addFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse(err.Error()))
		return
	}
	eventDate, ok := parseEventDate(req.EventDate)
	if !ok {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse("event_date must use YYYY-MM-DD format"))
		return
	}
	folder, image, err := h.gallery.CreateFolder(c.Request.Context(), domain.Folder{
		Title:     req.Title,
		Caption:   req.Caption,
		EventDate: eventDate,
		Thumbnail: req.ThumbnailImage.toRef(),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":      "folder created",
		"folder":       folder,
		"galleryImage": image,
	})
}

func (h *Handler) addImages(c *gin.Context) {
	var req addImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse(err.Error()))
		return
	}
	refs := make([]domain.ImageRef, 0, len(req.ImageArray))
	for _, r := range req.ImageArray {
		refs = append(refs, r.toRef())
	}
	count, err := h.gallery.AddImages(c.Request.Context(), req.FolderID, refs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpresp.NewCountResponse("images added", count))
}

func (h *Handler) deleteImages(c *gin.Context) {
	var req deleteImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse(err.Error()))
		return
	}
	fileIDs := make([]string, 0, len(req.ImageArray))
	for _, item := range req.ImageArray {
		fileIDs = append(fileIDs, item.FileID)
	}
	count, err := h.gallery.DeleteImages(c.Request.Context(), fileIDs, req.FolderID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpresp.NewCountResponse("images deleted", count))
}

func (h *Handler) deleteFolder(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	count, err := h.gallery.DeleteFolder(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpresp.NewCountResponse("folder deleted", count))
}

func (h *Handler) getFolders(c *gin.Context) {
	p := listParamsFromQuery(c)
	folders, total, err := h.gallery.ListFolders(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpresp.NewListResponse(folders, metaFor(p, total)))
}

func (h *Handler) getFolderImages(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	p := listParamsFromQuery(c)
	images, total, err := h.gallery.ListFolderImages(c.Request.Context(), id, p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpresp.NewListResponse(images, metaFor(p, total)))
}

func (h *Handler) addMedia(c *gin.Context) {
	var req addMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse(err.Error()))
		return
	}
	items := make([]domain.MediaItem, 0, len(req.ImageArray))
	for _, r := range req.ImageArray {
		items = append(items, domain.MediaItem{
			Title:      r.Title,
			FileID:     r.FileID,
			URL:        r.URL,
			Width:      r.Width,
			Height:     r.Height,
			IsFeatured: r.IsFeatured,
		})
	}
	count, err := h.media.AddMedia(c.Request.Context(), items)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpresp.NewCountResponse("media added", count))
}

func (h *Handler) deleteMedia(c *gin.Context) {
	var req deleteMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse(err.Error()))
		return
	}
	fileIDs := make([]string, 0, len(req.ImageArray))
	for _, item := range req.ImageArray {
		fileIDs = append(fileIDs, item.FileID)
	}
	count, err := h.media.DeleteMedia(c.Request.Context(), fileIDs)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpresp.NewCountResponse("media deleted", count))
}

func (h *Handler) fetchMedia(c *gin.Context) {
	p := listParamsFromQuery(c)
	items, total, err := h.media.ListMedia(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpresp.NewListResponse(items, metaFor(p, total)))
}

func (h *Handler) addPost(posts *service.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addPostRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse(err.Error()))
			return
		}
		refs := make([]domain.ImageRef, 0, len(req.ImageArray))
		for _, r := range req.ImageArray {
			refs = append(refs, r.toRef())
		}
		post, err := posts.CreatePost(c.Request.Context(), domain.Post{
			Title:       req.Title,
			Description: req.Description,
			Content:     req.Content,
			Images:      refs,
			IsFeatured:  req.IsFeatured,
		})
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "post created", "post": post})
	}
}

func (h *Handler) deletePost(posts *service.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		if err := posts.DeletePost(c.Request.Context(), id); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, httpresp.NewMessageResponse("post deleted"))
	}
}

func (h *Handler) fetchPosts(posts *service.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := listParamsFromQuery(c)
		items, total, err := posts.ListPosts(c.Request.Context(), p)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, httpresp.NewListResponse(items, metaFor(p, total)))
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := cmserr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, httpresp.NewErrorResponse(cmserr.PublicMessage(err)))
}

func metaFor(p domain.ListParams, total int) httpresp.Meta {
	if !p.Paginate {
		return httpresp.NewUnpagedMeta(total)
	}
	return httpresp.NewMeta(total, p.Page, p.Limit)
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse("id must be a positive integer"))
		return 0, false
	}
	return id, true
}
