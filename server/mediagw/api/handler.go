package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"cms_server/server/common/cmserr"
	"cms_server/server/common/log"
	"cms_server/server/common/transport/httpresp"
	"cms_server/server/mediagw/service"
)

type Handler struct {
	media *service.MediaService
}

func NewHandler(media *service.MediaService) *Handler {
	return &Handler{media: media}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/media/upload", h.upload)
	r.POST("/media/bulk-delete", h.bulkDelete)
	r.GET("/media/:fileId", h.serve)
}

func (h *Handler) upload(c *gin.Context) {
	token := c.PostForm("token")
	signature := c.PostForm("signature")
	expire, err := strconv.ParseInt(c.PostForm("expire"), 10, 64)
	if err != nil {
		c.JSON(http.StatusUnauthorized, httpresp.NewErrorResponse("expire must be a unix timestamp"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse("file part is required"))
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse("unreadable file part"))
		return
	}
	defer f.Close()

	fileName := c.PostForm("fileName")
	if fileName == "" {
		fileName = fileHeader.Filename
	}

	asset, err := h.media.Upload(c.Request.Context(), service.UploadInput{
		Token:     token,
		Expire:    expire,
		Signature: signature,
		FileName:  fileName,
		Body:      f,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, asset)
}

func (h *Handler) bulkDelete(c *gin.Context) {
	var req struct {
		FileIDs []string `json:"fileIds" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse(err.Error()))
		return
	}
	deleted, failed := h.media.BulkDelete(c.Request.Context(), req.FileIDs)
	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "failed": failed})
}

func (h *Handler) serve(c *gin.Context) {
	rc, contentType, err := h.media.Serve(c.Request.Context(), c.Param("fileId"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		log.Errorf("stream media %s: %v", c.Param("fileId"), err)
	}
}

func (h *Handler) respondError(c *gin.Context, err error) {
	status := cmserr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, httpresp.NewErrorResponse(cmserr.PublicMessage(err)))
}
