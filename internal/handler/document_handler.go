package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docask/internal/pkg/response"
	"github.com/xxxsen/docask/internal/service"
)

type DocumentHandler struct {
	documents     *service.DocumentService
	maxUploadSize int64
}

func NewDocumentHandler(documents *service.DocumentService, maxUploadSize int64) *DocumentHandler {
	return &DocumentHandler{documents: documents, maxUploadSize: maxUploadSize}
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, docs)
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "file is required")
		return
	}
	if h.maxUploadSize > 0 && file.Size > h.maxUploadSize {
		response.Error(c, http.StatusBadRequest, "file too large (max "+formatUploadLimit(h.maxUploadSize)+")")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to open file")
		return
	}
	defer opened.Close()

	doc, err := h.documents.Upload(c.Request.Context(), file.Filename, opened)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "document uploaded", "document": doc})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "document deleted"})
}
