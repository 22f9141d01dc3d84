package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/app"
	"pdfchat/internal/model"
	"pdfchat/internal/transport/http/response"
)

type FileHandler struct {
	ingestService *app.IngestService
}

func NewFileHandler(ingestService *app.IngestService) *FileHandler {
	return &FileHandler{ingestService: ingestService}
}

// List returns every ledger row, newest first.
func (h *FileHandler) List(c *gin.Context) {
	files, err := h.ingestService.List(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "list files failed")
		return
	}
	if files == nil {
		files = []model.UploadedDocument{}
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// Delete removes the ledger row, the stored blob and the indexed vectors.
func (h *FileHandler) Delete(c *gin.Context) {
	documentID := c.Param("document_id")
	fileName := strings.TrimSpace(c.Query("file_name"))
	if fileName == "" {
		response.Error(c, http.StatusBadRequest, "file_name query parameter is required")
		return
	}

	if err := h.ingestService.Delete(c.Request.Context(), documentID, fileName); err != nil {
		if errors.Is(err, app.ErrNotFound) {
			response.Error(c, http.StatusNotFound, "File not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "delete file failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"document_id": documentID,
		"file_name":   fileName,
		"message":     fmt.Sprintf("%s deleted successfully", fileName),
	})
}
