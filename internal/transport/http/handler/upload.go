package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/app"
	"pdfchat/internal/transport/http/response"
)

type UploadHandler struct {
	ingestService *app.IngestService
	maxSizeBytes  int64
}

func NewUploadHandler(ingestService *app.IngestService, maxSizeBytes int64) *UploadHandler {
	return &UploadHandler{
		ingestService: ingestService,
		maxSizeBytes:  maxSizeBytes,
	}
}

// UploadPDF accepts a multipart form with a "file" field. Exactly the
// ceiling is accepted; one byte over is rejected with 413.
func (h *UploadHandler) UploadPDF(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "File name missing")
		return
	}
	if strings.TrimSpace(file.Filename) == "" {
		response.Error(c, http.StatusBadRequest, "File name missing")
		return
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".pdf") {
		response.Error(c, http.StatusBadRequest, "Only PDF files are allowed")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to read file")
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "failed to read file")
		return
	}
	if len(content) == 0 {
		response.Error(c, http.StatusBadRequest, "Empty file")
		return
	}
	if int64(len(content)) > h.maxSizeBytes {
		response.Error(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("File too large. Max %d MB allowed", h.maxSizeBytes>>20))
		return
	}

	doc, err := h.ingestService.Ingest(c.Request.Context(), file.Filename, content)
	if err != nil {
		if errors.Is(err, app.ErrInvalidDocument) {
			response.Error(c, http.StatusBadRequest, "Invalid PDF")
			return
		}
		response.Error(c, http.StatusInternalServerError, "ingest failed: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"file":    doc,
	})
}
