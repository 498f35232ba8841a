package handler

import (
	"io"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/studyforge/internal/pkg/errcode"
	"github.com/studyforge/studyforge/internal/pkg/response"
	"github.com/studyforge/studyforge/internal/service"
)

const maxSourceFileBytes = 64 << 20

type FileHandler struct {
	documents *service.DocumentService
}

func NewFileHandler(documents *service.DocumentService) *FileHandler {
	return &FileHandler{documents: documents}
}

// UploadSource attaches the original uploaded file to an existing document.
// The document text itself is submitted separately through the document API;
// the source file is kept only for later download.
func (h *FileHandler) UploadSource(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "file is required")
		return
	}
	if file.Size <= 0 || file.Size > maxSourceFileBytes {
		response.Error(c, errcode.ErrInvalid, "file size out of range")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "failed to open file")
		return
	}
	defer opened.Close()

	err = h.documents.AttachSource(c.Request.Context(), getUserID(c), c.Param("id"), opened, file.Size)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"name": file.Filename, "size": file.Size})
}

func (h *FileHandler) DownloadSource(c *gin.Context) {
	reader, err := h.documents.OpenSource(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	defer reader.Close()
	c.Header("Content-Type", "application/octet-stream")
	_, _ = reader.Seek(0, io.SeekStart)
	_, _ = io.Copy(c.Writer, reader)
}
