package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/studyforge/internal/engine"
	"github.com/studyforge/studyforge/internal/pkg/errcode"
	"github.com/studyforge/studyforge/internal/pkg/response"
	"github.com/studyforge/studyforge/internal/service"
)

type GenerateHandler struct {
	generation *service.GenerationService
}

func NewGenerateHandler(generation *service.GenerationService) *GenerateHandler {
	return &GenerateHandler{generation: generation}
}

type generateRequest struct {
	Mode            string `json:"mode"`
	TargetChunkSize int    `json:"target_chunk_size"`
	MaxChunks       int    `json:"max_chunks"`
}

// Start accepts a generation run and returns before it finishes. Clients
// poll Progress for the outcome. Starting the same (document, mode) again
// supersedes the previous run.
func (h *GenerateHandler) Start(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	mode, err := engine.ParseMode(req.Mode)
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "unknown mode")
		return
	}
	err = h.generation.Start(c.Request.Context(), getUserID(c), c.Param("id"), mode, service.StartOptions{
		TargetChunkSize: req.TargetChunkSize,
		MaxChunks:       req.MaxChunks,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"document_id": c.Param("id"), "mode": string(mode), "accepted": true})
}

func (h *GenerateHandler) Progress(c *gin.Context) {
	mode, err := engine.ParseMode(c.Param("mode"))
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "unknown mode")
		return
	}
	snap, err := h.generation.Progress(c.Request.Context(), getUserID(c), c.Param("id"), mode)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, snap)
}

func (h *GenerateHandler) Artifact(c *gin.Context) {
	mode, err := engine.ParseMode(c.Param("mode"))
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "unknown mode")
		return
	}
	if c.Query("format") == "html" {
		html, err := h.generation.ArtifactHTML(c.Request.Context(), getUserID(c), c.Param("id"), mode)
		if err != nil {
			handleError(c, err)
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
		return
	}
	artifact, err := h.generation.Artifact(c.Request.Context(), getUserID(c), c.Param("id"), mode)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, artifact)
}
