package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/studyforge/studyforge/internal/engine"
	"github.com/studyforge/studyforge/internal/pkg/errcode"
	"github.com/studyforge/studyforge/internal/pkg/response"
	"github.com/studyforge/studyforge/internal/usage"
)

type UsageHandler struct {
	ledger *usage.Ledger
}

func NewUsageHandler(ledger *usage.Ledger) *UsageHandler {
	return &UsageHandler{ledger: ledger}
}

func (h *UsageHandler) List(c *gin.Context) {
	entries, err := h.ledger.ListByUser(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, entries)
}

func (h *UsageHandler) Balance(c *gin.Context) {
	mode, err := engine.ParseMode(c.Param("activity"))
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "unknown activity")
		return
	}
	balance, err := h.ledger.CheckBalance(c.Request.Context(), getUserID(c), string(mode))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"activity": string(mode), "balance": balance})
}
