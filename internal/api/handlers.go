package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Skufu/healthtwin/internal/assessment"
	"github.com/Skufu/healthtwin/internal/integrity"
	"github.com/Skufu/healthtwin/internal/report"
)

type handler struct {
	service *assessment.Service
	store   assessment.Store
	chain   *integrity.Chain
	log     *zap.Logger
	now     func() time.Time
}

type errorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

// bindJSON decodes the body into dst and writes the error response itself
// when that fails.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
			return false
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload", Details: []string{err.Error()}})
		return false
	}
	return true
}

func (h *handler) respondError(c *gin.Context, err error) {
	var verr *assessment.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "validation_failed", Details: verr.Fields})
	case errors.Is(err, assessment.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "analysis not found"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func (h *handler) analyze(c *gin.Context) {
	var req assessment.AnalyzeRequest
	if !bindJSON(c, &req) {
		return
	}
	result, err := h.service.Analyze(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *handler) chat(c *gin.Context) {
	var req assessment.ChatRequest
	if !bindJSON(c, &req) {
		return
	}
	reply, source, err := h.service.Chat(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply, "source": source})
}

func (h *handler) listHistory(c *gin.Context) {
	records, err := h.store.List(c.Request.Context())
	if err != nil {
		h.respondError(c, fmt.Errorf("list history: %w", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}

func (h *handler) getHistory(c *gin.Context) {
	record, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func (h *handler) saveHistory(c *gin.Context) {
	var record assessment.AnalysisResult
	if !bindJSON(c, &record) {
		return
	}
	id, err := h.store.Save(c.Request.Context(), record)
	if err != nil {
		h.respondError(c, fmt.Errorf("save history: %w", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": id})
}

func (h *handler) deleteHistory(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		id = strings.TrimSpace(c.Query("id"))
	}
	if id == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "id required"})
		return
	}
	deleted, err := h.store.Delete(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, fmt.Errorf("delete history: %w", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": deleted})
}

func (h *handler) report(c *gin.Context) {
	format, err := report.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	var result assessment.AnalysisResult
	if !bindJSON(c, &result) {
		return
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, format, result); err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.Filename(h.now())))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (h *handler) integrity(c *gin.Context) {
	latest := h.chain.Latest()
	valid := h.chain.Verify()
	if !valid {
		h.log.Error("integrity chain failed verification", zap.Int("length", h.chain.Len()))
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":      valid,
		"length":     h.chain.Len(),
		"latestHash": latest.Hash,
	})
}
