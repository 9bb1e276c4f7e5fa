package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Health(c *gin.Context) {
	success(c, gin.H{
		"status":  "ok",
		"app":     h.App.Name,
		"version": h.App.Version,
	})
}

func (h *Handler) ExtractAudio(c *gin.Context) {
	success(c, gin.H{"message": "mock audio extraction queued"})
}

func (h *Handler) BatchExtractAudio(c *gin.Context) {
	success(c, gin.H{"message": "mock batch audio extraction queued"})
}

// NotImplemented /api/v1 下未注册的模块统一返回 501
func (h *Handler) NotImplemented(c *gin.Context) {
	rest := strings.TrimPrefix(c.Request.URL.Path, "/api/v1/")
	module, sub, _ := strings.Cut(rest, "/")
	Fail(c, http.StatusNotImplemented, "module not migrated yet", gin.H{
		"module": module,
		"path":   sub,
		"method": c.Request.Method,
	})
}
