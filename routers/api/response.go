package api

import (
	"errors"
	"net/http"

	"DramaStudio-server/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Envelope 所有接口统一的响应结构，code 为 0 表示成功
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

const (
	CodeOK    = 0
	CodeError = 1
)

func respond(c *gin.Context, status, code int, message string, data any) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(status, Envelope{Code: code, Message: message, Data: data})
}

func success(c *gin.Context, data any) {
	respond(c, http.StatusOK, CodeOK, "ok", data)
}

func successMsg(c *gin.Context, message string, data any) {
	respond(c, http.StatusOK, CodeOK, message, data)
}

func created(c *gin.Context, data any) {
	respond(c, http.StatusCreated, CodeOK, "created", data)
}

func deleted(c *gin.Context, id any) {
	successMsg(c, "deleted", gin.H{"id": id})
}

// Fail 输出错误响应并中断后续 handler
func Fail(c *gin.Context, status int, message string, data any) {
	respond(c, status, CodeError, message, data)
	c.Abort()
}

// fail 按错误类别映射状态码，未分类的错误记日志后返回 500
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		Fail(c, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, service.ErrConflict):
		Fail(c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, service.ErrInvalid):
		Fail(c, http.StatusUnprocessableEntity, err.Error(), nil)
	case errors.Is(err, gorm.ErrRecordNotFound):
		Fail(c, http.StatusNotFound, "record not found", nil)
	default:
		h.Log.Errorw("请求处理失败", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		Fail(c, http.StatusInternalServerError, "internal server error", nil)
	}
}

func (h *Handler) notFound(c *gin.Context, resource string) {
	Fail(c, http.StatusNotFound, resource+" not found", nil)
}

func invalid(c *gin.Context, message string) {
	Fail(c, http.StatusUnprocessableEntity, message, nil)
}
