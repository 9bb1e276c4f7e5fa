package api

import (
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// POST /upload/image 接收 multipart 的 file 字段写入对象存储；
// 没有文件时返回 mock 地址
func (h *Handler) UploadImage(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		successMsg(c, "mock upload success", gin.H{
			"url":     fmt.Sprintf("/static/mock/upload-%d.png", unix()),
			"message": "mock upload success",
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.Log.Errorw("读取上传文件失败", "filename", fh.Filename, "error", err)
		Fail(c, http.StatusInternalServerError, "upload failed", nil)
		return
	}
	defer f.Close()

	objectName := uploadObjectName(fh.Filename, time.Now())
	url, err := h.Storage.Put(c.Request.Context(), objectName, f, fh.Size)
	if err != nil {
		h.Log.Errorw("上传文件失败", "object", objectName, "error", err)
		Fail(c, http.StatusInternalServerError, "upload failed", nil)
		return
	}
	h.Log.Infow("文件上传成功", "object", objectName, "size", fh.Size)
	successMsg(c, "uploaded", gin.H{
		"url":      url,
		"filename": fh.Filename,
		"size":     fh.Size,
		"object":   objectName,
	})
}

// uploadObjectName uploads/<yyyymmdd>/<uuid><ext>，扩展名统一小写
func uploadObjectName(filename string, now time.Time) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, "\\", "/")))
	return fmt.Sprintf("uploads/%s/%s%s", now.Format("20060102"), uuid.NewString(), ext)
}
