package api

import (
	"net/http"
	"strconv"
	"time"

	"DramaStudio-server/config"
	"DramaStudio-server/models"
	"DramaStudio-server/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Handler 持有各接口共用的依赖，路由按资源拆分到不同文件
type Handler struct {
	DB           *gorm.DB
	Schema       *models.Schema
	Tasks        *service.TaskService
	Gen          *service.GenerationService
	Storage      service.Storage
	Log          *zap.SugaredLogger
	App          config.AppConfig
	PollInterval time.Duration
}

func (h *Handler) db(c *gin.Context) *gorm.DB {
	return h.DB.WithContext(c.Request.Context())
}

// pathID 路径中的数字 id，非正整数时直接返回 400
func pathID(c *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		Fail(c, http.StatusBadRequest, "invalid "+name, nil)
		return 0, false
	}
	return uint(n), true
}

// load 按 id 读取一行，不存在时输出 404
func load[T any](h *Handler, c *gin.Context, id uint, resource string) (*T, bool) {
	row, err := models.Get[T](h.db(c), id)
	if models.IsNotFound(err) {
		h.notFound(c, resource)
		return nil, false
	}
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return row, true
}

// exists 父记录校验，不存在时输出 404
func exists[T any](h *Handler, c *gin.Context, id uint, resource string) bool {
	found, err := models.Exists[T](h.db(c), id)
	if err != nil {
		h.fail(c, err)
		return false
	}
	if !found {
		h.notFound(c, resource)
		return false
	}
	return true
}

// update 写入字段后重新读取，输出 updated
func update[T any](h *Handler, c *gin.Context, id uint, fields map[string]any) {
	row, err := models.UpdateFields[T](h.db(c), id, fields)
	if err != nil {
		h.fail(c, err)
		return
	}
	successMsg(c, "updated", row)
}

// remove 先确认存在再删除
func remove[T any](h *Handler, c *gin.Context, param, resource string) {
	id, ok := pathID(c, param)
	if !ok {
		return
	}
	if _, ok := load[T](h, c, id, resource); !ok {
		return
	}
	if err := models.Delete[T](h.db(c), id); err != nil {
		h.fail(c, err)
		return
	}
	deleted(c, id)
}

// read GET /<resource>/:id 的通用实现
func read[T any](h *Handler, c *gin.Context, param, resource string) {
	id, ok := pathID(c, param)
	if !ok {
		return
	}
	row, ok := load[T](h, c, id, resource)
	if !ok {
		return
	}
	success(c, row)
}

func list[T any](h *Handler, c *gin.Context) {
	items, err := models.ListNewest[T](h.db(c), 0)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, gin.H{"items": items})
}

// pageFrom 读取 page 与 page_size，page_size 限制在 [1, MaxPageSize]
func pageFrom(p Payload) models.Page {
	return models.Page{
		Number: max(1, p.Int("page", 1)),
		Size:   clamp(p.Int("page_size", models.DefaultPageSize), 1, models.MaxPageSize),
	}
}

func paginationOf(page models.Page, total int64) gin.H {
	return gin.H{"page": page.Number, "page_size": page.Size, "total": total}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

func unix() int64 { return time.Now().Unix() }
