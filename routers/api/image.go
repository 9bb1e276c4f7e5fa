package api

import (
	"fmt"

	"DramaStudio-server/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListImages(c *gin.Context) {
	list[models.ImageGeneration](h, c)
}

// POST /images 生成记录和任务在同一事务中创建，scene 不存在时两张表都不写入
func (h *Handler) CreateImage(c *gin.Context) {
	p := readPayload(c)
	sceneID, _ := p.OptionalID("scene_id")
	res, err := h.Gen.CreateImage(c.Request.Context(), sceneID, p.String("prompt"))
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, res)
}

func (h *Handler) GetImage(c *gin.Context) {
	read[models.ImageGeneration](h, c, "id", "image generation")
}

func (h *Handler) DeleteImage(c *gin.Context) {
	remove[models.ImageGeneration](h, c, "id", "image generation")
}

func (h *Handler) GenerateSceneImage(c *gin.Context) {
	id, ok := pathID(c, "scene_id")
	if !ok {
		return
	}
	res, err := h.Gen.GenerateImageForScene(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	successMsg(c, "generated", res)
}

// POST /images/upload mock，真实上传见 /upload/image
func (h *Handler) MockImageUpload(c *gin.Context) {
	ts := unix()
	success(c, gin.H{
		"message":  "upload accepted (mock)",
		"filename": readPayload(c).StringOr("filename", fmt.Sprintf("upload-%d.png", ts)),
		"url":      fmt.Sprintf("/static/mock/upload-%d.png", ts),
	})
}

func (h *Handler) ListBackgrounds(c *gin.Context) {
	id, ok := pathID(c, "episode_id")
	if !ok || !exists[models.Episode](h, c, id, "episode") {
		return
	}
	items, err := models.ListImagesByEpisode(h.db(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, gin.H{"episode_id": id, "items": items})
}

func (h *Handler) ExtractBackgrounds(c *gin.Context) {
	id, ok := pathID(c, "episode_id")
	if !ok {
		return
	}
	task, err := h.Gen.ExtractBackgrounds(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, gin.H{
		"episode_id": id,
		"task":       task,
		"message":    "background extraction completed (mock)",
	})
}

func (h *Handler) BatchImages(c *gin.Context) {
	id, ok := pathID(c, "episode_id")
	if !ok {
		return
	}
	res, err := h.Gen.BatchImages(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, res)
}
