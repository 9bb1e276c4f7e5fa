package api

import (
	"fmt"

	"DramaStudio-server/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListScenes(c *gin.Context) {
	id, ok := pathID(c, "episode_id")
	if !ok || !exists[models.Episode](h, c, id, "episode") {
		return
	}
	items, err := models.ListScenes(h.db(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, gin.H{"items": items})
}

// POST /episodes/:episode_id/scenes
func (h *Handler) CreateEpisodeScene(c *gin.Context) {
	id, ok := pathID(c, "episode_id")
	if !ok {
		return
	}
	h.createScene(c, id)
}

// POST /scenes，episode_id 从请求参数读取
func (h *Handler) CreateScene(c *gin.Context) {
	episodeID, _ := readPayload(c).OptionalID("episode_id")
	if episodeID == nil {
		h.notFound(c, "episode")
		return
	}
	h.createScene(c, *episodeID)
}

func (h *Handler) createScene(c *gin.Context, episodeID uint) {
	if !exists[models.Episode](h, c, episodeID, "episode") {
		return
	}
	p := readPayload(c)
	title := p.String("title")
	if title == "" {
		invalid(c, "title is required")
		return
	}
	scene := models.Scene{
		EpisodeID: episodeID,
		Title:     title,
		Prompt:    p.String("prompt"),
		ImageURL:  p.String("image_url"),
		SortOrder: p.Int("sort_order", 0),
	}
	if err := h.db(c).Create(&scene).Error; err != nil {
		h.fail(c, err)
		return
	}
	created(c, scene)
}

func (h *Handler) UpdateScene(c *gin.Context) {
	id, ok := pathID(c, "scene_id")
	if !ok {
		return
	}
	scene, ok := load[models.Scene](h, c, id, "scene")
	if !ok {
		return
	}
	p := readPayload(c)
	update[models.Scene](h, c, id, map[string]any{
		"title":      p.StringOr("title", scene.Title),
		"prompt":     p.StringOr("prompt", scene.Prompt),
		"image_url":  p.StringOr("image_url", scene.ImageURL),
		"sort_order": p.Int("sort_order", scene.SortOrder),
	})
}

func (h *Handler) UpdateScenePrompt(c *gin.Context) {
	id, ok := pathID(c, "scene_id")
	if !ok {
		return
	}
	scene, ok := load[models.Scene](h, c, id, "scene")
	if !ok {
		return
	}
	update[models.Scene](h, c, id, map[string]any{
		"prompt": readPayload(c).StringOr("prompt", scene.Prompt),
	})
}

func (h *Handler) DeleteScene(c *gin.Context) {
	remove[models.Scene](h, c, "scene_id", "scene")
}

// POST /scenes/generate-image mock，不落库
func (h *Handler) MockSceneImage(c *gin.Context) {
	sceneID := max(0, readPayload(c).Int("scene_id", 0))
	suffix := int64(sceneID)
	if suffix == 0 {
		suffix = unix()
	}
	success(c, gin.H{
		"scene_id":  sceneID,
		"image_url": fmt.Sprintf("/static/mock/scene-%d.png", suffix),
		"message":   "mock scene image generated",
	})
}
