package api

import (
	"fmt"

	"DramaStudio-server/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListEpisodes(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !exists[models.Drama](h, c, id, "drama") {
		return
	}
	items, err := models.ListEpisodes(h.db(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, gin.H{"items": items})
}

func (h *Handler) CreateEpisode(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !exists[models.Drama](h, c, id, "drama") {
		return
	}
	p := readPayload(c)
	title := p.String("title")
	if title == "" {
		invalid(c, "title is required")
		return
	}
	ep := models.Episode{
		DramaID:   id,
		Title:     title,
		EpisodeNo: max(1, p.Int("episode_no", 1)),
		Summary:   p.String("summary"),
		Status:    p.StringOr("status", models.DramaStatusDraft),
	}
	if err := h.db(c).Create(&ep).Error; err != nil {
		h.fail(c, err)
		return
	}
	created(c, ep)
}

func (h *Handler) UpdateEpisode(c *gin.Context) {
	id, ok := pathID(c, "episode_id")
	if !ok {
		return
	}
	ep, ok := load[models.Episode](h, c, id, "episode")
	if !ok {
		return
	}
	p := readPayload(c)
	title := p.StringOr("title", ep.Title)
	if title == "" {
		invalid(c, "title is required")
		return
	}
	update[models.Episode](h, c, id, map[string]any{
		"title":      title,
		"episode_no": max(1, p.Int("episode_no", ep.EpisodeNo)),
		"summary":    p.StringOr("summary", ep.Summary),
		"status":     p.StringOr("status", ep.Status),
	})
}

func (h *Handler) DeleteEpisode(c *gin.Context) {
	remove[models.Episode](h, c, "episode_id", "episode")
}

// 以下为剧集工作流的 mock 接口

func (h *Handler) GenerateStoryboards(c *gin.Context) {
	id, ok := pathID(c, "episode_id")
	if !ok {
		return
	}
	success(c, gin.H{"episode_id": id, "message": "mock storyboard generation queued"})
}

func (h *Handler) ExtractEpisodeProps(c *gin.Context) {
	id, ok := pathID(c, "episode_id")
	if !ok {
		return
	}
	success(c, gin.H{"episode_id": id, "message": "mock prop extraction done"})
}

func (h *Handler) ExtractEpisodeCharacters(c *gin.Context) {
	id, ok := pathID(c, "episode_id")
	if !ok {
		return
	}
	success(c, gin.H{"episode_id": id, "message": "mock characters extracted"})
}

func (h *Handler) FinalizeEpisode(c *gin.Context) {
	id, ok := pathID(c, "episode_id")
	if !ok {
		return
	}
	success(c, gin.H{"episode_id": id, "status": "finalized"})
}

func (h *Handler) DownloadEpisode(c *gin.Context) {
	id, ok := pathID(c, "episode_id")
	if !ok {
		return
	}
	success(c, gin.H{"episode_id": id, "url": fmt.Sprintf("/static/mock/episode-%d.mp4", id)})
}
