package api

import (
	"strings"

	"DramaStudio-server/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListVideoMerges(c *gin.Context) {
	list[models.VideoMerge](h, c)
}

func (h *Handler) CreateVideoMerge(c *gin.Context) {
	p := readPayload(c)
	episodeID, _ := p.OptionalID("episode_id")
	res, err := h.Gen.CreateMerge(c.Request.Context(), episodeID, p.String("title"))
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, gin.H{"merge_id": res.Merge.MergeKey, "merge": res.Merge, "task": res.Task})
}

func (h *Handler) GetVideoMerge(c *gin.Context) {
	key := strings.TrimSpace(c.Param("merge_id"))
	m, err := models.GetVideoMergeByKey(h.db(c), key)
	if models.IsNotFound(err) {
		h.notFound(c, "video merge")
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, m)
}

func (h *Handler) DeleteVideoMerge(c *gin.Context) {
	key := strings.TrimSpace(c.Param("merge_id"))
	err := models.DeleteVideoMergeByKey(h.db(c), key)
	if models.IsNotFound(err) {
		h.notFound(c, "video merge")
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	successMsg(c, "deleted", gin.H{"merge_id": key})
}
