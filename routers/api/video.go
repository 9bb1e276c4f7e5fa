package api

import (
	"DramaStudio-server/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListVideos(c *gin.Context) {
	list[models.VideoGeneration](h, c)
}

func (h *Handler) CreateVideo(c *gin.Context) {
	p := readPayload(c)
	imageGenID, _ := p.OptionalID("image_gen_id")
	res, err := h.Gen.CreateVideo(c.Request.Context(), imageGenID, p.String("prompt"))
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, res)
}

func (h *Handler) GetVideo(c *gin.Context) {
	read[models.VideoGeneration](h, c, "id", "video generation")
}

func (h *Handler) DeleteVideo(c *gin.Context) {
	remove[models.VideoGeneration](h, c, "id", "video generation")
}

func (h *Handler) VideoFromImage(c *gin.Context) {
	id, ok := pathID(c, "image_gen_id")
	if !ok {
		return
	}
	res, err := h.Gen.VideoFromImage(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	successMsg(c, "generated", res)
}

func (h *Handler) BatchVideos(c *gin.Context) {
	id, ok := pathID(c, "episode_id")
	if !ok {
		return
	}
	res, err := h.Gen.BatchVideos(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, res)
}
