package api

import (
	"fmt"
	"net/http"

	"DramaStudio-server/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListAssets(c *gin.Context) {
	list[models.Asset](h, c)
}

func (h *Handler) CreateAsset(c *gin.Context) {
	p := readPayload(c)
	name, typ := p.String("name"), p.String("type")
	if name == "" || typ == "" {
		invalid(c, "name and type are required")
		return
	}
	asset := models.Asset{
		Name:   name,
		Type:   typ,
		Source: p.StringOr("source", models.AssetSourceManual),
		URL:    p.String("url"),
		Meta:   models.AssetMeta(p["meta"]),
	}
	h.saveAsset(c, &asset, "created")
}

func (h *Handler) GetAsset(c *gin.Context) {
	read[models.Asset](h, c, "id", "asset")
}

func (h *Handler) UpdateAsset(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	asset, ok := load[models.Asset](h, c, id, "asset")
	if !ok {
		return
	}
	p := readPayload(c)
	fields := map[string]any{
		"name":   p.StringOr("name", asset.Name),
		"type":   p.StringOr("type", asset.Type),
		"source": p.StringOr("source", asset.Source),
		"url":    p.StringOr("url", asset.URL),
	}
	if p.Has("meta") {
		fields["meta"] = models.AssetMeta(p["meta"])
	}
	update[models.Asset](h, c, id, fields)
}

func (h *Handler) DeleteAsset(c *gin.Context) {
	remove[models.Asset](h, c, "id", "asset")
}

// POST /assets/import/image/:image_gen_id 把生成图登记为素材
func (h *Handler) ImportImageAsset(c *gin.Context) {
	id, ok := pathID(c, "image_gen_id")
	if !ok {
		return
	}
	img, ok := load[models.ImageGeneration](h, c, id, "image generation")
	if !ok {
		return
	}
	asset := models.Asset{
		Name:   readPayload(c).StringOr("name", fmt.Sprintf("image-%d", id)),
		Type:   "image",
		Source: models.AssetSourceImage,
		URL:    img.ImageURL,
		Meta:   models.AssetMeta(map[string]any{"image_gen_id": id, "prompt": img.Prompt}),
	}
	h.saveAsset(c, &asset, "imported")
}

func (h *Handler) ImportVideoAsset(c *gin.Context) {
	id, ok := pathID(c, "video_gen_id")
	if !ok {
		return
	}
	video, ok := load[models.VideoGeneration](h, c, id, "video generation")
	if !ok {
		return
	}
	asset := models.Asset{
		Name:   readPayload(c).StringOr("name", fmt.Sprintf("video-%d", id)),
		Type:   "video",
		Source: models.AssetSourceVideo,
		URL:    video.VideoURL,
		Meta:   models.AssetMeta(map[string]any{"video_gen_id": id, "prompt": video.Prompt}),
	}
	h.saveAsset(c, &asset, "imported")
}

func (h *Handler) saveAsset(c *gin.Context, asset *models.Asset, message string) {
	if err := h.db(c).Create(asset).Error; err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, CodeOK, message, asset)
}
