package api

import (
	"fmt"

	"DramaStudio-server/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) CreateProp(c *gin.Context) {
	p := readPayload(c)
	name := p.String("name")
	if name == "" {
		invalid(c, "name is required")
		return
	}
	dramaID, _ := p.OptionalID("drama_id")
	if dramaID != nil && !exists[models.Drama](h, c, *dramaID, "drama") {
		return
	}
	prop := models.Prop{
		DramaID:     dramaID,
		Name:        name,
		Description: p.String("description"),
		ImageURL:    p.String("image_url"),
	}
	if err := h.db(c).Create(&prop).Error; err != nil {
		h.fail(c, err)
		return
	}
	created(c, prop)
}

func (h *Handler) UpdateProp(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	prop, ok := load[models.Prop](h, c, id, "prop")
	if !ok {
		return
	}
	p := readPayload(c)
	name := p.StringOr("name", prop.Name)
	if name == "" {
		invalid(c, "name is required")
		return
	}
	update[models.Prop](h, c, id, map[string]any{
		"name":        name,
		"description": p.StringOr("description", prop.Description),
		"image_url":   p.StringOr("image_url", prop.ImageURL),
	})
}

func (h *Handler) DeleteProp(c *gin.Context) {
	remove[models.Prop](h, c, "id", "prop")
}

func (h *Handler) GeneratePropImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	success(c, gin.H{"id": id, "image_url": fmt.Sprintf("/static/mock/prop-%d.png", id)})
}
