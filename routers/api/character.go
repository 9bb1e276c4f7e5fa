package api

import (
	"fmt"

	"DramaStudio-server/models"
	"DramaStudio-server/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var errPropNotFound = service.NotFound("prop")

func (h *Handler) UpdateCharacter(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ch, ok := load[models.Character](h, c, id, "character")
	if !ok {
		return
	}
	p := readPayload(c)
	libraryID := ch.LibraryID
	if v, present := p.OptionalID("library_id"); present {
		libraryID = v
	}
	if libraryID != nil && !exists[models.CharacterLibrary](h, c, *libraryID, "item") {
		return
	}
	name := p.StringOr("name", ch.Name)
	if name == "" {
		invalid(c, "name is required")
		return
	}
	update[models.Character](h, c, id, map[string]any{
		"name":       name,
		"profile":    p.StringOr("profile", ch.Profile),
		"image_url":  p.StringOr("image_url", ch.ImageURL),
		"library_id": libraryID,
	})
}

func (h *Handler) DeleteCharacter(c *gin.Context) {
	remove[models.Character](h, c, "id", "character")
}

func (h *Handler) BatchCharacterImages(c *gin.Context) {
	ids := readPayload(c).IDs("character_ids")
	if ids == nil {
		ids = []uint{}
	}
	success(c, gin.H{"requested_ids": ids, "message": "mock batch image generation queued"})
}

func (h *Handler) GenerateCharacterImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	success(c, gin.H{"id": id, "image_url": fmt.Sprintf("/static/mock/character-%d.png", id)})
}

// 角色图片统一走上传接口
func (h *Handler) UploadCharacterImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	success(c, gin.H{"id": id, "message": "please use /api/v1/upload/image endpoint"})
}

func (h *Handler) SetCharacterImage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !exists[models.Character](h, c, id, "character") {
		return
	}
	url := readPayload(c).String("image_url")
	if url == "" {
		invalid(c, "image_url is required")
		return
	}
	update[models.Character](h, c, id, map[string]any{"image_url": url})
}

// PUT /characters/:id/image-from-library 关联角色库条目，条目有图时同步图片
func (h *Handler) ApplyLibraryToCharacter(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ch, ok := load[models.Character](h, c, id, "character")
	if !ok {
		return
	}
	libraryID, _ := readPayload(c).OptionalID("library_id")
	fields := map[string]any{"library_id": libraryID}
	if libraryID != nil {
		item, ok := load[models.CharacterLibrary](h, c, *libraryID, "item")
		if !ok {
			return
		}
		if item.ImageURL != "" && item.ImageURL != ch.ImageURL {
			fields["image_url"] = item.ImageURL
		}
	}
	update[models.Character](h, c, id, fields)
}

// POST /characters/:id/add-to-library 用角色信息新建角色库条目并回填 library_id
func (h *Handler) AddCharacterToLibrary(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	ch, ok := load[models.Character](h, c, id, "character")
	if !ok {
		return
	}
	item := models.CharacterLibrary{
		Name:        ch.Name,
		Description: ch.Profile,
		ImageURL:    ch.ImageURL,
		Tags:        readPayload(c).String("tags"),
	}
	err := h.db(c).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		ch.LibraryID = &item.ID
		return tx.Model(&models.Character{}).Where("id = ?", id).Update("library_id", item.ID).Error
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	successMsg(c, "added", gin.H{"character": ch, "library_item": item})
}

func (h *Handler) ListCharacterLibrary(c *gin.Context) {
	list[models.CharacterLibrary](h, c)
}

func (h *Handler) CreateLibraryItem(c *gin.Context) {
	p := readPayload(c)
	name := p.String("name")
	if name == "" {
		invalid(c, "name is required")
		return
	}
	item := models.CharacterLibrary{
		Name:        name,
		Description: p.String("description"),
		ImageURL:    p.String("image_url"),
		Tags:        p.String("tags"),
	}
	if err := h.db(c).Create(&item).Error; err != nil {
		h.fail(c, err)
		return
	}
	created(c, item)
}

func (h *Handler) GetLibraryItem(c *gin.Context) {
	read[models.CharacterLibrary](h, c, "id", "item")
}

func (h *Handler) DeleteLibraryItem(c *gin.Context) {
	remove[models.CharacterLibrary](h, c, "id", "item")
}

// POST /generation/characters mock，返回固定的两个角色
func (h *Handler) MockGenerateCharacters(c *gin.Context) {
	success(c, gin.H{
		"items": []gin.H{
			{"name": "主角", "profile": "由剧情自动生成（mock）"},
			{"name": "配角", "profile": "由剧情自动生成（mock）"},
		},
		"message": "mock character generation success",
	})
}
