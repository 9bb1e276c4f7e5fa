package api

import (
	"DramaStudio-server/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GET /dramas?page=&page_size=&keyword=
func (h *Handler) ListDramas(c *gin.Context) {
	p := readPayload(c)
	page := pageFrom(p)
	items, total, err := models.ListDramas(h.db(c), models.DramaFilter{Keyword: p.String("keyword"), Page: page})
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, gin.H{"items": items, "pagination": paginationOf(page, total)})
}

func (h *Handler) CreateDrama(c *gin.Context) {
	p := readPayload(c)
	title := p.String("title")
	if title == "" {
		invalid(c, "title is required")
		return
	}
	drama := models.Drama{
		Title:    title,
		Genre:    p.String("genre"),
		Synopsis: p.String("synopsis"),
		Progress: models.ClampProgress(p.Int("progress", 0)),
		Status:   p.StringOr("status", models.DramaStatusDraft),
	}
	if err := h.db(c).Create(&drama).Error; err != nil {
		h.fail(c, err)
		return
	}
	created(c, drama)
}

func (h *Handler) GetDrama(c *gin.Context) {
	read[models.Drama](h, c, "id", "drama")
}

func (h *Handler) UpdateDrama(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	drama, ok := load[models.Drama](h, c, id, "drama")
	if !ok {
		return
	}
	p := readPayload(c)
	title := p.StringOr("title", drama.Title)
	if title == "" {
		invalid(c, "title is required")
		return
	}
	update[models.Drama](h, c, id, map[string]any{
		"title":    title,
		"genre":    p.StringOr("genre", drama.Genre),
		"synopsis": p.StringOr("synopsis", drama.Synopsis),
		"progress": models.ClampProgress(p.Int("progress", drama.Progress)),
		"status":   p.StringOr("status", drama.Status),
	})
}

func (h *Handler) DeleteDrama(c *gin.Context) {
	remove[models.Drama](h, c, "id", "drama")
}

func (h *Handler) DramaStats(c *gin.Context) {
	stats, err := models.GetDramaStats(h.db(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, stats)
}

// PUT /dramas/:id/outline 大纲写入 synopsis，空大纲不覆盖
func (h *Handler) SaveOutline(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	drama, ok := load[models.Drama](h, c, id, "drama")
	if !ok {
		return
	}
	synopsis := drama.Synopsis
	if outline := readPayload(c).String("outline"); outline != "" {
		synopsis = outline
	}
	update[models.Drama](h, c, id, map[string]any{"synopsis": synopsis})
}

func (h *Handler) SaveProgress(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, ok := load[models.Drama](h, c, id, "drama"); !ok {
		return
	}
	progress := models.ClampProgress(readPayload(c).Int("progress", 0))
	update[models.Drama](h, c, id, map[string]any{"progress": progress})
}

func (h *Handler) ListDramaCharacters(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	items, err := models.ListCharactersByDrama(h.db(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, gin.H{"items": items})
}

// PUT /dramas/:id/characters 批量新增角色，name 为空的条目跳过
func (h *Handler) SaveDramaCharacters(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !exists[models.Drama](h, c, id, "drama") {
		return
	}
	var rows []models.Character
	for _, item := range readPayload(c).Objects("characters") {
		name := item.String("name")
		if name == "" {
			continue
		}
		rows = append(rows, models.Character{
			DramaID:  id,
			Name:     name,
			Profile:  item.String("profile"),
			ImageURL: item.String("image_url"),
		})
	}
	saveAll(h, c, rows)
}

// PUT /dramas/:id/episodes 批量新增分集，episode_no 缺省按顺序编号
func (h *Handler) SaveDramaEpisodes(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !exists[models.Drama](h, c, id, "drama") {
		return
	}
	var rows []models.Episode
	for i, item := range readPayload(c).Objects("episodes") {
		title := item.String("title")
		if title == "" {
			continue
		}
		rows = append(rows, models.Episode{
			DramaID:   id,
			Title:     title,
			EpisodeNo: max(1, item.Int("episode_no", i+1)),
			Summary:   item.String("summary"),
			Status:    item.StringOr("status", models.DramaStatusDraft),
		})
	}
	saveAll(h, c, rows)
}

// saveAll 在一个事务里插入全部行，输出插入数量
func saveAll[T any](h *Handler, c *gin.Context, rows []T) {
	err := h.db(c).Transaction(func(tx *gorm.DB) error {
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	successMsg(c, "saved", gin.H{"count": len(rows)})
}

func (h *Handler) ListDramaProps(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	items, err := models.ListPropsByDrama(h.db(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, gin.H{"items": items})
}
