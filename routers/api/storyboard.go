package api

import (
	"DramaStudio-server/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func (h *Handler) ListStoryboards(c *gin.Context) {
	id, ok := pathID(c, "episode_id")
	if !ok || !exists[models.Episode](h, c, id, "episode") {
		return
	}
	items, err := models.ListStoryboards(h.db(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, gin.H{"items": items})
}

// POST /storyboards，episode_id 必填，scene_id 可选
func (h *Handler) CreateStoryboard(c *gin.Context) {
	p := readPayload(c)
	episodeID, _ := p.OptionalID("episode_id")
	if episodeID == nil {
		h.notFound(c, "episode")
		return
	}
	if !exists[models.Episode](h, c, *episodeID, "episode") {
		return
	}
	shotName := p.String("shot_name")
	if shotName == "" {
		invalid(c, "shot_name is required")
		return
	}
	sceneID, _ := p.OptionalID("scene_id")
	if sceneID != nil && !exists[models.Scene](h, c, *sceneID, "scene") {
		return
	}
	sb := models.Storyboard{
		EpisodeID:       *episodeID,
		SceneID:         sceneID,
		ShotName:        shotName,
		Description:     p.String("description"),
		DurationSeconds: max(1, p.Int("duration_seconds", 3)),
		FrameType:       p.StringOr("frame_type", "keyframe"),
	}
	if err := h.db(c).Create(&sb).Error; err != nil {
		h.fail(c, err)
		return
	}
	created(c, sb)
}

func (h *Handler) UpdateStoryboard(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	sb, ok := load[models.Storyboard](h, c, id, "storyboard")
	if !ok {
		return
	}
	p := readPayload(c)
	sceneID := sb.SceneID
	if v, present := p.OptionalID("scene_id"); present {
		sceneID = v
	}
	if sceneID != nil && !exists[models.Scene](h, c, *sceneID, "scene") {
		return
	}
	update[models.Storyboard](h, c, id, map[string]any{
		"scene_id":         sceneID,
		"shot_name":        p.StringOr("shot_name", sb.ShotName),
		"description":      p.StringOr("description", sb.Description),
		"duration_seconds": max(1, p.Int("duration_seconds", sb.DurationSeconds)),
		"frame_type":       p.StringOr("frame_type", sb.FrameType),
	})
}

func (h *Handler) DeleteStoryboard(c *gin.Context) {
	remove[models.Storyboard](h, c, "id", "storyboard")
}

// POST /storyboards/:id/props 用 prop_ids 覆盖分镜的道具关联
func (h *Handler) AssociateStoryboardProps(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok || !exists[models.Storyboard](h, c, id, "storyboard") {
		return
	}
	propIDs := uniqueIDs(readPayload(c).IDs("prop_ids"))
	err := h.db(c).Transaction(func(tx *gorm.DB) error {
		n, err := models.CountExisting[models.Prop](tx, propIDs)
		if err != nil {
			return err
		}
		if n != int64(len(propIDs)) {
			return errPropNotFound
		}
		return models.ReplaceStoryboardProps(tx, id, propIDs)
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if propIDs == nil {
		propIDs = []uint{}
	}
	successMsg(c, "associated", gin.H{"storyboard_id": id, "prop_ids": propIDs})
}

// GET /storyboards/episode/:episode_id/generate mock
func (h *Handler) MockStoryboardGenerate(c *gin.Context) {
	id, ok := pathID(c, "episode_id")
	if !ok {
		return
	}
	success(c, gin.H{"episode_id": id, "items": []any{}})
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	var out []uint
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
