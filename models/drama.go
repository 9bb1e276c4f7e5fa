package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	DramaStatusDraft     = "draft"
	DramaStatusCompleted = "completed"
)

type Drama struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `json:"title"`
	Genre     string    `json:"genre"`
	Synopsis  string    `json:"synopsis"`
	Progress  int       `json:"progress"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Drama) TableName() string { return "dramas" }

type DramaFilter struct {
	Keyword string
	Page    Page
}

// ListDramas 按 id 倒序分页，keyword 模糊匹配标题
func ListDramas(db *gorm.DB, f DramaFilter) ([]Drama, int64, error) {
	q := db.Model(&Drama{})
	if f.Keyword != "" {
		q = q.Where("title LIKE ?", "%"+f.Keyword+"%")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	items := []Drama{}
	err := q.Order("id DESC").Offset(f.Page.Offset()).Limit(f.Page.Size).Find(&items).Error
	return items, total, err
}

type DramaStats struct {
	Total       int64   `json:"total"`
	Completed   int64   `json:"completed"`
	Draft       int64   `json:"draft"`
	AvgProgress float64 `json:"avg_progress"`
}

func GetDramaStats(db *gorm.DB) (*DramaStats, error) {
	var row struct {
		Total       int64
		Completed   int64
		Draft       int64
		AvgProgress *float64
	}
	err := db.Model(&Drama{}).Select(
		"COUNT(*) AS total, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed, "+
			"COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS draft, "+
			"AVG(progress) AS avg_progress",
		DramaStatusCompleted, DramaStatusDraft,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	stats := &DramaStats{Total: row.Total, Completed: row.Completed, Draft: row.Draft}
	if row.AvgProgress != nil {
		stats.AvgProgress = *row.AvgProgress
	}
	return stats, nil
}

type Episode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DramaID   uint      `json:"drama_id"`
	Title     string    `json:"title"`
	EpisodeNo int       `json:"episode_no"`
	Summary   string    `json:"summary"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Episode) TableName() string { return "episodes" }

func ListEpisodes(db *gorm.DB, dramaID uint) ([]Episode, error) {
	items := []Episode{}
	err := db.Where("drama_id = ?", dramaID).Order("episode_no ASC").Order("id ASC").Find(&items).Error
	return items, err
}

type Scene struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EpisodeID uint      `json:"episode_id"`
	Title     string    `json:"title"`
	Prompt    string    `json:"prompt"`
	ImageURL  string    `gorm:"column:image_url" json:"image_url"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Scene) TableName() string { return "scenes" }

func ListScenes(db *gorm.DB, episodeID uint) ([]Scene, error) {
	items := []Scene{}
	err := db.Where("episode_id = ?", episodeID).Order("sort_order ASC").Order("id ASC").Find(&items).Error
	return items, err
}

type Storyboard struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	EpisodeID       uint      `json:"episode_id"`
	SceneID         *uint     `json:"scene_id"`
	ShotName        string    `json:"shot_name"`
	Description     string    `json:"description"`
	DurationSeconds int       `json:"duration_seconds"`
	FrameType       string    `json:"frame_type"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Storyboard) TableName() string { return "storyboards" }

func ListStoryboards(db *gorm.DB, episodeID uint) ([]Storyboard, error) {
	items := []Storyboard{}
	err := db.Where("episode_id = ?", episodeID).Order("id ASC").Find(&items).Error
	return items, err
}

type StoryboardProp struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	StoryboardID uint      `json:"storyboard_id"`
	PropID       uint      `json:"prop_id"`
	CreatedAt    time.Time `json:"created_at"`
}

func (StoryboardProp) TableName() string { return "storyboard_props" }

// ReplaceStoryboardProps 用给定集合覆盖分镜的道具关联，调用方负责事务
func ReplaceStoryboardProps(tx *gorm.DB, storyboardID uint, propIDs []uint) error {
	if err := tx.Where("storyboard_id = ?", storyboardID).Delete(&StoryboardProp{}).Error; err != nil {
		return err
	}
	if len(propIDs) == 0 {
		return nil
	}
	seen := make(map[uint]bool, len(propIDs))
	links := make([]StoryboardProp, 0, len(propIDs))
	for _, id := range propIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		links = append(links, StoryboardProp{StoryboardID: storyboardID, PropID: id})
	}
	return tx.Create(&links).Error
}

func ListStoryboardPropIDs(db *gorm.DB, storyboardID uint) ([]uint, error) {
	ids := []uint{}
	err := db.Model(&StoryboardProp{}).Where("storyboard_id = ?", storyboardID).Order("prop_id ASC").Pluck("prop_id", &ids).Error
	return ids, err
}
