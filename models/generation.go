package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	GenerationStatusPending   = "pending"
	GenerationStatusCompleted = "completed"
)

type ImageGeneration struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SceneID   *uint     `json:"scene_id"`
	Prompt    string    `json:"prompt"`
	ImageURL  string    `gorm:"column:image_url" json:"image_url"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ImageGeneration) TableName() string { return "image_generations" }

// ListImagesByEpisode 该剧集下所有分场的生成图，id 倒序
func ListImagesByEpisode(db *gorm.DB, episodeID uint) ([]ImageGeneration, error) {
	items := []ImageGeneration{}
	err := db.Table("image_generations AS ig").
		Select("ig.*").
		Joins("JOIN scenes s ON s.id = ig.scene_id").
		Where("s.episode_id = ?", episodeID).
		Order("ig.id DESC").
		Find(&items).Error
	return items, err
}

type VideoGeneration struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ImageGenID *uint     `gorm:"column:image_gen_id" json:"image_gen_id"`
	Prompt     string    `json:"prompt"`
	VideoURL   string    `gorm:"column:video_url" json:"video_url"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (VideoGeneration) TableName() string { return "video_generations" }

type VideoMerge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	MergeKey  string    `gorm:"column:merge_key" json:"merge_id"`
	EpisodeID *uint     `json:"episode_id"`
	Title     string    `json:"title"`
	VideoURL  string    `gorm:"column:video_url" json:"video_url"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (VideoMerge) TableName() string { return "video_merges" }

func GetVideoMergeByKey(db *gorm.DB, key string) (*VideoMerge, error) {
	var m VideoMerge
	if err := db.Where("merge_key = ?", key).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func DeleteVideoMergeByKey(db *gorm.DB, key string) error {
	res := db.Where("merge_key = ?", key).Delete(&VideoMerge{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
