package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

const (
	AssetSourceManual = "manual"
	AssetSourceImage  = "image_generation"
	AssetSourceVideo  = "video_generation"
)

type Asset struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Source    string         `json:"source"`
	URL       string         `gorm:"column:url" json:"url"`
	Meta      datatypes.JSON `json:"meta"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (Asset) TableName() string { return "assets" }

// AssetMeta 把任意请求值序列化为 meta 列；无法序列化时写空对象
func AssetMeta(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON("{}")
	}
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(b)
}
