package models

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AIConfig struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `json:"name"`
	Provider     string    `json:"provider"`
	Model        string    `json:"model"`
	Endpoint     string    `json:"endpoint"`
	APIKeyMasked string    `gorm:"column:api_key_masked" json:"api_key_masked"`
	IsEnabled    bool      `json:"is_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (AIConfig) TableName() string { return "ai_configs" }

// MaskAPIKey 只保留首尾各 4 位，8 位及以下全部打码，明文从不落库
func MaskAPIKey(key string) string {
	key = strings.TrimSpace(key)
	n := len(key)
	switch {
	case n == 0:
		return ""
	case n <= 8:
		return strings.Repeat("*", n)
	}
	return key[:4] + strings.Repeat("*", max(1, n-8)) + key[n-4:]
}

const (
	SettingLanguage = "language"
	DefaultLanguage = "zh-CN"
)

type AppSetting struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SettingKey   string    `gorm:"column:setting_key" json:"setting_key"`
	SettingValue string    `gorm:"column:setting_value" json:"setting_value"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (AppSetting) TableName() string { return "app_settings" }

// GetSetting 读取配置项，不存在时返回 fallback
func GetSetting(db *gorm.DB, key, fallback string) (string, error) {
	var s AppSetting
	err := db.Where("setting_key = ?", key).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fallback, nil
	}
	if err != nil {
		return "", err
	}
	return s.SettingValue, nil
}

// UpsertSetting 依赖 setting_key 唯一约束
func UpsertSetting(db *gorm.DB, key, value string) error {
	now := time.Now()
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.Assignments(map[string]any{"setting_value": value, "updated_at": now}),
	}).Create(&AppSetting{SettingKey: key, SettingValue: value, CreatedAt: now, UpdatedAt: now}).Error
}
