package models

import (
	"time"

	"gorm.io/gorm"
)

type CharacterLibrary struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `gorm:"column:image_url" json:"image_url"`
	Tags        string    `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (CharacterLibrary) TableName() string { return "character_libraries" }

type Character struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	DramaID   uint      `json:"drama_id"`
	LibraryID *uint     `json:"library_id"`
	Name      string    `json:"name"`
	Profile   string    `json:"profile"`
	ImageURL  string    `gorm:"column:image_url" json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Character) TableName() string { return "characters" }

func ListCharactersByDrama(db *gorm.DB, dramaID uint) ([]Character, error) {
	items := []Character{}
	err := db.Where("drama_id = ?", dramaID).Order("id DESC").Find(&items).Error
	return items, err
}

type Prop struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DramaID     *uint     `json:"drama_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `gorm:"column:image_url" json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Prop) TableName() string { return "props" }

func ListPropsByDrama(db *gorm.DB, dramaID uint) ([]Prop, error) {
	items := []Prop{}
	err := db.Where("drama_id = ?", dramaID).Order("id DESC").Find(&items).Error
	return items, err
}
