package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page 分页参数，Number 从 1 开始
type Page struct {
	Number int
	Size   int
}

func NewPage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Get 按主键读取一行，不存在时返回 gorm.ErrRecordNotFound
func Get[T any](db *gorm.DB, id uint) (*T, error) {
	var row T
	if err := db.First(&row, id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func Exists[T any](db *gorm.DB, id uint) (bool, error) {
	var n int64
	if err := db.Model(new(T)).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Delete 删除指定主键，行不存在时返回 gorm.ErrRecordNotFound
func Delete[T any](db *gorm.DB, id uint) error {
	res := db.Delete(new(T), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListNewest 全表按 id 倒序
func ListNewest[T any](db *gorm.DB, limit int) ([]T, error) {
	rows := []T{}
	q := db.Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&rows).Error
	return rows, err
}

// CountExisting 返回 ids 中实际存在的行数
func CountExisting[T any](db *gorm.DB, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := db.Model(new(T)).Where("id IN ?", ids).Count(&n).Error
	return n, err
}

// UpdateFields 只更新给定列，同时刷新 updated_at
func UpdateFields[T any](db *gorm.DB, id uint, fields map[string]any) (*T, error) {
	if len(fields) > 0 {
		fields["updated_at"] = time.Now()
		res := db.Model(new(T)).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return nil, res.Error
		}
	}
	return Get[T](db, id)
}

func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
