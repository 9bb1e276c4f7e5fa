// Package testutil 提供各包测试共用的临时数据库。
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"DramaStudio-server/config"
	"DramaStudio-server/logger"
	"DramaStudio-server/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// OpenDB 在临时目录下打开一个 sqlite 库，尚未建表
func OpenDB(t testing.TB) (*gorm.DB, *models.Schema) {
	t.Helper()
	cfg := config.DatabaseConfig{
		Type:    string(models.DialectSQLite),
		Path:    filepath.Join(t.TempDir(), "test.db"),
		MaxOpen: 1,
		MaxIdle: 1,
	}
	log := logger.Nop()
	db, dialect, err := models.Open(cfg, log)
	require.NoError(t, err)
	t.Cleanup(func() { _ = models.Close(db) })
	return db, models.NewSchema(db, dialect, log)
}

// NewDB 打开临时库并完成建表
func NewDB(t testing.TB) (*gorm.DB, *models.Schema) {
	t.Helper()
	db, schema := OpenDB(t)
	require.NoError(t, schema.Ensure(context.Background()))
	return db, schema
}

// Count 统计表行数
func Count(t testing.TB, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}
