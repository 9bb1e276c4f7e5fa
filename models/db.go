package models

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"DramaStudio-server/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Open 按配置打开数据库：先用原生 database/sql 建连，再交给 GORM 复用同一连接池。
func Open(cfg config.DatabaseConfig, log *zap.SugaredLogger) (*gorm.DB, Dialect, error) {
	dialect := Dialect(cfg.Type)

	var (
		sqlDB     *sql.DB
		dialector gorm.Dialector
		err       error
	)
	switch dialect {
	case DialectSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, "", fmt.Errorf("创建数据库目录失败: %w", err)
			}
		}
		sqlDB, err = sql.Open("sqlite3", SQLiteDSN(cfg.Path))
		if err != nil {
			return nil, "", fmt.Errorf("打开数据库失败: %w", err)
		}
		dialector = sqlite.New(sqlite.Config{DriverName: "sqlite3", Conn: sqlDB})
	case DialectMySQL:
		sqlDB, err = sql.Open("mysql", cfg.DSN)
		if err != nil {
			return nil, "", fmt.Errorf("打开数据库失败: %w", err)
		}
		sqlDB.SetConnMaxLifetime(time.Hour)
		dialector = gormmysql.New(gormmysql.Config{Conn: sqlDB})
	default:
		return nil, "", fmt.Errorf("unsupported database type %q", cfg.Type)
	}

	if cfg.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpen)
	}
	if cfg.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, "", fmt.Errorf("连接数据库失败: %w", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewGormLogger(log),
		TranslateError: true,
	})
	if err != nil {
		sqlDB.Close()
		return nil, "", fmt.Errorf("GORM 初始化失败: %w", err)
	}
	log.Infow("数据库连接成功", "type", dialect)
	return db, dialect, nil
}

// SQLiteDSN 每个连接都打开外键约束；WAL + busy_timeout 减少写锁冲突
func SQLiteDSN(path string) string {
	return path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
}

func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
