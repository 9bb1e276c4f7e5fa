package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	slowQueryThreshold = 200 * time.Millisecond
	maxLoggedSQL       = 2000
)

// gormLogger 把 GORM 日志转给 zap，只记录错误和慢查询
type gormLogger struct {
	log   *zap.SugaredLogger
	level logger.LogLevel
}

func NewGormLogger(log *zap.SugaredLogger) logger.Interface {
	return &gormLogger{log: log.Named("gorm"), level: logger.Warn}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Info {
		l.log.Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Warn {
		l.log.Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.level >= logger.Error {
		l.log.Errorf(msg, data...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= logger.Error &&
		!errors.Is(err, gorm.ErrRecordNotFound) && !errors.Is(err, gorm.ErrDuplicatedKey):
		sql, rows := fc()
		l.log.Errorw("SQL error", "error", err, "elapsed", elapsed, "rows", rows, "sql", truncateSQL(sql))
	case elapsed > slowQueryThreshold && l.level >= logger.Warn:
		sql, rows := fc()
		l.log.Warnw("slow SQL", "elapsed", elapsed, "rows", rows, "sql", truncateSQL(sql))
	case l.level >= logger.Info:
		sql, rows := fc()
		l.log.Debugw("SQL", "elapsed", fmt.Sprintf("%.3fms", float64(elapsed.Nanoseconds())/1e6), "rows", rows, "sql", truncateSQL(sql))
	}
}

// truncateSQL 截断过长的 SQL（例如内联的 base64 数据）
func truncateSQL(sql string) string {
	if i := strings.Index(sql, ";base64,"); i >= 0 && len(sql) > i+64 {
		sql = sql[:i+64] + "...[base64 data truncated]"
	}
	if len(sql) > maxLoggedSQL {
		sql = sql[:maxLoggedSQL] + "...[truncated]"
	}
	return sql
}
