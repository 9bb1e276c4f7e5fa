package models

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

type colKind int

const (
	kindPK colKind = iota
	kindRef
	kindInt
	kindBool
	kindString
	kindText
	kindTime
)

type column struct {
	name     string
	kind     colKind
	size     int
	notNull  bool
	def      string // SQL 字面量，字符串需自带引号
	unique   bool
	ref      string
	onDelete string
}

type index struct {
	name string
	cols []string
}

type table struct {
	name    string
	cols    []column
	uniques [][]string
	indexes []index
}

func pk() column { return column{name: "id", kind: kindPK} }

func ref(name, parent, onDelete string, required bool) column {
	return column{name: name, kind: kindRef, notNull: required, ref: parent, onDelete: onDelete}
}

func varchar(name string, size int, def string) column {
	c := column{name: name, kind: kindString, size: size, notNull: true, def: "''"}
	if def != "" {
		c.def = "'" + def + "'"
	}
	return c
}

func text(name string) column { return column{name: name, kind: kindText} }

func integer(name string, def int) column {
	return column{name: name, kind: kindInt, notNull: true, def: fmt.Sprint(def)}
}

func boolean(name string, def bool) column {
	c := column{name: name, kind: kindBool, notNull: true, def: "0"}
	if def {
		c.def = "1"
	}
	return c
}

func timestamps() []column {
	return []column{
		{name: "created_at", kind: kindTime, def: "CURRENT_TIMESTAMP"},
		{name: "updated_at", kind: kindTime, def: "CURRENT_TIMESTAMP"},
	}
}

func cols(cs ...interface{}) []column {
	var out []column
	for _, c := range cs {
		switch v := c.(type) {
		case column:
			out = append(out, v)
		case []column:
			out = append(out, v...)
		}
	}
	return out
}

// coreTables 按依赖顺序排列，被引用的表在前
var coreTables = []table{
	{
		name: "dramas",
		cols: cols(pk(), varchar("title", 255, ""), varchar("genre", 100, ""), text("synopsis"),
			integer("progress", 0), varchar("status", 50, "draft"), timestamps()),
		indexes: []index{{"idx_dramas_status", []string{"status"}}},
	},
	{
		name: "episodes",
		cols: cols(pk(), ref("drama_id", "dramas", "CASCADE", true), varchar("title", 255, ""),
			integer("episode_no", 1), text("summary"), varchar("status", 50, "draft"), timestamps()),
		indexes: []index{{"idx_episodes_drama_id", []string{"drama_id"}}},
	},
	{
		name: "scenes",
		cols: cols(pk(), ref("episode_id", "episodes", "CASCADE", true), varchar("title", 255, ""),
			text("prompt"), varchar("image_url", 512, ""), integer("sort_order", 0), timestamps()),
		indexes: []index{{"idx_scenes_episode_id", []string{"episode_id"}}},
	},
	{
		name: "storyboards",
		cols: cols(pk(), ref("episode_id", "episodes", "CASCADE", true), ref("scene_id", "scenes", "SET NULL", false),
			varchar("shot_name", 255, ""), text("description"), integer("duration_seconds", 3),
			varchar("frame_type", 50, "keyframe"), timestamps()),
		indexes: []index{
			{"idx_storyboards_episode_id", []string{"episode_id"}},
			{"idx_storyboards_scene_id", []string{"scene_id"}},
		},
	},
	{
		name: "character_libraries",
		cols: cols(pk(), varchar("name", 255, ""), text("description"), varchar("image_url", 512, ""),
			varchar("tags", 255, ""), timestamps()),
	},
	{
		name: "characters",
		cols: cols(pk(), ref("drama_id", "dramas", "CASCADE", true), ref("library_id", "character_libraries", "SET NULL", false),
			varchar("name", 255, ""), text("profile"), varchar("image_url", 512, ""), timestamps()),
		indexes: []index{{"idx_characters_drama_id", []string{"drama_id"}}},
	},
	{
		name: "props",
		cols: cols(pk(), ref("drama_id", "dramas", "CASCADE", false), varchar("name", 255, ""),
			text("description"), varchar("image_url", 512, ""), timestamps()),
		indexes: []index{{"idx_props_drama_id", []string{"drama_id"}}},
	},
	{
		name: "storyboard_props",
		cols: cols(pk(), ref("storyboard_id", "storyboards", "CASCADE", true), ref("prop_id", "props", "CASCADE", true),
			column{name: "created_at", kind: kindTime, def: "CURRENT_TIMESTAMP"}),
		uniques: [][]string{{"storyboard_id", "prop_id"}},
	},
	{
		name: "assets",
		cols: cols(pk(), varchar("name", 255, ""), varchar("type", 50, ""), varchar("source", 50, "manual"),
			varchar("url", 512, ""), text("meta"), timestamps()),
		indexes: []index{{"idx_assets_type", []string{"type"}}},
	},
	{
		name: "image_generations",
		cols: cols(pk(), ref("scene_id", "scenes", "SET NULL", false), text("prompt"),
			varchar("image_url", 512, ""), varchar("status", 50, "pending"), timestamps()),
		indexes: []index{{"idx_image_generations_scene_id", []string{"scene_id"}}},
	},
	{
		name: "video_generations",
		cols: cols(pk(), ref("image_gen_id", "image_generations", "SET NULL", false), text("prompt"),
			varchar("video_url", 512, ""), varchar("status", 50, "pending"), timestamps()),
		indexes: []index{{"idx_video_generations_image_gen_id", []string{"image_gen_id"}}},
	},
	{
		name: "video_merges",
		cols: cols(pk(), column{name: "merge_key", kind: kindString, size: 64, notNull: true, unique: true},
			ref("episode_id", "episodes", "SET NULL", false), varchar("title", 255, ""),
			varchar("video_url", 512, ""), varchar("status", 50, "pending"), timestamps()),
	},
	{
		name: "ai_configs",
		cols: cols(pk(), varchar("name", 100, ""), varchar("provider", 50, ""), varchar("model", 100, ""),
			varchar("endpoint", 255, ""), varchar("api_key_masked", 255, ""), boolean("is_enabled", true), timestamps()),
	},
	{
		name: "app_settings",
		cols: cols(pk(), column{name: "setting_key", kind: kindString, size: 100, notNull: true, unique: true},
			text("setting_value"), timestamps()),
	},
	{
		name: "tasks",
		cols: cols(pk(), column{name: "task_key", kind: kindString, size: 64, notNull: true, unique: true},
			varchar("task_type", 100, ""), varchar("status", 20, "pending"), integer("progress", 0),
			text("payload"), text("result"), timestamps()),
		indexes: []index{
			{"idx_tasks_task_type", []string{"task_type"}},
			{"idx_tasks_status", []string{"status"}},
		},
	},
}

// TableNames 返回建表顺序
func TableNames() []string {
	names := make([]string, 0, len(coreTables))
	for _, t := range coreTables {
		names = append(names, t.name)
	}
	return names
}

func (d Dialect) columnType(c column) string {
	switch c.kind {
	case kindPK:
		if d == DialectMySQL {
			return "BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY"
		}
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	case kindRef:
		if d == DialectMySQL {
			return "BIGINT UNSIGNED"
		}
		return "INTEGER"
	case kindInt:
		if d == DialectMySQL {
			return "INT"
		}
		return "INTEGER"
	case kindBool:
		if d == DialectMySQL {
			return "TINYINT(1)"
		}
		return "INTEGER"
	case kindString:
		return fmt.Sprintf("VARCHAR(%d)", c.size)
	case kindText:
		return "TEXT"
	case kindTime:
		return "DATETIME"
	}
	panic(fmt.Sprintf("unknown column kind %d", c.kind))
}

func (d Dialect) columnDef(c column) string {
	var b strings.Builder
	b.WriteString(c.name)
	b.WriteByte(' ')
	b.WriteString(d.columnType(c))
	if c.notNull {
		b.WriteString(" NOT NULL")
	}
	// MySQL 不允许 TEXT 列带默认值
	if c.def != "" && !(d == DialectMySQL && c.kind == kindText) {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.def)
	}
	if c.unique {
		b.WriteString(" UNIQUE")
	}
	return b.String()
}

func (d Dialect) createTable(t table) string {
	defs := make([]string, 0, len(t.cols)+len(t.uniques)+len(t.indexes))
	for _, c := range t.cols {
		defs = append(defs, d.columnDef(c))
	}
	for _, u := range t.uniques {
		defs = append(defs, "UNIQUE ("+strings.Join(u, ", ")+")")
	}
	for _, c := range t.cols {
		if c.ref != "" {
			defs = append(defs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(id) ON DELETE %s", c.name, c.ref, c.onDelete))
		}
	}
	// MySQL 没有 CREATE INDEX IF NOT EXISTS，索引放进建表语句
	if d == DialectMySQL {
		for _, idx := range t.indexes {
			defs = append(defs, fmt.Sprintf("INDEX %s (%s)", idx.name, strings.Join(idx.cols, ", ")))
		}
	}

	stmt := "CREATE TABLE IF NOT EXISTS " + t.name + " (\n    " + strings.Join(defs, ",\n    ") + "\n)"
	if d == DialectMySQL {
		stmt += " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"
	}
	return stmt
}

// Statements 生成完整的幂等 DDL：先建表，再建索引
func (d Dialect) Statements() []string {
	var stmts []string
	for _, t := range coreTables {
		stmts = append(stmts, d.createTable(t))
	}
	if d == DialectSQLite {
		for _, t := range coreTables {
			for _, idx := range t.indexes {
				stmts = append(stmts, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)",
					idx.name, t.name, strings.Join(idx.cols, ", ")))
			}
		}
	}
	return stmts
}

func (d Dialect) foreignKeysOn() string {
	if d == DialectMySQL {
		return "SET FOREIGN_KEY_CHECKS = 1"
	}
	return "PRAGMA foreign_keys = ON"
}

// Schema 负责核心表的初始化，每个进程只真正执行一次。
// DDL 本身是幂等的，latch 只是为了省掉重复执行。
type Schema struct {
	db      *gorm.DB
	dialect Dialect
	log     *zap.SugaredLogger

	mu    sync.Mutex
	ready atomic.Bool
}

func NewSchema(db *gorm.DB, dialect Dialect, log *zap.SugaredLogger) *Schema {
	return &Schema{db: db, dialect: dialect, log: log}
}

func (s *Schema) Ready() bool { return s.ready.Load() }

// Ensure 幂等建表。执行失败不会设置 latch，下一次调用会重试。
func (s *Schema) Ensure(ctx context.Context) error {
	if s.ready.Load() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready.Load() {
		return nil
	}

	db := s.db.WithContext(ctx)
	stmts := s.dialect.Statements()
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("执行建表语句失败: %w", err)
		}
	}
	if err := db.Exec(s.dialect.foreignKeysOn()).Error; err != nil {
		return fmt.Errorf("开启外键约束失败: %w", err)
	}

	s.ready.Store(true)
	s.log.Infow("核心表已就绪", "dialect", s.dialect, "statements", len(stmts))
	return nil
}
