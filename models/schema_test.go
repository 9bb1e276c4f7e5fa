package models_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"DramaStudio-server/logger"
	"DramaStudio-server/models"
	"DramaStudio-server/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func sqliteObjects(t *testing.T, db *gorm.DB) []string {
	t.Helper()
	var names []string
	require.NoError(t, db.Raw(
		"SELECT type || ':' || name FROM sqlite_master WHERE name NOT LIKE 'sqlite_%' ORDER BY type, name",
	).Scan(&names).Error)
	return names
}

func TestSchemaEnsureCreatesEveryTable(t *testing.T) {
	db, _ := testutil.NewDB(t)

	objects := sqliteObjects(t, db)
	for _, name := range models.TableNames() {
		assert.Contains(t, objects, "table:"+name)
	}
	assert.Contains(t, objects, "index:idx_tasks_status")
	assert.Contains(t, objects, "index:idx_scenes_episode_id")
}

func TestSchemaEnsureSequentialIdempotent(t *testing.T) {
	db, schema := testutil.NewDB(t)
	before := sqliteObjects(t, db)

	for i := 0; i < 5; i++ {
		require.NoError(t, schema.Ensure(context.Background()))
	}
	// 新实例没有 latch，会把 DDL 全部重跑一遍
	fresh := models.NewSchema(db, models.DialectSQLite, logger.Nop())
	require.NoError(t, fresh.Ensure(context.Background()))

	assert.Equal(t, before, sqliteObjects(t, db))
	assert.True(t, fresh.Ready())
}

func TestSchemaEnsureConcurrent(t *testing.T) {
	db, schema := testutil.OpenDB(t)
	assert.False(t, schema.Ready())

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- schema.Ensure(context.Background())
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.True(t, schema.Ready())
	objects := sqliteObjects(t, db)
	for _, name := range models.TableNames() {
		assert.Contains(t, objects, "table:"+name)
	}
}

func TestSchemaEnsureFailureDoesNotLatch(t *testing.T) {
	db, schema := testutil.OpenDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, schema.Ensure(ctx))
	assert.False(t, schema.Ready())

	require.NoError(t, schema.Ensure(context.Background()))
	assert.True(t, schema.Ready())
	assert.Contains(t, sqliteObjects(t, db), "table:tasks")
}

func TestSchemaForeignKeysEnforced(t *testing.T) {
	db, _ := testutil.NewDB(t)

	err := db.Create(&models.Episode{DramaID: 999, Title: "orphan", EpisodeNo: 1}).Error
	require.Error(t, err)
	assert.True(t, models.IsForeignKeyViolation(err))

	drama := models.Drama{Title: "d", Status: models.DramaStatusDraft}
	require.NoError(t, db.Create(&drama).Error)
	ep := models.Episode{DramaID: drama.ID, Title: "e1", EpisodeNo: 1}
	require.NoError(t, db.Create(&ep).Error)
	scene := models.Scene{EpisodeID: ep.ID, Title: "s1"}
	require.NoError(t, db.Create(&scene).Error)
	img := models.ImageGeneration{SceneID: &scene.ID, Prompt: "p", Status: models.GenerationStatusCompleted}
	require.NoError(t, db.Create(&img).Error)

	// 删除剧本级联删除分集和分场，生成记录的 scene_id 置空
	require.NoError(t, models.Delete[models.Drama](db, drama.ID))
	assert.Equal(t, int64(0), testutil.Count(t, db, "episodes"))
	assert.Equal(t, int64(0), testutil.Count(t, db, "scenes"))

	got, err := models.Get[models.ImageGeneration](db, img.ID)
	require.NoError(t, err)
	assert.Nil(t, got.SceneID)
}

func TestDialectStatements(t *testing.T) {
	sqlite := models.DialectSQLite.Statements()
	mysql := models.DialectMySQL.Statements()

	n := len(models.TableNames())
	require.Greater(t, len(sqlite), n)
	require.Len(t, mysql, n)

	for i, name := range models.TableNames() {
		assert.True(t, strings.HasPrefix(sqlite[i], "CREATE TABLE IF NOT EXISTS "+name+" ("))
		assert.True(t, strings.HasPrefix(mysql[i], "CREATE TABLE IF NOT EXISTS "+name+" ("))
	}
	for _, stmt := range sqlite[n:] {
		assert.True(t, strings.HasPrefix(stmt, "CREATE INDEX IF NOT EXISTS "))
	}

	tasks := mysql[n-1]
	assert.Contains(t, tasks, "BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY")
	assert.Contains(t, tasks, "task_key VARCHAR(64) NOT NULL UNIQUE")
	assert.Contains(t, tasks, "INDEX idx_tasks_status (status)")
	assert.Contains(t, tasks, "ENGINE=InnoDB")
	assert.NotContains(t, tasks, "payload TEXT DEFAULT")

	assert.Contains(t, sqlite[n-1], "INTEGER PRIMARY KEY AUTOINCREMENT")
	assert.Contains(t, strings.Join(sqlite, "\n"),
		"FOREIGN KEY (scene_id) REFERENCES scenes(id) ON DELETE SET NULL")
}
