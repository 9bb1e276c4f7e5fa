package service_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"DramaStudio-server/models"
	"DramaStudio-server/service"
	"DramaStudio-server/testutil"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keyPattern = regexp.MustCompile(`^task_\d{14}_[0-9a-f]{8}$`)

func newTaskService(t *testing.T) *service.TaskService {
	t.Helper()
	db, schema := testutil.OpenDB(t)
	return service.NewTaskService(db, schema)
}

// fixedRandom 依次返回给定的字节序列，用完后重复最后一个
func fixedRandom(seqs ...[]byte) func([]byte) (int, error) {
	i := 0
	return func(b []byte) (int, error) {
		src := seqs[min(i, len(seqs)-1)]
		i++
		return copy(b, src), nil
	}
}

func TestTaskCreateBootstrapsSchema(t *testing.T) {
	tasks := newTaskService(t)

	task, err := tasks.Create(context.Background(), "image.generate", map[string]any{"prompt": "a castle"}, "")
	require.NoError(t, err)
	assert.Regexp(t, keyPattern, task.TaskKey)
	assert.Equal(t, models.TaskStatusPending, task.Status)
	assert.Equal(t, 0, task.Progress)
	assert.Equal(t, "{}", task.Result)

	got, err := tasks.Get(context.Background(), task.TaskKey)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"prompt": "a castle"}, models.DecodeField(got.Payload))
}

func TestTaskCreateRetriesOnKeyCollision(t *testing.T) {
	tasks := newTaskService(t)
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tasks.SetClock(func() time.Time { return frozen })
	same := []byte{0xde, 0xad, 0xbe, 0xef}
	tasks.SetRandom(fixedRandom(same, same, []byte{0x00, 0x00, 0x00, 0x01}))

	first, err := tasks.Create(context.Background(), "t", nil, "pending")
	require.NoError(t, err)
	assert.Equal(t, "task_20260301120000_deadbeef", first.TaskKey)

	second, err := tasks.Create(context.Background(), "t", nil, "pending")
	require.NoError(t, err)
	assert.Equal(t, "task_20260301120000_00000001", second.TaskKey)
	assert.NotEqual(t, first.TaskKey, second.TaskKey)
}

func TestTaskCreateKeyExhausted(t *testing.T) {
	tasks := newTaskService(t)
	tasks.SetClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) })
	tasks.SetRandom(fixedRandom([]byte{1, 2, 3, 4}))

	_, err := tasks.Create(context.Background(), "t", nil, "")
	require.NoError(t, err)
	_, err = tasks.Create(context.Background(), "t", nil, "")
	assert.ErrorIs(t, err, service.ErrKeyExhausted)
}

func TestTaskCreateRandomFailure(t *testing.T) {
	tasks := newTaskService(t)
	tasks.SetRandom(func([]byte) (int, error) { return 0, errors.New("entropy gone") })

	_, err := tasks.Create(context.Background(), "t", nil, "")
	assert.ErrorContains(t, err, "entropy gone")
}

func TestTaskCreateWithKeyConflict(t *testing.T) {
	tasks := newTaskService(t)
	ctx := context.Background()

	orig, err := tasks.CreateWithKey(ctx, "custom-key", "manual", map[string]any{"v": "1"}, "running")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusRunning, orig.Status)

	_, err = tasks.CreateWithKey(ctx, "custom-key", "other", map[string]any{"v": "2"}, "completed")
	require.ErrorIs(t, err, service.ErrConflict)
	assert.EqualError(t, err, "task_key already exists")

	got, err := tasks.Get(ctx, "custom-key")
	require.NoError(t, err)
	assert.Equal(t, "manual", got.TaskType)
	assert.Equal(t, models.TaskStatusRunning, got.Status)
	assert.Equal(t, `{"v":"1"}`, got.Payload)
}

func TestTaskCompleteAndFail(t *testing.T) {
	tasks := newTaskService(t)
	ctx := context.Background()

	task, err := tasks.Create(ctx, "t", nil, "running")
	require.NoError(t, err)
	require.NoError(t, tasks.Complete(ctx, task, map[string]any{"url": "/static/x.png"}))
	assert.Equal(t, models.TaskStatusCompleted, task.Status)
	assert.Equal(t, 100, task.Progress)

	got, err := tasks.Get(ctx, task.TaskKey)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, map[string]any{"url": "/static/x.png"}, models.DecodeField(got.Result))

	other, err := tasks.Create(ctx, "t", nil, "pending")
	require.NoError(t, err)
	require.NoError(t, tasks.Fail(ctx, other, map[string]any{"error": "boom"}))
	got, err = tasks.Get(ctx, other.TaskKey)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusFailed, got.Status)
	assert.Equal(t, 100, got.Progress)
}

func TestTaskUpdate(t *testing.T) {
	tasks := newTaskService(t)
	ctx := context.Background()

	task, err := tasks.Create(ctx, "t", nil, "")
	require.NoError(t, err)

	require.NoError(t, tasks.Update(ctx, task, "RUNNING", 150, nil))
	assert.Equal(t, models.TaskStatusRunning, task.Status)
	assert.Equal(t, 100, task.Progress)

	require.NoError(t, tasks.Update(ctx, task, "bogus", -5, map[string]any{"step": "1"}))
	assert.Equal(t, models.TaskStatusPending, task.Status)
	assert.Equal(t, 0, task.Progress)

	// 终态强制进度 100，未传 result 时保留原值
	require.NoError(t, tasks.Update(ctx, task, "failed", 10, nil))
	got, err := tasks.Get(ctx, task.TaskKey)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusFailed, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, map[string]any{"step": "1"}, models.DecodeField(got.Result))
}

func TestTaskGetNotFound(t *testing.T) {
	db, schema := testutil.NewDB(t)
	tasks := service.NewTaskService(db, schema)

	_, err := tasks.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.EqualError(t, err, "task not found")
}

func TestTaskListFilters(t *testing.T) {
	tasks := newTaskService(t)
	ctx := context.Background()
	for _, st := range []string{"pending", "completed", "completed"} {
		_, err := tasks.Create(ctx, "image.generate", nil, st)
		require.NoError(t, err)
	}
	_, err := tasks.Create(ctx, "video.generate", nil, "completed")
	require.NoError(t, err)

	items, total, err := tasks.List(ctx, models.TaskFilter{
		TaskType: "image.generate",
		Status:   "completed",
		Page:     models.NewPage(1, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, items, 1)
}

func TestProperty_CreatedTaskProgress(t *testing.T) {
	tasks := newTaskService(t)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("progress is 100 iff status is completed", prop.ForAll(
		func(status string) bool {
			task, err := tasks.Create(ctx, "prop", nil, status)
			if err != nil {
				return false
			}
			if task.Status == models.TaskStatusCompleted {
				return task.Progress == 100
			}
			return task.Progress == 0
		},
		gen.OneConstOf("pending", "running", "completed", "failed", "COMPLETED", "done", "", " Completed "),
	))

	properties.Property("unknown statuses are stored as pending", prop.ForAll(
		func(status string) bool {
			task, err := tasks.Create(ctx, "prop", nil, "x-"+status)
			if err != nil {
				return false
			}
			got, err := tasks.Get(ctx, task.TaskKey)
			return err == nil && got.Status == models.TaskStatusPending
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
