package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"DramaStudio-server/models"

	"gorm.io/gorm"
)

const maxKeyAttempts = 16

var ErrKeyExhausted = errors.New("unable to generate unique task key")

// TaskService 任务台账。所有任务的创建和状态变更都经过这里。
type TaskService struct {
	db     *gorm.DB
	schema *models.Schema
	now    func() time.Time
	random func([]byte) (int, error)
}

func NewTaskService(db *gorm.DB, schema *models.Schema) *TaskService {
	return &TaskService{
		db:     db,
		schema: schema,
		now:    time.Now,
		random: rand.Read,
	}
}

// WithTx 返回绑定到事务的副本
func (s *TaskService) WithTx(tx *gorm.DB) *TaskService {
	cp := *s
	cp.db = tx
	return &cp
}

// SetClock 测试用
func (s *TaskService) SetClock(now func() time.Time) { s.now = now }

// SetRandom 测试用
func (s *TaskService) SetRandom(random func([]byte) (int, error)) { s.random = random }

// Create 以生成的唯一 key 落一条任务，completed 时进度直接为 100
func (s *TaskService) Create(ctx context.Context, taskType string, payload map[string]any, status string) (*models.Task, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	key, err := s.uniqueKey(db)
	if err != nil {
		return nil, err
	}
	return s.insert(db, key, taskType, payload, status)
}

// CreateWithKey 使用调用方指定的 key，已存在时返回冲突而不是覆盖
func (s *TaskService) CreateWithKey(ctx context.Context, key, taskType string, payload map[string]any, status string) (*models.Task, error) {
	if key == "" {
		return nil, Invalid("task_key is required")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	exists, err := models.TaskKeyExists(db, key)
	if err != nil {
		return nil, fmt.Errorf("检查任务 key 失败: %w", err)
	}
	if exists {
		return nil, Conflict("task_key already exists")
	}
	return s.insert(db, key, taskType, payload, status)
}

func (s *TaskService) insert(db *gorm.DB, key, taskType string, payload map[string]any, status string) (*models.Task, error) {
	status = models.NormalizeStatus(status)
	progress := 0
	if status == models.TaskStatusCompleted {
		progress = 100
	}
	now := s.now()
	task := &models.Task{
		TaskKey:   key,
		TaskType:  taskType,
		Status:    status,
		Progress:  progress,
		Payload:   models.EncodeField(payload),
		Result:    models.EncodeField(nil),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(task).Error; err != nil {
		// 并发下两个写者拿到同一个 key，唯一约束兜底
		if models.IsUniqueViolation(err) {
			return nil, Conflict("task_key already exists")
		}
		return nil, fmt.Errorf("创建任务失败: %w", err)
	}
	return task, nil
}

// Complete 终态：completed，进度 100
func (s *TaskService) Complete(ctx context.Context, task *models.Task, result map[string]any) error {
	return s.finish(ctx, task, models.TaskStatusCompleted, result)
}

// Fail 终态：failed，进度 100
func (s *TaskService) Fail(ctx context.Context, task *models.Task, result map[string]any) error {
	return s.finish(ctx, task, models.TaskStatusFailed, result)
}

func (s *TaskService) finish(ctx context.Context, task *models.Task, status string, result map[string]any) error {
	return s.save(ctx, task, status, 100, models.EncodeField(result))
}

// Update 手动修改状态和进度。终态委托给 Complete/Fail，result 为 nil 时保留原值。
func (s *TaskService) Update(ctx context.Context, task *models.Task, status string, progress int, result map[string]any) error {
	status = models.NormalizeStatus(status)
	encoded := task.Result
	if result != nil {
		encoded = models.EncodeField(result)
	}
	switch status {
	case models.TaskStatusCompleted:
		return s.Complete(ctx, task, models.DecodeField(encoded))
	case models.TaskStatusFailed:
		return s.Fail(ctx, task, models.DecodeField(encoded))
	}
	return s.save(ctx, task, status, models.ClampProgress(progress), encoded)
}

func (s *TaskService) save(ctx context.Context, task *models.Task, status string, progress int, result string) error {
	now := s.now()
	err := s.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", task.ID).Updates(map[string]any{
		"status":     status,
		"progress":   progress,
		"result":     result,
		"updated_at": now,
	}).Error
	if err != nil {
		return fmt.Errorf("更新任务失败: %w", err)
	}
	task.Status = status
	task.Progress = progress
	task.Result = result
	task.UpdatedAt = now
	return nil
}

func (s *TaskService) Get(ctx context.Context, key string) (*models.Task, error) {
	task, err := models.GetTaskByKey(s.db.WithContext(ctx), key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound("task")
	}
	if err != nil {
		return nil, fmt.Errorf("查询任务失败: %w", err)
	}
	return task, nil
}

func (s *TaskService) List(ctx context.Context, f models.TaskFilter) ([]models.Task, int64, error) {
	return models.ListTasks(s.db.WithContext(ctx), f)
}

// NewKey 生成 task_<YYYYMMDDhhmmss>_<8 位十六进制>
func (s *TaskService) NewKey() (string, error) {
	buf := make([]byte, 4)
	if _, err := s.random(buf); err != nil {
		return "", fmt.Errorf("生成随机数失败: %w", err)
	}
	return "task_" + s.now().Format("20060102150405") + "_" + hex.EncodeToString(buf), nil
}

// uniqueKey 候选 key 已存在时重新生成，尝试次数有上限
func (s *TaskService) uniqueKey(db *gorm.DB) (string, error) {
	for i := 0; i < maxKeyAttempts; i++ {
		key, err := s.NewKey()
		if err != nil {
			return "", err
		}
		exists, err := models.TaskKeyExists(db, key)
		if err != nil {
			return "", fmt.Errorf("检查任务 key 失败: %w", err)
		}
		if !exists {
			return key, nil
		}
	}
	return "", ErrKeyExhausted
}

func (s *TaskService) ensureSchema(ctx context.Context) error {
	if s.schema == nil {
		return nil
	}
	return s.schema.Ensure(ctx)
}
