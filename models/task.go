package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/gorm"
)

// 任务状态
const (
	TaskStatusPending   = "pending"
	TaskStatusRunning   = "running"
	TaskStatusCompleted = "completed"
	TaskStatusFailed    = "failed"
)

// 生成类任务类型
const (
	TaskTypeImageGenerate     = "image.generate"
	TaskTypeImageForScene     = "image.generate.scene"
	TaskTypeImageBatch        = "image.batch.generate"
	TaskTypeBackgroundExtract = "image.background.extract"
	TaskTypeVideoGenerate     = "video.generate"
	TaskTypeVideoFromImage    = "video.generate.from-image"
	TaskTypeVideoBatch        = "video.batch.generate"
	TaskTypeVideoMerge        = "video.merge"
)

// Task 是任务台账的一行。payload/result 以 JSON 文本落库，对外输出时解码为对象。
type Task struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TaskKey   string    `gorm:"column:task_key" json:"task_key"`
	TaskType  string    `json:"task_type"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	Payload   string    `json:"-"`
	Result    string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Task) TableName() string {
	return "tasks"
}

func (t Task) MarshalJSON() ([]byte, error) {
	type plain Task
	return json.Marshal(struct {
		plain
		Payload map[string]any `json:"payload"`
		Result  map[string]any `json:"result"`
	}{
		plain:   plain(t),
		Payload: DecodeField(t.Payload),
		Result:  DecodeField(t.Result),
	})
}

func (t *Task) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}

// NormalizeStatus 小写去空格，未知状态一律回落为 pending
func NormalizeStatus(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted, TaskStatusFailed:
		return s
	}
	return TaskStatusPending
}

func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// DecodeField 宽松解码 JSON 对象文本。空串、null、非对象或格式错误都返回空 map。
func DecodeField(raw any) map[string]any {
	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	}
	out := map[string]any{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return out
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil || decoded == nil {
		return out
	}
	return decoded
}

// EncodeField 序列化对象，失败或为空时写 "{}"
func EncodeField(m map[string]any) string {
	if len(m) == 0 {
		return "{}"
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func GetTaskByKey(db *gorm.DB, key string) (*Task, error) {
	var task Task
	if err := db.Where("task_key = ?", key).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func TaskKeyExists(db *gorm.DB, key string) (bool, error) {
	var n int64
	if err := db.Model(&Task{}).Where("task_key = ?", key).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

type TaskFilter struct {
	TaskType string
	Status   string
	Page     Page
}

// ListTasks 按创建倒序分页
func ListTasks(db *gorm.DB, f TaskFilter) ([]Task, int64, error) {
	q := db.Model(&Task{})
	if f.TaskType != "" {
		q = q.Where("task_type = ?", f.TaskType)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	tasks := []Task{}
	err := q.Order("id DESC").Offset(f.Page.Offset()).Limit(f.Page.Size).Find(&tasks).Error
	return tasks, total, err
}
