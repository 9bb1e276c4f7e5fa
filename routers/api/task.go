package api

import (
	"errors"
	"net/http"
	"time"

	"DramaStudio-server/models"
	"DramaStudio-server/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// GET /tasks?task_type=&status=&page=&page_size=
func (h *Handler) ListTasks(c *gin.Context) {
	p := readPayload(c)
	page := pageFrom(p)
	items, total, err := h.Tasks.List(c.Request.Context(), models.TaskFilter{
		TaskType: p.String("task_type"),
		Status:   p.String("status"),
		Page:     page,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, gin.H{"items": items, "pagination": paginationOf(page, total)})
}

// POST /tasks 显式传入 task_key 时重复返回 409
func (h *Handler) CreateTask(c *gin.Context) {
	p := readPayload(c)
	taskType := p.String("task_type")
	if taskType == "" {
		invalid(c, "task_type is required")
		return
	}
	status := p.StringOr("status", models.TaskStatusPending)
	payload := p.Object("payload")

	var (
		task *models.Task
		err  error
	)
	if key := p.String("task_key"); key != "" {
		task, err = h.Tasks.CreateWithKey(c.Request.Context(), key, taskType, payload, status)
	} else {
		task, err = h.Tasks.Create(c.Request.Context(), taskType, payload, status)
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	created(c, task)
}

func (h *Handler) GetTask(c *gin.Context) {
	task, err := h.Tasks.Get(c.Request.Context(), c.Param("task_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, task)
}

// PUT /tasks/:task_id 未传的字段保持原值
func (h *Handler) UpdateTask(c *gin.Context) {
	ctx := c.Request.Context()
	task, err := h.Tasks.Get(ctx, c.Param("task_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	p := readPayload(c)
	status := p.StringOr("status", task.Status)
	progress := p.Int("progress", task.Progress)
	if err := h.Tasks.Update(ctx, task, status, progress, p.Object("result")); err != nil {
		h.fail(c, err)
		return
	}
	successMsg(c, "updated", task)
}

// 任务进度 WebSocket 推送：先推送当前状态，之后轮询数据库，状态或进度变化时推送，
// 到达终态或客户端断开后关闭连接
func (h *Handler) TaskProgressWebSocket(c *gin.Context) {
	key := c.Param("task_id")
	ctx := c.Request.Context()
	t, err := h.Tasks.Get(ctx, key)
	if err != nil {
		h.fail(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Log.Warnw("WebSocket升级失败", "task_key", key, "error", err)
		return
	}
	defer conn.Close()
	// 升级后的连接仍带着 http.Server 的读写超时，这里重置
	_ = conn.SetReadDeadline(time.Time{})

	// 客户端关闭时读循环返回
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := writeJSON(conn, t); err != nil || t.IsTerminal() {
		h.closeSocket(conn)
		return
	}

	interval := h.PollInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	prevStatus, prevProgress := t.Status, t.Progress
	for {
		select {
		case <-closed:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		cur, err := h.Tasks.Get(ctx, key)
		if err != nil {
			// 任务被删除时结束推送，其他错误下一轮重试
			if errors.Is(err, service.ErrNotFound) {
				h.closeSocket(conn)
				return
			}
			h.Log.Warnw("查询任务失败", "task_key", key, "error", err)
			continue
		}
		if cur.Status == prevStatus && cur.Progress == prevProgress {
			continue
		}
		if err := writeJSON(conn, cur); err != nil {
			return
		}
		prevStatus, prevProgress = cur.Status, cur.Progress
		if cur.IsTerminal() {
			h.closeSocket(conn)
			return
		}
	}
}

const wsWriteWait = 10 * time.Second

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(v)
}

func (h *Handler) closeSocket(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteWait))
}
