package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"DramaStudio-server/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultScenePrompt = "auto generated scene image"
	defaultBatchPrompt = "batch generated image"
)

// ImageResult 单条生成记录及其任务
type ImageResult struct {
	Image *models.ImageGeneration `json:"image"`
	Task  *models.Task            `json:"task"`
}

type VideoResult struct {
	Video *models.VideoGeneration `json:"video"`
	Task  *models.Task            `json:"task"`
}

type BatchImageResult struct {
	EpisodeID uint                     `json:"episode_id"`
	Count     int                      `json:"count"`
	Items     []models.ImageGeneration `json:"items"`
	Task      *models.Task             `json:"task"`
}

type BatchVideoResult struct {
	EpisodeID uint                     `json:"episode_id"`
	Count     int                      `json:"count"`
	Items     []models.VideoGeneration `json:"items"`
	Task      *models.Task             `json:"task"`
}

type MergeResult struct {
	Merge *models.VideoMerge `json:"merge"`
	Task  *models.Task       `json:"task"`
}

// GenerationService 生成记录与任务在同一个事务中创建。
// 没有真实的生成管线，记录直接以 mock URL 和 completed 状态落库。
type GenerationService struct {
	db     *gorm.DB
	schema *models.Schema
	tasks  *TaskService
	now    func() time.Time
}

func NewGenerationService(db *gorm.DB, schema *models.Schema, tasks *TaskService) *GenerationService {
	return &GenerationService{db: db, schema: schema, tasks: tasks, now: time.Now}
}

// transact 先确保表已建好再开事务；事务内的任务台账必须复用同一个 tx
func (s *GenerationService) transact(ctx context.Context, fn func(tx *gorm.DB, tasks *TaskService) error) error {
	if s.schema != nil {
		if err := s.schema.Ensure(ctx); err != nil {
			return err
		}
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx, s.tasks.WithTx(tx))
	})
}

func requireRow[T any](tx *gorm.DB, id uint, resource string) (*T, error) {
	row, err := models.Get[T](tx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFound(resource)
	}
	if err != nil {
		return nil, fmt.Errorf("查询%s失败: %w", resource, err)
	}
	return row, nil
}

func (s *GenerationService) stamp() int64 { return s.now().Unix() }

func (s *GenerationService) newImage(sceneID *uint, prompt, url string) models.ImageGeneration {
	now := s.now()
	return models.ImageGeneration{
		SceneID:   sceneID,
		Prompt:    prompt,
		ImageURL:  url,
		Status:    models.GenerationStatusCompleted,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *GenerationService) newVideo(imageGenID *uint, prompt, url string) models.VideoGeneration {
	now := s.now()
	return models.VideoGeneration{
		ImageGenID: imageGenID,
		Prompt:     prompt,
		VideoURL:   url,
		Status:     models.GenerationStatusCompleted,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// CreateImage sceneID 为 nil 时不绑定分场
func (s *GenerationService) CreateImage(ctx context.Context, sceneID *uint, prompt string) (*ImageResult, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, Invalid("prompt is required")
	}
	var out ImageResult
	err := s.transact(ctx, func(tx *gorm.DB, tasks *TaskService) error {
		if sceneID != nil {
			if _, err := requireRow[models.Scene](tx, *sceneID, "scene"); err != nil {
				return err
			}
		}
		img := s.newImage(sceneID, prompt, fmt.Sprintf("/static/mock/image-%d.png", s.stamp()))
		if err := tx.Create(&img).Error; err != nil {
			return fmt.Errorf("创建图片记录失败: %w", err)
		}
		task, err := tasks.Create(ctx, models.TaskTypeImageGenerate, map[string]any{
			"image_generation_id": img.ID,
			"prompt":              prompt,
		}, models.TaskStatusCompleted)
		if err != nil {
			return err
		}
		out = ImageResult{Image: &img, Task: task}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateImageForScene 分场没有 prompt 时使用默认文案
func (s *GenerationService) GenerateImageForScene(ctx context.Context, sceneID uint) (*ImageResult, error) {
	var out ImageResult
	err := s.transact(ctx, func(tx *gorm.DB, tasks *TaskService) error {
		scene, err := requireRow[models.Scene](tx, sceneID, "scene")
		if err != nil {
			return err
		}
		prompt := scene.Prompt
		if strings.TrimSpace(prompt) == "" {
			prompt = defaultScenePrompt
		}
		img := s.newImage(&scene.ID, prompt, fmt.Sprintf("/static/mock/scene-%d-%d.png", scene.ID, s.stamp()))
		if err := tx.Create(&img).Error; err != nil {
			return fmt.Errorf("创建图片记录失败: %w", err)
		}
		task, err := tasks.Create(ctx, models.TaskTypeImageForScene, map[string]any{
			"scene_id":            scene.ID,
			"image_generation_id": img.ID,
		}, models.TaskStatusCompleted)
		if err != nil {
			return err
		}
		out = ImageResult{Image: &img, Task: task}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// BatchImages 为剧集下每个分场生成一张图，整体只记一条任务
func (s *GenerationService) BatchImages(ctx context.Context, episodeID uint) (*BatchImageResult, error) {
	var out BatchImageResult
	err := s.transact(ctx, func(tx *gorm.DB, tasks *TaskService) error {
		if _, err := requireRow[models.Episode](tx, episodeID, "episode"); err != nil {
			return err
		}
		scenes, err := models.ListScenes(tx, episodeID)
		if err != nil {
			return fmt.Errorf("查询分场失败: %w", err)
		}
		items := make([]models.ImageGeneration, 0, len(scenes))
		for i := range scenes {
			sc := &scenes[i]
			prompt := sc.Prompt
			if strings.TrimSpace(prompt) == "" {
				prompt = defaultBatchPrompt
			}
			img := s.newImage(&sc.ID, prompt, fmt.Sprintf("/static/mock/batch-scene-%d-%d.png", sc.ID, s.stamp()))
			if err := tx.Create(&img).Error; err != nil {
				return fmt.Errorf("创建图片记录失败: %w", err)
			}
			items = append(items, img)
		}
		task, err := tasks.Create(ctx, models.TaskTypeImageBatch, map[string]any{
			"episode_id": episodeID,
			"count":      len(items),
		}, models.TaskStatusCompleted)
		if err != nil {
			return err
		}
		out = BatchImageResult{EpisodeID: episodeID, Count: len(items), Items: items, Task: task}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ExtractBackgrounds 只记录任务，不产生生成记录
func (s *GenerationService) ExtractBackgrounds(ctx context.Context, episodeID uint) (*models.Task, error) {
	var task *models.Task
	err := s.transact(ctx, func(tx *gorm.DB, tasks *TaskService) error {
		if _, err := requireRow[models.Episode](tx, episodeID, "episode"); err != nil {
			return err
		}
		var err error
		task, err = tasks.Create(ctx, models.TaskTypeBackgroundExtract, map[string]any{
			"episode_id": episodeID,
		}, models.TaskStatusCompleted)
		return err
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *GenerationService) CreateVideo(ctx context.Context, imageGenID *uint, prompt string) (*VideoResult, error) {
	prompt = strings.TrimSpace(prompt)
	var out VideoResult
	err := s.transact(ctx, func(tx *gorm.DB, tasks *TaskService) error {
		if imageGenID != nil {
			if _, err := requireRow[models.ImageGeneration](tx, *imageGenID, "image generation"); err != nil {
				return err
			}
		}
		video := s.newVideo(imageGenID, prompt, fmt.Sprintf("/static/mock/video-%d.mp4", s.stamp()))
		if err := tx.Create(&video).Error; err != nil {
			return fmt.Errorf("创建视频记录失败: %w", err)
		}
		var parent any
		if imageGenID != nil {
			parent = *imageGenID
		}
		task, err := tasks.Create(ctx, models.TaskTypeVideoGenerate, map[string]any{
			"video_generation_id": video.ID,
			"image_gen_id":        parent,
		}, models.TaskStatusCompleted)
		if err != nil {
			return err
		}
		out = VideoResult{Video: &video, Task: task}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *GenerationService) VideoFromImage(ctx context.Context, imageGenID uint) (*VideoResult, error) {
	var out VideoResult
	err := s.transact(ctx, func(tx *gorm.DB, tasks *TaskService) error {
		img, err := requireRow[models.ImageGeneration](tx, imageGenID, "image generation")
		if err != nil {
			return err
		}
		video := s.newVideo(&img.ID, fmt.Sprintf("generated from image %d", img.ID),
			fmt.Sprintf("/static/mock/from-image-%d-%d.mp4", img.ID, s.stamp()))
		if err := tx.Create(&video).Error; err != nil {
			return fmt.Errorf("创建视频记录失败: %w", err)
		}
		task, err := tasks.Create(ctx, models.TaskTypeVideoFromImage, map[string]any{
			"image_gen_id":        img.ID,
			"video_generation_id": video.ID,
		}, models.TaskStatusCompleted)
		if err != nil {
			return err
		}
		out = VideoResult{Video: &video, Task: task}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// BatchVideos 剧集下每张分场图片生成一段视频
func (s *GenerationService) BatchVideos(ctx context.Context, episodeID uint) (*BatchVideoResult, error) {
	var out BatchVideoResult
	err := s.transact(ctx, func(tx *gorm.DB, tasks *TaskService) error {
		if _, err := requireRow[models.Episode](tx, episodeID, "episode"); err != nil {
			return err
		}
		images, err := models.ListImagesByEpisode(tx, episodeID)
		if err != nil {
			return fmt.Errorf("查询分场图片失败: %w", err)
		}
		items := make([]models.VideoGeneration, 0, len(images))
		for i := range images {
			img := &images[i]
			video := s.newVideo(&img.ID, fmt.Sprintf("batch video for image %d", img.ID),
				fmt.Sprintf("/static/mock/batch-video-%d-%d.mp4", img.ID, s.stamp()))
			if err := tx.Create(&video).Error; err != nil {
				return fmt.Errorf("创建视频记录失败: %w", err)
			}
			items = append(items, video)
		}
		task, err := tasks.Create(ctx, models.TaskTypeVideoBatch, map[string]any{
			"episode_id": episodeID,
			"count":      len(items),
		}, models.TaskStatusCompleted)
		if err != nil {
			return err
		}
		out = BatchVideoResult{EpisodeID: episodeID, Count: len(items), Items: items, Task: task}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateMerge 合成记录使用不透明的 merge_<uuid> 作为对外标识
func (s *GenerationService) CreateMerge(ctx context.Context, episodeID *uint, title string) (*MergeResult, error) {
	var out MergeResult
	err := s.transact(ctx, func(tx *gorm.DB, tasks *TaskService) error {
		if episodeID != nil {
			if _, err := requireRow[models.Episode](tx, *episodeID, "episode"); err != nil {
				return err
			}
		}
		key := "merge_" + uuid.NewString()
		now := s.now()
		merge := models.VideoMerge{
			MergeKey:  key,
			EpisodeID: episodeID,
			Title:     strings.TrimSpace(title),
			VideoURL:  fmt.Sprintf("/static/mock/%s.mp4", key),
			Status:    models.GenerationStatusCompleted,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Create(&merge).Error; err != nil {
			return fmt.Errorf("创建合成记录失败: %w", err)
		}
		var parent any
		if episodeID != nil {
			parent = *episodeID
		}
		task, err := tasks.Create(ctx, models.TaskTypeVideoMerge, map[string]any{
			"merge_key":  key,
			"episode_id": parent,
		}, models.TaskStatusCompleted)
		if err != nil {
			return err
		}
		out = MergeResult{Merge: &merge, Task: task}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
