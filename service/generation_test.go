package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"DramaStudio-server/models"
	"DramaStudio-server/service"
	"DramaStudio-server/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db    *gorm.DB
	tasks *service.TaskService
	gen   *service.GenerationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, schema := testutil.NewDB(t)
	tasks := service.NewTaskService(db, schema)
	return &fixture{db: db, tasks: tasks, gen: service.NewGenerationService(db, schema, tasks)}
}

// seedEpisode 建一个剧本、一集和若干分场
func (f *fixture) seedEpisode(t *testing.T, prompts ...string) (models.Episode, []models.Scene) {
	t.Helper()
	drama := models.Drama{Title: "d", Status: models.DramaStatusDraft}
	require.NoError(t, f.db.Create(&drama).Error)
	ep := models.Episode{DramaID: drama.ID, Title: "e", EpisodeNo: 1}
	require.NoError(t, f.db.Create(&ep).Error)
	var scenes []models.Scene
	for i, p := range prompts {
		sc := models.Scene{EpisodeID: ep.ID, Title: "s", Prompt: p, SortOrder: i}
		require.NoError(t, f.db.Create(&sc).Error)
		scenes = append(scenes, sc)
	}
	return ep, scenes
}

func TestCreateImageWithoutScene(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.gen.CreateImage(ctx, nil, "  a castle ")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationStatusCompleted, res.Image.Status)
	assert.Nil(t, res.Image.SceneID)
	assert.True(t, strings.HasPrefix(res.Image.ImageURL, "/static/mock/image-"))
	assert.Equal(t, models.TaskStatusCompleted, res.Task.Status)
	assert.Equal(t, 100, res.Task.Progress)
	assert.Equal(t, models.TaskTypeImageGenerate, res.Task.TaskType)

	got, err := f.tasks.Get(ctx, res.Task.TaskKey)
	require.NoError(t, err)
	payload := models.DecodeField(got.Payload)
	assert.Equal(t, "a castle", payload["prompt"])
	assert.Equal(t, float64(res.Image.ID), payload["image_generation_id"])
}

func TestCreateImageMissingSceneWritesNothing(t *testing.T) {
	f := newFixture(t)
	missing := uint(404)

	_, err := f.gen.CreateImage(context.Background(), &missing, "a castle")
	require.ErrorIs(t, err, service.ErrNotFound)
	assert.EqualError(t, err, "scene not found")
	assert.Equal(t, int64(0), testutil.Count(t, f.db, "image_generations"))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, "tasks"))
}

func TestCreateImageRequiresPrompt(t *testing.T) {
	f := newFixture(t)
	_, err := f.gen.CreateImage(context.Background(), nil, "   ")
	assert.ErrorIs(t, err, service.ErrInvalid)
}

func TestCreateImageRollsBackWhenTaskFails(t *testing.T) {
	f := newFixture(t)
	f.tasks.SetRandom(func([]byte) (int, error) { return 0, errors.New("no entropy") })

	_, err := f.gen.CreateImage(context.Background(), nil, "a castle")
	require.Error(t, err)
	assert.Equal(t, int64(0), testutil.Count(t, f.db, "image_generations"))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, "tasks"))
}

func TestGenerateImageForScene(t *testing.T) {
	f := newFixture(t)
	_, scenes := f.seedEpisode(t, "", "moonlit harbor")

	res, err := f.gen.GenerateImageForScene(context.Background(), scenes[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "auto generated scene image", res.Image.Prompt)
	assert.Equal(t, scenes[0].ID, *res.Image.SceneID)
	assert.Equal(t, models.TaskTypeImageForScene, res.Task.TaskType)

	res, err = f.gen.GenerateImageForScene(context.Background(), scenes[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "moonlit harbor", res.Image.Prompt)

	_, err = f.gen.GenerateImageForScene(context.Background(), 999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestBatchImagesAndVideos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ep, _ := f.seedEpisode(t, "one", "", "three")

	images, err := f.gen.BatchImages(ctx, ep.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, images.Count)
	require.Len(t, images.Items, 3)
	assert.Equal(t, "batch generated image", images.Items[1].Prompt)
	assert.Equal(t, float64(3), models.DecodeField(images.Task.Payload)["count"])

	videos, err := f.gen.BatchVideos(ctx, ep.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, videos.Count)
	for _, v := range videos.Items {
		require.NotNil(t, v.ImageGenID)
		assert.Contains(t, v.Prompt, "batch video for image")
	}
	assert.Equal(t, int64(2), testutil.Count(t, f.db, "tasks"))

	_, err = f.gen.BatchImages(ctx, 999)
	assert.ErrorIs(t, err, service.ErrNotFound)
	_, err = f.gen.BatchVideos(ctx, 999)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestBatchImagesEmptyEpisode(t *testing.T) {
	f := newFixture(t)
	ep, _ := f.seedEpisode(t)

	res, err := f.gen.BatchImages(context.Background(), ep.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Count)
	assert.Empty(t, res.Items)
	assert.Equal(t, models.TaskStatusCompleted, res.Task.Status)
}

func TestVideoCreation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	img, err := f.gen.CreateImage(ctx, nil, "p")
	require.NoError(t, err)

	v, err := f.gen.CreateVideo(ctx, &img.Image.ID, "pan left")
	require.NoError(t, err)
	assert.Equal(t, img.Image.ID, *v.Video.ImageGenID)
	assert.Equal(t, "pan left", v.Video.Prompt)

	loose, err := f.gen.CreateVideo(ctx, nil, "")
	require.NoError(t, err)
	assert.Nil(t, loose.Video.ImageGenID)
	assert.Nil(t, models.DecodeField(loose.Task.Payload)["image_gen_id"])

	missing := uint(999)
	_, err = f.gen.CreateVideo(ctx, &missing, "")
	assert.ErrorIs(t, err, service.ErrNotFound)

	from, err := f.gen.VideoFromImage(ctx, img.Image.ID)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("generated from image %d", img.Image.ID), from.Video.Prompt)
	assert.Equal(t, models.TaskTypeVideoFromImage, from.Task.TaskType)

	_, err = f.gen.VideoFromImage(ctx, 999)
	assert.EqualError(t, err, "image generation not found")
}

func TestExtractBackgroundsAndMerge(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ep, _ := f.seedEpisode(t, "x")

	task, err := f.gen.ExtractBackgrounds(ctx, ep.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskTypeBackgroundExtract, task.TaskType)
	assert.Equal(t, int64(0), testutil.Count(t, f.db, "image_generations"))

	merge, err := f.gen.CreateMerge(ctx, &ep.ID, " Final Cut ")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(merge.Merge.MergeKey, "merge_"))
	assert.Equal(t, "Final Cut", merge.Merge.Title)
	assert.Equal(t, merge.Merge.MergeKey, models.DecodeField(merge.Task.Payload)["merge_key"])

	got, err := models.GetVideoMergeByKey(f.db, merge.Merge.MergeKey)
	require.NoError(t, err)
	assert.Equal(t, merge.Merge.ID, got.ID)

	missing := uint(999)
	_, err = f.gen.CreateMerge(ctx, &missing, "")
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Equal(t, int64(1), testutil.Count(t, f.db, "video_merges"))
}
