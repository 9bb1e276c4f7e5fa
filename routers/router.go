package routers

import (
	"net/http"
	"strings"

	"DramaStudio-server/config"
	"DramaStudio-server/routers/api"
	"DramaStudio-server/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func InitRouter(h *api.Handler, cfg *config.Config, log *zap.SugaredLogger) *gin.Engine {
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log), CORS(cfg.Server.CORSOrigins), RateLimit(cfg.Server.RateLimit))

	if local, ok := h.Storage.(*service.LocalStorage); ok {
		r.Static(staticPrefix(cfg.Storage.BaseURL), local.Root())
	}

	r.GET("/health", h.Health)

	v1 := r.Group("/api/v1")
	v1.Use(SchemaGate(h.Schema, log))
	{
		v1.GET("/health", h.Health)

		v1.GET("/dramas", h.ListDramas)
		v1.POST("/dramas", h.CreateDrama)
		v1.GET("/dramas/stats", h.DramaStats)
		v1.GET("/dramas/:id", h.GetDrama)
		v1.PUT("/dramas/:id", h.UpdateDrama)
		v1.DELETE("/dramas/:id", h.DeleteDrama)
		v1.PUT("/dramas/:id/outline", h.SaveOutline)
		v1.GET("/dramas/:id/characters", h.ListDramaCharacters)
		v1.PUT("/dramas/:id/characters", h.SaveDramaCharacters)
		v1.PUT("/dramas/:id/episodes", h.SaveDramaEpisodes)
		v1.PUT("/dramas/:id/progress", h.SaveProgress)
		v1.GET("/dramas/:id/props", h.ListDramaProps)
		v1.GET("/dramas/:id/episodes", h.ListEpisodes)
		v1.POST("/dramas/:id/episodes", h.CreateEpisode)

		v1.PUT("/episodes/:episode_id", h.UpdateEpisode)
		v1.DELETE("/episodes/:episode_id", h.DeleteEpisode)
		v1.GET("/episodes/:episode_id/scenes", h.ListScenes)
		v1.POST("/episodes/:episode_id/scenes", h.CreateEpisodeScene)
		v1.GET("/episodes/:episode_id/storyboards", h.ListStoryboards)
		v1.POST("/episodes/:episode_id/storyboards", h.GenerateStoryboards)
		v1.POST("/episodes/:episode_id/props/extract", h.ExtractEpisodeProps)
		v1.POST("/episodes/:episode_id/characters/extract", h.ExtractEpisodeCharacters)
		v1.POST("/episodes/:episode_id/finalize", h.FinalizeEpisode)
		v1.GET("/episodes/:episode_id/download", h.DownloadEpisode)

		v1.POST("/scenes", h.CreateScene)
		v1.POST("/scenes/generate-image", h.MockSceneImage)
		v1.PUT("/scenes/:scene_id", h.UpdateScene)
		v1.DELETE("/scenes/:scene_id", h.DeleteScene)
		v1.PUT("/scenes/:scene_id/prompt", h.UpdateScenePrompt)

		v1.POST("/storyboards", h.CreateStoryboard)
		v1.GET("/storyboards/episode/:episode_id/generate", h.MockStoryboardGenerate)
		v1.PUT("/storyboards/:id", h.UpdateStoryboard)
		v1.DELETE("/storyboards/:id", h.DeleteStoryboard)
		v1.POST("/storyboards/:id/props", h.AssociateStoryboardProps)

		v1.GET("/ai-configs", h.ListAIConfigs)
		v1.POST("/ai-configs", h.CreateAIConfig)
		v1.POST("/ai-configs/test", h.TestAIConfig)
		v1.GET("/ai-configs/:id", h.GetAIConfig)
		v1.PUT("/ai-configs/:id", h.UpdateAIConfig)
		v1.DELETE("/ai-configs/:id", h.DeleteAIConfig)

		v1.POST("/generation/characters", h.MockGenerateCharacters)

		v1.GET("/character-library", h.ListCharacterLibrary)
		v1.POST("/character-library", h.CreateLibraryItem)
		v1.GET("/character-library/:id", h.GetLibraryItem)
		v1.DELETE("/character-library/:id", h.DeleteLibraryItem)

		v1.POST("/characters/batch-generate-images", h.BatchCharacterImages)
		v1.PUT("/characters/:id", h.UpdateCharacter)
		v1.DELETE("/characters/:id", h.DeleteCharacter)
		v1.POST("/characters/:id/generate-image", h.GenerateCharacterImage)
		v1.POST("/characters/:id/upload-image", h.UploadCharacterImage)
		v1.PUT("/characters/:id/image", h.SetCharacterImage)
		v1.PUT("/characters/:id/image-from-library", h.ApplyLibraryToCharacter)
		v1.POST("/characters/:id/add-to-library", h.AddCharacterToLibrary)

		v1.POST("/props", h.CreateProp)
		v1.PUT("/props/:id", h.UpdateProp)
		v1.DELETE("/props/:id", h.DeleteProp)
		v1.POST("/props/:id/generate", h.GeneratePropImage)

		v1.POST("/upload/image", h.UploadImage)

		v1.GET("/images", h.ListImages)
		v1.POST("/images", h.CreateImage)
		v1.POST("/images/upload", h.MockImageUpload)
		v1.POST("/images/scene/:scene_id", h.GenerateSceneImage)
		v1.GET("/images/episode/:episode_id/backgrounds", h.ListBackgrounds)
		v1.POST("/images/episode/:episode_id/backgrounds/extract", h.ExtractBackgrounds)
		v1.POST("/images/episode/:episode_id/batch", h.BatchImages)
		v1.GET("/images/:id", h.GetImage)
		v1.DELETE("/images/:id", h.DeleteImage)

		v1.GET("/videos", h.ListVideos)
		v1.POST("/videos", h.CreateVideo)
		v1.POST("/videos/image/:image_gen_id", h.VideoFromImage)
		v1.POST("/videos/episode/:episode_id/batch", h.BatchVideos)
		v1.GET("/videos/:id", h.GetVideo)
		v1.DELETE("/videos/:id", h.DeleteVideo)

		v1.GET("/video-merges", h.ListVideoMerges)
		v1.POST("/video-merges", h.CreateVideoMerge)
		v1.GET("/video-merges/:merge_id", h.GetVideoMerge)
		v1.DELETE("/video-merges/:merge_id", h.DeleteVideoMerge)

		v1.GET("/assets", h.ListAssets)
		v1.POST("/assets", h.CreateAsset)
		v1.POST("/assets/import/image/:image_gen_id", h.ImportImageAsset)
		v1.POST("/assets/import/video/:video_gen_id", h.ImportVideoAsset)
		v1.GET("/assets/:id", h.GetAsset)
		v1.PUT("/assets/:id", h.UpdateAsset)
		v1.DELETE("/assets/:id", h.DeleteAsset)

		v1.GET("/tasks", h.ListTasks)
		v1.POST("/tasks", h.CreateTask)
		v1.GET("/tasks/:task_id", h.GetTask)
		v1.PUT("/tasks/:task_id", h.UpdateTask)
		v1.GET("/tasks/:task_id/ws", h.TaskProgressWebSocket)

		v1.POST("/audio/extract", h.ExtractAudio)
		v1.POST("/audio/extract/batch", h.BatchExtractAudio)

		v1.GET("/settings/language", h.GetLanguage)
		v1.PUT("/settings/language", h.UpdateLanguage)
	}

	r.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/v1/") {
			h.NotImplemented(c)
			return
		}
		api.Fail(c, http.StatusNotFound, "route not found", nil)
	})
	return r
}

// staticPrefix 本地存储 base_url 为完整地址时仍挂载在 /static
func staticPrefix(baseURL string) string {
	if strings.HasPrefix(baseURL, "/") && len(baseURL) > 1 {
		return strings.TrimSuffix(baseURL, "/")
	}
	return "/static"
}
