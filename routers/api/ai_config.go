package api

import (
	"DramaStudio-server/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) ListAIConfigs(c *gin.Context) {
	list[models.AIConfig](h, c)
}

// api_key 只保存打码后的值
func (h *Handler) CreateAIConfig(c *gin.Context) {
	p := readPayload(c)
	name, provider := p.String("name"), p.String("provider")
	if name == "" || provider == "" {
		invalid(c, "name and provider are required")
		return
	}
	cfg := models.AIConfig{
		Name:         name,
		Provider:     provider,
		Model:        p.String("model"),
		Endpoint:     p.String("endpoint"),
		APIKeyMasked: models.MaskAPIKey(p.String("api_key")),
		IsEnabled:    p.Enabled("is_enabled", true),
	}
	if err := h.db(c).Create(&cfg).Error; err != nil {
		h.fail(c, err)
		return
	}
	created(c, cfg)
}

func (h *Handler) GetAIConfig(c *gin.Context) {
	read[models.AIConfig](h, c, "id", "config")
}

func (h *Handler) UpdateAIConfig(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cfg, ok := load[models.AIConfig](h, c, id, "config")
	if !ok {
		return
	}
	p := readPayload(c)
	masked := cfg.APIKeyMasked
	if p.Has("api_key") {
		masked = models.MaskAPIKey(p.String("api_key"))
	}
	update[models.AIConfig](h, c, id, map[string]any{
		"name":           p.StringOr("name", cfg.Name),
		"provider":       p.StringOr("provider", cfg.Provider),
		"model":          p.StringOr("model", cfg.Model),
		"endpoint":       p.StringOr("endpoint", cfg.Endpoint),
		"api_key_masked": masked,
		"is_enabled":     p.Enabled("is_enabled", cfg.IsEnabled),
	})
}

func (h *Handler) DeleteAIConfig(c *gin.Context) {
	remove[models.AIConfig](h, c, "id", "config")
}

// POST /ai-configs/test 连通性检查 mock
func (h *Handler) TestAIConfig(c *gin.Context) {
	p := readPayload(c)
	provider := p.String("provider")
	if provider == "" {
		invalid(c, "provider is required")
		return
	}
	success(c, gin.H{
		"provider":   provider,
		"model":      p.String("model"),
		"reachable":  true,
		"latency_ms": 35,
		"note":       "mock check passed, replace with real provider SDK integration",
	})
}
