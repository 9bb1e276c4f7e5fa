package api

import (
	"DramaStudio-server/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetLanguage(c *gin.Context) {
	lang, err := models.GetSetting(h.db(c), models.SettingLanguage, models.DefaultLanguage)
	if err != nil {
		h.fail(c, err)
		return
	}
	success(c, gin.H{"language": lang})
}

func (h *Handler) UpdateLanguage(c *gin.Context) {
	lang := readPayload(c).String("language")
	if lang == "" {
		invalid(c, "language is required")
		return
	}
	if err := models.UpsertSetting(h.db(c), models.SettingLanguage, lang); err != nil {
		h.fail(c, err)
		return
	}
	successMsg(c, "updated", gin.H{"language": lang})
}
