package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"DramaStudio-server/logger"
	"DramaStudio-server/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFailMapsErrorKinds(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := &Handler{Log: logger.Nop()}

	cases := []struct {
		err     error
		status  int
		message string
	}{
		{service.NotFound("scene"), http.StatusNotFound, "scene not found"},
		{fmt.Errorf("wrapped: %w", service.Conflict("task_key already exists")), http.StatusConflict, "wrapped: task_key already exists"},
		{service.Invalid("prompt is required"), http.StatusUnprocessableEntity, "prompt is required"},
		{gorm.ErrRecordNotFound, http.StatusNotFound, "record not found"},
		{errors.New("disk on fire"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		h.fail(c, tc.err)

		assert.Equal(t, tc.status, w.Code)
		assert.True(t, c.IsAborted())
		var env Envelope
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, CodeError, env.Code)
		assert.Equal(t, tc.message, env.Message)
		assert.Equal(t, map[string]any{}, env.Data)
	}
}

func TestPathID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for raw, want := range map[string]uint{"1": 1, "42": 42, "0": 0, "-3": 0, "x": 0, "": 0} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "scene_id", Value: raw}}

		id, ok := pathID(c, "scene_id")
		assert.Equal(t, want, id, raw)
		assert.Equal(t, want != 0, ok, raw)
		if !ok {
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "invalid scene_id")
		}
	}
}

func TestUploadObjectName(t *testing.T) {
	now := time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC)
	name := uploadObjectName(`C:\pics\Cover.JPG`, now)
	assert.True(t, strings.HasPrefix(name, "uploads/20260309/"), name)
	assert.True(t, strings.HasSuffix(name, ".jpg"), name)

	name = uploadObjectName("noext", now)
	assert.Len(t, strings.TrimPrefix(name, "uploads/20260309/"), 36)
}
