package routers

import (
	"net/http"
	"sync"
	"time"

	"DramaStudio-server/config"
	"DramaStudio-server/models"
	"DramaStudio-server/routers/api"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RequestLogger 每个请求结束后记录一条访问日志
func RequestLogger(log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		log.Infow("HTTP Request",
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", c.Writer.Status(),
			"duration", time.Since(start).Milliseconds(),
			"ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		)
	}
}

// CORS 配置为 * 时允许任意来源，否则只放行列出的来源并允许携带凭证
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"}
	cfg.MaxAge = 12 * time.Hour
	if len(origins) == 0 || containsWildcard(origins) {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}

// ipLimiter 每个客户端 IP 一个令牌桶，长时间未访问的条目定期清理
type ipLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	visitors map[string]*visitor
	lastGC   time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const visitorTTL = 10 * time.Minute

func newIPLimiter(cfg config.RateLimitConfig) *ipLimiter {
	return &ipLimiter{
		limit:    rate.Limit(cfg.RPS),
		burst:    max(1, cfg.Burst),
		visitors: make(map[string]*visitor),
		lastGC:   time.Now(),
	}
}

func (l *ipLimiter) allow(ip string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastGC) > visitorTTL {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > visitorTTL {
				delete(l.visitors, k)
			}
		}
		l.lastGC = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// RateLimit RPS <= 0 时不限流
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	if cfg.RPS <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	l := newIPLimiter(cfg)
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP(), time.Now()) {
			api.Fail(c, http.StatusTooManyRequests, "请求过于频繁，请稍后再试", nil)
			return
		}
		c.Next()
	}
}

// SchemaGate 保证处理请求前核心表已经建好；建表失败时本次请求返回 500，下次请求重试
func SchemaGate(schema *models.Schema, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !schema.Ready() {
			if err := schema.Ensure(c.Request.Context()); err != nil {
				log.Errorw("初始化数据表失败", "error", err)
				api.Fail(c, http.StatusInternalServerError, "internal server error", nil)
				return
			}
		}
		c.Next()
	}
}
