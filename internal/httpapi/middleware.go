package httpapi

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Leganyst/ordering-platform/internal/logging"
	"github.com/Leganyst/ordering-platform/internal/metrics"
	"github.com/Leganyst/ordering-platform/internal/ordering"
)

const (
	HeaderRequestID = "X-Request-ID"

	identityKey = "identity"
)

// TokenParser достаёт Identity из access-токена.
type TokenParser interface {
	Identity(token string) (ordering.Identity, error)
}

func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type", HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

// RequestLogger присваивает запросу request id, пишет строку лога и метрику длительности.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = logging.NewRequestID()
		}
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(logging.ContextWithRequestID(c.Request.Context(), id))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		latency := time.Since(start)
		metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(status), latency)

		ev := logging.Ctx(c.Request.Context()).Info()
		if status >= http.StatusInternalServerError {
			ev = logging.Ctx(c.Request.Context()).Warn()
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Msg("http request")
	}
}

// Auth проверяет bearer-токен и, если заданы роли, что роль вызывающего в их числе.
func Auth(tokens TokenParser, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(h, "Bearer ")
		if !ok || raw == "" {
			abort(c, http.StatusUnauthorized, ordering.KindUnauthorized, "missing or invalid token")
			return
		}

		id, err := tokens.Identity(raw)
		if err != nil {
			Fail(c, err)
			return
		}

		if len(roles) > 0 && !slices.Contains(roles, id.Role) {
			abort(c, http.StatusForbidden, ordering.KindForbidden, "role not allowed")
			return
		}

		c.Set(identityKey, id)
		c.Next()
	}
}

func identity(c *gin.Context) ordering.Identity {
	id, _ := c.MustGet(identityKey).(ordering.Identity)
	return id
}

// bearer возвращает сырой токен без проверки (для /auth/token с refresh-токеном).
func bearer(c *gin.Context) string {
	raw, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
	return raw
}
