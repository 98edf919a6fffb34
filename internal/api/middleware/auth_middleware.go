package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"jobtracker/internal/auth"
)

// IdentityKey 是 gin.Context 中保存调用方身份的键。
const IdentityKey = "identity"

// TokenValidator 校验访问令牌并返回用户 ID。
type TokenValidator interface {
	Validate(token string) (uint, error)
}

func abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

// AuthMiddleware 校验 Bearer 令牌并将调用方身份注入上下文。
// 缺失或过期返回 401，格式错误或签名无效返回 422。
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := LoggerFromContext(c)

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" {
			abort(c, http.StatusUnauthorized, "Missing authorization: Missing Authorization Header")
			return
		}

		parts := strings.Fields(header)
		if !strings.EqualFold(parts[0], "Bearer") {
			abort(c, http.StatusUnauthorized, "Missing authorization: Missing 'Bearer' type in 'Authorization' header")
			return
		}
		if len(parts) != 2 {
			abort(c, http.StatusUnprocessableEntity, "Invalid token: Bad Authorization header. Expected 'Authorization: Bearer <JWT>'")
			return
		}

		userID, err := tokens.Validate(parts[1])
		switch {
		case err == nil:
		case errors.Is(err, auth.ErrTokenExpired):
			logger.Info("token expired")
			abort(c, http.StatusUnauthorized, "Token has expired")
			return
		case errors.Is(err, auth.ErrTokenMissing):
			abort(c, http.StatusUnauthorized, "Missing authorization: Missing Authorization Header")
			return
		default:
			logger.Info("token rejected", slog.Any("error", err))
			abort(c, http.StatusUnprocessableEntity, "Invalid token: "+err.Error())
			return
		}

		identity := auth.Identity{UserID: userID}
		c.Set(IdentityKey, identity)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), identity))
		c.Set(slogLoggerKey, logger.With(slog.Uint64("user_id", uint64(userID))))
		c.Next()
	}
}

// IdentityFromContext 取出 AuthMiddleware 注入的调用方身份。
func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	if value, ok := c.Get(IdentityKey); ok {
		if id, ok := value.(auth.Identity); ok && id.UserID != 0 {
			return id, true
		}
	}
	return auth.IdentityFromContext(c.Request.Context())
}
