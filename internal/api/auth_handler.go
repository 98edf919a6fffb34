package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"jobtracker/internal/api/middleware"
	"jobtracker/internal/config"
	"jobtracker/internal/database"
	"jobtracker/internal/errcode"
	"jobtracker/internal/metrics"
	"jobtracker/internal/users"
)

// TokenIssuer 为用户签发访问令牌。
type TokenIssuer interface {
	Issue(userID uint) (string, error)
}

// AuthHandler 处理注册与登录。
type AuthHandler struct {
	users                 *users.Store
	tokens                TokenIssuer
	redis                 redis.UniversalClient
	loginRateLimitPerHour int
	loginLockThreshold    int
	loginLockTTL          time.Duration
	now                   func() time.Time
}

// NewAuthHandler 构造认证处理器。redisClient 为 nil 时不做登录限流。
func NewAuthHandler(store *users.Store, tokens TokenIssuer, redisClient redis.UniversalClient, cfg config.AuthConfig) *AuthHandler {
	return &AuthHandler{
		users:                 store,
		tokens:                tokens,
		redis:                 redisClient,
		loginRateLimitPerHour: cfg.LoginRateLimitPerHour,
		loginLockThreshold:    cfg.LoginLockThreshold,
		loginLockTTL:          cfg.LoginLockTTL,
		now:                   time.Now,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userSummary struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func newUserSummary(u *database.User) userSummary {
	return userSummary{UserID: u.ID, Username: u.Username, Email: u.Email}
}

// Register 创建新用户账号并直接返回访问令牌。
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	logger := middleware.LoggerFromContext(c).With(slog.String("username", req.Username))

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errcode.Has(err, errcode.Internal) {
			logger.Error("register failed", slog.Any("error", err))
		} else {
			logger.Info("register rejected", slog.Any("error", err))
		}
		Fail(c, err)
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		logger.Error("issue token failed", slog.Any("error", err))
		Fail(c, errcode.Wrap(errcode.Internal, "Registration error", err))
		return
	}

	logger.Info("user registered", slog.Uint64("user_id", uint64(user.ID)))
	OK(c, http.StatusCreated, gin.H{
		"user":  newUserSummary(user),
		"token": token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login 校验口令并返回访问令牌。
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	// 限流与锁定的键与账号查找保持一致，邮箱按原样区分大小写。
	email := req.Email
	logger := middleware.LoggerFromContext(c).With(slog.String("email", email))

	if req.Email != "" && req.Password != "" {
		if limited, msg := h.throttled(ctx, c.ClientIP(), email, logger); limited {
			Error(c, http.StatusTooManyRequests, msg)
			return
		}
	}

	user, err := h.users.Authenticate(ctx, req.Email, req.Password)
	if err != nil {
		switch errcode.CodeOf(err) {
		case errcode.InvalidCredentials:
			logger.Info("login failed")
			metrics.ObserveLogin(metrics.LoginFailure)
			h.recordFailure(ctx, email, logger)
		case errcode.Internal:
			logger.Error("login error", slog.Any("error", err))
		}
		Fail(c, err)
		return
	}

	h.clearFailures(ctx, email)

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		logger.Error("issue token failed", slog.Any("error", err))
		Fail(c, errcode.Wrap(errcode.Internal, "Login error", err))
		return
	}

	metrics.ObserveLogin(metrics.LoginSuccess)
	logger.Info("user logged in", slog.Uint64("user_id", uint64(user.ID)))
	OK(c, http.StatusOK, gin.H{
		"user":  newUserSummary(user),
		"token": token,
	})
}

// throttled 检查每 IP+邮箱 每小时的次数与失败锁定。
// Redis 不可用时放行，限流只是附加保护。
func (h *AuthHandler) throttled(ctx context.Context, ip, email string, logger *slog.Logger) (bool, string) {
	if h.redis == nil {
		return false, ""
	}

	if h.loginRateLimitPerHour > 0 {
		rateKey := "rate:login:" + ip + ":" + email + ":" + h.now().UTC().Format("2006010215")
		count, err := incrWithTTL(ctx, h.redis, rateKey, time.Hour)
		if err != nil {
			logger.Warn("login rate counter unavailable", slog.Any("error", err))
			return false, ""
		}
		if count > int64(h.loginRateLimitPerHour) {
			metrics.ObserveLogin(metrics.LoginRateLimited)
			return true, "Too many login attempts. Try again later."
		}
	}

	ttl, err := h.redis.TTL(ctx, lockKey(email)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logger.Warn("login lock lookup failed", slog.Any("error", err))
		return false, ""
	}
	if ttl > 0 {
		metrics.ObserveLogin(metrics.LoginLocked)
		return true, "Account temporarily locked. Try again later."
	}
	return false, ""
}

func (h *AuthHandler) recordFailure(ctx context.Context, email string, logger *slog.Logger) {
	if h.redis == nil || h.loginLockThreshold <= 0 {
		return
	}
	count, err := incrWithTTL(ctx, h.redis, failKey(email), h.loginLockTTL)
	if err != nil {
		logger.Warn("login failure counter unavailable", slog.Any("error", err))
		return
	}
	if count >= int64(h.loginLockThreshold) {
		if err := h.redis.Set(ctx, lockKey(email), "1", h.loginLockTTL).Err(); err != nil {
			logger.Warn("set login lock failed", slog.Any("error", err))
			return
		}
		logger.Info("account locked after repeated failures", slog.Int64("failures", count))
	}
}

func (h *AuthHandler) clearFailures(ctx context.Context, email string) {
	if h.redis == nil {
		return
	}
	_ = h.redis.Del(ctx, failKey(email)).Err()
}

func lockKey(email string) string { return "lock:login:" + email }
func failKey(email string) string { return "lock:login:fail:" + email }
