package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const accessTokenType = "access"

var (
	// ErrTokenMissing 表示请求未携带令牌。
	ErrTokenMissing = errors.New("token is missing")
	// ErrTokenExpired 表示令牌签名有效但已过期。
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid 表示令牌格式错误或签名无法验证。
	ErrTokenInvalid = errors.New("token is invalid")
)

// TokenService 负责签发与校验访问令牌。
// 令牌只携带用户 ID 与过期时间，没有吊销列表。
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenClaims 表示 JWT 中的业务字段，便于中间件读取用户信息。
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// NewTokenService 使用 HMAC 密钥构造服务实例。
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("jwt secret is required")
	}
	if ttl <= 0 {
		return nil, errors.New("token ttl must be positive")
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// WithClock 替换时间源，测试中用于构造过期令牌。
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// Issue 为用户签发访问令牌。
func (s *TokenService) Issue(userID uint) (string, error) {
	now := s.now()
	claims := TokenClaims{
		UserID:    userID,
		TokenType: accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate 解析并验证令牌，返回其中的用户 ID。
// 错误总是 ErrTokenMissing、ErrTokenExpired 或 ErrTokenInvalid 之一。
func (s *TokenService) Validate(tokenString string) (uint, error) {
	if tokenString == "" {
		return 0, ErrTokenMissing
	}

	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !token.Valid || claims.TokenType != accessTokenType || claims.UserID == 0 {
		return 0, fmt.Errorf("%w: invalid token claims", ErrTokenInvalid)
	}
	if claims.Subject != strconv.FormatUint(uint64(claims.UserID), 10) {
		return 0, fmt.Errorf("%w: subject mismatch", ErrTokenInvalid)
	}

	return claims.UserID, nil
}

// TTL 暴露访问令牌有效期。
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}
