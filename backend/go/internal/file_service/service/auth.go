package service

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"pdf-collab/backend/go/internal/models"
	"pdf-collab/backend/go/pkg/logger"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

// ErrInvalidMagicLink 表示令牌不存在、已被使用或已过期。
// 三种情况对外不做区分, 避免泄露令牌状态。
var ErrInvalidMagicLink = errors.New("登录链接无效或已过期")

// AuthStore 是 AuthService 所依赖的用户和令牌存储操作。*store.Store 实现了它。
type AuthStore interface {
	FindOrCreateUserByEmail(email string) (*models.User, error)
	CreateMagicLink(tokenHash, email string, expiresAt time.Time) error
	ConsumeMagicLink(tokenHash string) (*models.MagicLinkToken, error)
}

// AuthService 实现 Magic Link 登录: 请求链接 -> 验证令牌 -> 签发 JWT。
// 匿名使用不经过这里, 没有令牌的请求一律按匿名处理。
type AuthService struct {
	store        AuthStore
	jwtSecret    []byte
	tokenTTL     time.Duration
	magicLinkTTL time.Duration
	baseURL      string
	log          *logger.Logger
}

// NewAuthService 创建一个新的 AuthService 实例。
func NewAuthService(store AuthStore, jwtSecret string, tokenTTL, magicLinkTTL time.Duration, baseURL string, log *logger.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	if magicLinkTTL <= 0 {
		magicLinkTTL = 15 * time.Minute
	}
	return &AuthService{
		store:        store,
		jwtSecret:    []byte(jwtSecret),
		tokenTTL:     tokenTTL,
		magicLinkTTL: magicLinkTTL,
		baseURL:      baseURL,
		log:          log,
	}
}

// RequestMagicLink 为指定邮箱生成一次性登录令牌并持久化其摘要。
// 本服务不集成邮件发送, 登录链接写入日志, 由运维侧的日志管道递送。
// 返回明文令牌供测试和日志使用。
func (a *AuthService) RequestMagicLink(email string) (string, error) {
	token := uuid.New().String() + uuid.New().String()
	expiresAt := time.Now().Add(a.magicLinkTTL)

	if err := a.store.CreateMagicLink(hashToken(token), email, expiresAt); err != nil {
		return "", fmt.Errorf("创建登录令牌失败: %w", err)
	}

	if a.log != nil {
		a.log.WithPayload(map[string]interface{}{
			"email": email,
			"link":  fmt.Sprintf("%s/api/v1/auth/verify?token=%s", a.baseURL, token),
		}).Info("已生成 Magic Link")
	}
	return token, nil
}

// VerifyMagicLink 消费一次性令牌, 成功时返回该用户的 JWT。
func (a *AuthService) VerifyMagicLink(token string) (string, error) {
	record, err := a.store.ConsumeMagicLink(hashToken(token))
	if err != nil {
		return "", ErrInvalidMagicLink
	}

	user, err := a.store.FindOrCreateUserByEmail(record.Email)
	if err != nil {
		return "", fmt.Errorf("查找用户失败: %w", err)
	}

	return a.generateJWT(user.ID)
}

// generateJWT 为指定用户签发 JWT, sub 为用户 ID。
func (a *AuthService) generateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(a.tokenTTL).Unix(),
		"iat": time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("签发 JWT 失败: %w", err)
	}
	return signed, nil
}

// hashToken 返回令牌的 SHA-256 摘要的十六进制表示。
// 令牌是高熵随机值, 摘要需要可按值查找, 因此不使用带盐哈希。
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
