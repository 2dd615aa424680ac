package api

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"time"

	"pdf-collab/backend/go/internal/file_service/service"
	"pdf-collab/backend/go/internal/file_service/store"
	"pdf-collab/backend/go/internal/models"
	"pdf-collab/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// FileService 是 Handler 所依赖的文件操作。*service.Service 实现了它。
type FileService interface {
	UploadBatch(ctx context.Context, owner *string, folder string, files []service.UploadFile) []service.UploadResult
	Delete(ctx context.Context, path string) error
	List(ctx context.Context, folder string, owner *string) ([]models.File, error)
	SignedURL(ctx context.Context, path string) (string, time.Duration, error)
}

// AuthProvider 是 Handler 所依赖的认证操作。*service.AuthService 实现了它。
type AuthProvider interface {
	RequestMagicLink(email string) (string, error)
	VerifyMagicLink(token string) (string, error)
}

// Handler 封装了所有 API endpoint 的处理函数。
type Handler struct {
	service  FileService
	auth     AuthProvider
	manager  *service.ConnectionManager
	logger   *logger.Logger
	upgrader websocket.Upgrader

	// HealthChecks 按依赖名注册健康检查, 由 /healthz 逐一执行。
	HealthChecks map[string]func(ctx context.Context) error
}

// NewHandler 创建一个新的 Handler 实例。auth 和 manager 允许为 nil,
// 此时对应的 endpoint 返回 503。
func NewHandler(s FileService, auth AuthProvider, manager *service.ConnectionManager, log *logger.Logger) *Handler {
	return &Handler{
		service: s,
		auth:    auth,
		manager: manager,
		logger:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // In production, implement a proper origin check.
			},
		},
	}
}

// ownerFromContext 返回中间件设置的用户 ID, 匿名请求返回 nil。
func ownerFromContext(c *gin.Context) *string {
	if v, ok := c.Get("userID"); ok {
		if id, ok := v.(string); ok && id != "" {
			return &id
		}
	}
	return nil
}

// --- Legacy Handlers ---

// LegacyUploadRequest 定义了旧版上传请求的 JSON 结构, 内容为 base64 编码。
type LegacyUploadRequest struct {
	FileName    string `json:"fileName" binding:"required"`
	FileContent string `json:"fileContent" binding:"required"`
	Folder      string `json:"folder"`
}

// LegacyUpload 处理旧版单文件上传请求。
func (h *Handler) LegacyUpload(c *gin.Context) {
	var req LegacyUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体: 需要 fileName 和 fileContent"})
		return
	}

	content, err := base64.StdEncoding.DecodeString(req.FileContent)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fileContent 不是合法的 base64"})
		return
	}

	folder := req.Folder
	if folder == "" {
		folder = "current"
	}

	results := h.service.UploadBatch(c.Request.Context(), ownerFromContext(c), folder, []service.UploadFile{
		{Filename: req.FileName, Content: content},
	})
	if results[0].Error != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": results[0].Error})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "上传成功", "path": results[0].Path})
}

// LegacyDelete 处理旧版删除请求。
func (h *Handler) LegacyDelete(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体: 需要 path"})
		return
	}

	// 旧版约定: 任一步骤失败都返回 400 和错误信息。
	if err := h.service.Delete(c.Request.Context(), req.Path); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "删除成功", "path": req.Path})
}

// --- v1 File Handlers ---

// ListFiles 返回指定文件夹下当前可见的文件, 按创建时间倒序。
func (h *Handler) ListFiles(c *gin.Context) {
	folder := c.DefaultQuery("folder", "current")

	files, err := h.service.List(c.Request.Context(), folder, ownerFromContext(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取文件列表失败"})
		return
	}
	if files == nil {
		files = []models.File{}
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}

// UploadFiles 处理 multipart 批量上传。每个文件独立成功或失败,
// 响应中逐一报告结果。
func (h *Handler) UploadFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的 multipart 请求"})
		return
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求中没有文件"})
		return
	}

	folder := c.DefaultPostForm("folder", "current")

	uploads := make([]service.UploadFile, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "读取上传文件失败"})
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "读取上传文件失败"})
			return
		}
		uploads = append(uploads, service.UploadFile{Filename: fh.Filename, Content: content})
	}

	results := h.service.UploadBatch(c.Request.Context(), ownerFromContext(c), folder, uploads)

	status := http.StatusOK
	for _, r := range results {
		if r.Error != "" {
			// 部分失败也返回 207, 由客户端逐一检查结果。
			status = http.StatusMultiStatus
			break
		}
	}
	c.JSON(status, gin.H{"results": results})
}

// DeleteFile 删除指定存储路径的文件及其元数据。
func (h *Handler) DeleteFile(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体: 需要 path"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), req.Path); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "文件不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "删除失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "删除成功"})
}

// CreateSignedURL 为指定路径生成限时下载链接。
func (h *Handler) CreateSignedURL(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体: 需要 path"})
		return
	}

	url, ttl, err := h.service.SignedURL(c.Request.Context(), req.Path)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "文件不存在"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "生成下载链接失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url, "expires_in": int64(ttl.Seconds())})
}

// --- Auth Handlers ---

// RequestMagicLink 处理 Magic Link 登录请求。
// 无论邮箱是否已注册都返回相同的响应, 避免泄露注册状态。
func (h *Handler) RequestMagicLink(c *gin.Context) {
	if h.auth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "认证服务未启用"})
		return
	}

	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的邮箱地址"})
		return
	}

	if _, err := h.auth.RequestMagicLink(req.Email); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建登录链接失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "登录链接已发送"})
}

// VerifyMagicLink 消费一次性令牌并签发 JWT。
func (h *Handler) VerifyMagicLink(c *gin.Context) {
	if h.auth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "认证服务未启用"})
		return
	}

	token := c.Query("token")
	if token == "" {
		var req struct {
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求: 需要 token"})
			return
		}
		token = req.Token
	}

	jwtToken, err := h.auth.VerifyMagicLink(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "登录链接无效或已过期"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": jwtToken})
}

// --- Realtime Handler ---

// Subscribe 将 HTTP 连接升级为 WebSocket 并加入广播集合。
// 服务端只向客户端推送变更提示, 不处理客户端消息, 读循环仅用于感知断开。
func (h *Handler) Subscribe(c *gin.Context) {
	if h.manager == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "实时通知未启用"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.logger != nil {
			h.logger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("WebSocket 升级失败")
		}
		return
	}

	h.manager.Add(conn)
	defer func() {
		h.manager.Remove(conn)
		conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Healthz 逐一执行注册的依赖健康检查。任一依赖不健康时返回 503,
// 响应体按依赖名报告各自的状态。
func (h *Handler) Healthz(c *gin.Context) {
	status := http.StatusOK
	deps := gin.H{}
	for name, check := range h.HealthChecks {
		if err := check(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			deps[name] = err.Error()
		} else {
			deps[name] = "ok"
		}
	}
	body := gin.H{"status": "ok", "dependencies": deps}
	if status != http.StatusOK {
		body["status"] = "degraded"
	}
	c.JSON(status, body)
}
