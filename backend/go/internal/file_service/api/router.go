package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRouter 配置和返回一个 Gin 引擎实例。
func SetupRouter(h *Handler, jwtSecret string) *gin.Engine {
	// 使用默认中间件 (logger, recovery) 创建一个 Gin 引擎。
	r := gin.Default()

	// 对已注册路径的错误方法返回 405 而不是 404。
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "方法不被允许"})
	})

	authMiddleware := OptionalAuthMiddleware(jwtSecret)

	r.GET("/healthz", h.Healthz)
	r.GET("/ws/subscribe", h.Subscribe)

	// 旧版接口, 保留给仍在使用它的客户端。
	legacy := r.Group("/api")
	legacy.Use(authMiddleware)
	{
		legacy.POST("/upload", h.LegacyUpload)
		legacy.POST("/delete", h.LegacyDelete)
	}

	// 使用 v1 版本对 API 进行分组
	apiV1 := r.Group("/api/v1")
	{
		auth := apiV1.Group("/auth")
		{
			auth.POST("/magic-link", h.RequestMagicLink)
			auth.POST("/verify", h.VerifyMagicLink)
			auth.GET("/verify", h.VerifyMagicLink)
		}

		files := apiV1.Group("/files")
		files.Use(authMiddleware)
		{
			files.GET("", h.ListFiles)
			files.POST("", h.UploadFiles)
			files.DELETE("", h.DeleteFile)
			files.POST("/signed-url", h.CreateSignedURL)
		}
	}

	return r
}
