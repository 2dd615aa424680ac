package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RedisConfig 定义了 Redis 数据库的连接配置。
type RedisConfig struct {
	Address  string `yaml:"address"`  // Redis 服务器地址 (例如: "localhost:6379")
	Password string `yaml:"password"` // Redis 密码
	DB       int    `yaml:"db"`       // Redis 数据库编号
	Channel  string `yaml:"channel"`  // 文件变更通知所使用的 Pub/Sub 频道
}

// MySQLConfig 定义了 MySQL 数据库的连接配置。
type MySQLConfig struct {
	Address         string `yaml:"address"`         // MySQL 服务器地址
	Username        string `yaml:"username"`        // 用户名
	Password        string `yaml:"password"`        // 密码
	Database        string `yaml:"database"`        // 数据库名称
	MaxOpenConns    int    `yaml:"maxOpenConns"`    // 最大打开连接数
	MaxIdleConns    int    `yaml:"maxIdleConns"`    // 最大空闲连接数
	ConnMaxLifetime int    `yaml:"connMaxLifetime"` // 连接最大生命周期 (秒)
}

// MinIOConfig 定义了 MinIO 对象存储的连接配置。
type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`  // MinIO 服务端点
	AccessKey string `yaml:"accessKey"` // 访问密钥
	SecretKey string `yaml:"secretKey"` // Secret 密钥 (仅服务端持有, 不下发给客户端)
	Bucket    string `yaml:"bucket"`    // 存放 PDF 文件的存储桶名称
	Secure    bool   `yaml:"secure"`    // 是否使用HTTPS
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
// Brokers 为空时, 文件事件流整体禁用。
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"` // Kafka Broker 地址列表
	Topics  []string `yaml:"topics"`  // Kafka 主题列表
}

// AuthConfig 用于配置认证方法和相关设置。
// 本服务支持匿名访问和 Magic Link 两种方式, 匿名访问无需任何配置。
type AuthConfig struct {
	JwtSecret    string `yaml:"jwtSecret"`    // JWT 密钥
	TokenTTL     int    `yaml:"tokenTTL"`     // JWT 令牌的有效期（秒）
	MagicLinkTTL int    `yaml:"magicLinkTTL"` // Magic Link 的有效期（秒）
	BaseURL      string `yaml:"baseURL"`      // 生成 Magic Link 时使用的服务外部地址
}

// TokenTTLDuration 返回 JWT 有效期, 未配置时为 0 (由服务层取默认值)。
func (a *AuthConfig) TokenTTLDuration() time.Duration {
	return time.Duration(a.TokenTTL) * time.Second
}

// MagicLinkTTLDuration 返回 Magic Link 有效期。
func (a *AuthConfig) MagicLinkTTLDuration() time.Duration {
	return time.Duration(a.MagicLinkTTL) * time.Second
}

// StorageConfig 定义了与文件存储语义相关的配置。
type StorageConfig struct {
	SignedURLTTL  int `yaml:"signedURLTTL"`  // 签名下载链接的有效期（秒）
	URLCacheTTL   int `yaml:"urlCacheTTL"`   // 签名链接本地缓存的有效期（秒）, 必须小于 signedURLTTL
	URLCacheSize  int `yaml:"urlCacheSize"`  // 签名链接缓存的最大条目数
	MaxUploadSize int `yaml:"maxUploadSize"` // 单个文件的最大字节数, 0 表示不限制
}

// SignedURLTTLDuration 返回签名链接有效期。
func (s *StorageConfig) SignedURLTTLDuration() time.Duration {
	return time.Duration(s.SignedURLTTL) * time.Second
}

// URLCacheTTLDuration 返回签名链接缓存的有效期。
func (s *StorageConfig) URLCacheTTLDuration() time.Duration {
	return time.Duration(s.URLCacheTTL) * time.Second
}

// DatabaseConfigs 包含所有后端存储的配置。
type DatabaseConfigs struct {
	Redis RedisConfig `yaml:"redis"` // Redis 配置
	MySQL MySQLConfig `yaml:"mysql"` // MySQL 配置
	MinIO MinIOConfig `yaml:"minio"` // MinIO 对象存储配置
	Kafka KafkaConfig `yaml:"kafka"` // Kafka 消息队列配置
}

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// ServerConfig 定义了 HTTP 服务的监听配置。
type ServerConfig struct {
	Address string `yaml:"address"` // 监听地址 (例如: ":8080")
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App       AppInfo         `yaml:"app"`       // 应用程序信息
	Server    ServerConfig    `yaml:"server"`    // HTTP 服务配置
	Auth      AuthConfig      `yaml:"auth"`      // 认证配置
	Logger    LoggerConfig    `yaml:"logger"`    // 日志记录器配置
	Storage   StorageConfig   `yaml:"storage"`   // 文件存储语义配置
	Databases DatabaseConfigs `yaml:"databases"` // 后端存储配置
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
// 解析完成后, 敏感字段允许被环境变量覆盖, 以避免将密钥写入配置文件。
func LoadConfig(path string) (*AppConfig, error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnvOverrides 用环境变量覆盖配置文件中的敏感字段。
func (c *AppConfig) applyEnvOverrides() {
	if v := os.Getenv("PDFCOLLAB_MINIO_ACCESS_KEY"); v != "" {
		c.Databases.MinIO.AccessKey = v
	}
	if v := os.Getenv("PDFCOLLAB_MINIO_SECRET_KEY"); v != "" {
		c.Databases.MinIO.SecretKey = v
	}
	if v := os.Getenv("PDFCOLLAB_MYSQL_PASSWORD"); v != "" {
		c.Databases.MySQL.Password = v
	}
	if v := os.Getenv("PDFCOLLAB_REDIS_PASSWORD"); v != "" {
		c.Databases.Redis.Password = v
	}
	if v := os.Getenv("PDFCOLLAB_JWT_SECRET"); v != "" {
		c.Auth.JwtSecret = v
	}
}

// Validate 检查必填配置项是否齐全。缺失的配置属于致命错误, 服务不应启动。
func (c *AppConfig) Validate() error {
	if c.Databases.MinIO.Endpoint == "" || c.Databases.MinIO.AccessKey == "" || c.Databases.MinIO.SecretKey == "" {
		return fmt.Errorf("缺少 MinIO 配置 (endpoint/accessKey/secretKey)")
	}
	if c.Databases.MinIO.Bucket == "" {
		return fmt.Errorf("缺少 MinIO 存储桶配置")
	}
	if c.Databases.MySQL.Address == "" || c.Databases.MySQL.Database == "" {
		return fmt.Errorf("缺少 MySQL 配置 (address/database)")
	}
	if c.Auth.JwtSecret == "" {
		return fmt.Errorf("缺少 JWT 密钥配置")
	}
	return nil
}
