package models

import "time"

// User 代表一个通过 Magic Link 登录过的所有者。
// 匿名上传不产生 User 记录, 对应文件的 Owner 为 NULL。
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"` // UUID
	Email     string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	LastLogin time.Time `json:"last_login"`
}

// MagicLinkToken 是一次性登录令牌的持久化形式。
// 只存储令牌的 SHA-256 摘要; 明文令牌只出现在发送给用户的链接里。
type MagicLinkToken struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	TokenHash  string    `gorm:"size:64;uniqueIndex;not null" json:"-"`
	Email      string    `gorm:"size:255;index;not null" json:"email"`
	ExpiresAt  time.Time `gorm:"not null" json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}
