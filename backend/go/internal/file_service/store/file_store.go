package store

import (
	"errors"
	"time"

	"pdf-collab/backend/go/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound 表示请求的记录不存在。
var ErrNotFound = errors.New("record not found")

// --- File Metadata ---

// CreateFile 在 'files' 表中插入一条新的元数据记录。
// created_at 由数据库在插入时赋值。
func (s *Store) CreateFile(file *models.File) error {
	return s.DB.Create(file).Error
}

// ListFiles 按文件夹查询元数据记录, 按 created_at 降序排列。
// owner 不为 nil 时额外按所有者过滤, 这是服务端唯一的可见性限制;
// 文件夹本身只是展示层面的划分, 不构成访问控制边界。
func (s *Store) ListFiles(folder string, owner *string) ([]models.File, error) {
	query := s.DB.Where("folder = ?", folder)
	if owner != nil {
		query = query.Where("owner = ?", *owner)
	}
	var files []models.File
	if err := query.Order("created_at DESC").Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

// GetFileByPath 通过存储键查找一条元数据记录。
func (s *Store) GetFileByPath(path string) (*models.File, error) {
	var file models.File
	if err := s.DB.Where("path = ?", path).First(&file).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

// DeleteFileByPath 通过存储键删除元数据记录。
// path 是唯一且不可变的标识, 删除操作只以它为条件。
func (s *Store) DeleteFileByPath(path string) error {
	result := s.DB.Where("path = ?", path).Delete(&models.File{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Users & Magic Links ---

// FindOrCreateUserByEmail 按邮箱查找用户, 不存在时创建。
// Magic Link 验证通过后调用, 同时刷新最近登录时间。
func (s *Store) FindOrCreateUserByEmail(email string) (*models.User, error) {
	var user models.User
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = models.User{ID: uuid.New().String(), Email: email, LastLogin: time.Now()}
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}
		user.LastLogin = time.Now()
		return tx.Save(&user).Error
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateMagicLink 持久化一条一次性登录令牌记录 (只存摘要)。
func (s *Store) CreateMagicLink(tokenHash, email string, expiresAt time.Time) error {
	return s.DB.Create(&models.MagicLinkToken{
		TokenHash: tokenHash,
		Email:     email,
		ExpiresAt: expiresAt,
	}).Error
}

// ConsumeMagicLink 按摘要消费一条未过期、未使用的令牌。
// 消费是一条带条件的 UPDATE: 两个并发验证竞争同一令牌时,
// 只有把 consumed_at 从 NULL 改掉的那一个成功, 另一个影响 0 行。
func (s *Store) ConsumeMagicLink(tokenHash string) (*models.MagicLinkToken, error) {
	now := time.Now()
	result := s.DB.Model(&models.MagicLinkToken{}).
		Where("token_hash = ? AND consumed_at IS NULL AND expires_at > ?", tokenHash, now).
		Update("consumed_at", now)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var token models.MagicLinkToken
	if err := s.DB.Where("token_hash = ?", tokenHash).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}
