package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"pdf-collab/backend/go/internal/file_service/store"
	"pdf-collab/backend/go/internal/models"
	"pdf-collab/backend/go/pkg/logger"
	"pdf-collab/backend/go/pkg/util"

	"gorm.io/datatypes"
)

// ErrNotPDF 表示上传内容不是 PDF。这类文件在任何网络调用之前就被拒绝。
var ErrNotPDF = errors.New("仅允许上传 PDF 文件")

// MetadataStore 是 Service 所依赖的元数据存储操作。*store.Store 实现了它。
type MetadataStore interface {
	CreateFile(file *models.File) error
	ListFiles(folder string, owner *string) ([]models.File, error)
	GetFileByPath(path string) (*models.File, error)
	DeleteFileByPath(path string) error
}

// ObjectStore 是 Service 所依赖的对象存储操作。*store.ObjectStore 实现了它。
type ObjectStore interface {
	Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, keys ...string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ChangePublisher 广播文件表变更提示。*notify.Notifier 实现了它。
type ChangePublisher interface {
	Publish(ctx context.Context, event models.ChangeEvent) error
}

// EventPublisher 发布文件生命周期事件。*kafka.EventPublisher 实现了它。
type EventPublisher interface {
	PublishFileEvent(ctx context.Context, event *models.FileEvent) error
}

// Options 是 Service 的可调参数。
type Options struct {
	SignedURLTTL  time.Duration // 签名链接有效期
	URLCacheTTL   time.Duration // 签名链接缓存有效期, 必须小于 SignedURLTTL
	URLCacheSize  int           // 签名链接缓存容量
	MaxUploadSize int64         // 单个文件最大字节数, 0 表示不限制
}

// Service 封装了文件上传、删除、列表和签名链接的业务逻辑。
// notifier 与 events 允许为 nil (相应能力整体禁用)。
type Service struct {
	store    MetadataStore
	objects  ObjectStore
	notifier ChangePublisher
	events   EventPublisher
	urlCache *util.LRUCache[string, string]
	opts     Options
	log      *logger.Logger
}

// NewService 创建一个新的 Service 实例。
func NewService(meta MetadataStore, objects ObjectStore, notifier ChangePublisher, events EventPublisher, opts Options, log *logger.Logger) (*Service, error) {
	if opts.SignedURLTTL <= 0 {
		opts.SignedURLTTL = time.Hour
	}
	if opts.URLCacheTTL <= 0 || opts.URLCacheTTL >= opts.SignedURLTTL {
		// 缓存必须先于链接过期, 否则会把已失效的链接发给用户。
		opts.URLCacheTTL = opts.SignedURLTTL / 2
	}
	if opts.URLCacheSize <= 0 {
		opts.URLCacheSize = 256
	}
	cache, err := util.NewWithConfig[string, string](util.CacheConfig{
		Capacity: opts.URLCacheSize,
		TTL:      opts.URLCacheTTL,
	})
	if err != nil {
		return nil, err
	}
	return &Service{
		store:    meta,
		objects:  objects,
		notifier: notifier,
		events:   events,
		urlCache: cache,
		opts:     opts,
		log:      log,
	}, nil
}

// UploadFile 是一次批量上传中的单个文件。
type UploadFile struct {
	Filename string
	Content  []byte
}

// UploadResult 是单个文件的上传结果。批量上传允许部分成功,
// 失败必须按文件粒度上报, 而不是合并成一个整体错误。
type UploadResult struct {
	Filename string `json:"filename"`
	Path     string `json:"path,omitempty"`
	Error    string `json:"error,omitempty"`
}

// UploadBatch 依次处理一批文件: 校验 -> 写入对象存储 -> 插入元数据。
// 任一步骤失败时该文件的处理终止并记录结果, 循环继续处理下一个文件。
// 元数据插入失败时已写入的对象不回滚 (孤儿对象是明确接受的不一致)。
func (s *Service) UploadBatch(ctx context.Context, owner *string, folder string, files []UploadFile) []UploadResult {
	results := make([]UploadResult, 0, len(files))
	discriminator := ownerDiscriminator(owner)

	for _, f := range files {
		result := UploadResult{Filename: f.Filename}

		meta, err := s.validate(f)
		if err != nil {
			result.Error = err.Error()
			s.logUploadError(f.Filename, err, "validation_error")
			results = append(results, result)
			continue
		}

		key := store.BuildKey(folder, discriminator, f.Filename, time.Now())

		if err := s.objects.Put(ctx, key, bytes.NewReader(f.Content), int64(len(f.Content)), "application/pdf"); err != nil {
			result.Error = err.Error()
			s.logUploadError(f.Filename, err, "storage_error")
			results = append(results, result)
			continue
		}

		record := &models.File{
			Filename: f.Filename,
			Path:     key,
			Size:     int64(len(f.Content)),
			Folder:   folder,
			Owner:    owner,
			Meta:     meta,
		}
		if err := s.store.CreateFile(record); err != nil {
			// 对象已写入但元数据缺失; 不做清理, 该文件按失败上报。
			result.Error = fmt.Sprintf("保存元数据失败: %v", err)
			s.logUploadError(f.Filename, err, "metadata_error")
			results = append(results, result)
			continue
		}

		result.Path = key
		results = append(results, result)
		s.announce(ctx, models.ActionInsert, record)
	}

	return results
}

// Delete 先删除存储对象, 再删除元数据行。两步相互独立:
// 任意一步失败都直接返回错误, 不做补偿清理, 用户可以重试。
func (s *Service) Delete(ctx context.Context, path string) error {
	record, err := s.store.GetFileByPath(path)
	if err != nil {
		return err
	}

	if err := s.objects.Remove(ctx, path); err != nil {
		return err
	}
	if err := s.store.DeleteFileByPath(path); err != nil {
		return err
	}

	s.urlCache.Remove(path)
	s.announce(ctx, models.ActionDelete, record)
	return nil
}

// List 返回指定文件夹下的元数据记录, 按 created_at 降序。
// owner 不为 nil 时只返回该所有者的文件。
func (s *Service) List(ctx context.Context, folder string, owner *string) ([]models.File, error) {
	return s.store.ListFiles(folder, owner)
}

// SignedURL 为指定存储键生成限时下载链接, 结果在本地缓存。
// 缓存的TTL严格小于链接有效期, 因此命中缓存的链接一定仍然有效。
func (s *Service) SignedURL(ctx context.Context, path string) (string, time.Duration, error) {
	if url, ok := s.urlCache.Get(path); ok {
		return url, s.opts.SignedURLTTL, nil
	}
	if _, err := s.store.GetFileByPath(path); err != nil {
		return "", 0, err
	}
	url, err := s.objects.PresignedURL(ctx, path, s.opts.SignedURLTTL)
	if err != nil {
		return "", 0, err
	}
	s.urlCache.Set(path, url)
	return url, s.opts.SignedURLTTL, nil
}

// validate 在任何网络调用之前检查单个上传文件, 并提取 PDF 附加信息。
func (s *Service) validate(f UploadFile) (datatypes.JSON, error) {
	if s.opts.MaxUploadSize > 0 && int64(len(f.Content)) > s.opts.MaxUploadSize {
		return nil, fmt.Errorf("文件 '%s' 超过大小限制 (%d 字节)", f.Filename, s.opts.MaxUploadSize)
	}
	return inspectPDF(f.Content)
}

// announce 在一次成功的变更后广播提示并写入事件流。
// 两者都是尽力而为: 失败只记日志, 不影响已完成的变更。
func (s *Service) announce(ctx context.Context, action string, record *models.File) {
	if s.notifier != nil {
		event := models.ChangeEvent{Table: "files", Action: action, Path: record.Path}
		if err := s.notifier.Publish(ctx, event); err != nil && s.log != nil {
			s.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "notify_error"}).Warn("广播变更通知失败")
		}
	}
	if s.events != nil {
		event := &models.FileEvent{
			Action:    action,
			Path:      record.Path,
			Filename:  record.Filename,
			Folder:    record.Folder,
			Size:      record.Size,
			Owner:     record.Owner,
			Timestamp: time.Now(),
		}
		if err := s.events.PublishFileEvent(ctx, event); err != nil && s.log != nil {
			s.log.WithError(models.ErrorInfo{Message: err.Error(), Type: "event_error"}).Warn("写入文件事件流失败")
		}
	}
}

func (s *Service) logUploadError(filename string, err error, errType string) {
	if s.log == nil {
		return
	}
	s.log.WithError(models.ErrorInfo{Message: err.Error(), Type: errType}).
		WithPayload(map[string]interface{}{"filename": filename}).
		Error("上传文件失败")
}

// ownerDiscriminator 生成存储键中的来源标识:
// 匿名为 "anon", 登录用户取其 ID 的前 8 个字符。
func ownerDiscriminator(owner *string) string {
	if owner == nil || *owner == "" {
		return "anon"
	}
	id := *owner
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
