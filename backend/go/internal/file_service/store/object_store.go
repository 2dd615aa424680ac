package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"time"

	"github.com/minio/minio-go/v7"
)

// ErrObjectExists 表示目标存储键已被占用。存储键一旦写入即不可变,
// 覆盖写入一律拒绝。
var ErrObjectExists = errors.New("object already exists")

var (
	whitespacePattern = regexp.MustCompile(`\s+`)
	unsafePattern     = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)
)

// ObjectStore 封装了对 MinIO 对象存储的所有访问: 上传、删除和签名下载链接。
type ObjectStore struct {
	client *minio.Client
	bucket string
}

// NewObjectStore 创建一个新的 ObjectStore 实例。
func NewObjectStore(client *minio.Client, bucket string) *ObjectStore {
	return &ObjectStore{client: client, bucket: bucket}
}

// SanitizeFilename 将文件名规整为存储键安全的形式:
// 空白字符替换为 '_', 其余不在 [A-Za-z0-9_.-] 内的字符全部去除。
func SanitizeFilename(name string) string {
	s := whitespacePattern.ReplaceAllString(name, "_")
	return unsafePattern.ReplaceAllString(s, "")
}

// BuildKey 生成存储键: {folder}/{discriminator}_{epochMillis}_{sanitizedName}。
// discriminator 用于降低同名冲突概率并标明来源 (匿名为 "anon",
// 登录用户为其 ID 的前缀)。
func BuildKey(folder, discriminator, filename string, now time.Time) string {
	return fmt.Sprintf("%s/%s_%d_%s", folder, discriminator, now.UnixMilli(), SanitizeFilename(filename))
}

// Put 将对象写入存储桶。目标键已存在时返回 ErrObjectExists。
// 写入带 If-None-Match: *, 存在性检查由服务端在 PUT 内原子完成,
// 并发写同一个键时只有一方成功, 另一方收到 412。
func (o *ObjectStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	opts := minio.PutObjectOptions{ContentType: contentType}
	opts.SetMatchETagExcept("*")

	_, err := o.client.PutObject(ctx, o.bucket, key, reader, size, opts)
	if err != nil {
		if minio.ToErrorResponse(err).Code == minio.PreconditionFailed {
			return ErrObjectExists
		}
		return fmt.Errorf("上传对象 '%s' 失败: %w", key, err)
	}
	return nil
}

// Remove 从存储桶中删除一个或多个对象。任一删除失败即返回错误。
func (o *ObjectStore) Remove(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := o.client.RemoveObject(ctx, o.bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("删除对象 '%s' 失败: %w", key, err)
		}
	}
	return nil
}

// PresignedURL 为指定存储键生成限时下载链接。
func (o *ObjectStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	// 让浏览器用原始文件名保存下载内容。
	reqParams := make(url.Values)
	presigned, err := o.client.PresignedGetObject(ctx, o.bucket, key, ttl, reqParams)
	if err != nil {
		return "", fmt.Errorf("生成签名链接 '%s' 失败: %w", key, err)
	}
	return presigned.String(), nil
}
