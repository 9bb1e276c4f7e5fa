package service

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"DramaStudio-server/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Storage 上传文件的落地位置，返回可访问的 URL
type Storage interface {
	Put(ctx context.Context, objectName string, r io.Reader, size int64) (string, error)
}

// NewStorage 按配置选择本地磁盘或 MinIO
func NewStorage(ctx context.Context, cfg config.StorageConfig, log *zap.SugaredLogger) (Storage, error) {
	switch cfg.Type {
	case "minio":
		return NewMinioStorage(ctx, cfg.MinIO, log)
	case "local", "":
		return NewLocalStorage(cfg.LocalPath, cfg.BaseURL)
	}
	return nil, fmt.Errorf("unsupported storage type %q", cfg.Type)
}

// ContentType 根据扩展名推断，未知类型按二进制处理
func ContentType(objectName string) string {
	switch strings.ToLower(filepath.Ext(objectName)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".gif":
		return "image/gif"
	case ".mp4":
		return "video/mp4"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	}
	return "application/octet-stream"
}

type LocalStorage struct {
	root    string
	baseURL string
}

func NewLocalStorage(root, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}
	return &LocalStorage{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStorage) Root() string { return s.root }

func (s *LocalStorage) Put(ctx context.Context, objectName string, r io.Reader, size int64) (string, error) {
	clean := path.Clean("/" + objectName)[1:]
	if clean == "" {
		return "", fmt.Errorf("invalid object name %q", objectName)
	}
	dst := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("创建文件失败: %w", err)
	}
	defer f.Close()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("写入文件失败: %w", err)
	}
	return s.baseURL + "/" + clean, nil
}

type MinioStorage struct {
	client *minio.Client
	cfg    config.MinIOConfig
	log    *zap.SugaredLogger
}

const presignExpiry = 72 * time.Hour

// NewMinioStorage 建立连接并确保 bucket 存在
func NewMinioStorage(ctx context.Context, cfg config.MinIOConfig, log *zap.SugaredLogger) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("MinIO 初始化失败: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("检查 Bucket 失败: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建 Bucket 失败: %w", err)
		}
		log.Infow("Bucket 已创建", "bucket", cfg.Bucket)
	}
	log.Infow("MinIO 连接成功", "endpoint", cfg.Endpoint)
	return &MinioStorage{client: client, cfg: cfg, log: log}, nil
}

// Put 配置了 Domain 时返回公开地址，否则返回预签名 URL
func (s *MinioStorage) Put(ctx context.Context, objectName string, r io.Reader, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, s.cfg.Bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: ContentType(objectName),
	})
	if err != nil {
		return "", fmt.Errorf("上传到 MinIO 失败: %w", err)
	}
	s.log.Debugw("文件已上传", "object", objectName)

	if s.cfg.Domain != "" {
		return strings.TrimRight(s.cfg.Domain, "/") + "/" + s.cfg.Bucket + "/" + objectName, nil
	}
	u, err := s.client.PresignedGetObject(ctx, s.cfg.Bucket, objectName, presignExpiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("生成签名 URL 失败: %w", err)
	}
	return u.String(), nil
}
