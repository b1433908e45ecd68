// Copyright 2025 zhengshuai.xiao@outlook.com
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
package storage

import (
	"context"
	"crypto/md5"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// S3Backend serves s3:// locations from any S3-compatible endpoint.
type S3Backend struct {
	client *miniogo.Core
}

func NewS3Backend(conf S3Config) (*S3Backend, error) {
	core, err := miniogo.NewCore(conf.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(conf.AccessKey, conf.SecretKey, ""),
		Secure: conf.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client for %s: %w", conf.Endpoint, err)
	}
	return &S3Backend{client: core}, nil
}

func (s *S3Backend) Download(ctx context.Context, loc Location, localPath string) error {
	reader, info, _, err := s.client.GetObject(ctx, loc.Bucket, loc.Key, miniogo.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to get object %s: %w", loc, err)
	}
	defer reader.Close()

	f, err := os.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, reader)
	if err != nil {
		f.Close()
		return fmt.Errorf("failed to write object %s to %s: %w", loc, localPath, err)
	}
	if info.Size >= 0 && n != info.Size {
		f.Close()
		return fmt.Errorf("object %s: got %d bytes, expected %d", loc, n, info.Size)
	}
	logger.Debugf("downloaded %s (%d bytes) to %s", loc, n, localPath)
	return f.Close()
}

func (s *S3Backend) Upload(ctx context.Context, localPath string, loc Location) error {
	if err := s.ensureBucket(ctx, loc.Bucket); err != nil {
		return err
	}
	info, err := uploadFile(ctx, s.client, loc.Bucket, loc.Key, localPath)
	if err != nil {
		return err
	}
	logger.Debugf("uploaded %s to %s, etag %s", localPath, loc, info.ETag)
	return nil
}

func (s *S3Backend) ensureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
		logger.Infof("Bucket %s created", bucket)
	}
	return nil
}

// uploadFile puts localFilePath as a single object, sending its MD5 and SHA256 so the
// server can reject a corrupted transfer.
func uploadFile(ctx context.Context, core *miniogo.Core, bucket, object, localFilePath string) (miniogo.UploadInfo, error) {
	file, err := os.Open(localFilePath)
	if err != nil {
		return miniogo.UploadInfo{}, fmt.Errorf("failed to open file[%s]: %v", localFilePath, err)
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return miniogo.UploadInfo{}, fmt.Errorf("failed to stat file[%s]: %w", localFilePath, err)
	}

	md5Hash, sha256Hash, err := calculateFileHashes(file)
	if err != nil {
		return miniogo.UploadInfo{}, fmt.Errorf("failed to calc hash: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return miniogo.UploadInfo{}, fmt.Errorf("failed to reset file pointer: %w", err)
	}

	opts := miniogo.PutObjectOptions{ContentType: "application/octet-stream"}
	uploadInfo, err := core.PutObject(ctx, bucket, object, file, fileInfo.Size(), md5Hash, sha256Hash, opts)
	if err != nil {
		return miniogo.UploadInfo{}, fmt.Errorf("failed to upload file[%s]: %w", localFilePath, err)
	}
	return uploadInfo, nil
}

func calculateFileHashes(r io.Reader) (md5Base64 string, sha256Hex string, err error) {
	md5Hasher := md5.New()
	sha256Hasher := sha256.New()

	if _, err := io.Copy(io.MultiWriter(md5Hasher, sha256Hasher), r); err != nil {
		return "", "", err
	}
	return base64.StdEncoding.EncodeToString(md5Hasher.Sum(nil)), hex.EncodeToString(sha256Hasher.Sum(nil)), nil
}
