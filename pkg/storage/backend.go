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
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zhengshuai-xiao/HuffPar/internal"
)

// Backend moves whole files between the local disk and a remote location.
type Backend interface {
	// Download copies the object at loc into localPath.
	Download(ctx context.Context, loc Location, localPath string) error
	// Upload copies localPath to loc, replacing what was there.
	Upload(ctx context.Context, localPath string, loc Location) error
}

// POSIXBackend serves file:// locations, typically a mounted share.
type POSIXBackend struct{}

func (POSIXBackend) Download(ctx context.Context, loc Location, localPath string) error {
	if _, err := internal.CheckInputFile(loc.Path); err != nil {
		return err
	}
	return copyFile(loc.Path, localPath)
}

// Upload writes next to the destination first so readers of loc never see a partial file.
func (POSIXBackend) Upload(ctx context.Context, localPath string, loc Location) error {
	if err := os.MkdirAll(filepath.Dir(loc.Path), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory %s: %w", filepath.Dir(loc.Path), err)
	}
	dst, err := internal.CreateAtomic(loc.Path)
	if err != nil {
		return err
	}
	defer dst.Abort()

	src, err := os.Open(localPath)
	if err != nil {
		return err
	}
	defer src.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", localPath, loc, err)
	}
	return dst.Commit()
}

func copyFile(from, to string) error {
	src, err := os.Open(from)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(to, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to copy %s to %s: %w", from, to, err)
	}
	return dst.Close()
}
