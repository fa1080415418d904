// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package mirror pushes an org's report tree to S3 so the artifacts can
// be shared without handing out the workstation.
package mirror

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/apex/log"
	awsv2 "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// putter is the slice of the S3 client the mirror needs. Tests supply a
// recorder.
type putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Mirror uploads files under a bucket/prefix, keyed by org.
type Mirror struct {
	Client putter
	Bucket string
	Prefix string
}

// Push uploads every regular file under dir as
// <prefix>/<org>/<relative path> and returns how many went up.
func (m Mirror) Push(ctx context.Context, org, dir string) (int, error) {
	uploaded := 0

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}

		key := m.key(org, rel)
		_, err = m.Client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      awsv2.String(m.Bucket),
			Key:         awsv2.String(key),
			Body:        f,
			ContentType: awsv2.String(contentType(path)),
		})
		_ = f.Close()
		if err != nil {
			return fmt.Errorf("failed to upload %s: %w", key, err)
		}

		log.Debugf("mirrored s3://%s/%s", m.Bucket, key)
		uploaded++
		return nil
	})

	return uploaded, err
}

func (m Mirror) key(org, rel string) string {
	parts := make([]string, 0, 3)
	if p := strings.Trim(m.Prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, org, filepath.ToSlash(rel))
	return strings.Join(parts, "/")
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return "text/csv"
	case ".md":
		return "text/markdown"
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	default:
		return "application/octet-stream"
	}
}
