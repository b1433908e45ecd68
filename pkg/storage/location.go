// Package storage resolves input and output locations that may live on the local disk or
// in an S3-compatible object store.
package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zhengshuai-xiao/HuffPar/internal"
)

var logger = internal.GetLogger("storage")

var ErrBadLocation = errors.New("invalid location")

type Scheme string

const (
	SchemeLocal Scheme = ""
	SchemeFile  Scheme = "file"
	SchemeS3    Scheme = "s3"
)

// Location is a parsed input or output argument. Path is set for local and file://
// locations, Bucket and Key for s3:// ones.
type Location struct {
	Scheme Scheme
	Path   string
	Bucket string
	Key    string
}

func (l Location) IsRemote() bool {
	return l.Scheme != SchemeLocal
}

func (l Location) String() string {
	switch l.Scheme {
	case SchemeS3:
		return "s3://" + l.Bucket + "/" + l.Key
	case SchemeFile:
		return "file://" + l.Path
	default:
		return l.Path
	}
}

// ParseLocation accepts a plain path, file:///abs/path or s3://bucket/key.
func ParseLocation(s string) (Location, error) {
	switch {
	case strings.HasPrefix(s, "s3://"):
		rest := strings.TrimPrefix(s, "s3://")
		bucket, key, ok := strings.Cut(rest, "/")
		key = strings.TrimLeft(key, "/")
		if !ok || bucket == "" || key == "" || strings.HasSuffix(key, "/") {
			return Location{}, fmt.Errorf("%w: %q, expected s3://bucket/key", ErrBadLocation, s)
		}
		return Location{Scheme: SchemeS3, Bucket: bucket, Key: key}, nil
	case strings.HasPrefix(s, "file://"):
		p, err := internal.NormalizePath(strings.TrimPrefix(s, "file://"))
		if err != nil {
			return Location{}, fmt.Errorf("%w: %q: %v", ErrBadLocation, s, err)
		}
		return Location{Scheme: SchemeFile, Path: p}, nil
	default:
		p, err := internal.NormalizePath(s)
		if err != nil {
			return Location{}, fmt.Errorf("%w: %q: %v", ErrBadLocation, s, err)
		}
		return Location{Scheme: SchemeLocal, Path: p}, nil
	}
}
