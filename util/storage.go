// util/storage.go
// Copyright(c) 2025-2026 motionplan contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

var ErrInvalidStorageURI = errors.New("Invalid storage URI")

// StorageBackend provides read access to the datasets produced by the
// mapping pipeline, wherever they happen to be stored.
type StorageBackend interface {
	OpenRead(ctx context.Context, path string) (io.ReadCloser, error)
	Close()
}

// StorageLocation is a parsed dataset location: a bare filesystem path or
// a gs://bucket/object or s3://bucket/key URI.
type StorageLocation struct {
	Scheme string // "file", "gs", or "s3"
	Bucket string
	Path   string
}

func (l StorageLocation) String() string {
	if l.Scheme == "file" {
		return l.Path
	}
	return l.Scheme + "://" + l.Bucket + "/" + l.Path
}

func ParseStorageLocation(uri string) (StorageLocation, error) {
	if uri == "" {
		return StorageLocation{}, fmt.Errorf("%w: empty location", ErrInvalidStorageURI)
	}

	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return StorageLocation{Scheme: "file", Path: uri}, nil
	}

	switch scheme {
	case "file":
		return StorageLocation{Scheme: "file", Path: rest}, nil
	case "gs", "s3":
		bucket, path, ok := strings.Cut(rest, "/")
		if !ok || bucket == "" || path == "" {
			return StorageLocation{}, fmt.Errorf("%w: %s: expected %s://bucket/object", ErrInvalidStorageURI, uri, scheme)
		}
		return StorageLocation{Scheme: scheme, Bucket: bucket, Path: path}, nil
	default:
		return StorageLocation{}, fmt.Errorf("%w: %s: unsupported scheme %q", ErrInvalidStorageURI, uri, scheme)
	}
}

// LocalBackend reads from the filesystem, relative to Root if the path
// isn't absolute.
type LocalBackend struct {
	Root string
}

func (l LocalBackend) OpenRead(ctx context.Context, path string) (io.ReadCloser, error) {
	if !filepath.IsAbs(path) && l.Root != "" {
		path = filepath.Join(l.Root, path)
	}
	return os.Open(path)
}

func (l LocalBackend) Close() {}

// MakeStorageBackend returns the backend that serves the given location.
func MakeStorageBackend(ctx context.Context, loc StorageLocation) (StorageBackend, error) {
	switch loc.Scheme {
	case "file":
		return LocalBackend{}, nil
	case "gs":
		return MakeGCSBackend(ctx, loc.Bucket)
	case "s3":
		return MakeS3Backend(ctx, loc.Bucket)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidStorageURI, loc.Scheme)
	}
}

// OpenDataset opens the dataset at the given location; if it's zstd
// compressed, the returned reader handles decompression transparently.
func OpenDataset(ctx context.Context, uri string) (io.ReadCloser, error) {
	loc, err := ParseStorageLocation(uri)
	if err != nil {
		return nil, err
	}

	be, err := MakeStorageBackend(ctx, loc)
	if err != nil {
		return nil, err
	}

	r, err := be.OpenRead(ctx, loc.Path)
	if err != nil {
		be.Close()
		return nil, err
	}

	return wrapDecompress(loc.Path, &backendReadCloser{ReadCloser: r, be: be})
}

type backendReadCloser struct {
	io.ReadCloser
	be StorageBackend
}

func (b *backendReadCloser) Close() error {
	err := b.ReadCloser.Close()
	b.be.Close()
	return err
}

// Unfortunately the zstd Decoder's Close() method doesn't return an error
// and doesn't close the underlying reader, so it gets wrapped.
type zstdReadCloser struct {
	zr *zstd.Decoder
	r  io.ReadCloser
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	return z.zr.Read(p)
}

func (z *zstdReadCloser) Close() error {
	z.zr.Close()
	return z.r.Close()
}

func wrapDecompress(path string, r io.ReadCloser) (io.ReadCloser, error) {
	if filepath.Ext(path) != ".zst" {
		return r, nil
	}

	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(0))
	if err != nil {
		r.Close()
		return nil, err
	}
	return &zstdReadCloser{zr: zr, r: r}, nil
}
