// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package reader

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/EnSpec/SpecDAL/pkg/defaults"
	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
	"github.com/EnSpec/SpecDAL/pkg/metadata"
	"github.com/EnSpec/SpecDAL/pkg/reader/pico"
)

// Option configures a decode.
type Option func(*options)

type options struct {
	wantData     bool
	wantMetadata bool
	maxSize      int64
	dark         []byte
}

// WithData sets whether the data table is decoded. Default is true.
func WithData(want bool) Option {
	return func(o *options) {
		o.wantData = want
	}
}

// WithMetadata sets whether metadata is decoded. Default is true.
func WithMetadata(want bool) Option {
	return func(o *options) {
		o.wantMetadata = want
	}
}

// WithMaxSize bounds the raw and decompressed file size in bytes.
// Default is defaults.MaxFileSize.
func WithMaxSize(n int64) Option {
	return func(o *options) {
		o.maxSize = n
	}
}

// WithDark supplies the paired dark container of a light-only JSON file.
// Read locates it automatically.
func WithDark(data []byte) Option {
	return func(o *options) {
		o.dark = data
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		wantData:     true,
		wantMetadata: true,
		maxSize:      defaults.MaxFileSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Decode decodes an in-memory instrument file. The format is selected by the
// extension of path; a trailing .gz or .zst is decompressed first.
func Decode(path string, data []byte, opts ...Option) (*measurement.Table, *metadata.Metadata, error) {
	return decode(path, data, newOptions(opts))
}

func decode(path string, data []byte, o *options) (*measurement.Table, *metadata.Metadata, error) {
	format, ok := FormatOf(path)
	if !ok {
		decodeTotal.WithLabelValues("unknown", "unsupported").Inc()
		return nil, nil, errors.NewWithContext(errors.ErrCodeUnsupportedFormat,
			fmt.Sprintf("no decoder for %q", filepath.Ext(path)),
			map[string]any{"file": path})
	}

	start := time.Now()
	table, md, err := decodeFormat(path, data, format, o)
	decodeDuration.WithLabelValues(format.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		decodeTotal.WithLabelValues(format.String(), "error").Inc()
		return nil, nil, err
	}
	decodeTotal.WithLabelValues(format.String(), "success").Inc()

	if md != nil {
		md.Set(metadata.KeyChecksum, metadata.Str(Checksum(data)))
	}

	rows := 0
	if table != nil {
		rows = table.Len()
	}
	slog.Debug("decoded instrument file",
		"file", path,
		"format", format,
		"rows", rows,
	)
	return table, md, nil
}

func decodeFormat(path string, data []byte, format Format, o *options) (*measurement.Table, *metadata.Metadata, error) {
	if int64(len(data)) > o.maxSize {
		return nil, nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "file exceeds size limit",
			map[string]any{"file": path, "size": len(data), "limit": o.maxSize})
	}

	_, compression := splitCompression(path)
	payload, err := decompress(data, compression, o.maxSize)
	if err != nil {
		return nil, nil, errors.WrapWithContext(errors.ErrCodeCorruptFile, "failed to decompress file", err,
			map[string]any{"file": path, "compression": string(compression)})
	}

	if format == FormatPICO && o.dark != nil {
		dark, err := decompress(o.dark, compression, o.maxSize)
		if err != nil {
			return nil, nil, errors.WrapWithContext(errors.ErrCodeCorruptFile, "failed to decompress dark file", err,
				map[string]any{"file": path})
		}
		return pico.DecodeWithDark(path, payload, dark, o.wantData, o.wantMetadata)
	}
	return decoders[format](path, payload, o.wantData, o.wantMetadata)
}

// Read loads and decodes the file at path. Light-only JSON containers are
// paired with their dark container from the same directory.
func Read(ctx context.Context, path string, opts ...Option) (*measurement.Table, *metadata.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, "read canceled", err)
	}

	o := newOptions(opts)
	if _, ok := FormatOf(path); !ok {
		return decode(path, nil, o)
	}

	data, err := readFile(path, o.maxSize)
	if err != nil {
		return nil, nil, err
	}

	if isPicoLight(path) && o.dark == nil {
		darkPath, err := locateDark(path)
		if err != nil {
			return nil, nil, err
		}
		if o.dark, err = readFile(darkPath, o.maxSize); err != nil {
			return nil, nil, errors.WrapWithContext(errors.ErrCodeMissingPairedFile, "failed to read dark file", err,
				map[string]any{"file": path, "dark": darkPath})
		}
		slog.Debug("paired light file with dark file", "file", path, "dark", darkPath)
	}
	return decode(path, data, o)
}

func readFile(path string, limit int64) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.WrapWithContext(errors.ErrCodeNotFound, "file not found", err, map[string]any{"file": path})
		}
		return nil, errors.WrapWithContext(errors.ErrCodeInternal, "failed to stat file", err, map[string]any{"file": path})
	}
	if info.IsDir() {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "path is a directory", map[string]any{"file": path})
	}
	if info.Size() > limit {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "file exceeds size limit",
			map[string]any{"file": path, "size": info.Size(), "limit": limit})
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithContext(errors.ErrCodeInternal, "failed to read file", err, map[string]any{"file": path})
	}
	return data, nil
}

func locateDark(lightPath string) (string, error) {
	name, compression := splitCompression(lightPath)
	suffix := ""
	if compression != CompressionNone {
		suffix = filepath.Ext(lightPath)
	}

	candidates, err := filepath.Glob(filepath.Join(filepath.Dir(name), "*.dark"+suffix))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, "invalid dark file pattern", err)
	}
	for i, c := range candidates {
		candidates[i] = strings.TrimSuffix(c, suffix)
	}

	dark, err := pico.FindDarkFile(name, candidates)
	if err != nil {
		return "", err
	}
	return dark + suffix, nil
}

// Checksum returns the hex xxhash64 digest of the raw file bytes.
func Checksum(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}
