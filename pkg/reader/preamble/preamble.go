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

// Package preamble scans the key/value header of the text instrument
// formats and returns the table lines that follow the data sentinel.
package preamble

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/EnSpec/SpecDAL/pkg/defaults"
)

// Option configures a Parser.
type Option func(*Parser)

// Parser splits a text instrument file into header fields and body lines.
type Parser struct {
	kvDelimiter     string
	sentinel        string
	maxLines        int
	vTrimChars      string
	skipEmptyValues bool
}

// WithKVDelimiter sets the key-value delimiter of header lines.
// Default is "=".
func WithKVDelimiter(kvDelim string) Option {
	return func(p *Parser) {
		p.kvDelimiter = kvDelim
	}
}

// WithSentinel sets the line prefix that ends the header.
// Default is "data=".
func WithSentinel(sentinel string) Option {
	return func(p *Parser) {
		p.sentinel = sentinel
	}
}

// WithMaxLines bounds the number of header lines scanned before the sentinel.
// Default is defaults.MaxPreambleLines.
func WithMaxLines(n int) Option {
	return func(p *Parser) {
		p.maxLines = n
	}
}

// WithVTrimChars sets characters to trim from header values.
// Default is no trimming.
func WithVTrimChars(trimChars string) Option {
	return func(p *Parser) {
		p.vTrimChars = trimChars
	}
}

// WithSkipEmptyValues sets whether header fields with empty values are dropped.
// Default is false.
func WithSkipEmptyValues(skip bool) Option {
	return func(p *Parser) {
		p.skipEmptyValues = skip
	}
}

// NewParser creates a new preamble parser with the provided options.
func NewParser(opts ...Option) *Parser {
	p := &Parser{
		kvDelimiter: "=",
		sentinel:    "data=",
		maxLines:    defaults.MaxPreambleLines,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Document is a parsed text instrument file.
type Document struct {
	keys   []string
	fields map[string]string

	// Body holds the non-empty lines after the sentinel line, trimmed.
	Body []string
}

// Get returns the value of a header field.
func (d *Document) Get(key string) (string, bool) {
	v, ok := d.fields[key]
	return v, ok
}

// Keys returns the header field names in file order.
func (d *Document) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Floats splits a header value on sep and parses every element.
func (d *Document) Floats(key, sep string) ([]float64, error) {
	raw, ok := d.fields[key]
	if !ok {
		return nil, fmt.Errorf("header field %q missing", key)
	}
	parts := strings.Split(raw, sep)
	out := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("header field %q: %w", key, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// Columns parses lines into n float columns. Every line must split into
// exactly n fields.
func Columns(lines []string, n int, split func(string) []string) ([][]float64, error) {
	cols := make([][]float64, n)
	for i := range cols {
		cols[i] = make([]float64, 0, len(lines))
	}
	for i, line := range lines {
		fields := split(line)
		if len(fields) != n {
			return nil, fmt.Errorf("row %d: want %d fields, got %d", i+1, n, len(fields))
		}
		for j, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d field %d: %w", i+1, j+1, err)
			}
			cols[j] = append(cols[j], v)
		}
	}
	return cols, nil
}

// ErrNoSentinel reports a file that ends before the data sentinel.
type ErrNoSentinel struct {
	Sentinel string
}

func (e *ErrNoSentinel) Error() string {
	return fmt.Sprintf("data sentinel %q not found", e.Sentinel)
}

// Parse splits data into header fields and body lines. Header lines that
// lack the delimiter are skipped. A later duplicate key replaces the value
// but keeps the first position.
func (p *Parser) Parse(data []byte) (*Document, error) {
	text := string(data)
	if !utf8.Valid(data) {
		slog.Debug("instrument file is not valid UTF-8, replacing invalid bytes")
		text = strings.ToValidUTF8(text, "\uFFFD")
	}

	lines := strings.Split(text, "\n")
	doc := &Document{fields: make(map[string]string)}

	sentinelAt := -1
	for i, line := range lines {
		if i >= p.maxLines {
			return nil, fmt.Errorf("header exceeds %d lines", p.maxLines)
		}
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), p.sentinel) {
			sentinelAt = i
			break
		}
		p.addField(doc, strings.TrimSpace(line))
	}
	if sentinelAt < 0 {
		return nil, &ErrNoSentinel{Sentinel: p.sentinel}
	}

	for _, line := range lines[sentinelAt+1:] {
		clean := strings.TrimSpace(line)
		if clean == "" {
			continue
		}
		doc.Body = append(doc.Body, clean)
	}
	return doc, nil
}

func (p *Parser) addField(doc *Document, line string) {
	if line == "" {
		return
	}
	kv := strings.SplitN(line, p.kvDelimiter, 2)
	if len(kv) != 2 {
		slog.Debug("header line without value, skipping",
			"line", line,
			"delimiter", p.kvDelimiter,
		)
		return
	}

	key := strings.TrimSpace(kv[0])
	value := strings.TrimSpace(kv[1])
	if p.vTrimChars != "" {
		value = strings.Trim(value, p.vTrimChars)
	}
	if p.skipEmptyValues && value == "" {
		slog.Debug("skipping header field with empty value", "key", key)
		return
	}

	if _, exists := doc.fields[key]; !exists {
		doc.keys = append(doc.keys, key)
	}
	doc.fields[key] = value
}
