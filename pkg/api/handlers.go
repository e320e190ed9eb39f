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

package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/EnSpec/SpecDAL/pkg/collection"
	"github.com/EnSpec/SpecDAL/pkg/defaults"
	"github.com/EnSpec/SpecDAL/pkg/header"
	"github.com/EnSpec/SpecDAL/pkg/pipeline"
	"github.com/EnSpec/SpecDAL/pkg/reader"
	"github.com/EnSpec/SpecDAL/pkg/serializer"
	"github.com/EnSpec/SpecDAL/pkg/server"
	"github.com/EnSpec/SpecDAL/pkg/spectrum"

	sderrors "github.com/EnSpec/SpecDAL/pkg/errors"
)

// Multipart field names.
const (
	fieldFile   = "file"
	fieldBase   = "base"
	fieldRover  = "rover"
	fieldConfig = "config"
)

// Handler serves the spectral endpoints. Requests carry instrument files as
// multipart/form-data parts; responses are JSON documents.
type Handler struct {
	// Version stamps every response document.
	Version string
	// Workers bounds concurrent decodes per request. Zero uses GOMAXPROCS.
	Workers int
	// MaxFiles bounds the number of file parts per request.
	MaxFiles int
}

// NewHandler returns a Handler with default limits.
func NewHandler(version string) *Handler {
	return &Handler{
		Version:  version,
		MaxFiles: defaults.ServerMaxUploadFiles,
	}
}

// ProcessResponse is the body of a successful POST /v1/process.
type ProcessResponse struct {
	Collection *collection.Document `json:"collection"`
	Aggregates *collection.Document `json:"aggregates,omitempty"`
}

// upload is a parsed multipart request.
type upload struct {
	files  map[string][]collection.File
	config *pipeline.Config
}

// HandleSpectra handles POST /v1/spectra: every "file" part is decoded into
// one collection. Query parameters: name, measure_type.
func (h *Handler) HandleSpectra(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}
	up, err := h.parse(r, fieldFile)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to read upload", nil)
		return
	}
	cfg, err := up.configWithQuery(r)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Invalid pipeline configuration", nil)
		return
	}

	coll, err := h.decode(r, queryOr(r, "name", "upload"), up.files[fieldFile], cfg)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to decode spectra", nil)
		return
	}
	serializer.RespondJSON(w, http.StatusOK, h.document(r, coll, header.KindSpectralCollection))
}

// HandleProcess handles POST /v1/process: the "file" parts are decoded and
// run through the pipeline given by the optional "config" part.
func (h *Handler) HandleProcess(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}
	up, err := h.parse(r, fieldFile)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to read upload", nil)
		return
	}
	cfg, err := up.configWithQuery(r)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Invalid pipeline configuration", nil)
		return
	}

	coll, err := h.decode(r, queryOr(r, "name", "upload"), up.files[fieldFile], cfg)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to decode spectra", nil)
		return
	}
	res, err := cfg.RunCollection(r.Context(), coll)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Pipeline failed", nil)
		return
	}

	resp := ProcessResponse{Collection: h.document(r, res.Collection, header.KindPipelineRun)}
	if res.Aggregates != nil {
		resp.Aggregates = h.document(r, res.Aggregates, header.KindPipelineRun)
	}
	serializer.RespondJSON(w, http.StatusOK, resp)
}

// HandleJoin handles POST /v1/join: "base" and "rover" parts are decoded,
// processed and joined. Query parameters time_key, direction and tolerance
// override the "config" part.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}
	up, err := h.parse(r, fieldBase, fieldRover)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to read upload", nil)
		return
	}
	cfg, err := up.configWithQuery(r)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Invalid pipeline configuration", nil)
		return
	}

	base, err := h.decode(r, "base", up.files[fieldBase], cfg)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to decode base spectra", map[string]any{"part": fieldBase})
		return
	}
	rover, err := h.decode(r, "rover", up.files[fieldRover], cfg)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Failed to decode rover spectra", map[string]any{"part": fieldRover})
		return
	}

	out, res, err := cfg.JoinCollections(r.Context(), base, rover)
	if err != nil {
		server.WriteErrorFromErr(w, r, err, "Join failed", nil)
		return
	}

	doc := h.document(r, out, header.KindProximalJoin)
	doc.Metadata["matched"] = strconv.Itoa(len(res.Matches))
	doc.Metadata["unmatched"] = strconv.Itoa(len(res.Unmatched))
	serializer.RespondJSON(w, http.StatusOK, doc)
}

func allowPost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodPost {
		return true
	}
	w.Header().Set("Allow", http.MethodPost)
	server.WriteError(w, r, http.StatusMethodNotAllowed, sderrors.ErrCodeMethodNotAllowed,
		"Method not allowed", false, map[string]any{"method": r.Method})
	return false
}

// parse reads the multipart body. Every name in required must carry at
// least one file part.
func (h *Handler) parse(r *http.Request, required ...string) (*upload, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, sderrors.Wrap(sderrors.ErrCodeInvalidRequest, "expected a multipart/form-data body", err)
	}

	up := &upload{files: make(map[string][]collection.File)}
	count := 0
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, sderrors.Wrap(sderrors.ErrCodeInvalidRequest, "malformed multipart body", err)
		}

		if err := up.add(part); err != nil {
			part.Close()
			return nil, err
		}
		part.Close()

		if part.FormName() != fieldConfig {
			count++
		}
		if h.MaxFiles > 0 && count > h.MaxFiles {
			return nil, sderrors.NewWithContext(sderrors.ErrCodeInvalidRequest, "too many files",
				map[string]any{"limit": h.MaxFiles})
		}
	}

	for _, field := range required {
		if len(up.files[field]) == 0 {
			return nil, sderrors.NewWithContext(sderrors.ErrCodeInvalidRequest,
				fmt.Sprintf("no %q file parts", field), map[string]any{"field": field})
		}
	}
	return up, nil
}

func (up *upload) add(part *multipart.Part) error {
	field := part.FormName()
	switch field {
	case fieldConfig:
		format := serializer.FormatYAML
		if part.FileName() != "" {
			format = serializer.FormatFromPath(part.FileName())
		}
		cfg, err := pipeline.Parse(format, part)
		if err != nil {
			return err
		}
		up.config = cfg
		return nil
	case fieldFile, fieldBase, fieldRover:
		if part.FileName() == "" {
			return sderrors.NewWithContext(sderrors.ErrCodeInvalidRequest, "file part without a file name",
				map[string]any{"field": field})
		}
		data, err := io.ReadAll(io.LimitReader(part, defaults.MaxFileSize+1))
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return sderrors.WrapWithContext(sderrors.ErrCodeInvalidRequest, "request body too large", err,
					map[string]any{"limit": maxErr.Limit})
			}
			return sderrors.Wrap(sderrors.ErrCodeInvalidRequest, "failed to read file part", err)
		}
		if len(data) > defaults.MaxFileSize {
			return sderrors.NewWithContext(sderrors.ErrCodeInvalidRequest, "file too large",
				map[string]any{"file": part.FileName(), "limit": defaults.MaxFileSize})
		}
		up.files[field] = append(up.files[field], collection.File{Name: part.FileName(), Data: data})
		return nil
	default:
		slog.Debug("ignoring multipart field", "field", field)
		return nil
	}
}

// configWithQuery returns the uploaded configuration, or the default one,
// with query parameter overrides applied.
func (up *upload) configWithQuery(r *http.Request) (*pipeline.Config, error) {
	cfg := up.config
	if cfg == nil {
		cfg = pipeline.Default()
	}
	q := r.URL.Query()
	if v := q.Get("measure_type"); v != "" {
		cfg.MeasureType = v
	}
	if v := q.Get("time_key"); v != "" {
		cfg.Join.TimeKey = v
	}
	if v := q.Get("direction"); v != "" {
		cfg.Join.Direction = v
	}
	if v := q.Get("tolerance"); v != "" {
		cfg.Join.Tolerance = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (h *Handler) decode(r *http.Request, name string, files []collection.File, cfg *pipeline.Config) (*collection.Collection, error) {
	mt, err := spectrum.ParseMeasureType(cfg.MeasureType)
	if err != nil {
		return nil, err
	}
	return collection.DecodeFiles(r.Context(), name, files, collection.ReadOptions{
		MeasureType: mt,
		Workers:     h.Workers,
		Reader:      []reader.Option{reader.WithMaxSize(defaults.MaxFileSize)},
	})
}

func (h *Handler) document(r *http.Request, c *collection.Collection, kind header.Kind) *collection.Document {
	d := c.Document(kind, h.Version)
	if id := server.RequestID(r.Context()); id != "" {
		d.Metadata[header.MetadataRunID] = id
	}
	return d
}

func queryOr(r *http.Request, key, fallback string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return fallback
}
