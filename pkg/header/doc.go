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

// Package header provides the common header of SpecDAL output documents.
//
// Every document written by the command line tools (collections, proximal
// join results, pipeline runs) starts with a Header identifying its kind and
// schema version:
//
//	type Header struct {
//	    Kind       Kind              `json:"kind" yaml:"kind"`
//	    APIVersion string            `json:"apiVersion" yaml:"apiVersion"`
//	    Metadata   map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
//	}
//
// # Usage
//
//	var h header.Header
//	h.Init(header.KindSpectralCollection, header.APIVersion, version)
//
// Init records an RFC3339 UTC timestamp and the tool version. The command
// line tools add a run id:
//
//	{
//	  "kind": "SpectralCollection",
//	  "apiVersion": "specdal.enspec.org/v1",
//	  "metadata": {
//	    "run-id": "4b7a3d5e-8b1f-4a55-9d27-5f8e2b0c1a9e",
//	    "timestamp": "2026-03-30T10:30:00Z",
//	    "version": "v0.3.0"
//	  }
//	}
//
// Consumers should check Kind with IsValid and compare APIVersion before
// decoding the rest of a document.
package header
