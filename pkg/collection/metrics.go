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

package collection

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "specdal_collection_operation_duration_seconds",
			Help:    "Time taken to apply an operation to every member of a collection",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"operation"}, // interpolate, stitch, jump_correct
	)

	membersProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "specdal_collection_members_processed_total",
			Help: "Total number of collection members processed by an operation",
		},
		[]string{"operation", "status"}, // success or error
	)

	filesRead = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "specdal_collection_files_read_total",
			Help: "Total number of files considered by batch reads",
		},
		[]string{"status"}, // loaded, failed, duplicate
	)
)
