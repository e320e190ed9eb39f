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

package join

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/EnSpec/SpecDAL/pkg/metadata"
)

// keyKind classifies join key values. Keys of different kinds cannot be compared.
type keyKind int

const (
	kindNumeric keyKind = iota + 1
	kindClock
	kindTimestamp
)

func (k keyKind) String() string {
	switch k {
	case kindNumeric:
		return "numeric"
	case kindClock:
		return "clock"
	case kindTimestamp:
		return "timestamp"
	default:
		return "unknown"
	}
}

var clockLayouts = []string{"15:04:05", "15:04:05.999999999", "15:04"}

// parseKey converts a metadata value to a comparable number. Clock values
// become seconds since midnight; timestamps become Unix seconds.
func parseKey(v metadata.Value) (float64, keyKind, error) {
	if f, ok := metadata.AsFloat64(v); ok {
		return f, kindNumeric, nil
	}
	if v.Kind() != metadata.KindString {
		return 0, 0, fmt.Errorf("%s value cannot be a join key", v.Kind())
	}

	s := strings.TrimSpace(v.String())
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, kindNumeric, nil
	}
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
			return t.Sub(midnight).Seconds(), kindClock, nil
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return float64(t.UnixNano()) / 1e9, kindTimestamp, nil
	}
	return 0, 0, fmt.Errorf("value %q is neither numeric nor a time", s)
}
