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

package metadata

import (
	"sort"
	"testing"
)

func sampleRecord() *Metadata {
	return NewBuilder().
		SetString("gps_time_target", "12:00:01").
		SetString("gps_time_reference", "12:00:00").
		SetFloat("gps_latitude", 43.07).
		SetFloat("latitude_target", 43.07).
		SetString("file", "a.sig").
		SetInt("integration_time", 10).
		SetPair("wavelength_range", 350, 2500).
		Build()
}

func TestFilterOut(t *testing.T) {
	md := sampleRecord()

	tests := []struct {
		name     string
		patterns []string
		wantKeys []string
	}{
		{
			name:     "exact match",
			patterns: []string{"file"},
			wantKeys: []string{"gps_time_target", "gps_time_reference", "gps_latitude", "latitude_target", "integration_time", "wavelength_range"},
		},
		{
			name:     "prefix wildcard - gps*",
			patterns: []string{"gps*"},
			wantKeys: []string{"latitude_target", "file", "integration_time", "wavelength_range"},
		},
		{
			name:     "suffix wildcard - *target",
			patterns: []string{"*target"},
			wantKeys: []string{"gps_time_reference", "gps_latitude", "file", "integration_time", "wavelength_range"},
		},
		{
			name:     "contains wildcard - *latitude*",
			patterns: []string{"*latitude*"},
			wantKeys: []string{"gps_time_target", "gps_time_reference", "file", "integration_time", "wavelength_range"},
		},
		{
			name:     "multiple wildcards",
			patterns: []string{"*_*"},
			wantKeys: []string{"file"},
		},
		{
			name:     "no patterns",
			patterns: nil,
			wantKeys: md.Keys(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := md.FilterOut(tt.patterns).Keys()
			if !equalStrings(got, tt.wantKeys) {
				t.Errorf("FilterOut(%v) keys = %v, want %v", tt.patterns, got, tt.wantKeys)
			}
		})
	}
}

func TestFilterIn(t *testing.T) {
	md := sampleRecord()

	tests := []struct {
		name     string
		patterns []string
		wantKeys []string
	}{
		{"gps prefix keeps order", []string{"gps_*"}, []string{"gps_time_target", "gps_time_reference", "gps_latitude"}},
		{"middle segments", []string{"gps*time*"}, []string{"gps_time_target", "gps_time_reference"}},
		{"exact", []string{"file", "missing"}, []string{"file"}},
		{"nothing", nil, []string{}},
		{"suffix longer than key", []string{"f*ile_name"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := md.FilterIn(tt.patterns).Keys()
			if !equalStrings(got, tt.wantKeys) {
				t.Errorf("FilterIn(%v) keys = %v, want %v", tt.patterns, got, tt.wantKeys)
			}
		})
	}
}

func TestFilterComplement(t *testing.T) {
	md := sampleRecord()
	patterns := []string{"gps*", "*range"}

	in := md.FilterIn(patterns).Keys()
	out := md.FilterOut(patterns).Keys()

	all := append(append([]string{}, in...), out...)
	sort.Strings(all)
	want := md.Keys()
	sort.Strings(want)

	if !equalStrings(all, want) {
		t.Errorf("FilterIn + FilterOut = %v, want %v", all, want)
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
