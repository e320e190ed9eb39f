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

package measurement

import (
	"encoding/json"
	"math"
)

// wire is the JSON form of a Measurement. Non-finite values travel as null.
type wire struct {
	Wavelengths []float64  `json:"wavelengths"`
	Values      []*float64 `json:"values"`
}

// MarshalJSON encodes NaN and infinite values as null.
func (m Measurement) MarshalJSON() ([]byte, error) {
	w := wire{Wavelengths: m.Wavelengths, Values: make([]*float64, len(m.Values))}
	if w.Wavelengths == nil {
		w.Wavelengths = []float64{}
	}
	for i := range m.Values {
		v := m.Values[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		w.Values[i] = &v
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes null values as NaN.
func (m *Measurement) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	m.Wavelengths = w.Wavelengths
	m.Values = make([]float64, len(w.Values))
	for i, v := range w.Values {
		if v == nil {
			m.Values[i] = math.NaN()
			continue
		}
		m.Values[i] = *v
	}
	return nil
}
