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
	"context"
	"math"

	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/reader"
	"github.com/EnSpec/SpecDAL/pkg/spectrum"
)

// selfTest is a two-channel .sig record at 50% and 40% reflectance.
const selfTest = "units= Counts, Counts\nintegration= 100\ngpstime= 0, 10\ndata=\n" +
	"350 100 50 50\n351 100 40 40\n"

var selfTestWant = []float64{0.5, 0.4}

// DecoderCheck verifies that uploads can be decoded: every extension has a
// decoder and a known record decodes to the expected reflectance.
func DecoderCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, ext := range reader.SupportedExtensions() {
		if _, ok := reader.FormatOf("check" + ext); !ok {
			return errors.NewWithContext(errors.ErrCodeUnavailable, "extension has no decoder",
				map[string]any{"extension": ext})
		}
	}

	s, err := spectrum.Decode("check.sig", []byte(selfTest), spectrum.PctReflect)
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnavailable, "decoder self test failed", err)
	}
	got := s.Measurement().Values
	if len(got) != len(selfTestWant) {
		return errors.NewWithContext(errors.ErrCodeUnavailable, "decoder self test returned wrong length",
			map[string]any{"got": len(got), "want": len(selfTestWant)})
	}
	for i, want := range selfTestWant {
		if math.Abs(got[i]-want) > 1e-9 {
			return errors.NewWithContext(errors.ErrCodeUnavailable, "decoder self test returned wrong value",
				map[string]any{"index": i, "got": got[i], "want": want})
		}
	}
	return nil
}
