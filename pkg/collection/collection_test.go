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
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EnSpec/SpecDAL/pkg/defaults"
	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/header"
	"github.com/EnSpec/SpecDAL/pkg/join"
	"github.com/EnSpec/SpecDAL/pkg/measurement"
	"github.com/EnSpec/SpecDAL/pkg/metadata"
	"github.com/EnSpec/SpecDAL/pkg/spectrum"
)

func spec(t *testing.T, name string, w, v []float64, md *metadata.Metadata) *spectrum.Spectrum {
	t.Helper()
	m, err := measurement.New(w, v)
	require.NoError(t, err)
	s, err := spectrum.New(name, m, spectrum.PctReflect, md)
	require.NoError(t, err)
	return s
}

func timed(t float64) *metadata.Metadata {
	md := metadata.New()
	md.Set(defaults.JoinTimeKey, metadata.Float(t))
	return md
}

func TestAppendDuplicateName(t *testing.T) {
	c := New("leaves")
	require.NoError(t, c.Append(spec(t, "s1", []float64{400}, []float64{1}, nil)))
	require.NoError(t, c.Append(spec(t, "s2", []float64{400}, []float64{2}, nil)))

	err := c.Append(spec(t, "s1", []float64{400}, []float64{3}, nil))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateName))

	assert.Equal(t, 2, c.Len())
	s, ok := c.Get("s1")
	require.True(t, ok)
	assert.Equal(t, []float64{1}, s.Measurement().Values)

	assert.Error(t, c.Append(nil))
}

func TestNewFromRejectsDuplicates(t *testing.T) {
	_, err := NewFrom("leaves", []*spectrum.Spectrum{
		spec(t, "s1", []float64{400}, []float64{1}, nil),
		spec(t, "s1", []float64{400}, []float64{1}, nil),
	})
	assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateName))
}

func TestOrderAndRemove(t *testing.T) {
	c := New("leaves")
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, c.Append(spec(t, name, []float64{400}, []float64{1}, nil)))
	}
	assert.Equal(t, []string{"c", "a", "b"}, c.Names())

	require.NoError(t, c.Flag("a"))
	assert.True(t, c.Remove("a"))
	assert.False(t, c.Remove("a"))
	assert.False(t, c.IsFlagged("a"))
	assert.Empty(t, c.Flagged())
	assert.Equal(t, []string{"c", "b"}, c.Names())

	// a removed name can be inserted again
	require.NoError(t, c.Append(spec(t, "a", []float64{400}, []float64{1}, nil)))
	assert.Equal(t, []string{"c", "b", "a"}, c.Names())

	var seen []string
	for name := range c.All() {
		seen = append(seen, name)
		if name == "b" {
			break
		}
	}
	assert.Equal(t, []string{"c", "b"}, seen)
}

func TestFlags(t *testing.T) {
	c := New("leaves")
	for _, name := range []string{"s1", "s2", "s3"} {
		require.NoError(t, c.Append(spec(t, name, []float64{400}, []float64{1}, nil)))
	}

	err := c.Flag("missing")
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))

	require.NoError(t, c.Flag("s3"))
	require.NoError(t, c.Flag("s1"))
	assert.Equal(t, []string{"s1", "s3"}, c.Flagged())

	flagged := c.AsFlagged()
	assert.Equal(t, "leaves_flagged", flagged.Name())
	assert.Equal(t, []string{"s1", "s3"}, flagged.Names())
	assert.True(t, flagged.IsFlagged("s1"))

	unflagged := c.AsUnflagged()
	assert.Equal(t, "leaves_unflagged", unflagged.Name())
	assert.Equal(t, []string{"s2"}, unflagged.Names())

	orig, _ := c.Get("s2")
	cp, _ := unflagged.Get("s2")
	assert.NotSame(t, orig, cp)

	c.Unflag("s1")
	assert.Equal(t, []string{"s3"}, c.Flagged())
}

func TestStitchAll(t *testing.T) {
	c := New("leaves", WithWorkers(2))
	require.NoError(t, c.Append(spec(t, "s1",
		[]float64{1, 2, 3, 3, 4}, []float64{100, 200, 300, 400, 500}, nil)))
	require.NoError(t, c.Append(spec(t, "s2",
		[]float64{1, 2, 3}, []float64{1, 2, 3}, nil)))

	before := testutil.ToFloat64(membersProcessed.WithLabelValues("stitch", "success"))
	require.NoError(t, c.Stitch(context.Background(), "mean"))
	assert.Equal(t, 2.0, testutil.ToFloat64(membersProcessed.WithLabelValues("stitch", "success"))-before)

	s1, _ := c.Get("s1")
	assert.Equal(t, []float64{1, 2, 3, 4}, s1.Measurement().Wavelengths)
	assert.Equal(t, []float64{100, 200, 350, 500}, s1.Measurement().Values)
	for _, s := range c.Spectra() {
		assert.True(t, s.Flags().Stitched, s.Name())
	}
}

func TestApplyIsAllOrNothing(t *testing.T) {
	withSplices := metadata.NewBuilder().SetPair(metadata.KeySplices, 1000, 1800).Build()

	c := New("leaves")
	require.NoError(t, c.Append(spec(t, "ok",
		[]float64{900, 1000, 1100, 1900}, []float64{1, 1, 2, 3}, withSplices)))
	require.NoError(t, c.Append(spec(t, "bare",
		[]float64{900, 1000, 1100, 1900}, []float64{1, 1, 2, 3}, nil)))

	before := testutil.ToFloat64(membersProcessed.WithLabelValues("jump_correct", "error"))
	err := c.JumpCorrect(context.Background(), nil, defaults.JumpReference)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
	assert.Equal(t, 1.0, testutil.ToFloat64(membersProcessed.WithLabelValues("jump_correct", "error"))-before)

	ok, _ := c.Get("ok")
	assert.False(t, ok.Flags().JumpCorrected)
	assert.Equal(t, []float64{1, 1, 2, 3}, ok.Measurement().Values)

	// explicit splices apply to every member
	require.NoError(t, c.JumpCorrect(context.Background(), []float64{1000, 1800}, 1))
	for _, s := range c.Spectra() {
		assert.True(t, s.Flags().JumpCorrected)
		assert.Equal(t, []float64{2, 2, 2, 2}, s.Measurement().Values)
	}
}

func TestApplyCanceled(t *testing.T) {
	c := New("leaves")
	require.NoError(t, c.Append(spec(t, "s1", []float64{400, 402}, []float64{1, 2}, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, c.Interpolate(ctx, 1, "linear"))

	s, _ := c.Get("s1")
	assert.False(t, s.Flags().Interpolated)
	assert.Equal(t, 2, s.Len())
}

func TestInterpolateArguments(t *testing.T) {
	c := New("leaves")
	assert.True(t, errors.IsCode(c.Interpolate(context.Background(), 0, "linear"), errors.ErrCodeInvalidRequest))
	assert.Error(t, c.Interpolate(context.Background(), 1, "quadratic"))
	assert.Error(t, c.Stitch(context.Background(), "median-ish"))
}

func TestGroupBy(t *testing.T) {
	c := New("plots")
	for _, name := range []string{"b_1_x", "a_2_x", "a_1_y", "c"} {
		require.NoError(t, c.Append(spec(t, name, []float64{400}, []float64{1}, nil)))
	}
	require.NoError(t, c.Flag("a_1_y"))

	groups := c.GroupBy("_", []int{0})
	require.Len(t, groups, 3)
	assert.Equal(t, "a", groups[0].Key)
	assert.Equal(t, []string{"a_2_x", "a_1_y"}, groups[0].Collection.Names())
	assert.True(t, groups[0].Collection.IsFlagged("a_1_y"))
	assert.Equal(t, "b", groups[1].Key)
	assert.Equal(t, "c", groups[2].Key)

	orig, _ := c.Get("a_2_x")
	cp, _ := groups[0].Collection.Get("a_2_x")
	assert.NotSame(t, orig, cp)

	byTwo := c.GroupBy("_", []int{0, 2})
	var keys []string
	for _, g := range byTwo {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []string{"a_x", "a_y", "b_x", "c"}, keys)

	filled := c.GroupByFill("_", []int{0}, ".")
	keys = keys[:0]
	for _, g := range filled {
		keys = append(keys, g.Key)
	}
	assert.Equal(t, []string{"a_._.", "b_._.", "c"}, keys)
}

func TestAggregates(t *testing.T) {
	c := New("leaves")
	require.NoError(t, c.Append(spec(t, "s1", []float64{400, 401, 402}, []float64{1, 2, 3}, nil)))
	require.NoError(t, c.Append(spec(t, "s2", []float64{400, 401}, []float64{3, 4}, nil)))

	tests := []struct {
		name string
		fn   func(bool) (*spectrum.Spectrum, error)
		want []float64
	}{
		{"mean", c.Mean, []float64{2, 3, 3}},
		{"median", c.Median, []float64{2, 3, 3}},
		{"min", c.Min, []float64{1, 2, 3}},
		{"max", c.Max, []float64{3, 4, 3}},
		{"std", c.Std, []float64{math.Sqrt2, math.Sqrt2, math.NaN()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := tt.fn(true)
			require.NoError(t, err)
			assert.Equal(t, "leaves_"+tt.name, s.Name())
			m := s.Measurement()
			assert.Equal(t, []float64{400, 401, 402}, m.Wavelengths)
			want, err := measurement.New(m.Wavelengths, tt.want)
			require.NoError(t, err)
			assert.True(t, m.Equal(want, 1e-12), "got %v", m.Values)
		})
	}

	require.NoError(t, c.Flag("s2"))
	mean, err := c.Mean(true)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, mean.Measurement().Values)

	mean, err = c.Mean(false)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3, 3}, mean.Measurement().Values)

	require.NoError(t, c.Flag("s1"))
	_, err = c.Median(true)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
}

func TestMedianEvenCount(t *testing.T) {
	assert.Equal(t, 2.5, median([]float64{4, 1, 3, 2}))
	assert.Equal(t, 3.0, median([]float64{5, 3, 1}))
}

func TestFrame(t *testing.T) {
	c := New("leaves")
	md := metadata.New()
	md.Set("site", metadata.Str("north"))
	md.Set("gps_time_target", metadata.Float(12))
	require.NoError(t, c.Append(spec(t, "s1", []float64{400, 402}, []float64{1, 3}, md)))
	require.NoError(t, c.Append(spec(t, "s2", []float64{401, 402}, []float64{2, 4}, nil)))

	f, err := c.Frame([]string{"site"})
	require.NoError(t, err)
	require.NoError(t, f.Validate())
	assert.Equal(t, []float64{400, 401, 402}, f.Wavelengths)
	require.Len(t, f.Rows, 2)
	assert.Equal(t, []string{"site"}, f.Rows[0].Metadata.Keys())
	assert.True(t, math.IsNaN(f.Rows[0].Values[1]))
	assert.True(t, math.IsNaN(f.Rows[1].Values[0]))
	assert.Equal(t, 4.0, f.Rows[1].Values[2])

	back, err := FromFrame("copy", f, spectrum.Radiance)
	require.NoError(t, err)
	assert.Equal(t, spectrum.Radiance, back.MeasureType())
	s1, _ := back.Get("s1")
	assert.Equal(t, []float64{400, 402}, s1.Measurement().Wavelengths)
	assert.Equal(t, spectrum.Radiance, s1.MeasureType())

	require.NoError(t, c.Append(spec(t, "overlap", []float64{400, 400}, []float64{1, 1}, nil)))
	_, err = c.Frame(nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidRequest))
	assert.Contains(t, err.Error(), "try stitching")
}

func TestProximalJoin(t *testing.T) {
	w := []float64{400, 401}
	base := New("base")
	for i, ts := range []float64{1, 3, 7, 10} {
		name := []string{"b1", "b3", "b7", "b10"}[i]
		require.NoError(t, base.Append(spec(t, name, w, []float64{2, 4}, timed(ts))))
	}
	rover := New("rover")
	for i, ts := range []float64{1, 4, 6, 8} {
		name := []string{"r1", "r4", "r6", "r8"}[i]
		require.NoError(t, rover.Append(spec(t, name, w, []float64{1, 1}, timed(ts))))
	}

	out, res, err := ProximalJoin(base, rover, join.Options{Direction: join.Nearest})
	require.NoError(t, err)
	assert.Equal(t, "rover", out.Name())
	assert.Equal(t, []string{"r1", "r4", "r6", "r8"}, out.Names())

	var pairs [][2]string
	for _, m := range res.Matches {
		pairs = append(pairs, [2]string{m.Rover, m.Base})
	}
	assert.Equal(t, [][2]string{{"r1", "b1"}, {"r4", "b3"}, {"r6", "b7"}, {"r8", "b7"}}, pairs)

	r4, _ := out.Get("r4")
	assert.Equal(t, spectrum.PctReflect, r4.MeasureType())
	assert.Equal(t, []float64{0.5, 0.25}, r4.Measurement().Values)
	assert.True(t, r4.Metadata().Has(defaults.JoinTimeKey+"_rover"))
	assert.True(t, r4.Metadata().Has(defaults.JoinTimeKey+"_base"))

	// sources are untouched
	assert.Equal(t, 4, rover.Len())
	orig, _ := rover.Get("r4")
	assert.Equal(t, []float64{1, 1}, orig.Measurement().Values)

	_, _, err = ProximalJoin(New("empty"), rover, join.Options{})
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptyBase))
}

const sigData = "units= Counts, Counts\nintegration= 100\ndata=\n350 100 50 50\n351 100 40 40\n"

func TestReadFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, data string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
		return path
	}

	a := write("a.sig", sigData)
	dup := write("b.sig", sigData)
	c := write("c.sig", "units= Counts, Counts\nintegration= 100\ndata=\n350 100 20 20\n")
	bad := write("bad.sig", "no table here\n")
	missing := filepath.Join(dir, "missing.sig")

	before := testutil.ToFloat64(filesRead.WithLabelValues("failed"))
	coll, err := ReadFiles(context.Background(), "batch", []string{c, a, bad, dup, missing},
		ReadOptions{MeasureType: spectrum.PctReflect, Workers: 2})
	require.NoError(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(filesRead.WithLabelValues("failed"))-before)

	assert.Equal(t, "batch", coll.Name())
	assert.Equal(t, []string{"c", "a"}, coll.Names())

	s, _ := coll.Get("a")
	assert.InDeltaSlice(t, []float64{0.5, 0.4}, s.Measurement().Values, 1e-12)
	assert.True(t, s.Metadata().Has(metadata.KeyChecksum))
}

func TestReadFilesCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReadFiles(ctx, "batch", []string{"a.sig"}, ReadOptions{})
	assert.Error(t, err)
}

func TestReadFilesZeroOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.sig")
	require.NoError(t, os.WriteFile(path, []byte(sigData), 0o600))

	coll, err := ReadFiles(context.Background(), "batch", []string{path}, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, coll.Names())
	assert.Equal(t, spectrum.PctReflect, coll.MeasureType())

	s, ok := coll.Get("a")
	require.True(t, ok)
	assert.Equal(t, spectrum.PctReflect, s.MeasureType())
}

func TestDecodeFilesZeroOptions(t *testing.T) {
	coll, err := DecodeFiles(context.Background(), "upload", []File{{Name: "a.sig", Data: []byte(sigData)}}, ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, coll.Names())
	assert.Equal(t, spectrum.PctReflect, coll.MeasureType())
}

func TestWithEmptyMeasureType(t *testing.T) {
	assert.Equal(t, spectrum.PctReflect, New("c", WithMeasureType("")).MeasureType())
}

func TestDecodeFiles(t *testing.T) {
	other := "units= Counts, Counts\nintegration= 100\ndata=\n350 100 20 20\n"

	t.Run("loads and skips identical files", func(t *testing.T) {
		coll, err := DecodeFiles(context.Background(), "upload", []File{
			{Name: "a.sig", Data: []byte(sigData)},
			{Name: "b.sig", Data: []byte(other)},
			{Name: "copy.sig", Data: []byte(sigData)},
		}, ReadOptions{MeasureType: spectrum.PctReflect})
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, coll.Names())
	})

	t.Run("undecodable file fails", func(t *testing.T) {
		_, err := DecodeFiles(context.Background(), "upload", []File{
			{Name: "a.sig", Data: []byte(sigData)},
			{Name: "bad.sig", Data: []byte("no table here\n")},
		}, ReadOptions{})
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrCodeMalformedRecord), err.Error())
	})

	t.Run("unsupported extension fails", func(t *testing.T) {
		_, err := DecodeFiles(context.Background(), "upload", []File{{Name: "a.txt", Data: []byte(sigData)}}, ReadOptions{})
		assert.True(t, errors.IsCode(err, errors.ErrCodeUnsupportedFormat))
	})

	t.Run("repeated name fails", func(t *testing.T) {
		_, err := DecodeFiles(context.Background(), "upload", []File{
			{Name: "x/a.sig", Data: []byte(sigData)},
			{Name: "y/a.sig", Data: []byte(other)},
		}, ReadOptions{})
		assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateName))
	})
}

func TestDocument(t *testing.T) {
	c := New("leaves")
	require.NoError(t, c.Append(spec(t, "s1", []float64{400}, []float64{1}, nil)))
	require.NoError(t, c.Flag("s1"))

	d := c.Document(header.KindSpectralCollection, "v1.2.3")
	assert.Equal(t, header.KindSpectralCollection, d.Kind)
	assert.Equal(t, header.APIVersion, d.APIVersion)
	assert.Equal(t, "v1.2.3", d.Metadata[header.MetadataVersion])
	assert.Equal(t, "leaves", d.Name)
	assert.Equal(t, []string{"s1"}, d.Flagged)
	require.Len(t, d.Spectra, 1)
	assert.Equal(t, []float64{1}, d.Spectra[0].Measurement.Values)
}

func TestDocumentTable(t *testing.T) {
	c := New("leaves")
	require.NoError(t, c.Append(spec(t, "s1", []float64{400, 401}, []float64{0.1, 0.2}, nil)))
	require.NoError(t, c.Append(spec(t, "s2", []float64{401, 402.5}, []float64{0.3, 0.4}, nil)))

	cols, rows := c.Document(header.KindSpectralCollection, "").Table()
	assert.Equal(t, []string{"wavelength", "s1", "s2"}, cols)
	assert.Equal(t, [][]string{
		{"400", "0.1", ""},
		{"401", "0.2", "0.3"},
		{"402.5", "", "0.4"},
	}, rows)
}
