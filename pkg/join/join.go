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
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/EnSpec/SpecDAL/pkg/errors"
	"github.com/EnSpec/SpecDAL/pkg/metadata"
)

const (
	suffixRover = "_rover"
	suffixBase  = "_base"
)

// keyed is a row with a parsed join key.
type keyed struct {
	row *Row
	key float64
}

// ProximalJoin matches every rover row to a base row by time key and
// divides the rover values by the matched base values over the wavelengths
// both frames carry.
func ProximalJoin(base, rover *Frame, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	if _, err := ParseDirection(string(opts.Direction)); err != nil {
		return nil, err
	}
	for side, f := range map[string]*Frame{"base": base, "rover": rover} {
		if err := f.Validate(); err != nil {
			return nil, errors.WrapWithContext(errors.ErrCodeInvalidRequest, "misaligned frame", err,
				map[string]any{"side": side})
		}
	}

	bases, droppedBase, baseKind, err := keyRows(base, opts.TimeKey)
	if err != nil {
		return nil, annotate(err, "base")
	}
	rovers, droppedRover, roverKind, err := keyRows(rover, opts.TimeKey)
	if err != nil {
		return nil, annotate(err, "rover")
	}
	if droppedBase > 0 || droppedRover > 0 {
		slog.Warn("dropped rows without join key",
			"key", opts.TimeKey,
			"base", droppedBase,
			"rover", droppedRover,
		)
	}
	if len(bases) == 0 {
		return nil, errors.NewWithContext(errors.ErrCodeEmptyBase, "no base rows carry the join key",
			map[string]any{"key": opts.TimeKey, "dropped": droppedBase})
	}
	if len(rovers) == 0 {
		return nil, errors.NewWithContext(errors.ErrCodeEmptyRover, "no rover rows carry the join key",
			map[string]any{"key": opts.TimeKey, "dropped": droppedRover})
	}
	if baseKind != roverKind {
		return nil, errors.NewWithContext(errors.ErrCodeTypeMismatch, "base and rover join keys differ in kind",
			map[string]any{"key": opts.TimeKey, "base": baseKind.String(), "rover": roverKind.String()})
	}

	common, baseAt, roverAt := intersect(base.Wavelengths, rover.Wavelengths)
	if len(common) == 0 {
		return nil, errors.NewWithContext(errors.ErrCodeInvalidRequest, "base and rover share no wavelengths",
			map[string]any{"base": len(base.Wavelengths), "rover": len(rover.Wavelengths)})
	}

	sortKeyed(bases)
	sortKeyed(rovers)

	fields := append(slices.Clone(opts.Fields), opts.TimeKey)
	res := &Result{
		Wavelengths:  common,
		DroppedBase:  droppedBase,
		DroppedRover: droppedRover,
	}
	for _, r := range rovers {
		b, ok := match(bases, r.key, opts.Direction, opts.Tolerance)
		if !ok {
			res.Unmatched = append(res.Unmatched, r.row.Name)
			continue
		}
		res.Matches = append(res.Matches, Match{
			Rover:    r.row.Name,
			Base:     b.row.Name,
			Metadata: mergeMetadata(r.row.Metadata.FilterIn(fields), b.row.Metadata.FilterIn(fields)),
			Values:   ratio(r.row.Values, b.row.Values, roverAt, baseAt),
		})
	}
	if len(res.Unmatched) > 0 {
		slog.Warn("rover rows without a base match",
			"direction", opts.Direction,
			"count", len(res.Unmatched),
		)
	}
	return res, nil
}

// keyRows parses the join key of every row. Rows with a missing or null key
// are dropped and counted. All keys must be of one kind.
func keyRows(f *Frame, key string) ([]keyed, int, keyKind, error) {
	var (
		out     []keyed
		dropped int
		kind    keyKind
	)
	for i := range f.Rows {
		row := &f.Rows[i]
		if row.Metadata == nil {
			dropped++
			continue
		}
		v, ok := row.Metadata.Lookup(key)
		if !ok || metadata.IsNull(v) {
			dropped++
			continue
		}
		k, kk, err := parseKey(v)
		if err != nil {
			return nil, 0, 0, errors.WrapWithContext(errors.ErrCodeTypeMismatch, "unusable join key", err,
				map[string]any{"row": row.Name, "key": key})
		}
		if kind != 0 && kk != kind {
			return nil, 0, 0, errors.NewWithContext(errors.ErrCodeTypeMismatch, "join keys differ in kind",
				map[string]any{"row": row.Name, "key": key, "want": kind.String(), "got": kk.String()})
		}
		kind = kk
		out = append(out, keyed{row: row, key: k})
	}
	return out, dropped, kind, nil
}

// sortKeyed orders rows by key, then name, so the result does not depend on
// input order.
func sortKeyed(rows []keyed) {
	slices.SortStableFunc(rows, func(a, b keyed) int {
		if c := cmp.Compare(a.key, b.key); c != 0 {
			return c
		}
		return cmp.Compare(a.row.Name, b.row.Name)
	})
}

// match finds the base row for rover key r in bases sorted by key.
func match(bases []keyed, r float64, dir Direction, tolerance float64) (keyed, bool) {
	// first index with key > r
	after := sort.Search(len(bases), func(i int) bool { return bases[i].key > r })
	// first index with key >= r
	atOrAfter := sort.Search(len(bases), func(i int) bool { return bases[i].key >= r })

	var (
		back, fwd       keyed
		hasBack, hasFwd bool
	)
	if after > 0 {
		back, hasBack = bases[after-1], true
	}
	if atOrAfter < len(bases) {
		fwd, hasFwd = bases[atOrAfter], true
	}

	var (
		m  keyed
		ok bool
	)
	switch dir {
	case Backward:
		m, ok = back, hasBack
	case Forward:
		m, ok = fwd, hasFwd
	default:
		switch {
		case hasBack && hasFwd:
			if fwd.key-r < r-back.key {
				m = fwd
			} else {
				m = back
			}
			ok = true
		case hasBack:
			m, ok = back, true
		case hasFwd:
			m, ok = fwd, true
		}
	}
	if ok && tolerance > 0 && math.Abs(m.key-r) > tolerance {
		return keyed{}, false
	}
	return m, ok
}

// mergeMetadata combines rover and base fields. Keys present on both sides
// are suffixed.
func mergeMetadata(rover, base *metadata.Metadata) *metadata.Metadata {
	out := metadata.New()
	for k, v := range rover.All() {
		if base.Has(k) {
			k += suffixRover
		}
		out.Set(k, v)
	}
	for k, v := range base.All() {
		if rover.Has(k) {
			k += suffixBase
		}
		out.Set(k, v)
	}
	return out
}

// intersect returns the wavelengths present in both indexes, in base order,
// with their positions in each.
func intersect(base, rover []float64) (common []float64, baseAt, roverAt []int) {
	pos := make(map[float64]int, len(rover))
	for i, w := range rover {
		if _, dup := pos[w]; !dup {
			pos[w] = i
		}
	}
	for i, w := range base {
		j, ok := pos[w]
		if !ok {
			continue
		}
		delete(pos, w)
		common = append(common, w)
		baseAt = append(baseAt, i)
		roverAt = append(roverAt, j)
	}
	return common, baseAt, roverAt
}

func ratio(rover, base []float64, roverAt, baseAt []int) []float64 {
	num := make([]float64, len(roverAt))
	den := make([]float64, len(baseAt))
	for i := range num {
		num[i] = rover[roverAt[i]]
		den[i] = base[baseAt[i]]
	}
	return floats.DivTo(num, num, den)
}

func annotate(err error, side string) error {
	return errors.WrapWithContext(errors.CodeOf(err), fmt.Sprintf("%s frame", side), err,
		map[string]any{"side": side})
}
