// Package pipeline runs a configured sequence of SpecDAL operations over a
// batch of instrument files.
//
// A Config is loaded from YAML or JSON:
//
//	measure_type: pct_reflect
//	stitch:
//	  enabled: true
//	  method: mean
//	jump_correct:
//	  enabled: true
//	  reference: 1
//	interpolate:
//	  enabled: true
//	  spacing: 1
//	filters:
//	  - kind: white
//	group:
//	  separator: _
//	  indices: [0]
//	aggregates: [mean, std]
//	join:
//	  time_key: gps_time_target
//	  direction: nearest
//	  tolerance: PT30S
//
// Operators run in a fixed order: stitch, jump correction, interpolation,
// then filters, which flag members rather than remove them. Aggregates skip
// flagged members and are computed per group when grouping is configured.
package pipeline
