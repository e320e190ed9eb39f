// Package join implements the proximal join: each rover row is paired with
// the base row nearest in time and divided by it per wavelength.
//
// Rows are matched on a metadata key. Keys may be numeric (integers, floats
// or numeric strings) or times (clock values such as "13:04:05.25", or
// RFC 3339 timestamps); all keys of a join must be of one kind. Both sides
// are sorted internally, so matching does not depend on row order.
//
// Example:
//
//	res, err := join.ProximalJoin(base, rover, join.Options{
//	    TimeKey:   "gps_time_target",
//	    Direction: join.Nearest,
//	})
package join
