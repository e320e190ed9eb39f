// Package collection provides an ordered set of uniquely named spectra and
// the operations that run over all of its members.
//
// # Storage
//
// A Collection holds its spectra in an arena of slots. Insertion order is
// kept as a list of slot ids and a name index maps each name to its slot.
// Inserting a second spectrum with an existing name fails with
// DUPLICATE_NAME; it never overwrites. The flagged set only ever holds member
// names, and Remove clears a member's flag.
//
//	c := collection.New("leaves")
//	if err := c.Append(s); err != nil {
//	    return err
//	}
//	for name, s := range c.All() {
//	    fmt.Println(name, s.Len())
//	}
//
// # Operations
//
// Interpolate, Stitch and JumpCorrect run the spectrum operator on every
// member concurrently through an errgroup limited by WithWorkers. Each member
// writes its result to its own slot. Results are installed in insertion order
// only after every member succeeds, so a failure leaves the whole collection
// unchanged:
//
//	if err := c.Stitch(ctx, "mean"); err != nil {
//	    return err
//	}
//	if err := c.Interpolate(ctx, 1, "linear"); err != nil {
//	    return err
//	}
//
// # Derived collections
//
// GroupBy, AsFlagged and AsUnflagged return new collections holding deep
// copies. ProximalJoin returns a new collection named after the rover. Source
// collections are never modified.
//
// # Aggregates
//
// Mean, Median, Min, Max and Std reduce the members at each wavelength of
// their union, skipping missing samples. Flagged members are excluded when
// ignoreFlagged is set.
//
// # Batch reads
//
// ReadFiles decodes files concurrently. Unreadable files are logged with
// slog.Warn and skipped, as are files whose checksum repeats an earlier one.
//
// # Metrics
//
//   - specdal_collection_operation_duration_seconds: operation latency by operation
//   - specdal_collection_members_processed_total: members processed by operation and status
//   - specdal_collection_files_read_total: batch read outcomes by status
package collection
