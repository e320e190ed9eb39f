// Package filter identifies outlying members of a collection.
//
// Each filter inspects the members inside an inclusive wavelength window and
// returns the names that fail it; Flag marks them in the collection so that
// aggregates and AsUnflagged exclude them:
//
//	bad, err := filter.StdDev(c, filter.Window{Lo: 400, Hi: 900}, 2, filter.ReduceMean)
//	if err != nil {
//	    return err
//	}
//	if err := filter.Flag(c, "std", bad); err != nil {
//	    return err
//	}
//
// Threshold rejects members whose reduced value falls outside an open
// interval. StdDev rejects members far from the collection mean. White
// detects flat reference panel spectra near unit reflectance.
package filter
