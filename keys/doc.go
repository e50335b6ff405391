// Package keys defines the cache key naming scheme.
//
// Every cached read shape has one builder producing a deterministic key of
// the form namespace::segment::segment. Namespaces never prefix one another
// and dates are always rendered as 2006-01-02, so a Pattern built from a
// namespace and leading segments selects exactly the keys of that scope:
//
//	keys.ReservationsOn(5, day)         // reservations::5::2024-01-01
//	keys.ReservationsPattern(5).Matches // true for the key above, false for reservations::55
//
// Dashboard statistics carry their date bounds as plain segments, with "_"
// standing for an open bound:
//
//	keys.ReservationStats(5, "2024-01-01", "") // reservations::5::stats::2024-01-01::_
//
// Digest folds arbitrary values into a fixed width xxhash segment. It is
// meant for fingerprints such as response ETags, never for cache keys, where
// a collision would serve one filter's result for another.
package keys
