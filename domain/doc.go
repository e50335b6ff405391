// Package domain holds the entities mirrored by the reservation cache and
// the derived read views built from them.
//
// Status transitions, table assignment and conflict resolution belong to
// the booking logic that owns the Entry Store. The types here only describe
// the shape of the data and the few pure derivations the read paths need.
package domain
