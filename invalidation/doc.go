// Package invalidation maps reservation, table, guest and restaurant writes
// onto the key patterns they make stale.
package invalidation
