// Package warehouse holds stock lots and the movements that explain every
// change of their quantities.
//
// A Lot never changes without producing exactly one Movement describing the
// change, so replaying the movements of a lot from zero yields its quantity.
// Reservations move only the reserved counter and are logged with a zero
// quantity delta.
package warehouse
