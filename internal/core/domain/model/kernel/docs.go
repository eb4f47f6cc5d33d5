// Package kernel provides the shared value objects of the fulfillment domain.
//
// The package includes:
//   - UUID: identifier value object used by every aggregate and by florist references
//   - Money: fixed-point monetary amount backed by shopspring/decimal
//
// Both types are immutable and reject zero values through Validate, so aggregates
// can rely on them being constructed through their factory functions.
package kernel
