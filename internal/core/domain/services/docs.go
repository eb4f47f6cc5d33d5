// Package services provides domain services that work across the order and
// florist task aggregates of the flower shop.
//
// The package includes:
//   - TaskPlanner: splits an order into florist tasks by kind of work and
//     derives their priority from the deadline
//   - TaskDispatcher: picks the next pending task for a free florist
//
// Both services are stateless and never touch persistence.
package services
