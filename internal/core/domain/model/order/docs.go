// Package order provides the Order aggregate of the flower shop: the order,
// its line items, delivery details and the status state machine.
//
// The package includes:
//   - Order: the aggregate root that owns items and changes status
//   - Item: an order line with reservation and write-off flags
//   - Status and the transition table with the side effects of each move
//   - DeliveryInfo, DeliveryWindow and IssueType value objects
//
// Key business rules:
//   - Status follows New -> Paid -> Assembled -> Delivery|SelfPickup -> Completed
//   - Issue is reachable from every non-terminal status, Cancelled ends the order
//   - Entering Delivery or SelfPickup writes off reserved stock
//   - Entering Issue or Cancelled releases reserved stock
//   - Orders are never deleted
package order
