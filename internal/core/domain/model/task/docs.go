// Package task models florist work: one FloristTask per kind of assembly work
// an order needs, and the task items linking it to order lines.
//
// Task lifecycle:
//
//	Pending -> Assigned -> InProgress -> QualityCheck -> Completed
//	                           ^              |
//	                           +-- rejected --+
//
// Cancelled is reachable from every non-terminal status. Assigned and
// InProgress are active: a florist holds at most one active task.
package task
