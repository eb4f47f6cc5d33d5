package commands

import (
	"errors"
	"strings"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"
	"flowershop/internal/pkg/guard"
)

var ErrReportIssueCommandIsNotConstructed = errors.New(
	"ReportIssueCommand must be created via NewReportIssueCommand constructor",
)

// ReportIssueCommand puts an order into the issue status with a reason.
type ReportIssueCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.UUID
	issueType order.IssueType
	comment   string
	actor     string

	guard guard.ConstructorGuard
}

// NewReportIssueCommand creates a command to report a problem with an order.
// Comment and actor are trimmed and may be empty.
func NewReportIssueCommand(
	orderID kernel.UUID,
	issueType order.IssueType,
	comment, actor string,
) (ReportIssueCommand, error) {
	if err := errors.Join(orderID.Validate(), issueType.Validate()); err != nil {
		return ReportIssueCommand{}, err
	}

	return ReportIssueCommand{
		orderID:   orderID,
		issueType: issueType,
		comment:   strings.TrimSpace(comment),
		actor:     strings.TrimSpace(actor),
		guard:     guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c ReportIssueCommand) Validate() error {
	return c.guard.Validate(ErrReportIssueCommandIsNotConstructed)
}

// OrderID returns the order with the problem.
func (c ReportIssueCommand) OrderID() kernel.UUID {
	return c.orderID
}

// IssueType returns the kind of problem.
func (c ReportIssueCommand) IssueType() order.IssueType {
	return c.issueType
}

// Comment returns the free text description.
func (c ReportIssueCommand) Comment() string {
	return c.comment
}

// Actor returns who reported the issue.
func (c ReportIssueCommand) Actor() string {
	return c.actor
}
