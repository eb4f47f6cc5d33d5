package order

import (
	"fmt"
	"strings"
	"time"

	"flowershop/internal/pkg/errs"
)

// DeliveryMethod is how the bouquet leaves the shop.
type DeliveryMethod int

const (
	// UnknownMethod is the zero value and is never valid.
	UnknownMethod DeliveryMethod = iota

	// MethodDelivery sends the order with a courier to the customer address.
	MethodDelivery

	// MethodSelfPickup keeps the order at the counter until the customer comes.
	MethodSelfPickup
)

// String returns the wire name of the method.
func (m DeliveryMethod) String() string {
	switch m {
	case MethodDelivery:
		return "delivery"
	case MethodSelfPickup:
		return "self_pickup"
	default:
		return "unknown"
	}
}

// ParseDeliveryMethod maps "delivery" or "self_pickup" to a DeliveryMethod.
func ParseDeliveryMethod(s string) (DeliveryMethod, error) {
	switch s {
	case "delivery":
		return MethodDelivery, nil
	case "self_pickup":
		return MethodSelfPickup, nil
	}
	return UnknownMethod, errs.NewValueIsInvalidErrorWithCause(
		"delivery method is invalid", fmt.Errorf("%q is not a delivery method", s))
}

// Validate rejects UnknownMethod and out-of-range values.
func (m DeliveryMethod) Validate() error {
	if m != MethodDelivery && m != MethodSelfPickup {
		return errs.NewValueIsInvalidErrorWithCause("delivery method is invalid", fmt.Errorf("%d is not a delivery method", m))
	}
	return nil
}

// DeliveryWindow is the half-open interval the customer expects the order in.
//
// The zero value means no window and is never stored.
type DeliveryWindow struct {
	from time.Time
	to   time.Time
}

// NewDeliveryWindow creates a window from two non-zero instants with from
// strictly before to. Both bounds are stored in UTC.
//
// Returns:
//   - DeliveryWindow: the window in UTC
//   - error: ValueIsRequiredError for a zero bound, ValueIsInvalidError when
//     from is not before to
//
// Example:
//
//	from := time.Date(2024, 3, 8, 10, 0, 0, 0, time.UTC)
//	window, err := order.NewDeliveryWindow(from, from.Add(2*time.Hour))
func NewDeliveryWindow(from, to time.Time) (DeliveryWindow, error) {
	if from.IsZero() || to.IsZero() {
		return DeliveryWindow{}, errs.NewValueIsRequiredError("delivery window bounds")
	}
	if !from.Before(to) {
		return DeliveryWindow{}, errs.NewValueIsInvalidErrorWithCause(
			"delivery window is invalid", fmt.Errorf("%s is not before %s", from.Format(time.RFC3339), to.Format(time.RFC3339)))
	}
	return DeliveryWindow{from: from.UTC(), to: to.UTC()}, nil
}

// From returns the inclusive start of the window.
//
// Florist task deadlines are set to it.
func (w DeliveryWindow) From() time.Time {
	return w.from
}

// To returns the exclusive end of the window.
func (w DeliveryWindow) To() time.Time {
	return w.to
}

// DeliveryInfo groups method, address and the optional window.
type DeliveryInfo struct {
	method  DeliveryMethod
	address string
	window  *DeliveryWindow
}

// NewDeliveryInfo requires an address for courier delivery only.
//
// The address is trimmed. Self pickup may carry an address, which is
// kept as given.
//
// Example:
//
//	info, err := order.NewDeliveryInfo(order.MethodDelivery, "Lenina 1, apt 5", &window)
//	if err != nil {
//	    return err
//	}
func NewDeliveryInfo(method DeliveryMethod, address string, window *DeliveryWindow) (DeliveryInfo, error) {
	if err := method.Validate(); err != nil {
		return DeliveryInfo{}, err
	}
	address = strings.TrimSpace(address)
	if method == MethodDelivery && address == "" {
		return DeliveryInfo{}, errs.NewValueIsRequiredError("delivery address")
	}
	return DeliveryInfo{method: method, address: address, window: window}, nil
}

// Method returns the delivery method.
//
// Returns:
//   - DeliveryMethod: MethodDelivery or MethodSelfPickup
func (d DeliveryInfo) Method() DeliveryMethod {
	return d.method
}

// Address returns the courier address. It may be empty for self pickup.
func (d DeliveryInfo) Address() string {
	return d.address
}

// Window returns the requested delivery window, or nil when none was given.
//
// Example:
//
//	if w := o.Delivery().Window(); w != nil {
//	    deadline = w.From()
//	}
func (d DeliveryInfo) Window() *DeliveryWindow {
	return d.window
}

// IssueType classifies why an order left the happy path.
type IssueType int

const (
	// UnknownIssue is the zero value and is never valid.
	UnknownIssue IssueType = iota
	// IssueWrongAddress means the courier could not find the address.
	IssueWrongAddress
	// IssueRecipientUnavailable means nobody took the order.
	IssueRecipientUnavailable
	// IssueRecipientRefused means the recipient declined the order.
	IssueRecipientRefused
	// IssueDamaged means the bouquet was damaged on the way.
	IssueDamaged
	// IssueOutOfStock means the shop could not source the flowers.
	IssueOutOfStock
	// IssueOther covers everything else. The comment explains it.
	IssueOther
)

// getIssueTypeStrings maps every issue type to its wire name.
func getIssueTypeStrings() map[IssueType]string {
	return map[IssueType]string{
		IssueWrongAddress:         "wrong_address",
		IssueRecipientUnavailable: "recipient_unavailable",
		IssueRecipientRefused:     "recipient_refused",
		IssueDamaged:              "damaged",
		IssueOutOfStock:           "out_of_stock",
		IssueOther:                "other",
	}
}

// ParseIssueType maps a wire name such as "out_of_stock" to an IssueType.
func ParseIssueType(s string) (IssueType, error) {
	for t, name := range getIssueTypeStrings() {
		if name == s {
			return t, nil
		}
	}
	return UnknownIssue, errs.NewValueIsInvalidErrorWithCause("issue type is invalid", fmt.Errorf("%q is not an issue type", s))
}

// Validate rejects UnknownIssue and out-of-range values.
func (t IssueType) Validate() error {
	if _, ok := getIssueTypeStrings()[t]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("issue type is invalid", fmt.Errorf("%d is not an issue type", t))
	}
	return nil
}

// String returns the wire name of the issue type.
func (t IssueType) String() string {
	if s, ok := getIssueTypeStrings()[t]; ok {
		return s
	}
	return "unknown"
}
