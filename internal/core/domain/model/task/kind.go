package task

import (
	"fmt"

	"flowershop/internal/pkg/errs"
)

// Kind is the kind of assembly work a task represents.
type Kind int

const (
	UnknownKind Kind = iota
	Bouquet
	Composition
	Decoration
)

// getKindStrings maps every kind to its wire name.
func getKindStrings() map[Kind]string {
	return map[Kind]string{
		Bouquet:     "bouquet",
		Composition: "composition",
		Decoration:  "decoration",
	}
}

// AllKinds lists kinds in planning order.
func AllKinds() []Kind {
	return []Kind{Bouquet, Composition, Decoration}
}

// ParseKind maps a wire name such as "bouquet" to a Kind.
func ParseKind(s string) (Kind, error) {
	for k, name := range getKindStrings() {
		if name == s {
			return k, nil
		}
	}
	return UnknownKind, errs.NewValueIsInvalidErrorWithCause("task kind is invalid", fmt.Errorf("%q is not a task kind", s))
}

// Validate rejects values outside the declared kinds.
func (k Kind) Validate() error {
	if _, ok := getKindStrings()[k]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("task kind is invalid", fmt.Errorf("%d is not a task kind", k))
	}
	return nil
}

// String returns the wire name, or "unknown" for undeclared values.
func (k Kind) String() string {
	if s, ok := getKindStrings()[k]; ok {
		return s
	}
	return "unknown"
}

// EstimatedMinutes is the default assembly time per unit of work of this kind.
func (k Kind) EstimatedMinutes() int {
	switch k {
	case Bouquet:
		return 20
	case Composition:
		return 40
	case Decoration:
		return 60
	default:
		return 30
	}
}
