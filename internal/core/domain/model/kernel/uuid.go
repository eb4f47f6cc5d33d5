package kernel

import (
	"fmt"

	"flowershop/internal/pkg/errs"

	"github.com/google/uuid"
)

// ErrUUIDIsNotConstructed is returned by Validate for the zero UUID.
var ErrUUIDIsNotConstructed = errs.NewValueIsRequiredError(
	"UUID must be created via NewUUID, UUIDFromString, or UUIDFromBytes",
)

// UUID identifies orders, items, lots, movements, tasks, history entries and florists.
type UUID struct {
	id uuid.UUID
}

// NewUUID returns a fresh random identifier.
//
// Example:
//
//	orderID := kernel.NewUUID()
//	fmt.Println(orderID) // 0b5f6c1e-...
func NewUUID() UUID {
	return UUID{id: uuid.New()}
}

// UUIDFromString parses the canonical textual form.
//
// Returns:
//   - UUID: the parsed identifier
//   - error: a wrapped parse error for malformed text,
//     ErrUUIDIsNotConstructed for the nil UUID
//
// Example:
//
//	id, err := kernel.UUIDFromString("550e8400-e29b-41d4-a716-446655440000")
func UUIDFromString(s string) (UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return UUID{}, fmt.Errorf("invalid UUID format: %w", err)
	}
	newID := UUID{id: id}
	if err = newID.Validate(); err != nil {
		return UUID{}, err
	}
	return newID, nil
}

// UUIDFromBytes restores an identifier read from storage.
//
// Returns:
//   - UUID: the identifier
//   - error: a wrapped parse error unless b holds 16 bytes,
//     ErrUUIDIsNotConstructed for the nil UUID
func UUIDFromBytes(b []byte) (UUID, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return UUID{}, fmt.Errorf("invalid UUID format: %w", err)
	}
	newID := UUID{id: id}
	if err = newID.Validate(); err != nil {
		return UUID{}, err
	}
	return newID, nil
}

// UUIDFromPtr restores an optional identifier; nil stays nil.
//
// Example:
//
//	lotID, err := kernel.UUIDFromPtr(dto.LotID) // nil when the column is NULL
func UUIDFromPtr(raw *uuid.UUID) (*UUID, error) {
	if raw == nil {
		return nil, nil
	}
	id, err := UUIDFromBytes(raw[:])
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// PtrBytes is the storage form of an optional identifier.
func PtrBytes(id *UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	raw := id.Bytes()
	return &raw
}

// String returns the canonical 36 character form.
func (u UUID) String() string {
	return u.id.String()
}

// Bytes returns the underlying google/uuid value for persistence.
func (u UUID) Bytes() uuid.UUID {
	return u.id
}

// IsEqual reports whether both identifiers hold the same value.
//
// Example:
//
//	id := kernel.NewUUID()
//	same, _ := kernel.UUIDFromString(id.String())
//	id.IsEqual(same) // true
func (u UUID) IsEqual(other UUID) bool {
	return u.id == other.id
}

// Validate rejects the zero UUID.
//
// Returns:
//   - error: ErrUUIDIsNotConstructed for the zero value, nil otherwise
func (u UUID) Validate() error {
	if u.id == uuid.Nil {
		return ErrUUIDIsNotConstructed
	}
	return nil
}
