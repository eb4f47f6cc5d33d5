// Package orderrepo persists order aggregates in the orders and order_items
// tables.
package orderrepo

import (
	"time"

	"flowershop/internal/core/domain/model/kernel"
	"flowershop/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDTO represents the database structure for persisting order aggregates.
// Delivery fields are flattened into columns and items live in order_items.
type OrderDTO struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null"`
	DeliveryMethod  string          `gorm:"type:varchar(32);not null"`
	DeliveryAddress string          `gorm:"type:text;not null"`
	WindowFrom      *time.Time      `gorm:"type:timestamptz"`
	WindowTo        *time.Time      `gorm:"type:timestamptz"`
	DeliveryFee     decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Discount        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Status          string          `gorm:"type:varchar(32);not null"`
	IssueType       string          `gorm:"type:varchar(32);not null"`
	IssueComment    string          `gorm:"type:text;not null"`
	TrackingToken   string          `gorm:"type:varchar(64);not null;uniqueIndex"`
	CreatedAt       time.Time       `gorm:"type:timestamptz;not null"`
	UpdatedAt       time.Time       `gorm:"type:timestamptz;not null"`
	Items           []OrderItemDTO  `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the database table name for order aggregates.
func (OrderDTO) TableName() string {
	return "orders"
}

// OrderItemDTO represents the database structure for persisting order items.
// Position keeps the order in which the customer listed the lines.
type OrderItemDTO struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position     int             `gorm:"not null"`
	ProductID    uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName  string          `gorm:"type:varchar(255);not null"`
	LotID        *uuid.UUID      `gorm:"type:uuid"`
	Quantity     int             `gorm:"not null"`
	Price        decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	IsReserved   bool            `gorm:"not null"`
	IsWrittenOff bool            `gorm:"not null"`
}

// TableName specifies the database table name for order items.
func (OrderItemDTO) TableName() string {
	return "order_items"
}

// fromDomain converts an order aggregate into its row with items.
func fromDomain(o *order.Order) OrderDTO {
	orderID := o.ID().Bytes()
	items := make([]OrderItemDTO, 0, len(o.Items()))
	for i, item := range o.Items() {
		items = append(items, OrderItemDTO{
			ID:           item.ID().Bytes(),
			OrderID:      orderID,
			Position:     i,
			ProductID:    item.ProductID().Bytes(),
			ProductName:  item.ProductName(),
			LotID:        kernel.PtrBytes(item.LotID()),
			Quantity:     item.Quantity(),
			Price:        item.Price().Decimal(),
			IsReserved:   item.IsReserved(),
			IsWrittenOff: item.IsWrittenOff(),
		})
	}

	dto := OrderDTO{
		ID:              orderID,
		CustomerID:      o.CustomerID().Bytes(),
		DeliveryMethod:  o.Delivery().Method().String(),
		DeliveryAddress: o.Delivery().Address(),
		DeliveryFee:     o.DeliveryFee().Decimal(),
		Discount:        o.Discount().Decimal(),
		Status:          o.Status().String(),
		IssueComment:    o.IssueComment(),
		TrackingToken:   o.TrackingToken(),
		CreatedAt:       o.CreatedAt(),
		UpdatedAt:       o.UpdatedAt(),
		Items:           items,
	}
	if o.IssueType() != order.UnknownIssue {
		dto.IssueType = o.IssueType().String()
	}
	if w := o.Delivery().Window(); w != nil {
		from, to := w.From(), w.To()
		dto.WindowFrom, dto.WindowTo = &from, &to
	}
	return dto
}

// toDomain restores the order aggregate through order.RestoreOrder.
func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	customerID, err := kernel.UUIDFromBytes(dto.CustomerID[:])
	if err != nil {
		return nil, err
	}

	delivery, err := deliveryToDomain(dto)
	if err != nil {
		return nil, err
	}
	fee, err := kernel.NewMoney(dto.DeliveryFee)
	if err != nil {
		return nil, err
	}
	discount, err := kernel.NewMoney(dto.Discount)
	if err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}
	issueType := order.UnknownIssue
	if dto.IssueType != "" {
		if issueType, err = order.ParseIssueType(dto.IssueType); err != nil {
			return nil, err
		}
	}

	items := make([]*order.Item, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		item, itemErr := itemToDomain(itemDTO)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	return order.RestoreOrder(order.Snapshot{
		ID:            id,
		CustomerID:    customerID,
		Delivery:      delivery,
		DeliveryFee:   fee,
		Discount:      discount,
		Status:        status,
		IssueType:     issueType,
		IssueComment:  dto.IssueComment,
		TrackingToken: dto.TrackingToken,
		CreatedAt:     dto.CreatedAt,
		UpdatedAt:     dto.UpdatedAt,
		Items:         items,
	})
}

// deliveryToDomain rebuilds the delivery info. The window is restored only
// when both bounds are stored.
func deliveryToDomain(dto OrderDTO) (order.DeliveryInfo, error) {
	method, err := order.ParseDeliveryMethod(dto.DeliveryMethod)
	if err != nil {
		return order.DeliveryInfo{}, err
	}
	var window *order.DeliveryWindow
	if dto.WindowFrom != nil && dto.WindowTo != nil {
		w, windowErr := order.NewDeliveryWindow(*dto.WindowFrom, *dto.WindowTo)
		if windowErr != nil {
			return order.DeliveryInfo{}, windowErr
		}
		window = &w
	}
	return order.NewDeliveryInfo(method, dto.DeliveryAddress, window)
}

// itemToDomain restores an order item together with its reservation flags.
func itemToDomain(dto OrderItemDTO) (*order.Item, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	productID, err := kernel.UUIDFromBytes(dto.ProductID[:])
	if err != nil {
		return nil, err
	}
	lotID, err := kernel.UUIDFromPtr(dto.LotID)
	if err != nil {
		return nil, err
	}
	price, err := kernel.NewMoney(dto.Price)
	if err != nil {
		return nil, err
	}
	return order.RestoreItem(order.ItemSnapshot{
		ID:           id,
		ProductID:    productID,
		ProductName:  dto.ProductName,
		LotID:        lotID,
		Quantity:     dto.Quantity,
		Price:        price,
		IsReserved:   dto.IsReserved,
		IsWrittenOff: dto.IsWrittenOff,
	})
}
