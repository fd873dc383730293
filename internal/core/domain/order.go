package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order is the read-only projection returned by order lookup.
type Order struct {
	ID           string
	CustomerName string
	Email        string
	Status       OrderStatus
	Total        Money
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
