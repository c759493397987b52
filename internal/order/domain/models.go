// Package domain contains the order and transaction input models.
package domain

import "time"

const (
	OrderStatusCompleted = "COMPLETED"
	OrderStatusPending   = "PENDING"
	OrderStatusCancelled = "CANCELLED"
)

const (
	TransactionStatusSuccess = "SUCCESS"
	TransactionStatusPending = "PENDING"
	TransactionStatusFailed  = "FAILED"
)

// Order references an Account. AccountID may be blank in the raw feed;
// the validation path reports those rows instead of dropping them.
type Order struct {
	OrderID      string    `gorm:"primaryKey;column:order_id" json:"order_id"`
	AccountID    string    `gorm:"column:account_id;index" json:"account_id"`
	OrderDate    time.Time `gorm:"not null" json:"order_date"`
	TotalAmount  float64   `gorm:"not null" json:"total_amount"`
	ProductCount int       `gorm:"not null" json:"product_count"`
	Status       string    `gorm:"type:text;not null" json:"status"`
}

func (Order) TableName() string { return "orders" }

// Transaction is a payment linked to an order.
type Transaction struct {
	TransactionID   string    `gorm:"primaryKey;column:transaction_id" json:"transaction_id"`
	OrderID         string    `gorm:"column:order_id;index" json:"order_id"`
	Amount          float64   `gorm:"not null" json:"amount"`
	TransactionDate time.Time `gorm:"not null" json:"transaction_date"`
	Status          string    `gorm:"type:text;not null" json:"status"`
}

func (Transaction) TableName() string { return "transactions" }
