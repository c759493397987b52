// Package domain contains the customer account reference data model.
package domain

import "time"

// Account is immutable reference data. OrderLimit caps the number of
// orders an account may place in a calendar month.
type Account struct {
	AccountID    string     `gorm:"primaryKey;column:account_id" json:"account_id"`
	CustomerName string     `gorm:"type:text" json:"customer_name"`
	OrderLimit   int        `gorm:"not null" json:"order_limit"`
	CreatedDate  *time.Time `json:"created_date,omitempty"`
	Status       string     `gorm:"type:text" json:"status,omitempty"`
}

func (Account) TableName() string { return "accounts" }
