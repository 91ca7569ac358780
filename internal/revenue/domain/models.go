package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeSale       TransactionType = "sale"
	TransactionTypeCollection TransactionType = "collection"
	TransactionTypeExpense    TransactionType = "expense"
	TransactionTypeRefund     TransactionType = "refund"
)

// Transaction is raw ingested revenue data, owned by the ingestion
// pipeline. The engine only ever reads it.
type Transaction struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	LocationID      snowflake.ID    `gorm:"not null;index" json:"location_id"`
	Type            TransactionType `gorm:"type:text;not null;index" json:"type"`
	Amount          decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
	TransactionDate time.Time       `gorm:"not null;index" json:"transaction_date"`
	CreatedAt       time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Transaction) TableName() string { return "transactions" }

// Aggregate is the revenue snapshot a calculation is based on.
type Aggregate struct {
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	TransactionCount int64           `json:"transaction_count"`
}
