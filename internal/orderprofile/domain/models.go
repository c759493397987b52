// Package domain contains the monthly order profile models: aggregate,
// trend, classification and validation records, plus the persisted
// per-run output tables.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/smallbiznis/orderpulse/internal/order/domain"
	"gorm.io/datatypes"
)

// RAGStatus is the three-tier month-over-month growth risk label.
type RAGStatus string

const (
	RAGStatusRed   RAGStatus = "RED"
	RAGStatusAmber RAGStatus = "AMBER"
	RAGStatusGreen RAGStatus = "GREEN"
)

// Priority returns the reporting sort rank (RED first).
func (s RAGStatus) Priority() int {
	switch s {
	case RAGStatusRed:
		return 1
	case RAGStatusAmber:
		return 2
	case RAGStatusGreen:
		return 3
	default:
		return 4
	}
}

// HoldReason names the validation rule that routed a record to the
// holding output.
type HoldReason string

const (
	HoldReasonMissingAccountID    HoldReason = "MISSING_ACCOUNT_ID"
	HoldReasonMissingCustomerName HoldReason = "MISSING_CUSTOMER_NAME"
	HoldReasonNegativeAmount      HoldReason = "NEGATIVE_AMOUNT"
	HoldReasonInvalidOrderCount   HoldReason = "INVALID_ORDER_COUNT"
	HoldReasonMissingOrderLimit   HoldReason = "MISSING_ORDER_LIMIT"
	HoldReasonStaleOrderDate      HoldReason = "STALE_ORDER_DATE"
)

// EnrichedOrder is an in-scope order joined with its aggregated
// successful-payment totals.
type EnrichedOrder struct {
	orderdomain.Order

	TotalPaid        float64
	TransactionCount int
}

// MonthlyAggregate is one row per (account, month) with at least one
// in-scope order. Month is truncated to the first of the month, UTC.
type MonthlyAggregate struct {
	AccountID        string
	Month            time.Time
	MonthlyTotal     float64
	OrderCount       int
	TotalProducts    int
	TotalPaid        float64
	TransactionCount int
	LatestOrderDate  time.Time
}

// TrendRecord extends an aggregate with the month-over-month change.
// PreviousMonthTotal is nil when the account has no earlier aggregate
// row; PercentageChange is additionally nil when the previous total is
// exactly zero.
type TrendRecord struct {
	MonthlyAggregate

	PreviousMonthTotal *float64
	PercentageChange   *float64
}

// ClassifiedRecord is a trend record for a resolved account with its
// RAG tier and limit flag.
type ClassifiedRecord struct {
	TrendRecord

	CustomerName  string
	OrderLimit    int
	RAGStatus     RAGStatus
	LimitExceeded bool
}

// EnrichedAggregate is the left-joined aggregate consumed by the
// validation path: account fields stay nil when the lookup fails so the
// rule chain can report them.
type EnrichedAggregate struct {
	MonthlyAggregate

	CustomerName *string
	OrderLimit   *int
}

// ValidatedRecord carries at most one hold reason. Held records are
// stamped with the evaluation-time clock value.
type ValidatedRecord struct {
	EnrichedAggregate

	HoldReason    *HoldReason
	HoldTimestamp *time.Time
}

const (
	RunStatusRunning   = "RUNNING"
	RunStatusSucceeded = "SUCCEEDED"
	RunStatusFailed    = "FAILED"
)

// PipelineRun records one execution of the pipeline.
type PipelineRun struct {
	ID          snowflake.ID      `gorm:"primaryKey" json:"id"`
	TraceID     string            `gorm:"type:text;not null" json:"trace_id"`
	Status      string            `gorm:"type:text;not null;index" json:"status"`
	StartedAt   time.Time         `gorm:"not null" json:"started_at"`
	FinishedAt  *time.Time        `json:"finished_at,omitempty"`
	LatestMonth *time.Time        `json:"latest_month,omitempty"`
	ResultCount int               `gorm:"not null" json:"result_count"`
	HeldCount   int               `gorm:"not null" json:"held_count"`
	RAGCount    int               `gorm:"not null" json:"rag_count"`
	Error       string            `gorm:"type:text" json:"error,omitempty"`
	Stats       datatypes.JSONMap `json:"stats,omitempty"`
}

func (PipelineRun) TableName() string { return "pipeline_runs" }

// ResultRecord is an accepted latest-month aggregate.
type ResultRecord struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"-"`
	RunID         snowflake.ID `gorm:"not null;index" json:"-"`
	AccountID     string       `gorm:"column:account_id;not null" json:"account_id"`
	CustomerName  string       `gorm:"type:text;not null" json:"customer_name"`
	OrderMonth    time.Time    `gorm:"not null" json:"order_month"`
	MonthlyTotal  float64      `gorm:"not null" json:"monthly_total"`
	OrderCount    int          `gorm:"not null" json:"order_count"`
	TotalProducts int          `gorm:"not null" json:"total_products"`
	OrderLimit    int          `gorm:"not null" json:"order_limit"`
}

func (ResultRecord) TableName() string { return "result_records" }

// HeldRecord is a latest-month aggregate rejected by the rule chain.
type HeldRecord struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"-"`
	RunID         snowflake.ID `gorm:"not null;index" json:"-"`
	AccountID     string       `gorm:"column:account_id" json:"account_id"`
	CustomerName  *string      `gorm:"type:text" json:"customer_name"`
	OrderMonth    time.Time    `gorm:"not null" json:"order_month"`
	MonthlyTotal  float64      `gorm:"not null" json:"monthly_total"`
	OrderCount    int          `gorm:"not null" json:"order_count"`
	TotalProducts int          `gorm:"not null" json:"total_products"`
	OrderLimit    *int         `json:"order_limit"`
	HoldReason    string       `gorm:"type:text;not null;index" json:"hold_reason"`
	HoldTimestamp time.Time    `gorm:"not null" json:"hold_timestamp"`
}

func (HeldRecord) TableName() string { return "held_records" }

// RAGRecord is the latest-month classification for a resolved account.
// PercentageChange keeps full precision; rounding happens at the
// presentation boundary.
type RAGRecord struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"-"`
	RunID              snowflake.ID `gorm:"not null;index" json:"-"`
	AccountID          string       `gorm:"column:account_id;not null" json:"account_id"`
	CustomerName       string       `gorm:"type:text;not null" json:"customer_name"`
	OrderMonth         time.Time    `gorm:"not null" json:"order_month"`
	CurrentMonthTotal  float64      `gorm:"not null" json:"current_month_total"`
	PreviousMonthTotal *float64     `json:"previous_month_total"`
	PercentageChange   *float64     `json:"percentage_change"`
	OrderCount         int          `gorm:"not null" json:"order_count"`
	OrderLimit         int          `gorm:"not null" json:"order_limit"`
	RAGStatus          string       `gorm:"type:text;not null" json:"rag_status"`
	LimitExceeded      bool         `gorm:"not null" json:"limit_exceeded"`
}

func (RAGRecord) TableName() string { return "rag_records" }
