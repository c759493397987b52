// Package domain defines the read-side report shapes. All run-scoped
// reports resolve against the most recent succeeded pipeline run.
package domain

import (
	"context"
	"errors"
	"time"

	profiledomain "github.com/smallbiznis/orderpulse/internal/orderprofile/domain"
)

var ErrNoCompletedRun = errors.New("no_completed_run")

// ResultsReport lists the accepted latest-month records of a run.
type ResultsReport struct {
	RunID       string                       `json:"run_id"`
	LatestMonth *time.Time                   `json:"latest_month"`
	Records     []profiledomain.ResultRecord `json:"records"`
}

// HeldReport lists the records the validation chain routed to holding.
type HeldReport struct {
	RunID       string                     `json:"run_id"`
	LatestMonth *time.Time                 `json:"latest_month"`
	Records     []profiledomain.HeldRecord `json:"records"`
}

// RAGRow is the presentation shape of a classification record: the
// percentage change is rounded to two decimals here and only here.
type RAGRow struct {
	AccountID          string     `json:"account_id"`
	CustomerName       string     `json:"customer_name"`
	OrderMonth         time.Time  `json:"order_month"`
	CurrentMonthTotal  float64    `json:"current_month_total"`
	PreviousMonthTotal *float64   `json:"previous_month_total"`
	PercentageChange   *float64   `json:"percentage_change"`
	OrderCount         int        `json:"order_count"`
	OrderLimit         int        `json:"order_limit"`
	RAGStatus          string     `json:"rag_status"`
	LimitExceeded      bool       `json:"limit_exceeded"`
}

// RAGReport lists classifications ordered by severity, then magnitude.
type RAGReport struct {
	RunID       string     `json:"run_id"`
	LatestMonth *time.Time `json:"latest_month"`
	Records     []RAGRow   `json:"records"`
}

// ResultTotals aggregates the accepted stream of a run.
type ResultTotals struct {
	TotalRecords int     `json:"total_records"`
	TotalAmount  float64 `json:"total_amount"`
	TotalOrders  int     `json:"total_orders"`
}

// HoldingBreakdown counts held records per reason.
type HoldingBreakdown struct {
	HoldReason string `json:"hold_reason"`
	Count      int    `json:"count"`
}

// RAGDistribution describes one RAG tier within a run. AvgChange is
// computed over full-precision stored values, then rounded.
type RAGDistribution struct {
	RAGStatus    string   `json:"rag_status"`
	Count        int      `json:"count"`
	Percentage   float64  `json:"percentage"`
	TotalRevenue float64  `json:"total_revenue"`
	AvgChange    *float64 `json:"avg_change"`
}

// Summary is the run-level digest.
type Summary struct {
	RunID       string             `json:"run_id"`
	LatestMonth *time.Time         `json:"latest_month"`
	Results     ResultTotals       `json:"results"`
	Holding     []HoldingBreakdown `json:"holding"`
	RAG         []RAGDistribution  `json:"rag"`
}

// RiskSummary is the compact risk dashboard feed.
type RiskSummary struct {
	RunID          string     `json:"run_id"`
	LatestMonth    *time.Time `json:"latest_month"`
	TotalAccounts  int        `json:"total_accounts"`
	RedAccounts    int        `json:"red_accounts"`
	AmberAccounts  int        `json:"amber_accounts"`
	GreenAccounts  int        `json:"green_accounts"`
	LimitExceeded  int        `json:"limit_exceeded"`
}

// CustomerOrderSummary is a lifetime view over the input tables, one
// row per account. Accounts without in-scope orders report zeroes.
type CustomerOrderSummary struct {
	AccountID      string     `json:"account_id"`
	CustomerName   string     `json:"customer_name"`
	TotalOrders    int        `json:"total_orders"`
	TotalSpend     float64    `json:"total_spend"`
	AvgOrderValue  float64    `json:"avg_order_value"`
	FirstOrderDate *time.Time `json:"first_order_date"`
	LastOrderDate  *time.Time `json:"last_order_date"`
}

const (
	RiskCategoryHigh   = "HIGH_RISK"
	RiskCategoryMedium = "MEDIUM_RISK"
	RiskCategoryLow    = "LOW_RISK"
)

// RiskScoreRow scores one latest-month aggregate: points for breaching
// the order limit, for high monthly spend, and for failing validation,
// bucketed into a risk category.
type RiskScoreRow struct {
	AccountID        string    `json:"account_id"`
	CustomerName     *string   `json:"customer_name"`
	OrderMonth       time.Time `json:"order_month"`
	MonthlyTotal     float64   `json:"monthly_total"`
	OrderCount       int       `json:"order_count"`
	OrderLimit       *int      `json:"order_limit"`
	ValidationFailed bool      `json:"validation_failed"`
	RiskScore        int       `json:"risk_score"`
	RiskCategory     string    `json:"risk_category"`
}

// RiskScoreReport lists scored accounts, highest score first.
type RiskScoreReport struct {
	RunID       string         `json:"run_id"`
	LatestMonth *time.Time     `json:"latest_month"`
	Records     []RiskScoreRow `json:"records"`
}

type Service interface {
	LatestResults(context.Context) (*ResultsReport, error)
	LatestHeld(context.Context) (*HeldReport, error)
	LatestRAG(context.Context) (*RAGReport, error)
	Summary(context.Context) (*Summary, error)
	RiskSummary(context.Context) (*RiskSummary, error)
	RiskScores(context.Context) (*RiskScoreReport, error)
	CustomerSummaries(context.Context) ([]CustomerOrderSummary, error)
}
