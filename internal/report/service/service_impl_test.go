package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountdomain "github.com/smallbiznis/orderpulse/internal/account/domain"
	"github.com/smallbiznis/orderpulse/internal/clock"
	"github.com/smallbiznis/orderpulse/internal/config"
	orderdomain "github.com/smallbiznis/orderpulse/internal/order/domain"
	profiledomain "github.com/smallbiznis/orderpulse/internal/orderprofile/domain"
	profileservice "github.com/smallbiznis/orderpulse/internal/orderprofile/service"
	"github.com/smallbiznis/orderpulse/internal/report/domain"
	"github.com/smallbiznis/orderpulse/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestStack(t *testing.T) (domain.Service, profiledomain.Service, *gorm.DB) {
	t.Helper()

	gdb, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(
		&accountdomain.Account{},
		&orderdomain.Order{},
		&orderdomain.Transaction{},
		&profiledomain.PipelineRun{},
		&profiledomain.ResultRecord{},
		&profiledomain.HeldRecord{},
		&profiledomain.RAGRecord{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	pipeline := profileservice.NewService(profileservice.ServiceParam{
		DB:    gdb,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)),
		Risk:  config.NewStaticRiskConfigHolder(config.DefaultRiskConfig()),
	})
	reports := NewService(ServiceParam{DB: gdb, Log: zap.NewNop()})
	return reports, pipeline, gdb
}

func seedInputs(t *testing.T, gdb *gorm.DB) {
	t.Helper()

	accounts := []accountdomain.Account{
		{AccountID: "ACC-1", CustomerName: "Acme Corp", OrderLimit: 10},
		{AccountID: "ACC-2", CustomerName: "Beta Ltd", OrderLimit: 2},
		{AccountID: "ACC-3", CustomerName: "Gamma Inc", OrderLimit: 10},
		{AccountID: "ACC-IDLE", CustomerName: "Idle Pty", OrderLimit: 5},
	}
	require.NoError(t, gdb.Create(&accounts).Error)

	feb := func(day int) time.Time { return time.Date(2024, 2, day, 0, 0, 0, 0, time.UTC) }
	mar := func(day int) time.Time { return time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC) }

	orders := []orderdomain.Order{
		// ACC-1: 100 -> 300 = +200% => RED
		{OrderID: "ORD-1", AccountID: "ACC-1", OrderDate: feb(1), TotalAmount: 100, ProductCount: 1, Status: orderdomain.OrderStatusCompleted},
		{OrderID: "ORD-2", AccountID: "ACC-1", OrderDate: mar(1), TotalAmount: 300, ProductCount: 2, Status: orderdomain.OrderStatusCompleted},
		// ACC-2: 100 -> 140 = +40% => AMBER, 3 orders > limit of 2
		{OrderID: "ORD-3", AccountID: "ACC-2", OrderDate: feb(2), TotalAmount: 100, ProductCount: 1, Status: orderdomain.OrderStatusCompleted},
		{OrderID: "ORD-4", AccountID: "ACC-2", OrderDate: mar(2), TotalAmount: 50, ProductCount: 1, Status: orderdomain.OrderStatusCompleted},
		{OrderID: "ORD-5", AccountID: "ACC-2", OrderDate: mar(3), TotalAmount: 40, ProductCount: 1, Status: orderdomain.OrderStatusCompleted},
		{OrderID: "ORD-6", AccountID: "ACC-2", OrderDate: mar(4), TotalAmount: 50, ProductCount: 1, Status: orderdomain.OrderStatusPending},
		// ACC-3: first month => GREEN
		{OrderID: "ORD-7", AccountID: "ACC-3", OrderDate: mar(5), TotalAmount: 80, ProductCount: 1, Status: orderdomain.OrderStatusCompleted},
		// blank account id => held
		{OrderID: "ORD-8", AccountID: "", OrderDate: mar(6), TotalAmount: 10, ProductCount: 1, Status: orderdomain.OrderStatusCompleted},
	}
	require.NoError(t, gdb.Create(&orders).Error)
}

func TestReportsRequireCompletedRun(t *testing.T) {
	reports, _, _ := newTestStack(t)
	ctx := context.Background()

	_, err := reports.LatestResults(ctx)
	require.ErrorIs(t, err, domain.ErrNoCompletedRun)
	_, err = reports.Summary(ctx)
	require.ErrorIs(t, err, domain.ErrNoCompletedRun)
	_, err = reports.RiskSummary(ctx)
	require.ErrorIs(t, err, domain.ErrNoCompletedRun)
}

func TestLatestReports(t *testing.T) {
	reports, pipeline, gdb := newTestStack(t)
	ctx := context.Background()
	seedInputs(t, gdb)

	run, err := pipeline.Run(ctx)
	require.NoError(t, err)

	results, err := reports.LatestResults(ctx)
	require.NoError(t, err)
	require.Equal(t, run.ID.String(), results.RunID)
	require.Len(t, results.Records, 3)
	require.Equal(t, "ACC-1", results.Records[0].AccountID)

	held, err := reports.LatestHeld(ctx)
	require.NoError(t, err)
	require.Len(t, held.Records, 1)
	require.Equal(t, string(profiledomain.HoldReasonMissingAccountID), held.Records[0].HoldReason)

	rag, err := reports.LatestRAG(ctx)
	require.NoError(t, err)
	require.Len(t, rag.Records, 3)
	require.Equal(t, "ACC-1", rag.Records[0].AccountID)
	require.Equal(t, string(profiledomain.RAGStatusRed), rag.Records[0].RAGStatus)
	require.Equal(t, 200.0, *rag.Records[0].PercentageChange)
	require.Equal(t, string(profiledomain.RAGStatusAmber), rag.Records[1].RAGStatus)
	require.True(t, rag.Records[1].LimitExceeded)
	require.Equal(t, string(profiledomain.RAGStatusGreen), rag.Records[2].RAGStatus)
	require.Nil(t, rag.Records[2].PercentageChange)
}

func TestReportsUseMostRecentRun(t *testing.T) {
	reports, pipeline, gdb := newTestStack(t)
	ctx := context.Background()
	seedInputs(t, gdb)

	first, err := pipeline.Run(ctx)
	require.NoError(t, err)
	second, err := pipeline.Run(ctx)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	results, err := reports.LatestResults(ctx)
	require.NoError(t, err)
	require.Equal(t, second.ID.String(), results.RunID)
}

func TestSummary(t *testing.T) {
	reports, pipeline, gdb := newTestStack(t)
	ctx := context.Background()
	seedInputs(t, gdb)

	_, err := pipeline.Run(ctx)
	require.NoError(t, err)

	summary, err := reports.Summary(ctx)
	require.NoError(t, err)

	require.Equal(t, 3, summary.Results.TotalRecords)
	require.Equal(t, 520.0, summary.Results.TotalAmount)
	require.Equal(t, 5, summary.Results.TotalOrders)

	require.Len(t, summary.Holding, 1)
	require.Equal(t, string(profiledomain.HoldReasonMissingAccountID), summary.Holding[0].HoldReason)
	require.Equal(t, 1, summary.Holding[0].Count)

	require.Len(t, summary.RAG, 3)
	require.Equal(t, "RED", summary.RAG[0].RAGStatus)
	require.Equal(t, 33.33, summary.RAG[0].Percentage)
	require.Equal(t, 300.0, summary.RAG[0].TotalRevenue)
	require.Equal(t, 200.0, *summary.RAG[0].AvgChange)
	require.Equal(t, "GREEN", summary.RAG[2].RAGStatus)
	require.Nil(t, summary.RAG[2].AvgChange)
}

func TestRiskSummary(t *testing.T) {
	reports, pipeline, gdb := newTestStack(t)
	ctx := context.Background()
	seedInputs(t, gdb)

	_, err := pipeline.Run(ctx)
	require.NoError(t, err)

	risk, err := reports.RiskSummary(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, risk.TotalAccounts)
	require.Equal(t, 1, risk.RedAccounts)
	require.Equal(t, 1, risk.AmberAccounts)
	require.Equal(t, 1, risk.GreenAccounts)
	require.Equal(t, 1, risk.LimitExceeded)
}

func TestCustomerSummaries(t *testing.T) {
	reports, _, gdb := newTestStack(t)
	ctx := context.Background()
	seedInputs(t, gdb)

	rows, err := reports.CustomerSummaries(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	require.Equal(t, "ACC-1", rows[0].AccountID)
	require.Equal(t, 2, rows[0].TotalOrders)
	require.Equal(t, 400.0, rows[0].TotalSpend)
	require.Equal(t, 200.0, rows[0].AvgOrderValue)
	require.NotNil(t, rows[0].FirstOrderDate)
	require.NotNil(t, rows[0].LastOrderDate)
	require.True(t, rows[0].LastOrderDate.After(*rows[0].FirstOrderDate))

	// account with no orders keeps zero totals and nil dates
	idle := rows[3]
	require.Equal(t, "ACC-IDLE", idle.AccountID)
	require.Zero(t, idle.TotalOrders)
	require.Zero(t, idle.TotalSpend)
	require.Nil(t, idle.FirstOrderDate)
	require.Nil(t, idle.LastOrderDate)
}
