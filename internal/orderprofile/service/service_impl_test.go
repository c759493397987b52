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
	"github.com/smallbiznis/orderpulse/internal/orderprofile/domain"
	"github.com/smallbiznis/orderpulse/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T, clk clock.Clock) (*Service, *gorm.DB) {
	t.Helper()

	gdb, err := db.NewTest()
	require.NoError(t, err)

	err = gdb.AutoMigrate(
		&accountdomain.Account{},
		&orderdomain.Order{},
		&orderdomain.Transaction{},
		&domain.PipelineRun{},
		&domain.ResultRecord{},
		&domain.HeldRecord{},
		&domain.RAGRecord{},
	)
	require.NoError(t, err)

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:    gdb,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Risk:  config.NewStaticRiskConfigHolder(config.DefaultRiskConfig()),
	})
	return svc.(*Service), gdb
}

func seedScenario(t *testing.T, gdb *gorm.DB) {
	t.Helper()

	accounts := []accountdomain.Account{
		{AccountID: "ACC-RED", CustomerName: "Redline Ltd", OrderLimit: 10},
		{AccountID: "ACC-GREEN", CustomerName: "Greenfield Co", OrderLimit: 10},
		{AccountID: "ACC-NEW", CustomerName: "Newcomer Inc", OrderLimit: 5},
		{AccountID: "ACC-NONAME", CustomerName: "", OrderLimit: 10},
		{AccountID: "ACC-NOLIMIT", CustomerName: "Limitless LLC", OrderLimit: 0},
		{AccountID: "ACC-OLD", CustomerName: "Dormant GmbH", OrderLimit: 10},
	}
	require.NoError(t, gdb.Create(&accounts).Error)

	feb := func(day int) time.Time { return time.Date(2024, 2, day, 10, 0, 0, 0, time.UTC) }
	mar := func(day int) time.Time { return time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC) }

	orders := []orderdomain.Order{
		// ACC-RED: 100 -> 180 = +80% => RED
		{OrderID: "ORD-1", AccountID: "ACC-RED", OrderDate: feb(5), TotalAmount: 100, ProductCount: 1, Status: orderdomain.OrderStatusCompleted},
		{OrderID: "ORD-2", AccountID: "ACC-RED", OrderDate: mar(5), TotalAmount: 180, ProductCount: 2, Status: orderdomain.OrderStatusCompleted},
		// ACC-GREEN: 100 -> 110 = +10% => GREEN
		{OrderID: "ORD-3", AccountID: "ACC-GREEN", OrderDate: feb(7), TotalAmount: 100, ProductCount: 1, Status: orderdomain.OrderStatusCompleted},
		{OrderID: "ORD-4", AccountID: "ACC-GREEN", OrderDate: mar(7), TotalAmount: 110, ProductCount: 1, Status: orderdomain.OrderStatusPending},
		// ACC-NEW: first month ever => GREEN, no baseline
		{OrderID: "ORD-5", AccountID: "ACC-NEW", OrderDate: mar(9), TotalAmount: 40, ProductCount: 1, Status: orderdomain.OrderStatusCompleted},
		// cancelled orders never count
		{OrderID: "ORD-6", AccountID: "ACC-NEW", OrderDate: mar(10), TotalAmount: 999, ProductCount: 9, Status: orderdomain.OrderStatusCancelled},
		// blank account id => held
		{OrderID: "ORD-7", AccountID: "", OrderDate: mar(11), TotalAmount: 30, ProductCount: 1, Status: orderdomain.OrderStatusCompleted},
		// unresolved name / missing limit => held
		{OrderID: "ORD-8", AccountID: "ACC-NONAME", OrderDate: mar(12), TotalAmount: 25, ProductCount: 1, Status: orderdomain.OrderStatusCompleted},
		{OrderID: "ORD-9", AccountID: "ACC-NOLIMIT", OrderDate: mar(13), TotalAmount: 35, ProductCount: 1, Status: orderdomain.OrderStatusCompleted},
		// ACC-OLD only has February activity, so it has no latest-month row
		{OrderID: "ORD-10", AccountID: "ACC-OLD", OrderDate: feb(20), TotalAmount: 60, ProductCount: 1, Status: orderdomain.OrderStatusCompleted},
	}
	require.NoError(t, gdb.Create(&orders).Error)

	txns := []orderdomain.Transaction{
		{TransactionID: "TXN-1", OrderID: "ORD-2", Amount: 180, TransactionDate: mar(6), Status: orderdomain.TransactionStatusSuccess},
		{TransactionID: "TXN-2", OrderID: "ORD-2", Amount: 20, TransactionDate: mar(7), Status: orderdomain.TransactionStatusFailed},
	}
	require.NoError(t, gdb.Create(&txns).Error)
}

func TestRunEndToEnd(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFakeClock(time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC))
	svc, gdb := newTestService(t, clk)
	seedScenario(t, gdb)

	run, err := svc.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.RunStatusSucceeded, run.Status)
	require.NotNil(t, run.LatestMonth)
	require.True(t, run.LatestMonth.Equal(month(2024, time.March)))

	var results []domain.ResultRecord
	require.NoError(t, gdb.Where("run_id = ?", run.ID).Order("id").Find(&results).Error)
	require.Len(t, results, 3)
	require.Equal(t, "ACC-GREEN", results[0].AccountID)
	require.Equal(t, "ACC-NEW", results[1].AccountID)
	require.Equal(t, "ACC-RED", results[2].AccountID)
	require.Equal(t, 180.0, results[2].MonthlyTotal)

	var held []domain.HeldRecord
	require.NoError(t, gdb.Where("run_id = ?", run.ID).Find(&held).Error)
	require.Len(t, held, 3)

	byReason := make(map[string]domain.HeldRecord, len(held))
	for _, h := range held {
		byReason[h.HoldReason] = h
	}
	require.Equal(t, "", byReason[string(domain.HoldReasonMissingAccountID)].AccountID)
	require.Equal(t, "ACC-NONAME", byReason[string(domain.HoldReasonMissingCustomerName)].AccountID)
	require.Equal(t, "ACC-NOLIMIT", byReason[string(domain.HoldReasonMissingOrderLimit)].AccountID)
	require.True(t, byReason[string(domain.HoldReasonMissingAccountID)].HoldTimestamp.Equal(clk.Now()))

	var rag []domain.RAGRecord
	require.NoError(t, gdb.Where("run_id = ?", run.ID).Order("id").Find(&rag).Error)
	require.Len(t, rag, 3)
	require.Equal(t, "ACC-RED", rag[0].AccountID)
	require.Equal(t, string(domain.RAGStatusRed), rag[0].RAGStatus)
	require.InDelta(t, 80.0, *rag[0].PercentageChange, 1e-9)
	require.Equal(t, "ACC-GREEN", rag[1].AccountID)
	require.Equal(t, string(domain.RAGStatusGreen), rag[1].RAGStatus)
	require.Equal(t, "ACC-NEW", rag[2].AccountID)
	require.Nil(t, rag[2].PercentageChange)

	// ACC-OLD was active in February only: no rows anywhere
	var oldCount int64
	require.NoError(t, gdb.Model(&domain.ResultRecord{}).Where("account_id = ?", "ACC-OLD").Count(&oldCount).Error)
	require.Zero(t, oldCount)
}

func TestRunIsRepeatable(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFakeClock(time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC))
	svc, gdb := newTestService(t, clk)
	seedScenario(t, gdb)

	first, err := svc.Run(ctx)
	require.NoError(t, err)
	second, err := svc.Run(ctx)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	type resultKey struct {
		AccountID    string
		MonthlyTotal float64
		OrderCount   int
	}
	load := func(runID interface{}) []resultKey {
		var rows []domain.ResultRecord
		require.NoError(t, gdb.Where("run_id = ?", runID).Order("account_id").Find(&rows).Error)
		out := make([]resultKey, 0, len(rows))
		for _, r := range rows {
			out = append(out, resultKey{r.AccountID, r.MonthlyTotal, r.OrderCount})
		}
		return out
	}

	require.Equal(t, load(first.ID), load(second.ID))

	var heldFirst, heldSecond []domain.HeldRecord
	require.NoError(t, gdb.Where("run_id = ?", first.ID).Order("account_id").Find(&heldFirst).Error)
	require.NoError(t, gdb.Where("run_id = ?", second.ID).Order("account_id").Find(&heldSecond).Error)
	require.Equal(t, len(heldFirst), len(heldSecond))
	for i := range heldFirst {
		require.Equal(t, heldFirst[i].HoldReason, heldSecond[i].HoldReason)
		require.True(t, heldFirst[i].HoldTimestamp.Equal(heldSecond[i].HoldTimestamp))
	}
}

func TestRunEmptyDataset(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFakeClock(time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clk)

	run, err := svc.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.RunStatusSucceeded, run.Status)
	require.Nil(t, run.LatestMonth)
	require.Zero(t, run.ResultCount)
	require.Zero(t, run.HeldCount)
	require.Zero(t, run.RAGCount)
}

func TestGetRun(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFakeClock(time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clk)

	run, err := svc.Run(ctx)
	require.NoError(t, err)

	got, err := svc.GetRun(ctx, run.ID.String())
	require.NoError(t, err)
	require.Equal(t, run.ID, got.ID)

	_, err = svc.GetRun(ctx, "not-a-snowflake")
	require.ErrorIs(t, err, domain.ErrInvalidRunID)

	_, err = svc.GetRun(ctx, "12345")
	require.ErrorIs(t, err, domain.ErrRunNotFound)
}

func TestHoldTimestampFollowsClock(t *testing.T) {
	ctx := context.Background()
	firstEval := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	secondEval := time.Date(2024, 4, 2, 9, 30, 0, 0, time.UTC)

	clk := clock.NewFakeClock(firstEval)
	svc, gdb := newTestService(t, clk)
	seedScenario(t, gdb)

	first, err := svc.Run(ctx)
	require.NoError(t, err)

	clk.Set(secondEval)
	second, err := svc.Run(ctx)
	require.NoError(t, err)

	var held []domain.HeldRecord
	require.NoError(t, gdb.Where("run_id = ?", first.ID).Find(&held).Error)
	require.NotEmpty(t, held)
	for _, h := range held {
		require.True(t, h.HoldTimestamp.Equal(firstEval))
	}

	held = nil
	require.NoError(t, gdb.Where("run_id = ?", second.ID).Find(&held).Error)
	require.NotEmpty(t, held)
	for _, h := range held {
		require.True(t, h.HoldTimestamp.Equal(secondEval))
	}
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFakeClock(time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, clk)

	first, err := svc.Run(ctx)
	require.NoError(t, err)
	second, err := svc.Run(ctx)
	require.NoError(t, err)

	runs, err := svc.ListRuns(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, second.ID, runs[0].ID)
	require.Equal(t, first.ID, runs[1].ID)
}
