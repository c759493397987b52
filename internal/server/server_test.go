package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/orderpulse/internal/clock"
	"github.com/smallbiznis/orderpulse/internal/config"
	ingestservice "github.com/smallbiznis/orderpulse/internal/ingest/service"
	"github.com/smallbiznis/orderpulse/internal/migration"
	"github.com/smallbiznis/orderpulse/internal/observability"
	profileservice "github.com/smallbiznis/orderpulse/internal/orderprofile/service"
	reportservice "github.com/smallbiznis/orderpulse/internal/report/service"
	"github.com/smallbiznis/orderpulse/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, migration.AutoMigrate(gdb, zap.NewNop()))

	dir := t.TempDir()
	writeFile(t, dir, "accounts.csv", `account_id,customer_name,order_limit,created_date,status
ACC-1,Acme Corp,10,2023-01-01,ACTIVE
ACC-2,,5,,ACTIVE
`)
	writeFile(t, dir, "orders.csv", `order_id,account_id,order_date,total_amount,product_count,status
ORD-1,ACC-1,2024-02-01,100,1,COMPLETED
ORD-2,ACC-1,2024-03-01,180,2,COMPLETED
ORD-3,ACC-2,2024-03-02,40,1,COMPLETED
`)
	writeFile(t, dir, "transactions.csv", `transaction_id,order_id,amount,transaction_date,status
TXN-1,ORD-2,180,2024-03-02,SUCCESS
`)

	cfg := config.Config{
		HTTPAddr: ":0",
		Data: config.DataConfig{
			AccountsPath:     filepath.Join(dir, "accounts.csv"),
			OrdersPath:       filepath.Join(dir, "orders.csv"),
			TransactionsPath: filepath.Join(dir, "transactions.csv"),
		},
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	ingestSvc := ingestservice.NewService(ingestservice.ServiceParam{
		DB:     gdb,
		Log:    zap.NewNop(),
		Config: cfg,
	})
	profileSvc := profileservice.NewService(profileservice.ServiceParam{
		DB:    gdb,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)),
		Risk:  config.NewStaticRiskConfigHolder(config.DefaultRiskConfig()),
	})
	reportSvc := reportservice.NewService(reportservice.ServiceParam{
		DB:  gdb,
		Log: zap.NewNop(),
	})

	return NewServer(ServerParams{
		Gin:        NewEngine(observability.Config{}),
		Cfg:        cfg,
		IngestSvc:  ingestSvc,
		ProfileSvc: profileSvc,
		ReportSvc:  reportSvc,
	})
}

func do(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestReportsBeforeAnyRun(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/api/v1/reports/latest/results")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIngestRunReportFlow(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/ingest")
	require.Equal(t, http.StatusOK, rec.Code)

	var ingested struct {
		Loaded struct {
			Accounts     int `json:"accounts"`
			Orders       int `json:"orders"`
			Transactions int `json:"transactions"`
		} `json:"loaded"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ingested))
	require.Equal(t, 2, ingested.Loaded.Accounts)
	require.Equal(t, 3, ingested.Loaded.Orders)

	rec = do(t, s, http.MethodPost, "/api/v1/runs")
	require.Equal(t, http.StatusCreated, rec.Code)

	var run struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		ResultCount int    `json:"result_count"`
		HeldCount   int    `json:"held_count"`
		RAGCount    int    `json:"rag_count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &run))
	require.Equal(t, "SUCCEEDED", run.Status)
	require.Equal(t, 1, run.ResultCount)
	require.Equal(t, 1, run.HeldCount)
	require.Equal(t, 1, run.RAGCount)

	rec = do(t, s, http.MethodGet, "/api/v1/runs/"+run.ID)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/runs")
	require.Equal(t, http.StatusOK, rec.Code)

	var runs struct {
		Runs []struct {
			ID string `json:"id"`
		} `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &runs))
	require.Len(t, runs.Runs, 1)
	require.Equal(t, run.ID, runs.Runs[0].ID)

	rec = do(t, s, http.MethodGet, "/api/v1/reports/latest/results")
	require.Equal(t, http.StatusOK, rec.Code)

	var results struct {
		Records []struct {
			AccountID    string  `json:"account_id"`
			MonthlyTotal float64 `json:"monthly_total"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results.Records, 1)
	require.Equal(t, "ACC-1", results.Records[0].AccountID)
	require.Equal(t, 180.0, results.Records[0].MonthlyTotal)

	rec = do(t, s, http.MethodGet, "/api/v1/reports/latest/held")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/reports/latest/rag")
	require.Equal(t, http.StatusOK, rec.Code)

	var rag struct {
		Records []struct {
			AccountID        string   `json:"account_id"`
			RAGStatus        string   `json:"rag_status"`
			PercentageChange *float64 `json:"percentage_change"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rag))
	require.Len(t, rag.Records, 1)
	require.Equal(t, "ACC-1", rag.Records[0].AccountID)
	require.Equal(t, "RED", rag.Records[0].RAGStatus)
	require.Equal(t, 80.0, *rag.Records[0].PercentageChange)

	rec = do(t, s, http.MethodGet, "/api/v1/reports/latest/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/reports/latest/risk")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/reports/latest/scores")
	require.Equal(t, http.StatusOK, rec.Code)

	var scores struct {
		Records []struct {
			AccountID        string `json:"account_id"`
			RiskScore        int    `json:"risk_score"`
			RiskCategory     string `json:"risk_category"`
			ValidationFailed bool   `json:"validation_failed"`
		} `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &scores))
	require.Len(t, scores.Records, 2)
	require.Equal(t, "ACC-2", scores.Records[0].AccountID)
	require.Equal(t, 10, scores.Records[0].RiskScore)
	require.Equal(t, "LOW_RISK", scores.Records[0].RiskCategory)
	require.True(t, scores.Records[0].ValidationFailed)
	require.Equal(t, "ACC-1", scores.Records[1].AccountID)
	require.Equal(t, 0, scores.Records[1].RiskScore)

	rec = do(t, s, http.MethodGet, "/api/v1/reports/latest/customers")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetRunErrors(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/runs/not-a-run-id")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/runs/12345")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
