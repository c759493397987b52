package service

import (
	"context"

	"github.com/google/uuid"
	accountdomain "github.com/smallbiznis/orderpulse/internal/account/domain"
	"github.com/smallbiznis/orderpulse/internal/config"
	"github.com/smallbiznis/orderpulse/internal/ingest/domain"
	obsmetrics "github.com/smallbiznis/orderpulse/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/orderpulse/internal/order/domain"
	"github.com/smallbiznis/orderpulse/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	cfg     config.Config
	metrics *obsmetrics.Metrics

	accountRepo     repository.Repository[accountdomain.Account]
	orderRepo       repository.Repository[orderdomain.Order]
	transactionRepo repository.Repository[orderdomain.Transaction]
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Config  config.Config
	Metrics *obsmetrics.Metrics `optional:"true"`
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("ingest.service"),
		cfg:     p.Config,
		metrics: p.Metrics,

		accountRepo:     repository.ProvideStore[accountdomain.Account](p.DB),
		orderRepo:       repository.ProvideStore[orderdomain.Order](p.DB),
		transactionRepo: repository.ProvideStore[orderdomain.Transaction](p.DB),
	}
}

// LoadAll parses the three configured CSV snapshots and swaps the
// input tables in one transaction. A load replaces, never appends: the
// tables always mirror exactly one snapshot.
func (s *Service) LoadAll(ctx context.Context) (*domain.Stats, error) {
	log := s.log.With(zap.String("load_id", uuid.NewString()))

	accounts, err := s.readAccounts(s.cfg.Data.AccountsPath)
	if err != nil {
		log.Error("failed to read accounts", zap.String("path", s.cfg.Data.AccountsPath), zap.Error(err))
		return nil, err
	}
	orders, err := s.readOrders(s.cfg.Data.OrdersPath)
	if err != nil {
		log.Error("failed to read orders", zap.String("path", s.cfg.Data.OrdersPath), zap.Error(err))
		return nil, err
	}
	transactions, err := s.readTransactions(s.cfg.Data.TransactionsPath)
	if err != nil {
		log.Error("failed to read transactions", zap.String("path", s.cfg.Data.TransactionsPath), zap.Error(err))
		return nil, err
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []interface{}{
			&orderdomain.Transaction{},
			&orderdomain.Order{},
			&accountdomain.Account{},
		} {
			if err := tx.Where("1 = 1").Delete(model).Error; err != nil {
				return err
			}
		}

		if len(accounts) > 0 {
			if err := tx.Create(&accounts).Error; err != nil {
				return err
			}
		}
		if len(orders) > 0 {
			if err := tx.Create(&orders).Error; err != nil {
				return err
			}
		}
		if len(transactions) > 0 {
			if err := tx.Create(&transactions).Error; err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		log.Error("failed to replace input tables", zap.Error(err))
		return nil, err
	}

	s.metrics.AddIngested(ctx, "accounts", len(accounts))
	s.metrics.AddIngested(ctx, "orders", len(orders))
	s.metrics.AddIngested(ctx, "transactions", len(transactions))

	// report what the tables actually hold after the swap
	accountCount, err := s.accountRepo.Count(ctx, &accountdomain.Account{})
	if err != nil {
		return nil, err
	}
	orderCount, err := s.orderRepo.Count(ctx, &orderdomain.Order{})
	if err != nil {
		return nil, err
	}
	transactionCount, err := s.transactionRepo.Count(ctx, &orderdomain.Transaction{})
	if err != nil {
		return nil, err
	}

	stats := &domain.Stats{
		Accounts:     int(accountCount),
		Orders:       int(orderCount),
		Transactions: int(transactionCount),
	}
	log.Info("input tables replaced",
		zap.Int("accounts", stats.Accounts),
		zap.Int("orders", stats.Orders),
		zap.Int("transactions", stats.Transactions),
	)
	return stats, nil
}

func (s *Service) readAccounts(path string) ([]accountdomain.Account, error) {
	var out []accountdomain.Account
	err := readCSV(path, func(r row) error {
		accountID, err := r.require("account_id")
		if err != nil {
			return err
		}
		// a blank limit stays zero, which the pipeline treats as missing
		limit, err := r.int("order_limit")
		if err != nil {
			return err
		}
		created, err := r.date("created_date")
		if err != nil {
			return err
		}

		acc := accountdomain.Account{
			AccountID:    accountID,
			CustomerName: r.get("customer_name"),
			OrderLimit:   limit,
			Status:       r.get("status"),
		}
		if !created.IsZero() {
			acc.CreatedDate = &created
		}
		out = append(out, acc)
		return nil
	})
	return out, err
}

func (s *Service) readOrders(path string) ([]orderdomain.Order, error) {
	var out []orderdomain.Order
	err := readCSV(path, func(r row) error {
		orderID, err := r.require("order_id")
		if err != nil {
			return err
		}
		orderDate, err := r.date("order_date")
		if err != nil {
			return err
		}
		total, err := r.float("total_amount")
		if err != nil {
			return err
		}
		count, err := r.int("product_count")
		if err != nil {
			return err
		}

		// account_id stays blank when the feed omits it: validation
		// reports those rows downstream
		out = append(out, orderdomain.Order{
			OrderID:      orderID,
			AccountID:    r.get("account_id"),
			OrderDate:    orderDate,
			TotalAmount:  total,
			ProductCount: count,
			Status:       r.get("status"),
		})
		return nil
	})
	return out, err
}

func (s *Service) readTransactions(path string) ([]orderdomain.Transaction, error) {
	var out []orderdomain.Transaction
	err := readCSV(path, func(r row) error {
		txnID, err := r.require("transaction_id")
		if err != nil {
			return err
		}
		orderID, err := r.require("order_id")
		if err != nil {
			return err
		}
		amount, err := r.float("amount")
		if err != nil {
			return err
		}
		txnDate, err := r.date("transaction_date")
		if err != nil {
			return err
		}

		out = append(out, orderdomain.Transaction{
			TransactionID:   txnID,
			OrderID:         orderID,
			Amount:          amount,
			TransactionDate: txnDate,
			Status:          r.get("status"),
		})
		return nil
	})
	return out, err
}
