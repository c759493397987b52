// Package migration keeps the database schema aligned with the domain
// models at startup.
package migration

import (
	accountdomain "github.com/smallbiznis/orderpulse/internal/account/domain"
	orderdomain "github.com/smallbiznis/orderpulse/internal/order/domain"
	profiledomain "github.com/smallbiznis/orderpulse/internal/orderprofile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migration",
	fx.Invoke(AutoMigrate),
)

func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running schema migration")
	return db.AutoMigrate(
		&accountdomain.Account{},
		&orderdomain.Order{},
		&orderdomain.Transaction{},
		&profiledomain.PipelineRun{},
		&profiledomain.ResultRecord{},
		&profiledomain.HeldRecord{},
		&profiledomain.RAGRecord{},
	)
}
