// Package storage opens the configured database and builds every repository
// on top of it.
package storage

import (
	"context"

	"github.com/MikeMC777/storefront/internal/account"
	"github.com/MikeMC777/storefront/internal/catalog"
	"github.com/MikeMC777/storefront/internal/config"
	"github.com/MikeMC777/storefront/internal/db"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/visits"
)

type Stores struct {
	Items    catalog.Repository
	Orders   order.Store
	Accounts account.Repository
	Visits   visits.Counter

	Ping  func(ctx context.Context) error
	Close func()
}

// Open connects with cfg.DBDriver and applies pending migrations.
func Open(ctx context.Context, cfg config.Config) (*Stores, error) {
	if cfg.DBDriver == config.DriverPostgres {
		pool, err := db.OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := db.MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return &Stores{
			Items:    catalog.NewPGRepo(pool),
			Orders:   order.NewPGRepo(pool),
			Accounts: account.NewPGRepo(pool),
			Visits:   visits.NewPGRepo(pool),
			Ping:     pool.Ping,
			Close:    pool.Close,
		}, nil
	}

	conn, err := db.OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	if err := db.MigrateSQLite(ctx, conn); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Stores{
		Items:    catalog.NewLiteRepo(conn),
		Orders:   order.NewLiteRepo(conn),
		Accounts: account.NewLiteRepo(conn),
		Visits:   visits.NewLiteRepo(conn),
		Ping:     conn.PingContext,
		Close:    func() { _ = conn.Close() },
	}, nil
}
