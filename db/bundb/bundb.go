package bundb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	contestdb "github.com/code-arena-club/arena-backend/app/modules/contest/infrastructure/repositories"
	leaderboarddb "github.com/code-arena-club/arena-backend/app/modules/leaderboard/infrastructure/repositories"
	"github.com/code-arena-club/arena-backend/config"
)

// DBService bundles the module repositories over one bun connection pool.
type DBService struct {
	ContestDB     *contestdb.ContestDBImpl
	LeaderboardDB *leaderboarddb.LeaderboardDBImpl
	db            *bun.DB
}

// GetDB returns the underlying database connection pool.
func (dbService *DBService) GetDB() *bun.DB {
	return dbService.db
}

// Close releases the connection pool.
func (dbService *DBService) Close() error {
	return dbService.db.Close()
}

// NewBunDBService initializes a new DBService with the provided Postgres configuration.
func NewBunDBService(ctx context.Context, cfg config.PostgresConfig) (*DBService, error) {
	sqldb, err := pgConn(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := bunDB(sqldb)

	dbService := &DBService{
		ContestDB:     &contestdb.ContestDBImpl{DB: db},
		LeaderboardDB: &leaderboarddb.LeaderboardDBImpl{DB: db},
		db:            db,
	}

	db.RegisterModel(&contestdb.Contest{})
	db.RegisterModel(&leaderboarddb.SettledLeaderboard{})

	return dbService, nil
}

// bunDB returns a new bun.DB for given sql.DB connection pool.
func bunDB(sqldb *sql.DB) *bun.DB {
	return bun.NewDB(sqldb, pgdialect.New())
}

func pgConn(ctx context.Context, dsn string) (*sql.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	if err := sqldb.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return sqldb, nil
}
